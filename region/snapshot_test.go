package region

import (
	"errors"
	"testing"

	"memsieve/debuglog"
	"memsieve/process"
	"memsieve/process/memory_map"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/xxh3"
)

const (
	testBase     = 0x10000
	testPageSize = 0x1000
)

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i * 7)
	}
	return b
}

// twoRegions maps an image region [0x10000,0x12000) followed by a private one [0x12000,0x13000)
func twoRegions() *fakeTarget {
	return newFakeTarget(testBase, pattern(3*testPageSize),
		memory_map.MemoryMapItem{
			Address:           testBase,
			Size:              2 * testPageSize,
			AllocationBase:    testBase,
			InitialProtection: memory_map.ProtRead | memory_map.ProtWrite | memory_map.ProtExec,
			Protection:        memory_map.ProtRead | memory_map.ProtExec,
			Type:              memory_map.MappingImage,
		},
		memory_map.MemoryMapItem{
			Address:           testBase + 2*testPageSize,
			Size:              testPageSize,
			AllocationBase:    testBase + 2*testPageSize,
			InitialProtection: memory_map.ProtRead | memory_map.ProtWrite,
			Protection:        memory_map.ProtRead | memory_map.ProtWrite | memory_map.ProtGuard,
			Type:              memory_map.MappingPrivate,
		},
	)
}

func TestFillInfo(t *testing.T) {
	target := twoRegions()
	start := process.ProcessMemoryAddress(testBase + 0x123)
	s := New(target, start)
	defer s.Close()

	assert.Equal(t, InfoUnfilled, s.State())
	require.NoError(t, s.FillInfo())

	assert.True(t, s.IsInfoFilled())
	assert.Equal(t, process.ProcessMemoryAddress(testBase), s.RegionStart())
	assert.Equal(t, process.ProcessMemoryAddress(testBase+2*testPageSize), s.RegionEnd())
	assert.Equal(t, uint64(2*testPageSize), uint64(s.RegionEnd()-s.RegionStart()))
	assert.True(t, s.RegionStart() <= start && start < s.RegionEnd())
	assert.Equal(t, process.ProcessMemoryAddress(testBase), s.AllocationBase())
	assert.Equal(t, memory_map.MappingImage, s.MappingType())
	assert.Equal(t, memory_map.ProtRead|memory_map.ProtExec, s.Protection())
	assert.Equal(t, memory_map.ProtRead|memory_map.ProtWrite|memory_map.ProtExec, s.InitialProtection())

	// idempotent
	require.NoError(t, s.FillInfo())
	assert.Equal(t, process.ProcessMemoryAddress(testBase), s.RegionStart())
}

func TestFillInfoNotMapped(t *testing.T) {
	target := twoRegions()
	s := New(target, 0x5000)

	err := s.FillInfo()
	assert.ErrorIs(t, err, ErrRegionQuery)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)
	assert.False(t, s.IsInfoFilled())
}

func TestFillInfoFailureKeepsPreviousMetadata(t *testing.T) {
	target := twoRegions()
	s := New(target, testBase+0x10)
	require.NoError(t, s.FillInfo())
	before, ok := s.Info()
	require.True(t, ok)

	// the region vanished from the target
	target.regions = nil
	assert.ErrorIs(t, s.FillInfo(), ErrRegionQuery)

	after, ok := s.Info()
	assert.True(t, ok)
	assert.Equal(t, before, after)

	target.queryErr = errors.New("query denied")
	assert.ErrorIs(t, s.FillInfo(), ErrRegionQuery)
	after, _ = s.Info()
	assert.Equal(t, before, after)
}

func TestLoadRemoteCopyWholeRegion(t *testing.T) {
	target := twoRegions()
	start := process.ProcessMemoryAddress(testBase + 0x100)
	s := New(target, start)
	defer s.Close()

	require.NoError(t, s.LoadRemoteCopy())

	assert.True(t, s.IsInfoFilled())
	assert.Equal(t, process.ProcessMemorySize(s.RegionEnd()-start), s.LoadedSize())
	assert.Equal(t, s.LoadedSize(), s.BytesRead())
	require.Len(t, s.Data(), int(s.LoadedSize()))
	assert.Equal(t, target.mem[0x100:2*testPageSize], s.Data())
	assert.Equal(t, xxh3.Hash(target.mem[0x100:2*testPageSize]), s.Digest())
}

func TestLoadRemoteCopyStopInsideRegion(t *testing.T) {
	target := twoRegions()
	start := process.ProcessMemoryAddress(testBase + 0x100)
	stop := process.ProcessMemoryAddress(testBase + 0x180)
	s := New(target, start, WithStop(stop))
	defer s.Close()

	require.NoError(t, s.LoadRemoteCopy())
	assert.Equal(t, process.ProcessMemorySize(stop-start), s.LoadedSize())
	assert.Equal(t, target.mem[0x100:0x180], s.Data())
	// metadata bounds are not clamped
	assert.Equal(t, process.ProcessMemoryAddress(testBase+2*testPageSize), s.RegionEnd())
}

func TestLoadRemoteCopyStopOutsideRegion(t *testing.T) {
	for name, stop := range map[string]process.ProcessMemoryAddress{
		"beyond end":   testBase + 3*testPageSize,
		"at end":       testBase + 2*testPageSize,
		"before start": testBase + 0x10,
	} {
		t.Run(name, func(t *testing.T) {
			target := twoRegions()
			start := process.ProcessMemoryAddress(testBase + 0x100)
			s := New(target, start, WithStop(stop))
			defer s.Close()

			require.NoError(t, s.LoadRemoteCopy())
			assert.Equal(t, process.ProcessMemorySize(s.RegionEnd()-start), s.LoadedSize())
		})
	}
}

func TestLoadRemoteCopyStopAtStartIsEmpty(t *testing.T) {
	target := twoRegions()
	start := process.ProcessMemoryAddress(testBase + 0x100)
	s := New(target, start, WithStop(start))

	assert.ErrorIs(t, s.LoadRemoteCopy(), ErrEmptyRegion)
	assert.Nil(t, s.Data())
	assert.Equal(t, 0, target.reads)
}

func TestLoadRemoteCopyNotMapped(t *testing.T) {
	target := twoRegions()
	s := New(target, 0x5000)

	assert.ErrorIs(t, s.LoadRemoteCopy(), ErrRegionQuery)
	assert.Nil(t, s.Data())
}

func TestLoadRemoteCopyGuardedRetriesOnce(t *testing.T) {
	target := twoRegions()
	target.zeroReads = 1
	rec := &debuglog.Recorder{}
	s := New(target, testBase+2*testPageSize, WithLogger(rec))
	defer s.Close()

	require.NoError(t, s.LoadRemoteCopy())
	assert.Equal(t, 2, target.reads)
	assert.Equal(t, process.ProcessMemorySize(testPageSize), s.LoadedSize())
	assert.Equal(t, target.mem[2*testPageSize:], s.Data())
	assert.True(t, rec.Contains("Guarded page"))
}

func TestLoadRemoteCopyGuardedFailsAfterOneRetry(t *testing.T) {
	target := twoRegions()
	target.zeroReads = 5
	s := New(target, testBase+2*testPageSize)

	err := s.LoadRemoteCopy()
	assert.ErrorIs(t, err, ErrSnapshotRead)
	assert.Equal(t, 2, target.reads)
	assert.Nil(t, s.Data())
	assert.Zero(t, s.LoadedSize())
	assert.False(t, s.IsLoaded())
}

func TestLoadRemoteCopyUnguardedDoesNotRetry(t *testing.T) {
	target := twoRegions()
	target.zeroReads = 1
	s := New(target, testBase)

	assert.ErrorIs(t, s.LoadRemoteCopy(), ErrSnapshotRead)
	assert.Equal(t, 1, target.reads)
	assert.Nil(t, s.Data())
}

func TestLoadRemoteCopyPartialReadIsSuccess(t *testing.T) {
	target := twoRegions()
	target.readLimit = 0x10
	s := New(target, testBase)
	defer s.Close()

	require.NoError(t, s.LoadRemoteCopy())
	assert.Equal(t, process.ProcessMemorySize(2*testPageSize), s.LoadedSize())
	assert.Equal(t, process.ProcessMemorySize(0x10), s.BytesRead())
	assert.Len(t, s.Data(), 2*testPageSize)
	assert.Equal(t, target.mem[:0x10], s.Data()[:0x10])
}

func TestLoadRemoteCopyAllocFailure(t *testing.T) {
	target := twoRegions()
	s := New(target, testBase)
	require.NoError(t, s.LoadRemoteCopy())

	s.alloc = func(int) ([]byte, error) { return nil, errors.New("out of memory") }
	assert.ErrorIs(t, s.LoadRemoteCopy(), ErrSnapshotAlloc)
	assert.Nil(t, s.Data())
	assert.Zero(t, s.LoadedSize())
	assert.True(t, s.IsInfoFilled())
}

func TestLoadRemoteCopyReplacesBuffer(t *testing.T) {
	target := twoRegions()
	s := New(target, testBase)

	var freed [][]byte
	s.free = func(buf []byte) error {
		freed = append(freed, buf)
		return freePages(buf)
	}

	require.NoError(t, s.LoadRemoteCopy())
	first := s.Data()

	target.mem[0] ^= 0xFF
	require.NoError(t, s.LoadRemoteCopy())

	require.Len(t, freed, 1)
	assert.Equal(t, len(first), len(freed[0]))
	assert.Equal(t, target.mem[0], s.Data()[0])

	require.NoError(t, s.Close())
	assert.Len(t, freed, 2)
	assert.Nil(t, s.Data())
	// closing twice is harmless
	require.NoError(t, s.Close())
	assert.Len(t, freed, 2)
}

func TestReset(t *testing.T) {
	target := twoRegions()
	target.modules[testBase] = "target.dll"
	s := New(target, testBase)

	require.NoError(t, s.LoadRemoteCopy())
	require.NoError(t, s.LoadModuleName())

	s.Reset()
	assert.False(t, s.IsInfoFilled())
	assert.Nil(t, s.Data())
	assert.Empty(t, s.ModuleName())
	assert.Zero(t, s.Digest())
}

func TestLoadModuleName(t *testing.T) {
	target := twoRegions()
	target.modules[testBase] = "target.dll"

	s := New(target, testBase+0x40)
	assert.ErrorIs(t, s.LoadModuleName(), ErrNameResolution)

	require.NoError(t, s.FillInfo())
	require.NoError(t, s.LoadModuleName())
	assert.Equal(t, "target.dll", s.ModuleName())

	private := New(target, testBase+2*testPageSize)
	require.NoError(t, private.FillInfo())
	assert.ErrorIs(t, private.LoadModuleName(), ErrNameResolution)
	assert.Empty(t, private.ModuleName())
}

func TestLoadMappedNameFillsInfo(t *testing.T) {
	target := twoRegions()
	target.mapped[testBase] = `C:\Windows\System32\target.dll`

	s := New(target, testBase+0x40)
	require.NoError(t, s.LoadMappedName())
	assert.True(t, s.IsInfoFilled())
	assert.Equal(t, `C:\Windows\System32\target.dll`, s.MappedName())

	unmapped := New(target, 0x5000)
	assert.ErrorIs(t, unmapped.LoadMappedName(), ErrRegionQuery)

	private := New(target, testBase+2*testPageSize)
	assert.ErrorIs(t, private.LoadMappedName(), ErrNameResolution)
}
