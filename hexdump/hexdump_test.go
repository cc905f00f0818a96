package hexdump

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plain(bytesPerLine int) Options {
	return Options{BytesPerLine: bytesPerLine}
}

func TestDumpFullLine(t *testing.T) {
	out := Dump([]byte("ABCDEFGH"), 0x2000, plain(8))
	assert.Equal(t, "0000000000002000  41 42 43 44 | 45 46 47 48 | ABCDEFGH\n", out)
}

func TestDumpShortLineIsPadded(t *testing.T) {
	opts := plain(8)
	opts.Highlight = []Span{{Start: 0x1001, End: 0x1002}}

	out := Dump([]byte{0x41, 0x42, 0x00, 0x90}, 0x1000, opts)
	want := "0000000000001000  41 42*00 90 " + strings.Repeat(" ", 14) + "| AB..\n"
	assert.Equal(t, want, out)

	full := Dump([]byte("ABCDEFGH"), 0x1000, plain(8))
	assert.Equal(t, len(full), len(out)+4)
}

func TestDumpMaxLines(t *testing.T) {
	opts := plain(16)
	opts.MaxLines = 1

	out := Dump(make([]byte, 40), 0, opts)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "0000000000000000  00 00"))
	assert.Equal(t, "... 24 more bytes", lines[1])
}

func TestDumpAddressesAdvance(t *testing.T) {
	out := Dump(make([]byte, 20), 0x7ff000, plain(16))
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "00000000007ff010  "))
}

func TestDumpColorHighlight(t *testing.T) {
	data := []byte{0xEB, 0x05, 0x90}
	opts := DefaultOptions()
	opts.Highlight = []Span{{Start: 0x1000, End: 0x1002}}

	colored := Dump(data, 0x1000, opts)
	opts.Color = false
	uncolored := Dump(data, 0x1000, opts)

	assert.NotEqual(t, colored, uncolored)
	assert.Contains(t, uncolored, "eb*05*90 ")
}

func TestDiffSpans(t *testing.T) {
	live := []byte{1, 2, 9, 9, 5, 6, 9, 8, 7}
	disk := []byte{1, 2, 3, 4, 5, 6, 7}

	spans := DiffSpans(live, disk, 0x400000)
	assert.Equal(t, []Span{
		{Start: 0x400002, End: 0x400004},
		{Start: 0x400006, End: 0x400007},
	}, spans)

	assert.Empty(t, DiffSpans(disk, disk, 0))
	assert.Empty(t, DiffSpans(nil, disk, 0))
}
