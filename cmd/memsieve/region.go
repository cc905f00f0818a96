package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	psutil "github.com/shirou/gopsutil/v4/process"
	"github.com/spf13/cobra"
	"golang.org/x/exp/mmap"

	"memsieve/hexdump"
	"memsieve/process"
	"memsieve/region"
)

type regionOptions struct {
	pid          int
	addr         uint64
	stop         uint64
	dump         bool
	checkMapping bool
	out          string
}

func newRegionCmd(g *globals) *cobra.Command {
	opts := &regionOptions{}

	cmd := &cobra.Command{
		Use:   "region",
		Short: "Snapshot the memory region containing an address",
		Example: `  memsieve region --pid 1234 --addr 0x7f1c2a000000 --dump
  memsieve region --pid 1234 --addr 7f1c2a001000 --check-mapping`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("check-mapping") {
				g.cfg.Region.CheckMapping = opts.checkMapping
			}
			return runRegion(cmd.OutOrStdout(), g, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.pid, "pid", 0, "Process ID to inspect")
	addrFlag(flags, &opts.addr, "addr", "Address inside the region (hex)")
	addrFlag(flags, &opts.stop, "stop", "Stop capturing at this address (hex, exclusive)")
	flags.BoolVar(&opts.dump, "dump", false, "Print a hexdump of the captured bytes")
	flags.BoolVar(&opts.checkMapping, "check-mapping", false, "Compare the region with its backing file")
	flags.StringVar(&opts.out, "out", "", "Write the captured bytes to this file")
	_ = cmd.MarkFlagRequired("pid")
	_ = cmd.MarkFlagRequired("addr")

	return cmd
}

func runRegion(w io.Writer, g *globals, opts *regionOptions) error {
	if opts.pid <= 0 {
		return fmt.Errorf("invalid pid %d", opts.pid)
	}

	// fail early with a readable error when the pid does not exist
	ps, err := psutil.NewProcess(int32(opts.pid))
	if err != nil {
		return fmt.Errorf("process %d: %w", opts.pid, err)
	}
	name, err := ps.Name()
	if err != nil {
		name = "?"
	}

	proc, err := openProcess(process.ProcessID(opts.pid))
	if err != nil {
		return fmt.Errorf("failed to open process %d: %w", opts.pid, err)
	}
	defer proc.Close()

	snapOpts := []region.Option{region.WithLogger(g.logger(fmt.Sprintf("region-%d", opts.pid)))}
	if opts.stop != 0 {
		snapOpts = append(snapOpts, region.WithStop(process.ProcessMemoryAddress(opts.stop)))
	}
	snap := region.New(proc, process.ProcessMemoryAddress(opts.addr), snapOpts...)
	defer snap.Close()

	if err := snap.FillInfo(); err != nil {
		return err
	}

	fmt.Fprintf(w, "process:     %d (%s)\n", opts.pid, name)
	fmt.Fprintf(w, "region:      %s-%s\n", snap.RegionStart().ToString(), snap.RegionEnd().ToString())
	fmt.Fprintf(w, "allocation:  %s\n", snap.AllocationBase().ToString())
	fmt.Fprintf(w, "protection:  %s (initial %s)\n", snap.Protection(), snap.InitialProtection())
	fmt.Fprintf(w, "type:        %s\n", snap.MappingType())

	if err := snap.LoadModuleName(); err == nil {
		fmt.Fprintf(w, "module:      %s\n", snap.ModuleName())
	}
	if err := snap.LoadMappedName(); err == nil {
		fmt.Fprintf(w, "mapped:      %s\n", snap.MappedName())
	}

	if err := snap.LoadRemoteCopy(); err != nil {
		return err
	}
	fmt.Fprintf(w, "captured:    %s, read %s\n", snap.LoadedSize().ToString(), snap.BytesRead().ToString())
	fmt.Fprintf(w, "xxh3:        %016x\n", snap.Digest())

	var highlight []hexdump.Span
	if g.cfg.Region.CheckMapping {
		spans, err := checkMapping(w, snap)
		if err != nil {
			return err
		}
		highlight = spans
	}

	if opts.out != "" {
		if err := os.WriteFile(opts.out, snap.Data()[:snap.BytesRead()], 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", opts.out, err)
		}
		fmt.Fprintf(w, "saved:       %s\n", opts.out)
	}

	if opts.dump {
		fmt.Fprintln(w)
		hexdump.DumpToWriter(w, snap.Data()[:snap.BytesRead()], uint64(snap.StartVA()), g.dumpOptions(highlight))
	}
	return nil
}

// checkMapping reports whether the region matches its backing file and
// returns the differing spans for the hexdump
func checkMapping(w io.Writer, snap *region.Snapshot) ([]hexdump.Span, error) {
	isReal, err := snap.IsRealMapping()
	switch {
	case errors.Is(err, region.ErrNameResolution), errors.Is(err, region.ErrBackingFileUnavailable):
		fmt.Fprintf(w, "mapping:     no backing file (%v)\n", err)
		return nil, nil
	case errors.Is(err, region.ErrMappingFailure):
		fmt.Fprintf(w, "mapping:     backing file cannot be mapped (%v)\n", err)
		return nil, nil
	case err != nil:
		return nil, err
	case isReal:
		fmt.Fprintln(w, "mapping:     matches backing file")
		return nil, nil
	}

	view, err := mmap.Open(snap.MappedName())
	if err != nil {
		return nil, fmt.Errorf("failed to map %s: %w", snap.MappedName(), err)
	}
	defer view.Close()

	live := snap.Data()[:snap.BytesRead()]
	disk := make([]byte, min(len(live), view.Len()))
	if _, err := view.ReadAt(disk, 0); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read %s: %w", snap.MappedName(), err)
	}

	spans := hexdump.DiffSpans(live, disk, uint64(snap.StartVA()))
	fmt.Fprintf(w, "mapping:     differs from backing file in %d span(s)\n", len(spans))
	for _, s := range spans {
		fmt.Fprintf(w, "             %x-%x\n", s.Start, s.End)
	}
	return spans, nil
}
