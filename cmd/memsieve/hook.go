package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"memsieve/analyzer"
	"memsieve/hexdump"
)

type hookOptions struct {
	va   uint64
	is64 bool
}

func newHookCmd(g *globals) *cobra.Command {
	opts := &hookOptions{}

	cmd := &cobra.Command{
		Use:   "hook <hex bytes>...",
		Short: "Decode a hook stub and print where it redirects",
		Example: `  memsieve hook --va 0x1000 eb 05
  memsieve hook --va 0x7ff6a0001000 --x64 48b8 8877665544332211 ffe0`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := parseHexBytes(args)
			if err != nil {
				return err
			}
			return runHook(cmd.OutOrStdout(), g, opts, code)
		},
	}

	flags := cmd.Flags()
	addrFlag(flags, &opts.va, "va", "Address the stub lives at (hex)")
	flags.BoolVar(&opts.is64, "x64", false, "Decode as 64-bit code")

	return cmd
}

func runHook(w io.Writer, g *globals, opts *hookOptions, code []byte) error {
	m := analyzer.Decode(code, opts.va, opts.is64)
	if !m.Recognized() {
		g.logger("hook").Debugln("No idiom at", fmt.Sprintf("%x", opts.va))
		fmt.Fprintln(w, "no known redirection idiom")
		hexdump.DumpToWriter(w, code, opts.va, g.dumpOptions(nil))
		return nil
	}

	fmt.Fprintf(w, "idiom:   %s\n", m.Idiom)
	fmt.Fprintf(w, "length:  %d\n", m.Length)
	fmt.Fprintf(w, "target:  0x%x\n", m.Target)
	fmt.Fprintf(w, "asm:     %s\n\n", m.Disassemble(code, opts.va, opts.is64))

	stub := []hexdump.Span{{Start: opts.va, End: opts.va + uint64(m.Length)}}
	hexdump.DumpToWriter(w, code, opts.va, g.dumpOptions(stub))
	return nil
}
