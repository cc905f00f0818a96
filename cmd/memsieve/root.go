package main

import (
	"github.com/spf13/cobra"

	"memsieve/config"
	"memsieve/debuglog"
	"memsieve/hexdump"
)

// globals are the persistent flags shared by every subcommand
type globals struct {
	configPath string
	debug      bool
	noColor    bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "memsieve",
		Short: "Inspect memory regions and hook stubs of live processes",
		Long: `memsieve snapshots a region of another process, checks whether a mapped
region still matches the file behind it, and decodes hook stubs to find
where they redirect execution.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "memsieve.yaml", "Path to the YAML config file")
	flags.BoolVar(&g.debug, "debug", false, "Print diagnostics from snapshots and the analyzer")
	flags.BoolVar(&g.noColor, "no-color", false, "Disable colored hexdumps")

	rootCmd.AddCommand(newRegionCmd(g))
	rootCmd.AddCommand(newHookCmd(g))

	return rootCmd
}

// load reads the config file and applies the flags that were set explicitly
func (g *globals) load(cmd *cobra.Command) error {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.Debug = g.debug
	}
	if g.noColor {
		cfg.Hexdump.Color = false
	}

	g.cfg = cfg
	return nil
}

func (g *globals) logger(name string) debuglog.Logger {
	if !g.cfg.Debug {
		return debuglog.Discard()
	}
	return debuglog.New(name)
}

func (g *globals) dumpOptions(highlight []hexdump.Span) hexdump.Options {
	return hexdump.Options{
		BytesPerLine: g.cfg.Hexdump.BytesPerLine,
		MaxLines:     g.cfg.Hexdump.MaxLines,
		Color:        g.cfg.Hexdump.Color,
		Highlight:    highlight,
	}
}
