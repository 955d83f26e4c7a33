// Command opentui is the optional CLI surface named in spec §6: the
// renderer itself is a library, and this binary exists only to expose
// its startup flags and drive the frame loop against stdin/stdout.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"opentui"
)

func main() {
	cfg := opentui.DefaultConfig()
	var eastAsian string

	root := &cobra.Command{
		Use:   "opentui",
		Short: "Run an OpenTUI application",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch eastAsian {
			case "wide":
				cfg.EastAsian = opentui.EastAsianAmbiguousWide
			case "narrow", "":
				cfg.EastAsian = opentui.EastAsianNarrow
			default:
				return fmt.Errorf("--east-asian-ambiguous must be narrow or wide, got %q", eastAsian)
			}
			return run(cfg)
		},
	}

	flags := root.Flags()
	flags.IntVar(&cfg.TargetFPS, "fps", cfg.TargetFPS, "target frames per second")
	flags.BoolVar(&cfg.NoAltScreen, "no-alt-screen", false, "render inline instead of taking over the screen")
	flags.StringVar(&eastAsian, "east-asian-ambiguous", "narrow", "ambiguous-width East Asian glyphs: narrow or wide")
	flags.BoolVar(&cfg.NoMouse, "no-mouse", false, "disable mouse reporting")
	flags.BoolVar(&cfg.NoHyperlink, "no-hyperlink", false, "disable OSC 8 hyperlink emission")
	flags.StringVar(&cfg.PaletteFile, "palette-file", "", "TOML file of named color overrides")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run wires a presenter, capability handshake, and frame loop over an
// empty root node and blocks until the loop stops or a panic is
// recovered — exit code 1 on an unhandled panic after terminal modes
// are restored, 0 on a clean stop (spec §6).
func run(cfg opentui.Config) (runErr error) {
	if cfg.PaletteFile != "" {
		if err := opentui.LoadPaletteTOML(cfg.PaletteFile); err != nil {
			return err
		}
	}

	presenter, err := opentui.NewPresenter(os.Stdout)
	if err != nil {
		return err
	}

	caps := opentui.NegotiateCapabilities(int(os.Stdout.Fd()), os.Stdout, nil, nil, 0)
	presenter.SetCapabilities(opentui.ApplyConfig(cfg, caps))
	presenter.SetAltScreen(!cfg.NoAltScreen)

	release, err := presenter.Acquire()
	if err != nil {
		return err
	}

	defer func() {
		release()
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n", r)
			os.Exit(1)
		}
	}()

	root := opentui.NewBox("root")
	root.Layout.Width = presenter.Width()
	root.Layout.Height = presenter.Height()

	loop := opentui.NewFrameLoop(root, presenter, os.Stdin, cfg.TargetFPS)
	return loop.Run()
}
