package opentui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/xo/terminfo"
)

// Capabilities records what the connected terminal supports, negotiated
// once at startup and treated as read-only afterward (spec §4.8
// "downgrade gracefully" — the presenter consults this on every style
// emission rather than re-probing per frame).
type Capabilities struct {
	IsTTY        bool
	ColorMode    ColorMode // best mode the terminal supports
	Mouse        bool
	BracketPaste bool
	FocusEvents  bool
	Hyperlinks   bool
	SyncOutput   bool // DEC 2026 synchronized-output mode
}

// downgradeLadder orders color modes from best to worst so a probe
// failure at one step falls back to the next (spec §4.8). ColorMode's
// own enum values aren't rank-ordered (ColorModeDefault is 0 but isn't
// "better" than RGB), so every quality comparison goes through
// colorModeRank, derived from this ladder, rather than comparing
// ColorMode values directly.
var downgradeLadder = []ColorMode{ColorModeRGB, ColorMode256, ColorMode16, ColorModeDefault}

// colorModeRank returns m's position on downgradeLadder as a quality
// score, highest for ColorModeRGB, lowest for ColorModeDefault.
func colorModeRank(m ColorMode) int {
	for i, mode := range downgradeLadder {
		if mode == m {
			return len(downgradeLadder) - i
		}
	}
	return 0
}

// NegotiateCapabilities probes the terminal at fd/w for color and
// feature support. When w is not a TTY (isatty.IsTerminal fails), it
// skips the interactive DA1/DA2 round-trip entirely and falls back to
// termenv's environment-based profile detection, matching how
// non-interactive output (pipes, CI logs) is handled across the
// pack's terminal-facing examples.
//
// reply, if non-nil, is fed one round of already-parsed input events
// (typically the same Parser driving the frame loop) collected within
// timeout of writing the probe; a DA reply capability event upgrades
// ColorMode to truecolor, since a terminal answering DA at all almost
// always also supports SGR 38;2 in practice. This is a pragmatic
// heuristic, not a literal parse of the DA payload — the fastest exit
// this module can offer of the deeper per-parameter capability
// database that a full VT100 conformance table would require.
func NegotiateCapabilities(fd int, w io.Writer, parser *Parser, reply io.Reader, timeout time.Duration) Capabilities {
	caps := Capabilities{IsTTY: isatty.IsTerminal(uintptr(fd)) || isatty.IsCygwinTerminal(uintptr(fd))}

	profile := termenvProfile()
	caps.ColorMode = fromTermenvProfile(profile)

	if term, err := terminfo.LoadFromEnv(); err == nil {
		if term.Bools[terminfo.BackColorErase] || term.Nums[terminfo.MaxColors] >= 256 {
			if colorModeRank(caps.ColorMode) < colorModeRank(ColorMode256) {
				caps.ColorMode = ColorMode256
			}
		}
	}

	if !caps.IsTTY {
		return caps
	}

	caps.Mouse = true
	caps.BracketPaste = true
	caps.FocusEvents = true
	caps.Hyperlinks = true
	caps.SyncOutput = true

	if parser == nil || reply == nil {
		return caps
	}

	fmt.Fprint(w, "\x1b[c") // DA1 query

	done := make(chan struct{})
	var upgraded bool
	go func() {
		buf := make([]byte, 64)
		n, err := reply.Read(buf)
		if err == nil {
			for _, ev := range parser.Feed(buf[:n]) {
				if ev.Kind == InputCapability {
					upgraded = true
				}
			}
		}
		close(done)
	}()

	select {
	case <-done:
		if upgraded && colorModeRank(caps.ColorMode) < colorModeRank(ColorModeRGB) {
			caps.ColorMode = ColorModeRGB
		}
	case <-time.After(timeout):
	}

	return caps
}

func termenvProfile() termenv.Profile {
	if os.Getenv("TERM") == "dumb" {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

func fromTermenvProfile(p termenv.Profile) ColorMode {
	switch p {
	case termenv.TrueColor:
		return ColorModeRGB
	case termenv.ANSI256:
		return ColorMode256
	case termenv.ANSI:
		return ColorMode16
	default:
		return ColorModeDefault
	}
}

// Downgrade clamps c to the best mode caps supports, converting via
// color.go's Lab-space nearest search (ANSI256/ANSI16) when the
// negotiated mode ranks below the color's own mode.
func (caps Capabilities) Downgrade(c Color) Color {
	if c.Mode == ColorModeDefault || colorModeRank(c.Mode) <= colorModeRank(caps.ColorMode) {
		return c
	}
	switch caps.ColorMode {
	case ColorMode256:
		return Color{RGBA: c.RGBA, Mode: ColorMode256, Index: ANSI256(c.RGBA)}
	case ColorMode16:
		return Color{RGBA: c.RGBA, Mode: ColorMode16, Index: ANSI16(c.RGBA)}
	default:
		return DefaultColor()
	}
}

// DowngradeStyle applies Downgrade to both the foreground and background
// of style.
func (caps Capabilities) DowngradeStyle(style Style) Style {
	style.FG = caps.Downgrade(style.FG)
	style.BG = caps.Downgrade(style.BG)
	if !caps.Hyperlinks {
		style.Link = ""
	}
	return style
}
