// Package opentui implements the rendering core of a terminal UI toolkit:
// a double-buffered cell grid, a Unicode-aware text layout subsystem, a
// flexbox scene graph, a diff-based ANSI presenter, and an input
// demultiplexer.
package opentui

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Attribute is a bitset of text rendering attributes.
type Attribute uint16

const (
	AttrNone Attribute = 0
	AttrBold Attribute = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrInverse
	AttrHidden
	AttrStrikethrough
)

// Has reports whether the attribute set contains attr.
func (a Attribute) Has(attr Attribute) bool { return a&attr != 0 }

// With returns a new attribute set with attr added.
func (a Attribute) With(attr Attribute) Attribute { return a | attr }

// Without returns a new attribute set with attr removed.
func (a Attribute) Without(attr Attribute) Attribute { return a &^ attr }

// RGBA is a normalized color with channels in [0,1]. It is the canonical
// in-memory color representation; 24-bit sRGB is only produced when a
// style is emitted.
type RGBA struct {
	R, G, B, A float32
}

// Transparent is the zero-alpha sentinel color.
var Transparent = RGBA{A: 0}

// Opaque builds an opaque color from 8-bit channels.
func Opaque(r, g, b uint8) RGBA {
	return RGBA{R: float32(r) / 255, G: float32(g) / 255, B: float32(b) / 255, A: 1}
}

// Equal compares all four channels exactly.
func (c RGBA) Equal(o RGBA) bool { return c == o }

// RGB8 returns the color quantized to 24-bit sRGB channels.
func (c RGBA) RGB8() (r, g, b uint8) {
	clamp := func(f float32) uint8 {
		if f <= 0 {
			return 0
		}
		if f >= 1 {
			return 255
		}
		return uint8(f*255 + 0.5)
	}
	return clamp(c.R), clamp(c.G), clamp(c.B)
}

// Blend composites src over dst using straight alpha: out = src*a + dst*(1-a).
func Blend(src, dst RGBA) RGBA {
	if src.A <= 0 {
		return dst
	}
	if src.A >= 1 {
		return src
	}
	inv := 1 - src.A
	return RGBA{
		R: src.R*src.A + dst.R*inv,
		G: src.G*src.A + dst.G*inv,
		B: src.B*src.A + dst.B*inv,
		A: src.A + dst.A*inv,
	}
}

// colorful converts to the go-colorful representation used for parsing,
// nearest-palette search, and Lab-space distance during capability
// downgrade (§4.8 "Downgrade gracefully").
func (c RGBA) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}
}

func fromColorful(cc colorful.Color) RGBA {
	return RGBA{R: float32(cc.R), G: float32(cc.G), B: float32(cc.B), A: 1}
}

// ParseColor parses a color from "#RGB", "#RRGGBB", "transparent", or a
// name in the active Palette. It never returns an error for malformed
// input — an unparseable string resolves to opaque black, matching the
// renderer's "never panic on bad input" posture (spec §4.3 contract,
// applied here too).
func ParseColor(s string) RGBA {
	s = strings.TrimSpace(s)
	if s == "" {
		return RGBA{A: 1}
	}
	if strings.EqualFold(s, "transparent") {
		return Transparent
	}
	if strings.HasPrefix(s, "#") {
		if cc, err := colorful.Hex(expandHex(s)); err == nil {
			return fromColorful(cc)
		}
		return RGBA{A: 1}
	}
	if c, ok := DefaultPalette.Lookup(s); ok {
		return c
	}
	return RGBA{A: 1}
}

// expandHex turns "#RGB" into "#RRGGBB" so go-colorful's strict parser
// accepts the shorthand form the spec requires ("#RGB"/"#RRGGBB").
func expandHex(s string) string {
	if len(s) != 4 {
		return s
	}
	var b strings.Builder
	b.WriteByte('#')
	for _, c := range s[1:] {
		b.WriteRune(c)
		b.WriteRune(c)
	}
	return b.String()
}

// Hex formats an opaque color as "#RRGGBB".
func (c RGBA) Hex() string {
	r, g, b := c.RGB8()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// Style combines foreground/background colors and attributes. The zero
// value is "no color set, no attributes" — ColorMode distinguishes an
// explicit color from an unset one so the presenter can emit the
// terminal's own default (SGR 39/49) rather than guessing.
type Style struct {
	FG, BG Color
	Attr   Attribute
	Link   string // hyperlink URL annotation, empty = none
}

// ColorMode selects how a Color's channels should be interpreted when
// emitted, independent of the RGBA value carried for blending.
type ColorMode uint8

const (
	ColorModeDefault ColorMode = iota // terminal default, RGBA ignored
	ColorModeRGB                      // 24-bit truecolor
	ColorMode256                      // downgraded to the 256 palette
	ColorMode16                       // downgraded to the basic 16 colors
)

// Color pairs a normalized RGBA value with the mode the presenter should
// emit it in. Colors are always stored at full RGB precision; downgrading
// happens only at emit time against the negotiated Capabilities.
type Color struct {
	RGBA
	Mode  ColorMode
	Index uint8 // palette index when Mode is 256/16
}

// DefaultColor is the terminal's own foreground/background.
func DefaultColor() Color { return Color{Mode: ColorModeDefault} }

// RGB builds a truecolor Color from 8-bit channels.
func RGB(r, g, b uint8) Color { return Color{RGBA: Opaque(r, g, b), Mode: ColorModeRGB} }

// FromRGBA wraps an RGBA value (e.g. a blended one) as a truecolor Color.
func FromRGBA(c RGBA) Color { return Color{RGBA: c, Mode: ColorModeRGB} }

// Named resolves a palette or hex string into a truecolor Color.
func Named(s string) Color { return FromRGBA(ParseColor(s)) }

// Equal compares mode, index and RGBA.
func (c Color) Equal(o Color) bool { return c == o }

// DefaultStyle is the style with both colors defaulted and no attributes.
func DefaultStyle() Style { return Style{FG: DefaultColor(), BG: DefaultColor()} }

func (s Style) Foreground(c Color) Style { s.FG = c; return s }
func (s Style) Background(c Color) Style { s.BG = c; return s }
func (s Style) Bold() Style               { s.Attr = s.Attr.With(AttrBold); return s }
func (s Style) Dim() Style                { s.Attr = s.Attr.With(AttrDim); return s }
func (s Style) Italic() Style             { s.Attr = s.Attr.With(AttrItalic); return s }
func (s Style) Underline() Style          { s.Attr = s.Attr.With(AttrUnderline); return s }
func (s Style) Blink() Style              { s.Attr = s.Attr.With(AttrBlink); return s }
func (s Style) Inverse() Style            { s.Attr = s.Attr.With(AttrInverse); return s }
func (s Style) Hidden() Style             { s.Attr = s.Attr.With(AttrHidden); return s }
func (s Style) Strikethrough() Style      { s.Attr = s.Attr.With(AttrStrikethrough); return s }
func (s Style) Hyperlink(url string) Style { s.Link = url; return s }

// Equal compares every field, including the hyperlink annotation — the
// presenter's diff treats a hyperlink change as a cell difference (spec
// §4.8 step 3).
func (s Style) Equal(o Style) bool {
	return s.FG == o.FG && s.BG == o.BG && s.Attr == o.Attr && s.Link == o.Link
}

// BlendStyle composites src over dst per spec §3: colors blend straight-
// alpha independently, each only when src's color is non-default or has
// alpha; attributes and the link come from src only when src sets them
// (Attr != 0, Link != ""), otherwise dst's are kept.
func BlendStyle(src, dst Style) Style {
	out := dst
	if src.FG.Mode != ColorModeDefault || src.FG.A > 0 {
		out.FG = FromRGBA(Blend(src.FG.RGBA, dst.FG.RGBA))
		if src.FG.A >= 1 {
			out.FG.Mode = src.FG.Mode
			out.FG.Index = src.FG.Index
		}
	}
	if src.BG.Mode != ColorModeDefault || src.BG.A > 0 {
		out.BG = FromRGBA(Blend(src.BG.RGBA, dst.BG.RGBA))
		if src.BG.A >= 1 {
			out.BG.Mode = src.BG.Mode
			out.BG.Index = src.BG.Index
		}
	}
	if src.Attr != 0 {
		out.Attr = src.Attr
	}
	if src.Link != "" {
		out.Link = src.Link
	}
	return out
}

// Palette maps names to colors. The fixed palette this module ships
// (DefaultPalette) resolves the spec's second Open Question: it is a
// hand-written table of the 16 basic ANSI color names (with terminal-style
// RGB values) plus a short list of common CSS color keywords. It is not
// the full CSS Level 4 keyword set, and the names do not come from
// go-colorful.
type Palette struct {
	names map[string]RGBA
}

// Lookup resolves a palette entry by name (case-insensitive).
func (p *Palette) Lookup(name string) (RGBA, bool) {
	c, ok := p.names[strings.ToLower(name)]
	return c, ok
}

// Set inserts or overrides a palette entry.
func (p *Palette) Set(name string, c RGBA) {
	if p.names == nil {
		p.names = make(map[string]RGBA)
	}
	p.names[strings.ToLower(name)] = c
}

// DefaultPalette is the built-in CSS-compatible named-color table, seeded
// with the 16 basic ANSI names plus the extended keyword set most
// frequently used in terminal UIs. Additional names can be merged in via
// LoadPaletteTOML.
var DefaultPalette = newDefaultPalette()

func newDefaultPalette() *Palette {
	p := &Palette{names: make(map[string]RGBA, 32)}
	basic := map[string][3]uint8{
		"black": {0, 0, 0}, "red": {205, 49, 49}, "green": {13, 188, 121},
		"yellow": {229, 229, 16}, "blue": {36, 114, 200}, "magenta": {188, 63, 188},
		"cyan": {17, 168, 205}, "white": {229, 229, 229},
		"brightblack": {102, 102, 102}, "brightred": {241, 76, 76},
		"brightgreen": {35, 209, 139}, "brightyellow": {245, 245, 67},
		"brightblue": {59, 142, 234}, "brightmagenta": {214, 112, 214},
		"brightcyan": {41, 184, 219}, "brightwhite": {255, 255, 255},
		"orange": {255, 165, 0}, "purple": {128, 0, 128}, "pink": {255, 192, 203},
		"gray": {128, 128, 128}, "grey": {128, 128, 128}, "brown": {165, 42, 42},
		"gold": {255, 215, 0}, "navy": {0, 0, 128}, "teal": {0, 128, 128},
		"lime": {0, 255, 0}, "maroon": {128, 0, 0}, "olive": {128, 128, 0},
		"silver": {192, 192, 192}, "indigo": {75, 0, 130}, "violet": {238, 130, 238},
		"coral": {255, 127, 80}, "salmon": {250, 128, 114}, "khaki": {240, 230, 140},
	}
	for name, rgb := range basic {
		p.names[name] = Opaque(rgb[0], rgb[1], rgb[2])
	}
	return p
}

// ANSI256 returns the nearest xterm-256 palette index for c, using
// go-colorful's Lab distance — the presenter's capability-downgrade path
// calls this when the negotiated terminal lacks truecolor support.
func ANSI256(c RGBA) uint8 {
	best := uint8(0)
	bestDist := 1e18
	cc := c.colorful()
	for i := 0; i < 256; i++ {
		r, g, b := xterm256[i][0], xterm256[i][1], xterm256[i][2]
		cand := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
		d := cc.DistanceLab(cand)
		if d < bestDist {
			bestDist = d
			best = uint8(i)
		}
	}
	return best
}

// ANSI16 returns the nearest basic-16 index, reusing the 256-cube's
// first sixteen entries (which are exactly the basic/bright ANSI colors
// in every common terminfo mapping).
func ANSI16(c RGBA) uint8 {
	best := uint8(0)
	bestDist := 1e18
	cc := c.colorful()
	for i := 0; i < 16; i++ {
		r, g, b := xterm256[i][0], xterm256[i][1], xterm256[i][2]
		cand := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
		d := cc.DistanceLab(cand)
		if d < bestDist {
			bestDist = d
			best = uint8(i)
		}
	}
	return best
}

// xterm256 is the standard xterm 256-color cube: 16 basic/bright ANSI
// colors, a 6x6x6 RGB cube, then a 24-step grayscale ramp. Computed once
// rather than listed literally.
var xterm256 = buildXterm256()

func buildXterm256() [256][3]uint8 {
	var t [256][3]uint8
	basic := [16][3]uint8{
		{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
		{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
		{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
		{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
	}
	copy(t[0:16], basic[:])
	steps := [6]uint8{0, 95, 135, 175, 215, 255}
	idx := 16
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				t[idx] = [3]uint8{steps[r], steps[g], steps[b]}
				idx++
			}
		}
	}
	for i := 0; i < 24; i++ {
		v := uint8(8 + i*10)
		t[232+i] = [3]uint8{v, v, v}
	}
	return t
}
