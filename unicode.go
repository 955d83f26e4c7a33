package opentui

import (
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/words"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
	xtwidth "golang.org/x/text/width"
)

// EastAsianMode selects how ambiguous-width East Asian characters are
// measured. The spec leaves this unspecified in the source; this module
// resolves it to an explicit, documented config value rather than a
// context-derived guess (spec §9, first Open Question).
type EastAsianMode uint8

const (
	// EastAsianNarrow treats ambiguous-width runes as narrow (width 1).
	// This is the module's default.
	EastAsianNarrow EastAsianMode = iota
	// EastAsianAmbiguousWide treats ambiguous-width runes as wide (width 2).
	EastAsianAmbiguousWide
)

// WrapMode selects how findWrapBreaks discovers candidate break points.
type WrapMode uint8

const (
	WrapWord WrapMode = iota
	WrapChar
	WrapNone
)

// LineBreakKind distinguishes the two hard line-break encodings the
// module recognizes.
type LineBreakKind uint8

const (
	LineBreakLF LineBreakKind = iota
	LineBreakCRLF
)

// LineBreak records one hard line break's byte offset (pointing at the
// first byte of the terminator) and its encoding.
type LineBreak struct {
	Offset int
	Kind   LineBreakKind
}

// Grapheme is one user-perceived character: its UTF-8 text, byte offset
// within the scanned input, and display width under the active
// EastAsianMode.
type Grapheme struct {
	Text   string
	Offset int
	Width  int
}

// Rune returns the grapheme's first code point, used when a single-rune
// representation is good enough (e.g. control-character detection).
func (g Grapheme) Rune() rune {
	r, _ := utf8.DecodeRuneInString(g.Text)
	return r
}

// Graphemes segments s into user-perceived characters using uniseg's
// grapheme-cluster algorithm, measuring each cluster's width with the
// module's default (narrow) East Asian mode. Invalid UTF-8 bytes are
// consumed one at a time as width-1 replacement graphemes, so this never
// panics on malformed input (spec §4.3 contract).
func Graphemes(s string) []Grapheme {
	return GraphemesMode(s, EastAsianNarrow)
}

// GraphemesMode is Graphemes with an explicit EastAsianMode.
func GraphemesMode(s string, mode EastAsianMode) []Grapheme {
	var out []Grapheme
	state := -1
	offset := 0
	for len(s) > 0 {
		cluster, rest, boundary, newState := uniseg.FirstGraphemeClusterInString(s, state)
		if cluster == "" {
			break
		}
		w := clusterWidth(cluster, mode)
		out = append(out, Grapheme{Text: cluster, Offset: offset, Width: w})
		offset += len(cluster)
		s = rest
		state = newState
		_ = boundary
	}
	return out
}

func clusterWidth(cluster string, mode EastAsianMode) int {
	r, size := utf8.DecodeRuneInString(cluster)
	if size == 0 {
		return 1
	}
	if r == utf8.RuneError && size == 1 {
		return 1
	}
	return graphemeWidthRune(r, mode)
}

// graphemeWidthRune classifies a single code point's display width.
// Zero-width marks (combining diacritics, ZWJ, variation selectors) are
// width 0; ASCII and narrow scripts are width 1; wide CJK and emoji are
// width 2; ambiguous East Asian punctuation follows EastAsianMode.
func graphemeWidthRune(r rune, mode EastAsianMode) int {
	if r == '\t' || r == '\n' {
		return 0 // handled specially by callers (tab expansion, line breaks)
	}
	switch xtwidth.LookupRune(r).Kind() {
	case xtwidth.EastAsianWide, xtwidth.EastAsianFullwidth:
		return 2
	case xtwidth.EastAsianAmbiguous:
		if mode == EastAsianAmbiguousWide {
			return 2
		}
		return 1
	}
	w := runewidth.RuneWidth(r)
	if w < 0 {
		return 1
	}
	return w
}

// IsAsciiOnly reports whether every byte in s is < 0x80 — the fast path
// the width calculator takes before falling back to grapheme scanning.
func IsAsciiOnly(s []byte) bool {
	for _, b := range s {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// CalculateTextWidth sums grapheme widths over s, expanding TAB to the
// next multiple of tabWidth when respectTabs is set (and counting it as
// width 1 otherwise, matching a literal tab glyph).
func CalculateTextWidth(s []byte, tabWidth int, respectTabs bool, mode EastAsianMode) int {
	if IsAsciiOnly(s) && !containsTabOrMultibyteHint(s) {
		return len(s)
	}
	col := 0
	for _, g := range GraphemesMode(string(s), mode) {
		if g.Text == "\t" {
			if respectTabs {
				if tabWidth <= 0 {
					tabWidth = 8
				}
				col = ((col / tabWidth) + 1) * tabWidth
			} else {
				col++
			}
			continue
		}
		col += g.Width
	}
	return col
}

func containsTabOrMultibyteHint(s []byte) bool {
	for _, b := range s {
		if b == '\t' {
			return true
		}
	}
	return false
}

// FindLineBreaks scans s for LF and CRLF hard breaks, in order.
func FindLineBreaks(s []byte) []LineBreak {
	var out []LineBreak
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if i > 0 && s[i-1] == '\r' {
				out = append(out, LineBreak{Offset: i - 1, Kind: LineBreakCRLF})
			} else {
				out = append(out, LineBreak{Offset: i, Kind: LineBreakLF})
			}
		}
	}
	return out
}

// WrapBreak is one candidate position at which a wrapping algorithm may
// break a line, expressed as a byte offset into the scanned text.
type WrapBreak struct {
	Offset int
}

var breakPunctuation = map[rune]bool{
	',': true, '.': true, ';': true, ':': true, '!': true, '?': true, '/': true, '\\': true, '-': true,
}

// FindWrapBreaks enumerates candidate wrap positions per spec §4.3: word
// mode places candidates at whitespace transitions (using uax29's
// Unicode word segmentation as the primary source) and immediately after
// punctuation runs; char mode places one after every grapheme; none
// returns only the hard line breaks already present in the text.
func FindWrapBreaks(s []byte, mode WrapMode, eastAsian EastAsianMode) []WrapBreak {
	switch mode {
	case WrapNone:
		var out []WrapBreak
		for _, lb := range FindLineBreaks(s) {
			out = append(out, WrapBreak{Offset: lb.Offset})
		}
		return out
	case WrapChar:
		var out []WrapBreak
		for _, g := range GraphemesMode(string(s), eastAsian) {
			out = append(out, WrapBreak{Offset: g.Offset + len(g.Text)})
		}
		return out
	default:
		return findWordWrapBreaks(s)
	}
}

func findWordWrapBreaks(s []byte) []WrapBreak {
	var out []WrapBreak
	pos := 0
	seg := words.FromBytes(s)
	for seg.Next() {
		tok := seg.Value()
		pos += len(tok)
		if len(tok) == 0 {
			continue
		}
		r, _ := utf8.DecodeRune(tok)
		if isWhitespaceRune(r) {
			out = append(out, WrapBreak{Offset: pos})
			continue
		}
		last, _ := utf8.DecodeLastRune(tok)
		if breakPunctuation[last] {
			out = append(out, WrapBreak{Offset: pos})
		}
	}
	return out
}

func isWhitespaceRune(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}

// FindWrapPosByWidth returns the largest prefix of s that fits within
// maxWidth columns, honoring tab expansion per respectTabs. If no
// candidate fits — the first grapheme alone exceeds maxWidth — it returns
// that single grapheme's extent (spec §4.3: never return an empty
// prefix when input is non-empty).
func FindWrapPosByWidth(s []byte, maxWidth, tabWidth int, respectTabs bool, mode EastAsianMode) (int, int) {
	if maxWidth <= 0 || len(s) == 0 {
		return 0, 0
	}
	if tabWidth <= 0 {
		tabWidth = 8
	}
	graphemes := GraphemesMode(string(s), mode)
	col := 0
	lastGoodOffset, lastGoodWidth := 0, 0
	for _, g := range graphemes {
		w := g.Width
		advance := w
		if g.Text == "\t" {
			if respectTabs {
				next := ((col / tabWidth) + 1) * tabWidth
				advance = next - col
			} else {
				advance = 1
			}
		}
		if col+advance > maxWidth {
			if lastGoodOffset == 0 {
				// first grapheme alone exceeds maxWidth: return it anyway
				return g.Offset + len(g.Text), col + advance
			}
			return lastGoodOffset, lastGoodWidth
		}
		col += advance
		lastGoodOffset = g.Offset + len(g.Text)
		lastGoodWidth = col
	}
	return lastGoodOffset, lastGoodWidth
}

// FindPosByWidth is the inverse of FindWrapPosByWidth: it returns the
// byte offset of the grapheme at visual column targetCol. roundUp
// chooses the grapheme whose end column is >= targetCol; otherwise the
// grapheme whose end column is <= targetCol is chosen.
func FindPosByWidth(s []byte, targetCol, tabWidth int, respectTabs, roundUp bool, mode EastAsianMode) int {
	if tabWidth <= 0 {
		tabWidth = 8
	}
	col := 0
	lastOffset := 0
	for _, g := range GraphemesMode(string(s), mode) {
		w := g.Width
		if g.Text == "\t" {
			if respectTabs {
				next := ((col / tabWidth) + 1) * tabWidth
				w = next - col
			} else {
				w = 1
			}
		}
		endCol := col + w
		if endCol >= targetCol {
			if roundUp || endCol == targetCol {
				return g.Offset + len(g.Text)
			}
			return lastOffset
		}
		col = endCol
		lastOffset = g.Offset + len(g.Text)
	}
	return len(s)
}
