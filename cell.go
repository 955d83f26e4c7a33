package opentui

// Cell is one terminal character position with its style. A cell that is
// the right half of a wide glyph has Rune == 0 (a placeholder owned by
// the left cell, per spec §3's wide-glyph invariant).
type Cell struct {
	Rune  rune
	Style Style
}

// EmptyCell is a space with default colors and no attributes.
func EmptyCell() Cell { return Cell{Rune: ' ', Style: DefaultStyle()} }

// WidePlaceholder is the right-half marker cell written alongside a wide
// glyph's left cell.
func WidePlaceholder(style Style) Cell { return Cell{Rune: 0, Style: style} }

// NewCell builds a cell from a rune and style.
func NewCell(r rune, style Style) Cell { return Cell{Rune: r, Style: style} }

// Equal compares rune and style.
func (c Cell) Equal(o Cell) bool { return c.Rune == o.Rune && c.Style.Equal(o.Style) }

// IsPlaceholder reports whether c is a wide-glyph right-half placeholder.
func (c Cell) IsPlaceholder() bool { return c.Rune == 0 }

// replacementGlyph is written for control characters other than TAB/LF,
// per spec §4.2 drawText contract.
const replacementGlyph = '�'

// Box-drawing glyphs, one set per border style (spec §4.2's eleven-glyph
// requirement: the two edges, four corners, four tee junctions and the
// cross, shared across styles via BorderStyle).
const (
	boxHorizontal  = '─'
	boxVertical    = '│'
	boxTopLeft     = '┌'
	boxTopRight    = '┐'
	boxBottomLeft  = '└'
	boxBottomRight = '┘'
	boxTeeDown     = '┬'
	boxTeeUp       = '┴'
	boxTeeRight    = '├'
	boxTeeLeft     = '┤'
	boxCross       = '┼'

	boxRoundedTopLeft     = '╭'
	boxRoundedTopRight    = '╮'
	boxRoundedBottomLeft  = '╰'
	boxRoundedBottomRight = '╯'

	boxDoubleHorizontal  = '═'
	boxDoubleVertical    = '║'
	boxDoubleTopLeft     = '╔'
	boxDoubleTopRight    = '╗'
	boxDoubleBottomLeft  = '╚'
	boxDoubleBottomRight = '╝'
	boxDoubleTeeDown     = '╦'
	boxDoubleTeeUp       = '╩'
	boxDoubleTeeRight    = '╠'
	boxDoubleTeeLeft     = '╣'
	boxDoubleCross       = '╬'

	boxHeavyHorizontal  = '━'
	boxHeavyVertical    = '┃'
	boxHeavyTopLeft     = '┏'
	boxHeavyTopRight    = '┓'
	boxHeavyBottomLeft  = '┗'
	boxHeavyBottomRight = '┛'
	boxHeavyTeeDown     = '┳'
	boxHeavyTeeUp       = '┻'
	boxHeavyTeeRight    = '┣'
	boxHeavyTeeLeft     = '┫'
	boxHeavyCross       = '╋'
)

// BorderStyle names the eleven glyphs drawBox needs: two edges, four
// corners, plus the four tees and the cross used when two boxes' borders
// meet.
type BorderStyle struct {
	Horizontal, Vertical                         rune
	TopLeft, TopRight, BottomLeft, BottomRight    rune
	TeeDown, TeeUp, TeeRight, TeeLeft, Cross      rune
}

var (
	BorderSingle = BorderStyle{
		Horizontal: boxHorizontal, Vertical: boxVertical,
		TopLeft: boxTopLeft, TopRight: boxTopRight,
		BottomLeft: boxBottomLeft, BottomRight: boxBottomRight,
		TeeDown: boxTeeDown, TeeUp: boxTeeUp, TeeRight: boxTeeRight, TeeLeft: boxTeeLeft, Cross: boxCross,
	}
	BorderRounded = BorderStyle{
		Horizontal: boxHorizontal, Vertical: boxVertical,
		TopLeft: boxRoundedTopLeft, TopRight: boxRoundedTopRight,
		BottomLeft: boxRoundedBottomLeft, BottomRight: boxRoundedBottomRight,
		TeeDown: boxTeeDown, TeeUp: boxTeeUp, TeeRight: boxTeeRight, TeeLeft: boxTeeLeft, Cross: boxCross,
	}
	BorderDouble = BorderStyle{
		Horizontal: boxDoubleHorizontal, Vertical: boxDoubleVertical,
		TopLeft: boxDoubleTopLeft, TopRight: boxDoubleTopRight,
		BottomLeft: boxDoubleBottomLeft, BottomRight: boxDoubleBottomRight,
		TeeDown: boxDoubleTeeDown, TeeUp: boxDoubleTeeUp, TeeRight: boxDoubleTeeRight, TeeLeft: boxDoubleTeeLeft, Cross: boxDoubleCross,
	}
	BorderHeavy = BorderStyle{
		Horizontal: boxHeavyHorizontal, Vertical: boxHeavyVertical,
		TopLeft: boxHeavyTopLeft, TopRight: boxHeavyTopRight,
		BottomLeft: boxHeavyBottomLeft, BottomRight: boxHeavyBottomRight,
		TeeDown: boxHeavyTeeDown, TeeUp: boxHeavyTeeUp, TeeRight: boxHeavyTeeRight, TeeLeft: boxHeavyTeeLeft, Cross: boxHeavyCross,
	}
)

// edgeBits encodes which of the four compass edges (1=top, 2=right,
// 4=bottom, 8=left) each glyph of a border style touches, used by
// mergeBorders to compute the correct junction glyph where two boxes'
// borders meet (spec §4.2 drawBox "corners join" requirement).
func (b BorderStyle) edgeBits() map[rune]uint8 {
	return map[rune]uint8{
		b.Horizontal:  0b1010,
		b.Vertical:    0b0101,
		b.TopLeft:     0b0110,
		b.TopRight:    0b1100,
		b.BottomLeft:  0b0011,
		b.BottomRight: 0b1001,
		b.TeeDown:     0b1110,
		b.TeeUp:       0b1011,
		b.TeeRight:    0b0111,
		b.TeeLeft:     0b1101,
		b.Cross:       0b1111,
	}
}

func (b BorderStyle) glyphForEdges(bits uint8) (rune, bool) {
	switch bits {
	case 0b1010:
		return b.Horizontal, true
	case 0b0101:
		return b.Vertical, true
	case 0b0110:
		return b.TopLeft, true
	case 0b1100:
		return b.TopRight, true
	case 0b0011:
		return b.BottomLeft, true
	case 0b1001:
		return b.BottomRight, true
	case 0b1110:
		return b.TeeDown, true
	case 0b1011:
		return b.TeeUp, true
	case 0b0111:
		return b.TeeRight, true
	case 0b1101:
		return b.TeeLeft, true
	case 0b1111:
		return b.Cross, true
	}
	return 0, false
}

// mergeBorders combines an existing border glyph with an incoming one
// from the same style, returning the junction glyph that represents both
// sets of edges. Mirrors the teacher buffer's border-merge behavior
// (kungfusheep-glyph buffer.go) generalized to all four border styles.
func mergeBorders(style BorderStyle, existing, incoming rune) (rune, bool) {
	edges := style.edgeBits()
	existingBits, ok1 := edges[existing]
	incomingBits, ok2 := edges[incoming]
	if !ok1 || !ok2 {
		return incoming, false
	}
	return style.glyphForEdges(existingBits | incomingBits)
}

// allBorderStyles is consulted by Buffer.Set so border merging works
// regardless of which named style drew the existing glyph.
var allBorderStyles = []BorderStyle{BorderSingle, BorderRounded, BorderDouble, BorderHeavy}

func mergeAnyBorder(existing, incoming rune) (rune, bool) {
	for _, st := range allBorderStyles {
		if merged, ok := mergeBorders(st, existing, incoming); ok {
			return merged, true
		}
	}
	return incoming, false
}
