package opentui

import "github.com/mattn/go-runewidth"

// Buffer is a fixed width×height grid of cells. The four per-cell fields
// (codepoint, fg, bg, attrs — spec §3) are stored together in a single
// Cell slice, not in parallel arrays; nothing in the public contract
// depends on the physical layout.
// Dimensions change only via Resize, which reallocates and does not
// preserve content (spec §4.2).
type Buffer struct {
	cells  []Cell
	links  map[int]string // sparse hyperlink annotation per cell index
	dirty  []bool         // per-row dirty flags, consulted by the presenter's fast path
	width  int
	height int
}

// NewBuffer allocates a cleared buffer of the given size.
func NewBuffer(width, height int) *Buffer {
	b := &Buffer{width: width, height: height}
	b.alloc()
	return b
}

func (b *Buffer) alloc() {
	b.cells = make([]Cell, b.width*b.height)
	empty := EmptyCell()
	for i := range b.cells {
		b.cells[i] = empty
	}
	b.links = nil
	b.dirty = make([]bool, b.height)
}

func (b *Buffer) Width() int            { return b.width }
func (b *Buffer) Height() int           { return b.height }
func (b *Buffer) Size() (int, int)      { return b.width, b.height }
func (b *Buffer) InBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

func (b *Buffer) index(x, y int) int { return y*b.width + x }

// Get returns the cell at (x,y), or an empty cell if out of bounds.
func (b *Buffer) Get(x, y int) Cell {
	if !b.InBounds(x, y) {
		return EmptyCell()
	}
	return b.cells[b.index(x, y)]
}

// Link returns the hyperlink annotation attached at (x,y), if any.
func (b *Buffer) Link(x, y int) string {
	if b.links == nil || !b.InBounds(x, y) {
		return ""
	}
	return b.links[b.index(x, y)]
}

func (b *Buffer) setLink(idx int, url string) {
	if url == "" {
		if b.links != nil {
			delete(b.links, idx)
		}
		return
	}
	if b.links == nil {
		b.links = make(map[int]string)
	}
	b.links[idx] = url
}

func (b *Buffer) markDirty(y int) {
	if y >= 0 && y < len(b.dirty) {
		b.dirty[y] = true
	}
}

// RowDirty reports whether row y has been written to since the last
// ClearDirty. The presenter's Flush fast path skips rows that report
// false.
func (b *Buffer) RowDirty(y int) bool {
	if y < 0 || y >= len(b.dirty) {
		return false
	}
	return b.dirty[y]
}

// ClearDirty resets every row's dirty flag, normally called by the
// presenter immediately after a Flush.
func (b *Buffer) ClearDirty() {
	for i := range b.dirty {
		b.dirty[i] = false
	}
}

// Set writes a cell, clipping silently on out-of-range coordinates
// (spec §4.2 failure semantics) and merging adjacent border glyphs.
func (b *Buffer) Set(x, y int, c Cell) {
	if !b.InBounds(x, y) {
		return
	}
	idx := b.index(x, y)
	if merged, ok := mergeAnyBorder(b.cells[idx].Rune, c.Rune); ok {
		c.Rune = merged
	}
	b.cells[idx] = c
	if c.Style.Link != "" {
		b.setLink(idx, c.Style.Link)
	} else if b.links != nil {
		b.setLink(idx, "")
	}
	b.markDirty(y)
}

// setRaw writes a cell without border merging, used internally by ops
// (fillRect, clear) that intentionally overwrite borders.
func (b *Buffer) setRaw(x, y int, c Cell) {
	if !b.InBounds(x, y) {
		return
	}
	idx := b.index(x, y)
	b.cells[idx] = c
	b.setLink(idx, c.Style.Link)
	b.markDirty(y)
}

// Clear sets every cell to (space, default fg, the given background, no
// attributes) — spec §4.2.
func (b *Buffer) Clear(bg Color) {
	c := Cell{Rune: ' ', Style: Style{FG: DefaultColor(), BG: bg}}
	for i := range b.cells {
		b.cells[i] = c
	}
	b.links = nil
	for y := range b.dirty {
		b.dirty[y] = true
	}
}

// FillRect blends color into the background of every cell in the clipped
// rectangle; a fully clipped rectangle is a silent no-op (spec §4.2).
func (b *Buffer) FillRect(x, y, w, h int, color RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, b.width), min(y+h, b.height)
	for cy := y0; cy < y1; cy++ {
		for cx := x0; cx < x1; cx++ {
			idx := b.index(cx, cy)
			cell := b.cells[idx]
			cell.Style.BG = FromRGBA(Blend(color, cell.Style.BG.RGBA))
			b.cells[idx] = cell
		}
		b.markDirty(cy)
	}
}

// DrawText walks text as graphemes, writing each at increasing columns.
// Wide graphemes occupy two cells (left glyph + right placeholder); a
// wide glyph that would cross the right edge is skipped entirely rather
// than split. DrawText never wraps — a caller that wants wrapping must
// pre-split using the unicode module's wrap search. Control characters
// other than TAB and LF render as the replacement glyph; LF is a no-op
// here (DrawText draws one line) and TAB expands to the next tab stop,
// bounded by the buffer's right edge.
func (b *Buffer) DrawText(text string, x, y int, style Style, tabWidth int) int {
	return b.DrawTextClipped(text, x, y, style, tabWidth, Rect{X: 0, Y: 0, W: b.width, H: b.height})
}

// DrawTextClipped is DrawText restricted to clip: a cell is written only
// when its column falls within clip (spec §4.7's "a node never reads
// pixels it did not first write" compositing invariant).
func (b *Buffer) DrawTextClipped(text string, x, y int, style Style, tabWidth int, clip Rect) int {
	if tabWidth <= 0 {
		tabWidth = 8
	}
	col := x
	written := 0
	set := func(cx, cy int, c Cell) {
		if clip.Contains(cx, cy) {
			b.Set(cx, cy, c)
		}
	}
	for _, g := range Graphemes(text) {
		if col >= b.width {
			break
		}
		switch {
		case g.Text == "\t":
			next := ((col - x) / tabWidth + 1) * tabWidth + x
			for col < next && col < b.width {
				set(col, y, NewCell(' ', style))
				col++
				written++
			}
			continue
		case g.Text == "\n":
			continue
		}
		w := g.Width
		if w <= 0 {
			w = 1
		}
		r := g.Rune()
		if r == 0xFFFD || !isRenderable(r) {
			r = replacementGlyph
			w = 1
		}
		if w == 2 {
			if col+1 >= b.width {
				break // cannot fit a wide glyph at the edge: skip it entirely
			}
			set(col, y, NewCell(r, style))
			set(col+1, y, WidePlaceholder(style))
		} else {
			set(col, y, NewCell(r, style))
		}
		col += w
		written += w
	}
	return written
}

func isRenderable(r rune) bool {
	if r == '\t' || r == '\n' {
		return true
	}
	return r >= 0x20 && r != 0x7f
}

// FillRectClipped writes cell into every position of the intersection of
// (x,y,w,h) with clip, opaque (no background blending) — used by the
// compositor to paint a container's own background.
func (b *Buffer) FillRectClipped(x, y, w, h int, cell Cell, clip Rect) {
	r := (Rect{X: x, Y: y, W: w, H: h}).Intersect(clip)
	for cy := r.Y; cy < r.Y+r.H; cy++ {
		for cx := r.X; cx < r.X+r.W; cx++ {
			b.Set(cx, cy, cell)
		}
	}
}

// DrawBox draws a border around the rectangle using the given style,
// optionally filling the interior background, with corner glyphs merging
// into junctions where two adjacent boxes touch (handled by Buffer.Set).
func (b *Buffer) DrawBox(x, y, w, h int, border BorderStyle, borderStyle Style, fill *Color) {
	if w < 2 || h < 2 {
		return
	}
	if fill != nil {
		b.FillRect(x+1, y, w-2, h, fill.RGBA)
	}
	b.Set(x, y, NewCell(border.TopLeft, borderStyle))
	b.Set(x+w-1, y, NewCell(border.TopRight, borderStyle))
	b.Set(x, y+h-1, NewCell(border.BottomLeft, borderStyle))
	b.Set(x+w-1, y+h-1, NewCell(border.BottomRight, borderStyle))
	for i := 1; i < w-1; i++ {
		b.Set(x+i, y, NewCell(border.Horizontal, borderStyle))
		b.Set(x+i, y+h-1, NewCell(border.Horizontal, borderStyle))
	}
	for i := 1; i < h-1; i++ {
		b.Set(x, y+i, NewCell(border.Vertical, borderStyle))
		b.Set(x+w-1, y+i, NewCell(border.Vertical, borderStyle))
	}
}

// Blend composites src onto b at (dstX, dstY) with straight-alpha
// blending of fg/bg and attribute-overlay whenever src's attribute
// bitset is non-zero (spec §4.2). Width mismatches clip to the overlap.
func (b *Buffer) Blend(src *Buffer, dstX, dstY int) {
	for sy := 0; sy < src.height; sy++ {
		dy := dstY + sy
		if dy < 0 || dy >= b.height {
			continue
		}
		for sx := 0; sx < src.width; sx++ {
			dx := dstX + sx
			if dx < 0 || dx >= b.width {
				continue
			}
			srcCell := src.Get(sx, sy)
			if srcCell.IsPlaceholder() {
				b.setRaw(dx, dy, srcCell)
				continue
			}
			dstCell := b.Get(dx, dy)
			merged := Cell{
				Rune:  srcCell.Rune,
				Style: BlendStyle(srcCell.Style, dstCell.Style),
			}
			if srcCell.Style.Attr != 0 {
				merged.Style.Attr = srcCell.Style.Attr
			} else {
				merged.Style.Attr = dstCell.Style.Attr
			}
			b.setRaw(dx, dy, merged)
		}
	}
}

// BlendClipped is Blend restricted to clip, used by the compositor when
// blitting a node's cached frame buffer into an ancestor whose own
// clipping rectangle may be narrower than the node's bounds.
func (b *Buffer) BlendClipped(src *Buffer, dstX, dstY int, clip Rect) {
	for sy := 0; sy < src.height; sy++ {
		dy := dstY + sy
		for sx := 0; sx < src.width; sx++ {
			dx := dstX + sx
			if !clip.Contains(dx, dy) {
				continue
			}
			srcCell := src.Get(sx, sy)
			if srcCell.IsPlaceholder() {
				b.setRaw(dx, dy, srcCell)
				continue
			}
			dstCell := b.Get(dx, dy)
			merged := Cell{Rune: srcCell.Rune, Style: BlendStyle(srcCell.Style, dstCell.Style)}
			if srcCell.Style.Attr != 0 {
				merged.Style.Attr = srcCell.Style.Attr
			} else {
				merged.Style.Attr = dstCell.Style.Attr
			}
			b.setRaw(dx, dy, merged)
		}
	}
}

// BlitHalfBlocksClipped is SuperSampleBlit restricted to clip.
func (b *Buffer) BlitHalfBlocksClipped(px []RGBA, srcW, srcH, dstX, dstY int, clip Rect) {
	rows := (srcH + 1) / 2
	for row := 0; row < rows; row++ {
		top := row * 2
		bottom := top + 1
		cy := dstY + row
		for col := 0; col < srcW; col++ {
			cx := dstX + col
			if !clip.Contains(cx, cy) {
				continue
			}
			upper := px[top*srcW+col]
			var lower RGBA
			if bottom < srcH {
				lower = px[bottom*srcW+col]
			} else {
				lower = upper
			}
			b.Set(cx, cy, halfBlockCell(upper, lower))
		}
	}
}

// SuperSampleAlgorithm selects how superSampleBlit resolves a 2-row RGBA
// strip into one row of half-block cells.
type SuperSampleAlgorithm uint8

const (
	// SuperSampleStandard maps each vertical pair of source pixels to one
	// cell without averaging them: ▀ with the upper pixel as foreground
	// and the lower as background when both are visible, ▀ or ▄ over the
	// default background when only one is, and a space when neither is.
	// The full-block glyph █ is never produced.
	SuperSampleStandard SuperSampleAlgorithm = iota
	// SuperSamplePreSqueezed assumes the caller already averaged pairs
	// of source rows vertically; one source pixel maps to one cell.
	SuperSamplePreSqueezed
)

// SuperSampleBlit encodes a 2×N RGBA raster into N cells of this buffer
// starting at (dstX, dstY), using Unicode half-block glyphs to carry two
// vertical "pixels" per cell (spec §4.2, C12). Idempotent: re-encoding
// identical source pixels produces identical cells.
func (b *Buffer) SuperSampleBlit(px []RGBA, srcW, srcH, dstX, dstY int, algo SuperSampleAlgorithm) {
	switch algo {
	case SuperSamplePreSqueezed:
		for row := 0; row < srcH; row++ {
			for col := 0; col < srcW; col++ {
				c := px[row*srcW+col]
				b.Set(dstX+col, dstY+row, NewCell(' ', DefaultStyle().Background(FromRGBA(c))))
			}
		}
	default:
		rows := (srcH + 1) / 2
		for row := 0; row < rows; row++ {
			top := row * 2
			bottom := top + 1
			for col := 0; col < srcW; col++ {
				upper := px[top*srcW+col]
				var lower RGBA
				if bottom < srcH {
					lower = px[bottom*srcW+col]
				} else {
					lower = upper
				}
				cell := halfBlockCell(upper, lower)
				b.Set(dstX+col, dstY+row, cell)
			}
		}
	}
}

// halfBlockCell resolves a pair of vertically-stacked pixels to a single
// cell using the upper/lower half-block glyphs.
func halfBlockCell(upper, lower RGBA) Cell {
	const alphaThreshold = 0.01
	upperVisible := upper.A > alphaThreshold
	lowerVisible := lower.A > alphaThreshold
	switch {
	case !upperVisible && !lowerVisible:
		return NewCell(' ', DefaultStyle())
	case upperVisible && !lowerVisible:
		return NewCell('▀', Style{FG: FromRGBA(upper), BG: DefaultColor()})
	case !upperVisible && lowerVisible:
		return NewCell('▄', Style{FG: FromRGBA(lower), BG: DefaultColor()})
	default:
		return NewCell('▀', Style{FG: FromRGBA(upper), BG: FromRGBA(lower)})
	}
}

// Resize reallocates the buffer to new dimensions. Content is not
// preserved — callers must redraw (spec §4.2).
func (b *Buffer) Resize(width, height int) {
	if width == b.width && height == b.height {
		return
	}
	b.width, b.height = width, height
	b.alloc()
}

// String renders the buffer as plain text, one row per line, for tests
// and debugging. Wide-glyph placeholders are skipped (already accounted
// for by the preceding wide cell's width).
func (b *Buffer) String() string {
	var out []byte
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			c := b.Get(x, y)
			if c.IsPlaceholder() {
				continue
			}
			r := c.Rune
			if r == 0 {
				r = ' '
			}
			out = append(out, string(r)...)
		}
		if y < b.height-1 {
			out = append(out, '\n')
		}
	}
	return string(out)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// cellDisplayWidth is the presenter's notion of how many terminal columns
// a cell's rune advances the cursor, used when positioning the next
// write. Delegates to go-runewidth for consistency with the glyph-width
// table used elsewhere in the pipeline.
func cellDisplayWidth(r rune) int {
	if r == 0 {
		return 0
	}
	w := runewidth.RuneWidth(r)
	if w == 0 {
		return 1 // zero-width glyphs still advance the cursor by one column in practice
	}
	return w
}
