package opentui

import (
	"sort"
	"strconv"
)

// Rect is an axis-aligned clip rectangle in absolute buffer coordinates.
type Rect struct{ X, Y, W, H int }

// Intersect returns the overlapping rectangle of r and o.
func (r Rect) Intersect(o Rect) Rect {
	x1, y1 := maxInt(r.X, o.X), maxInt(r.Y, o.Y)
	x2 := minInt(r.X+r.W, o.X+o.W)
	y2 := minInt(r.Y+r.H, o.Y+o.H)
	if x2 < x1 {
		x2 = x1
	}
	if y2 < y1 {
		y2 = y1
	}
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Contains reports whether (x,y) falls within r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Composite runs the compositing pass (spec §4.7): clears back to bg,
// walks the tree in pre-order skipping invisible subtrees, computes each
// drawable node's clip rectangle as the intersection of its own bounds
// with every ancestor's, and either blends a cached frame buffer or
// re-renders into the target buffer. Children draw in (zIndex,
// insertion-order).
func Composite(back *Buffer, root *Node, bg Color) {
	back.Clear(bg)
	if root == nil || !root.Visible {
		return
	}
	rootClip := Rect{X: 0, Y: 0, W: back.Width(), H: back.Height()}
	compositeNode(back, root, 0, 0, rootClip)
}

func compositeNode(back *Buffer, n *Node, absX, absY int, clip Rect) {
	if !n.Visible {
		return
	}
	x, y := absX+n.X, absY+n.Y
	bounds := Rect{X: x, Y: y, W: n.W, H: n.H}
	nodeClip := bounds.Intersect(clip)

	if n.Capabilities.Has(CapDrawable) {
		if n.frameBuffer != nil && !n.dirtyRender {
			back.BlendClipped(n.frameBuffer, x, y, nodeClip)
		} else {
			target := back
			targetX, targetY := x, y
			if n.frameBuffer != nil {
				if n.frameBuffer.Width() != n.W || n.frameBuffer.Height() != n.H {
					n.frameBuffer = NewBuffer(n.W, n.H)
				} else {
					n.frameBuffer.Clear(DefaultColor())
				}
				target = n.frameBuffer
				targetX, targetY = 0, 0
			}
			renderSelf(target, n, targetX, targetY, nodeClip)
			if n.frameBuffer != nil {
				back.BlendClipped(n.frameBuffer, x, y, nodeClip)
			}
			n.dirtyRender = false
		}
	}

	ordered := append([]*Node(nil), n.children...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ZIndex < ordered[j].ZIndex })
	for _, c := range ordered {
		compositeNode(back, c, x, y, nodeClip)
	}
	n.subtreeDirty = false
}

// renderSelf draws n's own content (not children) into buf at (x,y),
// clipped to clip. Container kinds (Box, ScrollBox) draw only their
// border/background; leaf kinds draw their payload.
func renderSelf(buf *Buffer, n *Node, x, y int, clip Rect) {
	switch n.Kind {
	case NodeBox, NodeScrollBox:
		buf.FillRectClipped(x, y, n.W, n.H, NewCell(' ', n.Style), clip)
	case NodeText:
		p := n.payload.(*textPayload)
		drawTextBuffer(buf, p.Buffer, x, y, n.W, n.H, clip)
	case NodeCode:
		p := n.payload.(*codePayload)
		drawTextBuffer(buf, p.Buffer, x, y, n.W, n.H, clip)
	case NodeGutter:
		p := n.payload.(*gutterPayload)
		drawGutter(buf, p, x, y, n.W, n.H, n.Style, clip)
	case NodeTextTable:
		p := n.payload.(*textTablePayload)
		drawTextTable(buf, p, x, y, clip)
	case NodeDiff:
		p := n.payload.(*diffPayload)
		drawDiff(buf, p, x, y, n.W, n.H, clip)
	case NodeTextarea:
		p := n.payload.(*textareaPayload)
		drawTextBuffer(buf, p.Buffer, x, y, n.W, n.H, clip)
	case NodeBridge:
		p := n.payload.(*bridgePayload)
		drawBridge(buf, p, x, y, n.W, n.H, clip)
	}
}

func drawTextBuffer(buf *Buffer, tb *TextBuffer, x, y, w, h int, clip Rect) {
	if tb == nil {
		return
	}
	for row := 0; row < h; row++ {
		py := y + row
		if !clip.Contains(x, py) && !clip.Contains(x+maxInt(w-1, 0), py) {
			continue
		}
		chunks := tb.GetLineChunksForVisualRow(row)
		cx := x
		for _, c := range chunks {
			buf.DrawTextClipped(c.Text, cx, py, Style{FG: c.FG, BG: c.BG, Attr: c.Attrs, Link: c.Link}, 8, clip)
			cx += CalculateTextWidth([]byte(c.Text), 8, true, EastAsianNarrow)
		}
	}
}

func drawGutter(buf *Buffer, p *gutterPayload, x, y, w, h int, style Style, clip Rect) {
	if p.LineCount == nil {
		return
	}
	n := p.LineCount()
	cur := -1
	if p.CurrentLine != nil {
		cur = p.CurrentLine()
	}
	for row := 0; row < h && row < n; row++ {
		s := style
		if row == cur {
			s = s.Bold()
		}
		buf.DrawTextClipped(padLeft(strconv.Itoa(row+1), w), x, y+row, s, 8, clip)
	}
}

func drawTextTable(buf *Buffer, p *textTablePayload, x, y int, clip Rect) {
	colW := p.ColWidths
	for r, row := range p.Rows {
		cx := x
		for c, cell := range row {
			w := 8
			if c < len(colW) {
				w = colW[c]
			}
			buf.DrawTextClipped(padRight(cell, w), cx, y+r, DefaultStyle(), 8, clip)
			cx += w + 1
		}
	}
}

func drawDiff(buf *Buffer, p *diffPayload, x, y, w, h int, clip Rect) {
	if p.Model == nil {
		return
	}
	row := 0
	for _, hunk := range p.Model.Hunks() {
		if row >= h {
			break
		}
		buf.DrawTextClipped(strconv.Itoa(hunk.OldStart)+","+strconv.Itoa(hunk.OldLines)+" -> "+strconv.Itoa(hunk.NewStart)+","+strconv.Itoa(hunk.NewLines), x, y+row, DefaultStyle(), 8, clip)
		row++
	}
}

func drawBridge(buf *Buffer, p *bridgePayload, x, y, w, h int, clip Rect) {
	if p.Source == nil {
		return
	}
	p.state = p.Source.Poll()
	if p.state != BridgeReady {
		return
	}
	pixels, pw, ph := p.Source.Raster()
	if pw == 0 || ph == 0 {
		return
	}
	_ = w
	_ = h
	buf.BlitHalfBlocksClipped(pixels, pw, ph, x, y, clip)
}

func padLeft(s string, w int) string {
	for len(s) < w {
		s = " " + s
	}
	return s
}

func padRight(s string, w int) string {
	for len(s) < w {
		s = s + " "
	}
	return s
}
