package opentui

import (
	"sort"
	"strings"
)

// Chunk is a run of text carrying one style, the unit logical lines are
// built from (spec §4.5, §4.6 "chunk composition").
type Chunk struct {
	Text  string
	Style Style
}

// Highlight is an overlay range on one logical line, orthogonal to its
// chunk styling. When ranges from multiple highlights cover the same
// cell, the one with the highest Priority wins (spec §4.5).
type Highlight struct {
	StartCol, EndCol int
	StyleID          StyleID
	Priority         int
}

// RenderChunk is the resolved, concrete form getLineChunksForVisualRow
// hands to the scene graph: no more style ids, no more chunk splicing.
type RenderChunk struct {
	Text  string
	FG, BG Color
	Attrs Attribute
	Link  string
}

type wrapSegment struct {
	start int // byte offset into the logical line's concatenated text
}

type logicalLine struct {
	chunks     []Chunk
	highlights []Highlight
	wrapCache  []wrapSegment
	dirty      bool
}

type lineMetrics struct{ weight int }

func (m lineMetrics) Add(o Metrics) Metrics { return lineMetrics{weight: m.weight + o.(lineMetrics).weight} }
func (m lineMetrics) Weight() int           { return m.weight }

func (l *logicalLine) Measure() Metrics      { return lineMetrics{weight: 1} }
func (l *logicalLine) IsEmpty() bool         { return len(l.chunks) == 0 }
func (l *logicalLine) MarkerVariant() string { return "" }

func lineText(l *logicalLine) string {
	var b strings.Builder
	for _, c := range l.chunks {
		b.WriteString(c.Text)
	}
	return b.String()
}

// TextBuffer is a rope of styled logical lines with a lazily-recomputed
// wrap cache, a highlight overlay, and a selection range (spec §4.5).
type TextBuffer struct {
	lines *Rope[*logicalLine]

	width     int
	mode      WrapMode
	tabWidth  int
	eastAsian EastAsianMode

	styles *StyleTable

	hasSelection                           bool
	anchorRow, anchorCol, focusRow, focusCol int
}

// NewTextBuffer returns an empty buffer (one empty logical line). styles
// may be nil; highlight StyleIDs then resolve to the zero Style.
func NewTextBuffer(styles *StyleTable) *TextBuffer {
	return &TextBuffer{
		lines:    FromSlice([]*logicalLine{{}}),
		tabWidth: 8,
		styles:   styles,
	}
}

func (tb *TextBuffer) defaultStyle() Style {
	if tb.styles != nil {
		return tb.styles.StyleOf(tb.styles.DefaultID())
	}
	return DefaultStyle()
}

func (tb *TextBuffer) lineCount() int { return tb.lines.Len() }

// SetText replaces the entire content with plain, unstyled text (lines
// split on "\n").
func (tb *TextBuffer) SetText(s string) {
	tb.SetStyledText([]Chunk{{Text: s, Style: tb.defaultStyle()}})
}

// SetStyledText replaces the entire content. Chunks whose Text contains
// "\n" are split across logical lines; style is preserved across the
// split.
func (tb *TextBuffer) SetStyledText(chunks []Chunk) {
	var lines []*logicalLine
	cur := &logicalLine{}
	for _, c := range chunks {
		parts := strings.Split(c.Text, "\n")
		for i, p := range parts {
			if p != "" {
				cur.chunks = append(cur.chunks, Chunk{Text: p, Style: c.Style})
			}
			if i < len(parts)-1 {
				lines = append(lines, cur)
				cur = &logicalLine{}
			}
		}
	}
	lines = append(lines, cur)
	tb.lines = FromSlice(lines)
	tb.clearSelectionIfOutOfRange()
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func graphemeCount(s string) int { return len(Graphemes(s)) }

func colToByte(text string, col int) int {
	if col <= 0 {
		return 0
	}
	gs := Graphemes(text)
	if col >= len(gs) {
		return len(text)
	}
	return gs[col].Offset
}

func byteToCol(text string, byteOff int) int {
	gs := Graphemes(text)
	for i, g := range gs {
		if g.Offset >= byteOff {
			return i
		}
	}
	return len(gs)
}

// chunksInRange returns the chunks (re-sliced at the boundary) covering
// byte range [start, end) of the line's concatenated text.
func chunksInRange(chunks []Chunk, start, end int) []Chunk {
	if start >= end {
		return nil
	}
	var out []Chunk
	pos := 0
	for _, c := range chunks {
		cStart, cEnd := pos, pos+len(c.Text)
		pos = cEnd
		if cEnd <= start || cStart >= end {
			continue
		}
		lo, hi := 0, len(c.Text)
		if cStart < start {
			lo = start - cStart
		}
		if cEnd > end {
			hi = end - cStart
		}
		if lo < hi {
			out = append(out, Chunk{Text: c.Text[lo:hi], Style: c.Style})
		}
	}
	return out
}

func cloneChunks(chunks []Chunk) []Chunk {
	return append([]Chunk(nil), chunks...)
}

func deleteLineRange(line *logicalLine, start, end int) {
	if start >= end {
		return
	}
	var out []Chunk
	pos := 0
	for _, c := range line.chunks {
		cStart, cEnd := pos, pos+len(c.Text)
		pos = cEnd
		if cEnd <= start || cStart >= end {
			out = append(out, c)
			continue
		}
		var left, right string
		if cStart < start {
			left = c.Text[:start-cStart]
		}
		if cEnd > end {
			right = c.Text[end-cStart:]
		}
		if left != "" {
			out = append(out, Chunk{Text: left, Style: c.Style})
		}
		if right != "" {
			out = append(out, Chunk{Text: right, Style: c.Style})
		}
	}
	line.chunks = out
	line.dirty = true
}

func styleBeforeByte(line *logicalLine, at int, fallback Style) Style {
	pos := 0
	var last Style = fallback
	for _, c := range line.chunks {
		cEnd := pos + len(c.Text)
		if pos < at {
			last = c.Style
		}
		pos = cEnd
		if pos >= at {
			break
		}
	}
	return last
}

func insertIntoLine(line *logicalLine, at int, text string, style Style) {
	if text == "" {
		return
	}
	var out []Chunk
	pos := 0
	inserted := false
	for _, c := range line.chunks {
		cStart, cEnd := pos, pos+len(c.Text)
		pos = cEnd
		if !inserted && at >= cStart && at <= cEnd {
			left := c.Text[:at-cStart]
			right := c.Text[at-cStart:]
			if left != "" {
				out = append(out, Chunk{Text: left, Style: c.Style})
			}
			out = append(out, Chunk{Text: text, Style: style})
			if right != "" {
				out = append(out, Chunk{Text: right, Style: c.Style})
			}
			inserted = true
			continue
		}
		out = append(out, c)
	}
	if !inserted {
		out = append(out, Chunk{Text: text, Style: style})
	}
	line.chunks = out
	line.dirty = true
}

// InsertAt inserts str at (row, col), grapheme-aligned; str may contain
// "\n", splitting the logical line. Out-of-range row/col clamp rather
// than error (spec §4.5 failure semantics). Returns the cursor position
// immediately after the inserted text.
func (tb *TextBuffer) InsertAt(row, col int, str string) (int, int) {
	if tb.lineCount() == 0 {
		tb.lines = FromSlice([]*logicalLine{{}})
	}
	row = clampInt(row, 0, tb.lineCount()-1)
	line, _ := tb.lines.At(row)
	text := lineText(line)
	col = clampInt(col, 0, graphemeCount(text))
	byteOff := colToByte(text, col)
	style := styleBeforeByte(line, byteOff, tb.defaultStyle())

	parts := strings.Split(str, "\n")
	if len(parts) == 1 {
		insertIntoLine(line, byteOff, parts[0], style)
		return row, col + graphemeCount(parts[0])
	}

	head := chunksInRange(line.chunks, 0, byteOff)
	tail := chunksInRange(line.chunks, byteOff, len(text))

	newLines := make([]*logicalLine, 0, len(parts))
	first := &logicalLine{chunks: append(cloneChunks(head), Chunk{Text: parts[0], Style: style})}
	newLines = append(newLines, first)
	for i := 1; i < len(parts)-1; i++ {
		newLines = append(newLines, &logicalLine{chunks: []Chunk{{Text: parts[i], Style: style}}})
	}
	last := &logicalLine{chunks: append([]Chunk{{Text: parts[len(parts)-1], Style: style}}, cloneChunks(tail)...)}
	newLines = append(newLines, last)

	tb.lines.Delete(row)
	for i, nl := range newLines {
		tb.lines.Insert(row+i, nl)
	}
	newRow := row + len(parts) - 1
	return newRow, graphemeCount(parts[len(parts)-1])
}

// DeleteRange removes the grapheme-aligned range [r1,c1, r2,c2), merging
// the surviving line fragments into one logical line when it spans more
// than one line.
func (tb *TextBuffer) DeleteRange(r1, c1, r2, c2 int) {
	if r1 > r2 || (r1 == r2 && c1 > c2) {
		r1, c1, r2, c2 = r2, c2, r1, c1
	}
	r1 = clampInt(r1, 0, tb.lineCount()-1)
	r2 = clampInt(r2, 0, tb.lineCount()-1)

	if r1 == r2 {
		line, _ := tb.lines.At(r1)
		text := lineText(line)
		c1 = clampInt(c1, 0, graphemeCount(text))
		c2 = clampInt(c2, 0, graphemeCount(text))
		b1, b2 := colToByte(text, c1), colToByte(text, c2)
		deleteLineRange(line, b1, b2)
		return
	}

	first, _ := tb.lines.At(r1)
	last, _ := tb.lines.At(r2)
	firstText, lastText := lineText(first), lineText(last)
	c1 = clampInt(c1, 0, graphemeCount(firstText))
	c2 = clampInt(c2, 0, graphemeCount(lastText))
	b1 := colToByte(firstText, c1)
	b2 := colToByte(lastText, c2)

	head := chunksInRange(first.chunks, 0, b1)
	tail := chunksInRange(last.chunks, b2, len(lastText))
	merged := &logicalLine{chunks: append(cloneChunks(head), tail...), dirty: true}

	for i := r2; i >= r1; i-- {
		tb.lines.Delete(i)
	}
	tb.lines.Insert(r1, merged)
}

// WrapTo sets wrapping parameters, invalidating the wrap cache for the
// entire buffer (spec §4.5).
func (tb *TextBuffer) WrapTo(width int, mode WrapMode, tabWidth int) {
	tb.width = width
	tb.mode = mode
	if tabWidth <= 0 {
		tabWidth = 8
	}
	tb.tabWidth = tabWidth
	for _, l := range tb.lines.toSlice() {
		l.dirty = true
	}
}

func (tb *TextBuffer) ensureWrapped(line *logicalLine) {
	if !line.dirty && line.wrapCache != nil {
		return
	}
	text := lineText(line)
	data := []byte(text)
	if tb.mode == WrapNone || tb.width <= 0 || len(data) == 0 {
		line.wrapCache = []wrapSegment{{start: 0}}
		line.dirty = false
		return
	}
	var candidates []int
	if tb.mode == WrapWord {
		for _, b := range FindWrapBreaks(data, WrapWord, tb.eastAsian) {
			candidates = append(candidates, b.Offset)
		}
	}
	var segs []wrapSegment
	offset := 0
	for offset < len(data) {
		rest := data[offset:]
		pos, _ := FindWrapPosByWidth(rest, tb.width, tb.tabWidth, true, tb.eastAsian)
		if pos <= 0 {
			pos = len(rest)
		}
		cut := pos
		if tb.mode == WrapWord {
			best := -1
			for _, c := range candidates {
				if c <= offset {
					continue
				}
				rel := c - offset
				if rel <= pos && rel > best {
					best = rel
				}
			}
			if best > 0 {
				cut = best
			}
		}
		segs = append(segs, wrapSegment{start: offset})
		offset += cut
	}
	if len(segs) == 0 {
		segs = []wrapSegment{{start: 0}}
	}
	line.wrapCache = segs
	line.dirty = false
}

// VirtualLineCount returns the total number of visual lines across the
// buffer under the current wrap settings.
func (tb *TextBuffer) VirtualLineCount() int {
	total := 0
	for _, l := range tb.lines.toSlice() {
		tb.ensureWrapped(l)
		total += len(l.wrapCache)
	}
	if total == 0 {
		return 1
	}
	return total
}

// VisualLineToLogical maps a visual row to its logical row and the byte
// offset within that row's text where the visual segment starts.
func (tb *TextBuffer) VisualLineToLogical(vRow int) (int, int) {
	vRow = clampInt(vRow, 0, tb.VirtualLineCount()-1)
	lines := tb.lines.toSlice()
	acc := 0
	for row, l := range lines {
		tb.ensureWrapped(l)
		n := len(l.wrapCache)
		if vRow < acc+n {
			return row, l.wrapCache[vRow-acc].start
		}
		acc += n
	}
	if len(lines) == 0 {
		return 0, 0
	}
	last := lines[len(lines)-1]
	return len(lines) - 1, last.wrapCache[len(last.wrapCache)-1].start
}

// LogicalToVisual maps a logical (row, col) to its visual (row, col)
// under the current wrap settings.
func (tb *TextBuffer) LogicalToVisual(row, col int) (int, int) {
	row = clampInt(row, 0, tb.lineCount()-1)
	lines := tb.lines.toSlice()
	line := lines[row]
	tb.ensureWrapped(line)
	text := lineText(line)
	col = clampInt(col, 0, graphemeCount(text))
	byteOff := colToByte(text, col)

	acc := 0
	for r := 0; r < row; r++ {
		tb.ensureWrapped(lines[r])
		acc += len(lines[r].wrapCache)
	}
	segIdx := 0
	for i, seg := range line.wrapCache {
		if seg.start <= byteOff {
			segIdx = i
		} else {
			break
		}
	}
	segStart := line.wrapCache[segIdx].start
	vCol := byteToCol(text, byteOff) - byteToCol(text, segStart)
	return acc + segIdx, vCol
}

// AddHighlight appends an overlay highlight to a logical row.
func (tb *TextBuffer) AddHighlight(row int, h Highlight) {
	if row < 0 || row >= tb.lineCount() {
		return
	}
	line, _ := tb.lines.At(row)
	line.highlights = append(line.highlights, h)
}

// ClearHighlights removes all highlights from rows in [rowStart, rowEnd].
func (tb *TextBuffer) ClearHighlights(rowStart, rowEnd int) {
	rowStart = clampInt(rowStart, 0, tb.lineCount()-1)
	rowEnd = clampInt(rowEnd, 0, tb.lineCount()-1)
	for r := rowStart; r <= rowEnd; r++ {
		line, _ := tb.lines.At(r)
		line.highlights = nil
	}
}

func chunkStyleAt(chunks []Chunk, segStart, at int) Style {
	pos := segStart
	for _, c := range chunks {
		if at >= pos && at < pos+len(c.Text) {
			return c.Style
		}
		pos += len(c.Text)
	}
	if len(chunks) > 0 {
		return chunks[len(chunks)-1].Style
	}
	return DefaultStyle()
}

// GetLineChunksForVisualRow is the unit the scene graph consumes: the
// resolved (text, fg, bg, attrs, link) segments for one visual row, with
// highlight overlays applied (higher priority wins per cell).
func (tb *TextBuffer) GetLineChunksForVisualRow(vRow int) []RenderChunk {
	row, startByte := tb.VisualLineToLogical(vRow)
	line, ok := tb.lines.At(row)
	if !ok {
		return nil
	}
	tb.ensureWrapped(line)
	text := lineText(line)
	segEnd := len(text)
	for i, seg := range line.wrapCache {
		if seg.start == startByte && i+1 < len(line.wrapCache) {
			segEnd = line.wrapCache[i+1].start
			break
		}
	}
	base := chunksInRange(line.chunks, startByte, segEnd)
	if len(line.highlights) == 0 {
		return toRenderChunks(base)
	}
	return tb.applyHighlights(line, text, startByte, segEnd, base)
}

func toRenderChunks(chunks []Chunk) []RenderChunk {
	out := make([]RenderChunk, 0, len(chunks))
	for _, c := range chunks {
		// adjacent chunks with identical style are merged into one
		if n := len(out); n > 0 && out[n-1].FG == c.Style.FG && out[n-1].BG == c.Style.BG && out[n-1].Attrs == c.Style.Attr && out[n-1].Link == c.Style.Link {
			out[n-1].Text += c.Text
			continue
		}
		out = append(out, RenderChunk{Text: c.Text, FG: c.Style.FG, BG: c.Style.BG, Attrs: c.Style.Attr, Link: c.Style.Link})
	}
	return out
}

type highlightSpan struct {
	start, end, priority int
	style                Style
}

func (tb *TextBuffer) applyHighlights(line *logicalLine, text string, segStart, segEnd int, base []Chunk) []RenderChunk {
	boundaries := map[int]bool{segStart: true, segEnd: true}
	pos := segStart
	for _, c := range base {
		boundaries[pos] = true
		pos += len(c.Text)
		boundaries[pos] = true
	}
	var spans []highlightSpan
	for _, h := range line.highlights {
		hb1 := colToByte(text, h.StartCol)
		hb2 := colToByte(text, h.EndCol)
		if hb2 <= segStart || hb1 >= segEnd {
			continue
		}
		if hb1 < segStart {
			hb1 = segStart
		}
		if hb2 > segEnd {
			hb2 = segEnd
		}
		boundaries[hb1] = true
		boundaries[hb2] = true
		style := DefaultStyle()
		if tb.styles != nil {
			style = tb.styles.StyleOf(h.StyleID)
		}
		spans = append(spans, highlightSpan{start: hb1, end: hb2, priority: h.Priority, style: style})
	}

	sorted := make([]int, 0, len(boundaries))
	for b := range boundaries {
		sorted = append(sorted, b)
	}
	sort.Ints(sorted)

	var out []RenderChunk
	for i := 0; i+1 < len(sorted); i++ {
		s, e := sorted[i], sorted[i+1]
		if s < segStart || e > segEnd || s >= e {
			continue
		}
		style := chunkStyleAt(base, segStart, s)
		bestPriority := -1 << 31
		for _, sp := range spans {
			if sp.start <= s && sp.end >= e && sp.priority > bestPriority {
				bestPriority = sp.priority
				style = sp.style
			}
		}
		out = append(out, RenderChunk{Text: text[s:e], FG: style.FG, BG: style.BG, Attrs: style.Attr, Link: style.Link})
	}
	return out
}

// SetSelection stores an anchor/focus pair in logical coordinates.
func (tb *TextBuffer) SetSelection(anchorRow, anchorCol, focusRow, focusCol int) {
	tb.hasSelection = true
	tb.anchorRow, tb.anchorCol = anchorRow, anchorCol
	tb.focusRow, tb.focusCol = focusRow, focusCol
}

// ClearSelection drops the current selection.
func (tb *TextBuffer) ClearSelection() { tb.hasSelection = false }

func (tb *TextBuffer) clearSelectionIfOutOfRange() {
	if tb.hasSelection && (tb.anchorRow >= tb.lineCount() || tb.focusRow >= tb.lineCount()) {
		tb.hasSelection = false
	}
}

// HasSelection reports whether a selection is active.
func (tb *TextBuffer) HasSelection() bool { return tb.hasSelection }

// GetSelectedText concatenates the chunks within the current selection's
// logical range. columnar inserts "\t" between per-line fragments instead
// of "\n" (spec §4.5 "if the node requested columnar output").
func (tb *TextBuffer) GetSelectedText(columnar bool) string {
	if !tb.hasSelection {
		return ""
	}
	r1, c1, r2, c2 := tb.anchorRow, tb.anchorCol, tb.focusRow, tb.focusCol
	if r1 > r2 || (r1 == r2 && c1 > c2) {
		r1, c1, r2, c2 = r2, c2, r1, c1
	}
	r1 = clampInt(r1, 0, tb.lineCount()-1)
	r2 = clampInt(r2, 0, tb.lineCount()-1)

	sep := "\n"
	if columnar {
		sep = "\t"
	}
	var b strings.Builder
	for row := r1; row <= r2; row++ {
		line, _ := tb.lines.At(row)
		text := lineText(line)
		start, end := 0, graphemeCount(text)
		if row == r1 {
			start = clampInt(c1, 0, graphemeCount(text))
		}
		if row == r2 {
			end = clampInt(c2, 0, graphemeCount(text))
		}
		if start > end {
			start = end
		}
		b.WriteString(text[colToByte(text, start):colToByte(text, end)])
		if row < r2 {
			b.WriteString(sep)
		}
	}
	return b.String()
}
