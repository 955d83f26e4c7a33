package opentui

import "testing"

func TestTextBuffer(t *testing.T) {
	t.Run("NewBufferHasOneEmptyLine", func(t *testing.T) {
		tb := NewTextBuffer(nil)
		if tb.lineCount() != 1 {
			t.Fatalf("expected 1 line, got %d", tb.lineCount())
		}
	})

	t.Run("SetTextSplitsOnNewline", func(t *testing.T) {
		tb := NewTextBuffer(nil)
		tb.SetText("one\ntwo\nthree")
		if tb.lineCount() != 3 {
			t.Fatalf("expected 3 lines, got %d", tb.lineCount())
		}
		chunks := tb.GetLineChunksForVisualRow(1)
		if len(chunks) != 1 || chunks[0].Text != "two" {
			t.Errorf("expected line 1 to be %q, got %+v", "two", chunks)
		}
	})

	t.Run("InsertAtMidLine", func(t *testing.T) {
		tb := NewTextBuffer(nil)
		tb.SetText("hello")
		row, col := tb.InsertAt(0, 2, "XY")
		if row != 0 || col != 4 {
			t.Errorf("expected cursor at (0,4), got (%d,%d)", row, col)
		}
		chunks := tb.GetLineChunksForVisualRow(0)
		if chunks[0].Text != "heXYllo" {
			t.Errorf("expected %q, got %q", "heXYllo", chunks[0].Text)
		}
	})

	t.Run("InsertAtSplitsLineOnNewline", func(t *testing.T) {
		tb := NewTextBuffer(nil)
		tb.SetText("abcdef")
		row, col := tb.InsertAt(0, 3, "\nX")
		if row != 1 || col != 1 {
			t.Errorf("expected cursor at (1,1), got (%d,%d)", row, col)
		}
		if tb.lineCount() != 2 {
			t.Fatalf("expected 2 lines after split, got %d", tb.lineCount())
		}
	})

	t.Run("DeleteRangeWithinOneLine", func(t *testing.T) {
		tb := NewTextBuffer(nil)
		tb.SetText("hello world")
		tb.DeleteRange(0, 5, 0, 11)
		chunks := tb.GetLineChunksForVisualRow(0)
		if chunks[0].Text != "hello" {
			t.Errorf("expected %q, got %q", "hello", chunks[0].Text)
		}
	})

	t.Run("DeleteRangeAcrossLinesMerges", func(t *testing.T) {
		tb := NewTextBuffer(nil)
		tb.SetText("one\ntwo\nthree")
		tb.DeleteRange(0, 1, 2, 2)
		if tb.lineCount() != 1 {
			t.Fatalf("expected lines to merge into 1, got %d", tb.lineCount())
		}
		chunks := tb.GetLineChunksForVisualRow(0)
		if chunks[0].Text != "oree" {
			t.Errorf("expected %q, got %q", "oree", chunks[0].Text)
		}
	})

	t.Run("DeleteRangeNormalizesReversedOrder", func(t *testing.T) {
		tb := NewTextBuffer(nil)
		tb.SetText("hello world")
		tb.DeleteRange(0, 11, 0, 5) // end before start
		chunks := tb.GetLineChunksForVisualRow(0)
		if chunks[0].Text != "hello" {
			t.Errorf("expected %q, got %q", "hello", chunks[0].Text)
		}
	})

	t.Run("WrapNoneIsSingleSegment", func(t *testing.T) {
		tb := NewTextBuffer(nil)
		tb.SetText("a very long single line of text")
		tb.WrapTo(10, WrapNone, 8)
		if tb.VirtualLineCount() != 1 {
			t.Errorf("expected 1 visual line under WrapNone, got %d", tb.VirtualLineCount())
		}
	})

	t.Run("WrapWidthProducesMultipleSegments", func(t *testing.T) {
		tb := NewTextBuffer(nil)
		tb.SetText("aaaaaaaaaa bbbbbbbbbb cccccccccc")
		tb.WrapTo(10, WrapWord, 8)
		if tb.VirtualLineCount() < 2 {
			t.Errorf("expected wrapping to produce multiple visual lines, got %d", tb.VirtualLineCount())
		}
	})

	t.Run("VisualLineToLogicalRoundTrips", func(t *testing.T) {
		tb := NewTextBuffer(nil)
		tb.SetText("one\ntwo")
		tb.WrapTo(80, WrapWord, 8)
		row, _ := tb.VisualLineToLogical(1)
		if row != 1 {
			t.Errorf("expected visual row 1 to map to logical row 1, got %d", row)
		}
	})

	t.Run("LogicalToVisualRoundTrips", func(t *testing.T) {
		tb := NewTextBuffer(nil)
		tb.SetText("one\ntwo")
		tb.WrapTo(80, WrapWord, 8)
		vRow, vCol := tb.LogicalToVisual(1, 2)
		if vRow != 1 || vCol != 2 {
			t.Errorf("expected (1,2), got (%d,%d)", vRow, vCol)
		}
	})

	t.Run("SelectionLifecycle", func(t *testing.T) {
		tb := NewTextBuffer(nil)
		tb.SetText("hello\nworld")
		if tb.HasSelection() {
			t.Fatal("expected no selection initially")
		}
		tb.SetSelection(0, 1, 1, 3)
		if !tb.HasSelection() {
			t.Fatal("expected selection after SetSelection")
		}
		if got := tb.GetSelectedText(false); got != "ello\nwor" {
			t.Errorf("expected %q, got %q", "ello\nwor", got)
		}
		tb.ClearSelection()
		if tb.HasSelection() {
			t.Error("expected selection cleared")
		}
	})

	t.Run("SelectionColumnarUsesTabSeparator", func(t *testing.T) {
		tb := NewTextBuffer(nil)
		tb.SetText("abc\ndef")
		tb.SetSelection(0, 0, 1, 3)
		got := tb.GetSelectedText(true)
		if got != "abc\tdef" {
			t.Errorf("expected tab-separated columnar text, got %q", got)
		}
	})

	t.Run("SetStyledTextClearsOutOfRangeSelection", func(t *testing.T) {
		tb := NewTextBuffer(nil)
		tb.SetText("one\ntwo\nthree")
		tb.SetSelection(0, 0, 2, 1)
		tb.SetStyledText([]Chunk{{Text: "only one line now"}})
		if tb.HasSelection() {
			t.Error("expected selection to clear once its rows are out of range")
		}
	})

	t.Run("HighlightOverridesChunkStyleWithinSpan", func(t *testing.T) {
		st := NewStyleTable()
		id := st.Register("hl", DefaultStyle().Bold())
		tb := NewTextBuffer(st)
		tb.SetText("hello world")
		tb.AddHighlight(0, Highlight{StartCol: 0, EndCol: 5, StyleID: id, Priority: 1})
		chunks := tb.GetLineChunksForVisualRow(0)
		found := false
		for _, c := range chunks {
			if c.Text == "hello" && c.Attrs&AttrBold != 0 {
				found = true
			}
		}
		if !found {
			t.Errorf("expected the highlighted span to carry bold attribute, got %+v", chunks)
		}
	})

	t.Run("ClearHighlightsRemovesOverlay", func(t *testing.T) {
		st := NewStyleTable()
		id := st.Register("hl", DefaultStyle().Bold())
		tb := NewTextBuffer(st)
		tb.SetText("hello")
		tb.AddHighlight(0, Highlight{StartCol: 0, EndCol: 5, StyleID: id, Priority: 1})
		tb.ClearHighlights(0, 0)
		chunks := tb.GetLineChunksForVisualRow(0)
		for _, c := range chunks {
			if c.Attrs&AttrBold != 0 {
				t.Error("expected highlight removed after ClearHighlights")
			}
		}
	})

	t.Run("InsertAtOutOfRangeClamps", func(t *testing.T) {
		tb := NewTextBuffer(nil)
		tb.SetText("hi")
		row, col := tb.InsertAt(99, 99, "!")
		if row != 0 {
			t.Errorf("expected row clamped to 0, got %d", row)
		}
		if col != 3 {
			t.Errorf("expected col clamped then appended (3), got %d", col)
		}
	})
}
