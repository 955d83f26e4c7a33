package opentui

import "testing"

func TestBuffer(t *testing.T) {
	t.Run("NewBuffer", func(t *testing.T) {
		buf := NewBuffer(80, 24)
		if buf.Width() != 80 || buf.Height() != 24 {
			t.Errorf("expected 80x24, got %dx%d", buf.Width(), buf.Height())
		}
		for y := 0; y < buf.Height(); y++ {
			for x := 0; x < buf.Width(); x++ {
				if c := buf.Get(x, y); c.Rune != ' ' {
					t.Fatalf("expected space at (%d,%d), got %q", x, y, c.Rune)
				}
			}
		}
	})

	t.Run("InBounds", func(t *testing.T) {
		buf := NewBuffer(10, 10)
		tests := []struct {
			x, y   int
			expect bool
		}{
			{0, 0, true},
			{9, 9, true},
			{-1, 0, false},
			{0, -1, false},
			{10, 0, false},
			{0, 10, false},
		}
		for _, tt := range tests {
			if got := buf.InBounds(tt.x, tt.y); got != tt.expect {
				t.Errorf("InBounds(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.expect)
			}
		}
	})

	t.Run("SetGetClips", func(t *testing.T) {
		buf := NewBuffer(10, 10)
		cell := NewCell('X', DefaultStyle())
		buf.Set(5, 5, cell)
		if got := buf.Get(5, 5); !got.Equal(cell) {
			t.Errorf("got %+v, want %+v", got, cell)
		}
		buf.Set(-1, -1, cell) // silent clip, not a panic
		if got := buf.Get(-1, -1); got.Rune != ' ' {
			t.Error("expected empty cell for out of bounds read")
		}
	})

	t.Run("BorderMerge", func(t *testing.T) {
		buf := NewBuffer(5, 5)
		buf.Set(2, 0, NewCell(boxVertical, DefaultStyle()))
		buf.Set(2, 0, NewCell(boxHorizontal, DefaultStyle()))
		got := buf.Get(2, 0)
		if got.Rune != boxCross {
			t.Errorf("expected cross junction, got %q", got.Rune)
		}
	})

	t.Run("DrawBoxDrawsCornersEdgesAndFill", func(t *testing.T) {
		buf := NewBuffer(6, 4)
		red := RGB(200, 0, 0)
		buf.DrawBox(0, 0, 6, 4, BorderSingle, DefaultStyle(), &red)

		if got := buf.Get(0, 0).Rune; got != BorderSingle.TopLeft {
			t.Errorf("expected top-left corner glyph, got %q", got)
		}
		if got := buf.Get(5, 3).Rune; got != BorderSingle.BottomRight {
			t.Errorf("expected bottom-right corner glyph, got %q", got)
		}
		if got := buf.Get(2, 0).Rune; got != BorderSingle.Horizontal {
			t.Errorf("expected horizontal edge glyph, got %q", got)
		}
		if got := buf.Get(0, 2).Rune; got != BorderSingle.Vertical {
			t.Errorf("expected vertical edge glyph, got %q", got)
		}
		r, _, _ := buf.Get(2, 1).Style.BG.RGB8()
		if r != 200 {
			t.Errorf("expected fill color painted into the interior, got r=%d", r)
		}
	})

	t.Run("DrawBoxTooSmallIsNoop", func(t *testing.T) {
		buf := NewBuffer(4, 4)
		buf.DrawBox(0, 0, 1, 1, BorderSingle, DefaultStyle(), nil)
		if got := buf.Get(0, 0).Rune; got != ' ' {
			t.Errorf("expected a sub-2x2 box request to draw nothing, got %q", got)
		}
	})

	t.Run("DrawTextWideGlyphAtEdge", func(t *testing.T) {
		buf := NewBuffer(3, 1)
		buf.DrawText("a中", 1, 0, DefaultStyle(), 8)
		// 'a' fits at col 1; the wide glyph at col 2 can't fit (needs 2
		// cols within width 3) so it's skipped entirely, not split.
		if got := buf.Get(1, 0); got.Rune != 'a' {
			t.Errorf("expected 'a' at col 1, got %q", got.Rune)
		}
		if got := buf.Get(2, 0); got.Rune != ' ' {
			t.Errorf("expected untouched cell at col 2, got %q", got.Rune)
		}
	})

	t.Run("DrawTextControlCharReplaced", func(t *testing.T) {
		buf := NewBuffer(5, 1)
		buf.DrawText("a\x01b", 0, 0, DefaultStyle(), 8)
		if got := buf.Get(1, 0); got.Rune != replacementGlyph {
			t.Errorf("expected replacement glyph, got %q", got.Rune)
		}
	})

	t.Run("ClearResetsDirty", func(t *testing.T) {
		buf := NewBuffer(4, 4)
		buf.ClearDirty()
		buf.Set(0, 0, NewCell('x', DefaultStyle()))
		if !buf.RowDirty(0) {
			t.Fatal("expected row 0 dirty after Set")
		}
		buf.ClearDirty()
		if buf.RowDirty(0) {
			t.Error("expected row 0 clean after ClearDirty")
		}
	})

	t.Run("ResizeDoesNotPreserveContent", func(t *testing.T) {
		buf := NewBuffer(4, 4)
		buf.Set(0, 0, NewCell('x', DefaultStyle()))
		buf.Resize(6, 6)
		if buf.Width() != 6 || buf.Height() != 6 {
			t.Fatalf("expected 6x6, got %dx%d", buf.Width(), buf.Height())
		}
		if got := buf.Get(0, 0); got.Rune != ' ' {
			t.Error("expected content cleared on resize")
		}
	})

	t.Run("SuperSampleBlitIdempotent", func(t *testing.T) {
		buf1 := NewBuffer(2, 2)
		buf2 := NewBuffer(2, 2)
		px := []RGBA{
			{R: 1, G: 0, B: 0, A: 1}, {R: 0, G: 1, B: 0, A: 1},
			{R: 0, G: 0, B: 1, A: 1}, {R: 1, G: 1, B: 0, A: 1},
		}
		buf1.SuperSampleBlit(px, 2, 2, 0, 0, SuperSampleStandard)
		buf2.SuperSampleBlit(px, 2, 2, 0, 0, SuperSampleStandard)
		if buf1.String() != buf2.String() {
			t.Error("expected identical source pixels to re-encode identically")
		}
	})

	t.Run("FillRectClipsToZeroSize", func(t *testing.T) {
		buf := NewBuffer(4, 4)
		buf.FillRect(0, 0, 0, 0, RGBA{A: 1})
		buf.FillRect(-5, -5, 2, 2, RGBA{A: 1}) // fully out of range: no-op, no panic
	})

	t.Run("LinkRoundTrip", func(t *testing.T) {
		buf := NewBuffer(4, 4)
		buf.Set(1, 1, NewCell('x', Style{Link: "https://example.com"}))
		if got := buf.Link(1, 1); got != "https://example.com" {
			t.Errorf("expected link, got %q", got)
		}
		buf.Set(1, 1, NewCell('y', DefaultStyle()))
		if got := buf.Link(1, 1); got != "" {
			t.Errorf("expected link cleared, got %q", got)
		}
	})
}
