package opentui

import "testing"

func TestRect(t *testing.T) {
	t.Run("IntersectOverlap", func(t *testing.T) {
		a := Rect{X: 0, Y: 0, W: 10, H: 10}
		b := Rect{X: 5, Y: 5, W: 10, H: 10}
		got := a.Intersect(b)
		want := Rect{X: 5, Y: 5, W: 5, H: 5}
		if got != want {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("IntersectDisjointIsZeroArea", func(t *testing.T) {
		a := Rect{X: 0, Y: 0, W: 5, H: 5}
		b := Rect{X: 20, Y: 20, W: 5, H: 5}
		got := a.Intersect(b)
		if got.W != 0 || got.H != 0 {
			t.Errorf("expected zero-area intersection, got %+v", got)
		}
	})

	t.Run("Contains", func(t *testing.T) {
		r := Rect{X: 2, Y: 2, W: 3, H: 3}
		if !r.Contains(3, 3) {
			t.Error("expected (3,3) inside")
		}
		if r.Contains(5, 5) {
			t.Error("expected (5,5) outside (exclusive far edge)")
		}
	})
}

func TestComposite(t *testing.T) {
	t.Run("ClearsToBackground", func(t *testing.T) {
		back := NewBuffer(10, 5)
		root := NewBox("root")
		root.Visible = true
		Composite(back, root, RGB(1, 2, 3))
		for x := 0; x < 10; x++ {
			r, g, b := back.Get(x, 0).Style.BG.RGB8()
			if r != 1 || g != 2 || b != 3 {
				t.Fatalf("expected background color, got %d,%d,%d", r, g, b)
			}
		}
	})

	t.Run("InvisibleRootDrawsNothing", func(t *testing.T) {
		back := NewBuffer(5, 5)
		root := NewBox("root")
		root.Visible = false
		root.Style = DefaultStyle().Background(RGB(9, 9, 9))
		root.W, root.H = 5, 5
		Composite(back, root, DefaultColor())
		// only cleared to bg, no box drawn
		if back.Get(0, 0).Style.BG.Mode != ColorModeDefault {
			t.Error("expected default background when root is invisible")
		}
	})

	t.Run("DrawsBoxBackground", func(t *testing.T) {
		back := NewBuffer(5, 5)
		root := NewBox("root")
		root.W, root.H = 5, 5
		root.Style = DefaultStyle().Background(RGB(200, 0, 0))
		Composite(back, root, DefaultColor())
		r, _, _ := back.Get(2, 2).Style.BG.RGB8()
		if r != 200 {
			t.Errorf("expected box background painted, got r=%d", r)
		}
	})

	t.Run("ChildClippedToParentBounds", func(t *testing.T) {
		back := NewBuffer(10, 10)
		root := NewBox("root")
		root.W, root.H = 4, 4

		child := NewBox("child")
		child.X, child.Y = 2, 2
		child.W, child.H = 10, 10 // extends far past parent
		child.Style = DefaultStyle().Background(RGB(9, 9, 9))
		root.Add(child)

		Composite(back, root, DefaultColor())

		// (5,5) is inside the child's own bounds but outside root's clip.
		if back.Get(5, 5).Style.BG.Mode == ColorModeRGB {
			t.Error("expected child to be clipped to its parent's bounds")
		}
	})

	t.Run("HigherZIndexDrawsLast", func(t *testing.T) {
		back := NewBuffer(5, 5)
		root := NewBox("root")
		root.W, root.H = 5, 5

		low := NewBox("low")
		low.W, low.H = 5, 5
		low.ZIndex = 0
		low.Style = DefaultStyle().Background(RGB(1, 0, 0))
		root.Add(low)

		high := NewBox("high")
		high.W, high.H = 5, 5
		high.ZIndex = 1
		high.Style = DefaultStyle().Background(RGB(2, 0, 0))
		root.Add(high)

		Composite(back, root, DefaultColor())
		r, _, _ := back.Get(0, 0).Style.BG.RGB8()
		if r != 2 {
			t.Errorf("expected the higher z-index box to draw on top, got r=%d", r)
		}
	})
}
