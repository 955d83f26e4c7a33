package opentui

import "testing"

func TestParser(t *testing.T) {
	t.Run("PrintableRune", func(t *testing.T) {
		p := NewParser()
		evs := p.Feed([]byte("a"))
		if len(evs) != 1 || evs[0].Kind != InputKey || evs[0].Rune != 'a' {
			t.Fatalf("unexpected events: %+v", evs)
		}
	})

	t.Run("MultibyteRune", func(t *testing.T) {
		p := NewParser()
		evs := p.Feed([]byte("中"))
		if len(evs) != 1 || evs[0].Rune != '中' {
			t.Fatalf("expected one decoded multibyte rune, got %+v", evs)
		}
	})

	t.Run("SplitSequenceAcrossFeeds", func(t *testing.T) {
		p := NewParser()
		evs := p.Feed([]byte("\x1b["))
		if len(evs) != 0 {
			t.Fatalf("expected no events for incomplete sequence, got %+v", evs)
		}
		evs = p.Feed([]byte("A"))
		if len(evs) != 1 || evs[0].Name != "Up" {
			t.Fatalf("expected Up key after completing sequence, got %+v", evs)
		}
	})

	t.Run("ArrowKeys", func(t *testing.T) {
		p := NewParser()
		evs := p.Feed([]byte("\x1b[A\x1b[B\x1b[C\x1b[D"))
		want := []string{"Up", "Down", "Right", "Left"}
		if len(evs) != len(want) {
			t.Fatalf("expected %d events, got %d: %+v", len(want), len(evs), evs)
		}
		for i, w := range want {
			if evs[i].Name != w {
				t.Errorf("event %d: got %q, want %q", i, evs[i].Name, w)
			}
		}
	})

	t.Run("FunctionKeyTilde", func(t *testing.T) {
		p := NewParser()
		evs := p.Feed([]byte("\x1b[15~"))
		if len(evs) != 1 || evs[0].Name != "F5" {
			t.Fatalf("expected F5, got %+v", evs)
		}
	})

	t.Run("AltKey", func(t *testing.T) {
		p := NewParser()
		evs := p.Feed([]byte("\x1bx"))
		if len(evs) != 1 || evs[0].Rune != 'x' || evs[0].Mods != ModAlt {
			t.Fatalf("expected alt+x, got %+v", evs)
		}
	})

	t.Run("FocusInOut", func(t *testing.T) {
		p := NewParser()
		evs := p.Feed([]byte("\x1b[I\x1b[O"))
		if len(evs) != 2 || !evs[0].Focused || evs[1].Focused {
			t.Fatalf("expected focus in then out, got %+v", evs)
		}
	})

	t.Run("UnrecognizedEscapeDropsOneByte", func(t *testing.T) {
		p := NewParser()
		// ESC [ z is not a recognized final byte; the parser drops only the
		// ESC and resynchronizes, so the remaining bytes decode as plain
		// keys rather than stalling.
		evs := p.Feed([]byte("\x1b[za"))
		if len(evs) != 3 || evs[0].Rune != '[' || evs[1].Rune != 'z' || evs[2].Rune != 'a' {
			t.Fatalf("expected parser to drop ESC and decode '[', 'z', 'a', got %+v", evs)
		}
	})

	t.Run("SGRMouseDownThenUp", func(t *testing.T) {
		p := NewParser()
		evs := p.Feed([]byte("\x1b[<0;10;20M"))
		if len(evs) != 1 || evs[0].Kind != InputMouse || evs[0].Mouse.Kind != MouseDown {
			t.Fatalf("expected mouse down, got %+v", evs)
		}
		if evs[0].Mouse.X != 9 || evs[0].Mouse.Y != 19 {
			t.Fatalf("expected 0-based (9,19), got (%d,%d)", evs[0].Mouse.X, evs[0].Mouse.Y)
		}
		evs = p.Feed([]byte("\x1b[<0;10;20m"))
		if len(evs) != 1 || evs[0].Mouse.Kind != MouseUp {
			t.Fatalf("expected mouse up, got %+v", evs)
		}
	})

	t.Run("SGRMouseDragVsMove", func(t *testing.T) {
		p := NewParser()
		p.Feed([]byte("\x1b[<0;1;1M")) // press left
		evs := p.Feed([]byte("\x1b[<32;2;2M"))
		if len(evs) != 1 || evs[0].Mouse.Kind != MouseDrag {
			t.Fatalf("expected drag while a button is held, got %+v", evs)
		}
		evs = p.Feed([]byte("\x1b[<0;2;2m"))
		if len(evs) != 2 || evs[0].Mouse.Kind != MouseUp || evs[1].Mouse.Kind != MouseDragEnd {
			t.Fatalf("expected up then drag-end on release after a drag, got %+v", evs)
		}

		evs = p.Feed([]byte("\x1b[<32;3;3M"))
		if len(evs) != 1 || evs[0].Mouse.Kind != MouseMove {
			t.Fatalf("expected plain move with no button held, got %+v", evs)
		}
	})

	t.Run("SGRMouseScroll", func(t *testing.T) {
		p := NewParser()
		evs := p.Feed([]byte("\x1b[<64;5;5M"))
		if len(evs) != 1 || evs[0].Mouse.Kind != MouseScroll || evs[0].Mouse.Buttons != ButtonScrollUp {
			t.Fatalf("expected scroll up, got %+v", evs)
		}
	})

	t.Run("SGRMouseModifiers", func(t *testing.T) {
		p := NewParser()
		// button code with shift(4)+alt(8)+ctrl(16) bits set over left click (0).
		evs := p.Feed([]byte("\x1b[<28;1;1M"))
		if len(evs) != 1 {
			t.Fatalf("expected one event, got %+v", evs)
		}
		mods := evs[0].Mods
		if mods&ModShift == 0 || mods&ModAlt == 0 || mods&ModCtrl == 0 {
			t.Errorf("expected all three modifiers set, got %v", mods)
		}
	})

	t.Run("X10Mouse", func(t *testing.T) {
		p := NewParser()
		evs := p.Feed([]byte{0x1b, '[', 'M', 0x20, 32 + 5, 32 + 5})
		if len(evs) != 1 || evs[0].Mouse.Kind != MouseDown {
			t.Fatalf("expected X10 mouse down, got %+v", evs)
		}
		if evs[0].Mouse.X != 4 || evs[0].Mouse.Y != 4 {
			t.Fatalf("expected 0-based (4,4), got (%d,%d)", evs[0].Mouse.X, evs[0].Mouse.Y)
		}
	})

	t.Run("MalformedSGRMouseGivesUpRatherThanHangs", func(t *testing.T) {
		p := NewParser()
		garbage := make([]byte, 40)
		garbage[0], garbage[1], garbage[2] = 0x1b, '[', '<'
		for i := 3; i < 40; i++ {
			garbage[i] = '9' // digits forever, no terminator
		}
		evs := p.Feed(garbage)
		_ = evs // must not panic or loop forever; reaching here is the assertion
	})

	t.Run("DAReplyIsCapabilityEvent", func(t *testing.T) {
		p := NewParser()
		evs := p.Feed([]byte("\x1b[?1;2c"))
		if len(evs) != 1 || evs[0].Kind != InputCapability {
			t.Fatalf("expected capability event, got %+v", evs)
		}
	})

	t.Run("OSCPassthroughTerminatedByST", func(t *testing.T) {
		p := NewParser()
		evs := p.Feed([]byte("\x1b]52;c;aGVsbG8=\x1b\\"))
		if len(evs) != 1 || evs[0].Kind != InputCapability {
			t.Fatalf("expected OSC passthrough as a capability event, got %+v", evs)
		}
	})
}
