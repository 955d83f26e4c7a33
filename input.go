package opentui

// KeyMods is a bitset of modifier keys accompanying a key or mouse event.
type KeyMods uint8

const (
	ModShift KeyMods = 1 << iota
	ModAlt
	ModCtrl
)

// InputEventKind tags which field of InputEvent is meaningful.
type InputEventKind uint8

const (
	InputKey InputEventKind = iota
	InputMouse
	InputFocus
	InputPaste
	InputCapability
)

// InputEvent is the single typed event the parser produces, tagged by
// Kind rather than split into per-kind return channels (spec §4.9
// "producing typed events").
type InputEvent struct {
	Kind InputEventKind

	// InputKey
	Rune rune   // printable keypress, 0 for named keys
	Name string // e.g. "Up", "F5", "" for printable/unnamed
	Mods KeyMods

	// InputMouse
	Mouse MouseEvent

	// InputFocus
	Focused bool

	// InputPaste / InputCapability
	Text string
}

// Parser is the single-threaded byte-at-a-time input state machine (spec
// §4.9, §9 REDESIGN FLAGS "regex and string splitting for ANSI detection
// → byte-at-a-time state machine, no backtracking, no allocation per
// byte"). Grounded on the CSI/SS3 prefix dispatch in teacher-pack
// `phroun-purfecterm/cli/input.go`'s parseEscapeSequence, generalized
// here to also cover SGR/X10 mouse, DA replies, and DCS/OSC passthrough,
// and restructured as an incremental Feed rather than one-shot parse
// over an already-complete buffer.
type Parser struct {
	pending []byte
	pressed ButtonSet
	dragged bool
	extra   []InputEvent // follow-up events queued by the current parse (see parseSGRMouse)
}

// NewParser creates an input parser with no pending bytes.
func NewParser() *Parser { return &Parser{} }

// Feed consumes data incrementally, appending to any bytes buffered from
// a previous incomplete sequence, and returns every event that could be
// fully parsed. A trailing incomplete sequence is buffered for the next
// call. An unrecognized escape sequence is dropped, advancing by exactly
// one byte, so Feed never deadlocks on garbage input (spec §4.9
// contract).
func (p *Parser) Feed(data []byte) []InputEvent {
	p.pending = append(p.pending, data...)
	var events []InputEvent

	for len(p.pending) > 0 {
		if p.pending[0] != 0x1b {
			r, size := decodeRune(p.pending)
			events = append(events, InputEvent{Kind: InputKey, Rune: r})
			p.pending = p.pending[size:]
			continue
		}

		ev, consumed, complete := p.parseEscape(p.pending)
		if !complete {
			break // wait for more bytes
		}
		if consumed == 0 {
			// Unparseable escape: drop one byte and keep going.
			p.pending = p.pending[1:]
			continue
		}
		if ev != nil {
			events = append(events, *ev)
		}
		if len(p.extra) > 0 {
			events = append(events, p.extra...)
			p.extra = p.extra[:0]
		}
		p.pending = p.pending[consumed:]
	}
	return events
}

// parseEscape attempts to parse one escape sequence starting at seq[0]
// == ESC. complete is false when more bytes are needed; consumed == 0
// with complete == true means the sequence is recognized-but-invalid and
// the caller should drop one byte.
func (p *Parser) parseEscape(seq []byte) (ev *InputEvent, consumed int, complete bool) {
	if len(seq) < 2 {
		return nil, 0, false
	}

	switch seq[1] {
	case '[':
		return p.parseCSI(seq)
	case 'O':
		return p.parseSS3(seq)
	case 'P', ']':
		return p.parsePassthrough(seq)
	default:
		// Alt+key.
		return &InputEvent{Kind: InputKey, Rune: rune(seq[1]), Mods: ModAlt}, 2, true
	}
}

// parseCSI parses "ESC [ ...", covering focus in/out, SGR/X10 mouse, DA
// replies, and named keys (spec §4.9 prefix table).
func (p *Parser) parseCSI(seq []byte) (*InputEvent, int, bool) {
	if len(seq) < 3 {
		return nil, 0, false
	}
	switch seq[2] {
	case 'I':
		return &InputEvent{Kind: InputFocus, Focused: true}, 3, true
	case 'O':
		return &InputEvent{Kind: InputFocus, Focused: false}, 3, true
	case '<':
		return p.parseSGRMouse(seq)
	case 'M':
		return p.parseX10Mouse(seq)
	}

	// Scan for a terminator: an uppercase letter, '~', or 'c' (DA reply),
	// with only digits and ';' in between after an optional leading '?' or
	// '>' private marker (as DA1/DA2 replies carry) — otherwise this isn't
	// a CSI sequence we recognize and gets dropped.
	for i := 2; i < len(seq); i++ {
		b := seq[i]
		switch {
		case b >= '0' && b <= '9', b == ';':
			continue
		case i == 2 && (b == '?' || b == '>'):
			continue
		case b == 'c':
			return &InputEvent{Kind: InputCapability, Text: string(seq[:i+1])}, i + 1, true
		case b >= 'A' && b <= 'Z' || b == '~':
			name, ok := csiKeyName(seq[2:i], b)
			if !ok {
				return nil, 0, true
			}
			return &InputEvent{Kind: InputKey, Name: name}, i + 1, true
		default:
			return nil, 0, true
		}
	}
	return nil, 0, false
}

func csiKeyName(params []byte, final byte) (string, bool) {
	switch final {
	case 'A':
		return "Up", true
	case 'B':
		return "Down", true
	case 'C':
		return "Right", true
	case 'D':
		return "Left", true
	case 'H':
		return "Home", true
	case 'F':
		return "End", true
	case '~':
		switch string(params) {
		case "1":
			return "Home", true
		case "2":
			return "Insert", true
		case "3":
			return "Delete", true
		case "4":
			return "End", true
		case "5":
			return "PageUp", true
		case "6":
			return "PageDown", true
		case "11":
			return "F1", true
		case "12":
			return "F2", true
		case "13":
			return "F3", true
		case "14":
			return "F4", true
		case "15":
			return "F5", true
		case "17":
			return "F6", true
		case "18":
			return "F7", true
		case "19":
			return "F8", true
		case "20":
			return "F9", true
		case "21":
			return "F10", true
		case "23":
			return "F11", true
		case "24":
			return "F12", true
		}
	}
	return "", false
}

// parseSS3 parses "ESC O x" function keys.
func (p *Parser) parseSS3(seq []byte) (*InputEvent, int, bool) {
	if len(seq) < 3 {
		return nil, 0, false
	}
	names := map[byte]string{'P': "F1", 'Q': "F2", 'R': "F3", 'S': "F4"}
	if name, ok := names[seq[2]]; ok {
		return &InputEvent{Kind: InputKey, Name: name}, 3, true
	}
	return nil, 0, true
}

// parsePassthrough consumes a DCS ("ESC P") or OSC ("ESC ]") string up to
// its ST terminator ("ESC \") or BEL, carrying it as raw text — the spec
// treats these as capability/clipboard response passthrough, not
// individually modeled sequences.
func (p *Parser) parsePassthrough(seq []byte) (*InputEvent, int, bool) {
	for i := 2; i < len(seq); i++ {
		if seq[i] == 0x07 {
			return &InputEvent{Kind: InputCapability, Text: string(seq[:i+1])}, i + 1, true
		}
		if seq[i] == 0x1b && i+1 < len(seq) && seq[i+1] == '\\' {
			return &InputEvent{Kind: InputCapability, Text: string(seq[:i+2])}, i + 2, true
		}
	}
	return nil, 0, false
}

// parseSGRMouse parses "ESC [ < b ; x ; y (M|m)" and derives down/up/
// move/drag/scroll from the parser's own pressed-buttons state (spec
// §4.9's "disambiguate move vs. drag").
func (p *Parser) parseSGRMouse(seq []byte) (*InputEvent, int, bool) {
	end := -1
	for i := 3; i < len(seq); i++ {
		if seq[i] == 'M' || seq[i] == 'm' {
			end = i
			break
		}
	}
	if end == -1 {
		if len(seq) > 32 {
			return nil, 0, true // malformed: give up rather than buffer forever
		}
		return nil, 0, false
	}
	b, x, y, ok := parseSGRParams(seq[3:end])
	if !ok {
		return nil, 0, true
	}
	isRelease := seq[end] == 'm'

	btn := ButtonSet(0)
	switch b & 3 {
	case 0:
		btn = ButtonLeft
	case 1:
		btn = ButtonMiddle
	case 2:
		btn = ButtonRight
	}
	scroll := b&0x40 != 0
	motion := b&0x20 != 0
	mods := KeyMods(0)
	if b&0x04 != 0 {
		mods |= ModShift
	}
	if b&0x08 != 0 {
		mods |= ModAlt
	}
	if b&0x10 != 0 {
		mods |= ModCtrl
	}

	x, y = x-1, y-1 // 1-based to 0-based

	var kind MouseEventKind
	var endsDrag bool
	switch {
	case scroll:
		kind = MouseScroll
		if b&1 != 0 {
			btn = ButtonScrollDown
		} else {
			btn = ButtonScrollUp
		}
	case motion:
		if p.pressed != 0 {
			kind = MouseDrag
			p.dragged = true
		} else {
			kind = MouseMove
		}
	case isRelease:
		kind = MouseUp
		endsDrag = p.dragged
		p.dragged = false
		p.pressed &^= btn
	default:
		kind = MouseDown
		p.pressed |= btn
	}

	reportedButtons := p.pressed | btn
	if kind == MouseUp {
		reportedButtons = btn
	}
	ev := &InputEvent{Kind: InputMouse, Mouse: MouseEvent{X: x, Y: y, Kind: kind, Buttons: reportedButtons}, Mods: mods}
	// spec §8's worked scenario treats up and drag-end as distinct,
	// co-occurring kinds on the release that terminates a drag: emit
	// MouseUp now and queue MouseDragEnd to follow immediately after.
	if endsDrag {
		p.extra = append(p.extra, InputEvent{Kind: InputMouse, Mouse: MouseEvent{X: x, Y: y, Kind: MouseDragEnd, Buttons: reportedButtons}, Mods: mods})
	}
	return ev, end + 1, true
}

// parseX10Mouse parses the legacy "ESC [ M B X Y" raw-byte encoding.
func (p *Parser) parseX10Mouse(seq []byte) (*InputEvent, int, bool) {
	if len(seq) < 6 {
		return nil, 0, false
	}
	b := seq[3]
	x := int(seq[4]) - 32 - 1
	y := int(seq[5]) - 32 - 1

	btn := ButtonSet(0)
	switch b & 3 {
	case 0:
		btn = ButtonLeft
	case 1:
		btn = ButtonMiddle
	case 2:
		btn = ButtonRight
	}
	var kind MouseEventKind
	if b&3 == 3 {
		kind = MouseUp
		p.pressed &^= btn
	} else {
		kind = MouseDown
		p.pressed |= btn
	}
	return &InputEvent{Kind: InputMouse, Mouse: MouseEvent{X: x, Y: y, Kind: kind, Buttons: p.pressed}}, 6, true
}

// parseSGRParams decodes "b;x;y" from the SGR mouse sequence's parameter
// bytes.
func parseSGRParams(params []byte) (b, x, y int, ok bool) {
	parts := [3]int{}
	idx, cur, seen := 0, 0, false
	for _, c := range params {
		if c == ';' {
			if idx >= 2 {
				return 0, 0, 0, false
			}
			parts[idx] = cur
			idx++
			cur = 0
			seen = false
			continue
		}
		if c < '0' || c > '9' {
			return 0, 0, 0, false
		}
		cur = cur*10 + int(c-'0')
		seen = true
	}
	if !seen || idx != 2 {
		return 0, 0, 0, false
	}
	parts[2] = cur
	return parts[0], parts[1], parts[2], true
}

// decodeRune decodes one UTF-8 rune from a non-escape byte stream,
// falling back to one raw byte on invalid encoding so Feed always
// advances (spec §4.9 "parser never deadlocks").
func decodeRune(b []byte) (rune, int) {
	r0 := b[0]
	switch {
	case r0 < 0x80:
		return rune(r0), 1
	case r0&0xE0 == 0xC0 && len(b) >= 2:
		return rune(r0&0x1F)<<6 | rune(b[1]&0x3F), 2
	case r0&0xF0 == 0xE0 && len(b) >= 3:
		return rune(r0&0x0F)<<12 | rune(b[1]&0x3F)<<6 | rune(b[2]&0x3F), 3
	case r0&0xF8 == 0xF0 && len(b) >= 4:
		return rune(r0&0x07)<<18 | rune(b[1]&0x3F)<<12 | rune(b[2]&0x3F)<<6 | rune(b[3]&0x3F), 4
	default:
		return rune(r0), 1
	}
}
