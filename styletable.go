package opentui

import "strings"

// StyleID is a stable integer handle assigned on registration (spec §4.5
// "Style ids are stable integers"). NoStyle marks the absence of an
// explicit id.
type StyleID int32

// NoStyle is the sentinel id for "use whatever the caller already has."
const NoStyle StyleID = -1

type styleEntry struct {
	name  string
	style Style
}

// StyleTable maps capture names (e.g. "keyword.import") to style atoms
// with scope-longest-prefix lookup, and assigns a stable id to every
// registered name. A default entry always exists at index 0. Generalizes
// teacher theme.go's fixed five-field ThemeEx into an open, dynamic
// registry so syntax highlighters and themes share one mechanism.
type StyleTable struct {
	entries   []styleEntry
	byName    map[string]StyleID
	defaultID StyleID
}

// NewStyleTable returns a table with only the "default" entry registered,
// using DefaultStyle().
func NewStyleTable() *StyleTable {
	t := &StyleTable{byName: make(map[string]StyleID, 16)}
	t.defaultID = t.Register("default", DefaultStyle())
	return t
}

// Register inserts a new capture name or overwrites an existing one's
// style in place, returning its (stable) id.
func (t *StyleTable) Register(name string, style Style) StyleID {
	if id, ok := t.byName[name]; ok {
		t.entries[id].style = style
		return id
	}
	id := StyleID(len(t.entries))
	t.entries = append(t.entries, styleEntry{name: name, style: style})
	t.byName[name] = id
	return id
}

// DefaultID returns the id of the table's default entry.
func (t *StyleTable) DefaultID() StyleID { return t.defaultID }

// StyleOf returns the style for id, or the default style if id is out of
// range (including NoStyle).
func (t *StyleTable) StyleOf(id StyleID) Style {
	if id < 0 || int(id) >= len(t.entries) {
		return t.entries[t.defaultID].style
	}
	return t.entries[id].style
}

// NameOf returns the capture name registered under id, or "" if out of
// range.
func (t *StyleTable) NameOf(id StyleID) string {
	if id < 0 || int(id) >= len(t.entries) {
		return ""
	}
	return t.entries[id].name
}

// Resolve looks up captureName, falling back to successively shorter
// dot-separated prefixes ("keyword.import.foo" → "keyword.import" →
// "keyword") before returning the table's default entry.
func (t *StyleTable) Resolve(captureName string) (StyleID, Style) {
	name := captureName
	for {
		if id, ok := t.byName[name]; ok {
			return id, t.entries[id].style
		}
		idx := strings.LastIndexByte(name, '.')
		if idx < 0 {
			break
		}
		name = name[:idx]
	}
	return t.defaultID, t.entries[t.defaultID].style
}

// Theme is a small named style set, the shape teacher theme.go fixed as
// ThemeEx — kept here as a convenience seed for a StyleTable rather than
// a standalone type callers must special-case.
type Theme struct {
	Base, Muted, Accent, Error, Border Style
}

// NewThemedStyleTable seeds a StyleTable with a Theme's five named
// entries ("default", "muted", "accent", "error", "border").
func NewThemedStyleTable(theme Theme) *StyleTable {
	t := NewStyleTable()
	t.Register("default", theme.Base)
	t.Register("muted", theme.Muted)
	t.Register("accent", theme.Accent)
	t.Register("error", theme.Error)
	t.Register("border", theme.Border)
	return t
}

// ThemeDark, ThemeLight and ThemeMonochrome mirror teacher theme.go's
// three built-in palettes, re-expressed against this module's Style/Color
// types.
var (
	ThemeDark = Theme{
		Base:   Style{FG: Named("white")},
		Muted:  Style{FG: Named("brightblack")},
		Accent: Style{FG: Named("brightcyan")},
		Error:  Style{FG: Named("brightred")},
		Border: Style{FG: Named("brightblack")},
	}
	ThemeLight = Theme{
		Base:   Style{FG: Named("black")},
		Muted:  Style{FG: Named("brightblack")},
		Accent: Style{FG: Named("blue")},
		Error:  Style{FG: Named("red")},
		Border: Style{FG: Named("white")},
	}
	ThemeMonochrome = Theme{
		Base:   Style{},
		Muted:  Style{Attr: AttrDim},
		Accent: Style{Attr: AttrBold},
		Error:  Style{Attr: AttrBold | AttrUnderline},
		Border: Style{Attr: AttrDim},
	}
)
