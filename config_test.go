package opentui

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		cfg := DefaultConfig()
		if cfg.TargetFPS != 60 {
			t.Errorf("expected 60fps default, got %d", cfg.TargetFPS)
		}
		if cfg.EastAsian != EastAsianNarrow {
			t.Errorf("expected narrow east-asian default, got %v", cfg.EastAsian)
		}
	})

	t.Run("ApplyConfigTogglesFlags", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.NoMouse = true
		cfg.NoHyperlink = true
		caps := Capabilities{Mouse: true, Hyperlinks: true}
		got := ApplyConfig(cfg, caps)
		if got.Mouse || got.Hyperlinks {
			t.Errorf("expected both flags cleared, got %+v", got)
		}
	})

	t.Run("LoadPaletteTOMLOverridesNames", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "palette.toml")
		contents := "[colors]\naccent = \"#112233\"\nwarning = \"e0af68\"\n"
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := LoadPaletteTOML(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, ok := DefaultPalette.Lookup("accent")
		if !ok {
			t.Fatal("expected accent to be present after load")
		}
		if got.Hex() != "#112233" {
			t.Errorf("expected #112233, got %s", got.Hex())
		}
		got, ok = DefaultPalette.Lookup("warning")
		if !ok || got.Hex() != "#e0af68" {
			t.Errorf("expected bare-hex form to gain a leading #, got %s ok=%v", got.Hex(), ok)
		}
	})

	t.Run("LoadPaletteTOMLMissingFileErrors", func(t *testing.T) {
		err := LoadPaletteTOML(filepath.Join(t.TempDir(), "missing.toml"))
		if err == nil {
			t.Fatal("expected an error for a missing file")
		}
		if kind, ok := KindOf(err); !ok || kind != KindFatalInternal {
			t.Errorf("expected fatal-internal kind, got %v ok=%v", kind, ok)
		}
	})
}
