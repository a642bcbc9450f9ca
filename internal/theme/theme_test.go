package theme

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseKeepsDefaultsForMissingKeys(t *testing.T) {
	th, err := Parse(strings.NewReader("Name: mine\nbuttonactive: #10203040\nUnknown: #000000\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if th.Name != "mine" {
		t.Errorf("Name = %q", th.Name)
	}
	if th.ButtonActive != (color.RGBA{0x10, 0x20, 0x30, 0x40}) {
		t.Errorf("ButtonActive = %v", th.ButtonActive)
	}
	if th.Background != Default().Background {
		t.Errorf("Background should keep its default")
	}
}

func TestParseRejectsBadColor(t *testing.T) {
	if _, err := Parse(strings.NewReader("Background: red\n")); err == nil {
		t.Fatal("expected error for non-hex color")
	}
}

func TestEmbeddedThemesLoad(t *testing.T) {
	names := EmbeddedNames()
	if len(names) < 2 {
		t.Fatalf("embedded themes = %v", names)
	}
	l := &Loader{}
	for _, name := range names {
		th, err := l.Load(name)
		if err != nil {
			t.Fatalf("Load(%s): %v", name, err)
		}
		if th.Name != name {
			t.Errorf("Load(%s).Name = %q", name, th.Name)
		}
	}
	if _, err := l.Load("no-such-theme"); err == nil {
		t.Errorf("expected error for unknown theme")
	}
}

func TestFieldsRoundTrip(t *testing.T) {
	src := Default()
	var sb strings.Builder
	for _, kv := range src.Fields() {
		sb.WriteString(kv[0] + ": " + kv[1] + "\n")
	}
	got, err := Parse(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatal(err)
	}
	if *got != *src {
		t.Errorf("round trip = %+v, want %+v", got, src)
	}
}

func TestLoaderDirsAndAvailable(t *testing.T) {
	dir := t.TempDir()
	src := "Name: sepia\nBackground: #704214\n"
	if err := os.WriteFile(filepath.Join(dir, "sepia.theme"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	l := &Loader{Dirs: []string{filepath.Join(dir, "missing"), dir}}
	th, err := l.Load("sepia")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if th.Name != "sepia" {
		t.Errorf("name = %q", th.Name)
	}
	byPath, err := l.Load(filepath.Join(dir, "sepia.theme"))
	if err != nil || byPath.Name != "sepia" {
		t.Fatalf("Load by path = %v, %v", byPath, err)
	}
	if _, err := l.Load("absent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	names := l.Available()
	want := map[string]bool{"sepia": true, "light": true, "dark": true}
	for _, n := range names {
		delete(want, n)
	}
	if len(want) != 0 {
		t.Errorf("Available() = %v, missing %v", names, want)
	}
}
