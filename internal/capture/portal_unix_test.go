//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestPortalScreenshotOptions(t *testing.T) {
	prevToken := portalHandleToken
	portalHandleToken = func() string { return "test-token" }
	t.Cleanup(func() { portalHandleToken = prevToken })

	tests := []struct {
		name        string
		interactive bool
		opts        Options
		wantCursor  string
	}{
		{name: "defaults", wantCursor: "hidden"},
		{name: "interactive with cursor", interactive: true, opts: Options{IncludeCursor: true}, wantCursor: "embedded"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			values := portalScreenshotOptions(tc.interactive, tc.opts)
			if got := boolVariant(t, values, "interactive"); got != tc.interactive {
				t.Fatalf("interactive = %v, want %v", got, tc.interactive)
			}
			if got := boolVariant(t, values, "modal"); got != tc.interactive {
				t.Fatalf("modal = %v, want %v", got, tc.interactive)
			}
			if got := stringVariant(t, values, "cursor_mode"); got != tc.wantCursor {
				t.Fatalf("cursor_mode = %q, want %q", got, tc.wantCursor)
			}
			if got := stringVariant(t, values, "handle_token"); got != "test-token" {
				t.Fatalf("handle_token = %q, want %q", got, "test-token")
			}
			if len(values) != 4 {
				t.Fatalf("expected 4 options, got %d", len(values))
			}
		})
	}
}

func TestPortalResponsePath(t *testing.T) {
	ok := []interface{}{uint32(0), map[string]dbus.Variant{"uri": dbus.MakeVariant("file:///tmp/Screenshot%20one.png")}}
	path, err := portalResponsePath(ok)
	if err != nil {
		t.Fatalf("portalResponsePath: %v", err)
	}
	if path != "/tmp/Screenshot one.png" {
		t.Errorf("path = %q", path)
	}

	cancelled := []interface{}{uint32(1), map[string]dbus.Variant{}}
	if _, err := portalResponsePath(cancelled); err == nil {
		t.Errorf("cancelled response should fail")
	}
	remote := []interface{}{uint32(0), map[string]dbus.Variant{"uri": dbus.MakeVariant("https://example.com/x.png")}}
	if _, err := portalResponsePath(remote); err == nil {
		t.Errorf("non-file uri should fail")
	}
}

func TestLoadPortalFileRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 3, 2))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	img, err := loadPortalFile(path)
	if err != nil {
		t.Fatalf("loadPortalFile: %v", err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Errorf("bounds = %v", img.Bounds())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("portal file should be removed")
	}
}

func boolVariant(t *testing.T, values map[string]dbus.Variant, key string) bool {
	t.Helper()
	variant, ok := values[key]
	if !ok {
		t.Fatalf("missing key %q", key)
	}
	v, ok := variant.Value().(bool)
	if !ok {
		t.Fatalf("key %q value is %T, want bool", key, variant.Value())
	}
	return v
}

func stringVariant(t *testing.T, values map[string]dbus.Variant, key string) string {
	t.Helper()
	variant, ok := values[key]
	if !ok {
		t.Fatalf("missing key %q", key)
	}
	v, ok := variant.Value().(string)
	if !ok {
		t.Fatalf("key %q value is %T, want string", key, variant.Value())
	}
	return v
}
