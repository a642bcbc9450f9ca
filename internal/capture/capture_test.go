package capture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/godbus/dbus/v5"
)

type fakeBackend struct {
	monitors []MonitorInfo
	root     *image.RGBA
	rootErr  error
	calls    *int
}

func (f fakeBackend) ListMonitors() ([]MonitorInfo, error) {
	if len(f.monitors) == 0 {
		return nil, errNoMonitors
	}
	return f.monitors, nil
}

func (f fakeBackend) CaptureRoot() (*image.RGBA, error) {
	if f.calls != nil {
		*f.calls++
	}
	return f.root, f.rootErr
}

func stubCapture(t *testing.T, b platformBackend, portal func(bool, Options) (*image.RGBA, error), wayland bool) {
	t.Helper()
	prevBackend, prevPortal, prevWayland := backend, portalScreenshotFn, onWayland
	t.Cleanup(func() {
		backend, portalScreenshotFn, onWayland = prevBackend, prevPortal, prevWayland
	})
	backend = b
	portalScreenshotFn = portal
	onWayland = func() bool { return wayland }
}

func notSupported(bool, Options) (*image.RGBA, error) {
	return nil, fmt.Errorf("portal screenshot call: %w", &dbus.Error{Name: "org.freedesktop.portal.Error.NotSupported"})
}

func TestScreenFallsBackToRootWindow(t *testing.T) {
	calls := 0
	want := image.NewRGBA(image.Rect(0, 0, 4, 4))
	stubCapture(t, fakeBackend{root: want, calls: &calls}, notSupported, false)

	got, err := Screen(Options{})
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if got != want || calls != 1 {
		t.Fatalf("expected root fallback, calls=%d", calls)
	}
}

func TestScreenNoFallbackOnWayland(t *testing.T) {
	calls := 0
	stubCapture(t, fakeBackend{calls: &calls}, notSupported, true)

	_, err := Screen(Options{})
	var dbusErr *dbus.Error
	if !errors.As(err, &dbusErr) {
		t.Fatalf("expected portal error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("root capture should not run on wayland")
	}
}

func TestRegionDoesNotFallBack(t *testing.T) {
	calls := 0
	stubCapture(t, fakeBackend{calls: &calls}, notSupported, false)
	if _, err := Region(Options{}); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 0 {
		t.Fatalf("interactive capture should not fall back")
	}
}

func TestScreenCropsToDisplay(t *testing.T) {
	shot := image.NewRGBA(image.Rect(0, 0, 20, 10))
	shot.Set(15, 5, color.RGBA{R: 255, A: 255})
	monitors := []MonitorInfo{
		{Index: 0, Name: "DP-1", Rect: image.Rect(0, 0, 10, 10)},
		{Index: 1, Name: "HDMI-1", Rect: image.Rect(10, 0, 20, 10), Primary: true},
	}
	stubCapture(t, fakeBackend{monitors: monitors}, func(bool, Options) (*image.RGBA, error) { return shot, nil }, false)

	img, err := Screen(Options{Display: "primary"})
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 10, 10) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if r, _, _, _ := img.At(5, 5).RGBA(); r == 0 {
		t.Errorf("expected the marked pixel inside the cropped monitor")
	}
}

func TestFindMonitor(t *testing.T) {
	monitors := []MonitorInfo{{Index: 0, Name: "eDP-1"}, {Index: 1, Name: "HDMI-A-1", Primary: true}}
	tests := []struct {
		sel     string
		want    int
		wantErr bool
	}{
		{sel: "", want: 0},
		{sel: "primary", want: 1},
		{sel: "#1", want: 1},
		{sel: "hdmi", want: 1},
		{sel: "5", wantErr: true},
		{sel: "vga", wantErr: true},
	}
	for _, tc := range tests {
		got, err := FindMonitor(monitors, tc.sel)
		if tc.wantErr {
			if err == nil {
				t.Errorf("FindMonitor(%q) expected error", tc.sel)
			}
			continue
		}
		if err != nil || got.Index != tc.want {
			t.Errorf("FindMonitor(%q) = %d, %v; want %d", tc.sel, got.Index, err, tc.want)
		}
	}
	if _, err := FindMonitor(nil, ""); !errors.Is(err, errNoMonitors) {
		t.Errorf("empty list: %v", err)
	}
}

func TestToRGBAMovesOrigin(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 8, 7))
	src.Set(5, 5, color.NRGBA{G: 255, A: 255})
	got := ToRGBA(src)
	if got.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Fatalf("bounds = %v", got.Bounds())
	}
	if _, g, _, _ := got.At(0, 0).RGBA(); g == 0 {
		t.Errorf("origin pixel not copied")
	}
}
