// Package capture acquires the source image a mask is drawn over.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
)

// Options tweaks portal screenshots.
type Options struct {
	IncludeCursor bool
	// Display crops a full screen capture to one monitor.
	Display string
}

// MonitorInfo describes an individual monitor in the display layout.
type MonitorInfo struct {
	Index   int
	Name    string
	Rect    image.Rectangle
	Primary bool
}

type platformBackend interface {
	ListMonitors() ([]MonitorInfo, error)
	CaptureRoot() (*image.RGBA, error)
}

var (
	backend            = newBackend()
	portalScreenshotFn = portalScreenshot
	onWayland          = runningOnWayland
)

var errNoMonitors = errors.New("no monitors available")

// ListMonitors retrieves all monitors using the platform backend.
func ListMonitors() ([]MonitorInfo, error) {
	return backend.ListMonitors()
}

// Screen captures the desktop. The xdg desktop portal is tried first; when
// it is unavailable outside Wayland the X11 root window is read directly.
func Screen(opts Options) (*image.RGBA, error) {
	img, err := portalScreenshotFn(false, opts)
	if err != nil {
		if !isPortalUnavailable(err) || onWayland() {
			return nil, err
		}
		root, rootErr := backend.CaptureRoot()
		if rootErr != nil {
			return nil, fmt.Errorf("portal: %v; x11 fallback: %w", err, rootErr)
		}
		img = root
	}
	if opts.Display == "" {
		return img, nil
	}
	monitors, err := ListMonitors()
	if err != nil {
		return nil, err
	}
	monitor, err := FindMonitor(monitors, opts.Display)
	if err != nil {
		return nil, err
	}
	return cropToRect(img, monitor.Rect)
}

// Region lets the user pick a region through the portal.
func Region(opts Options) (*image.RGBA, error) {
	return portalScreenshotFn(true, opts)
}

// LoadImage reads an image file into an RGBA raster anchored at the origin.
func LoadImage(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return ToRGBA(img), nil
}

// ToRGBA copies img into an RGBA raster with bounds starting at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// FindMonitor resolves a monitor selector against the provided list. The
// selector is "primary", an index (optionally prefixed with #) or part of
// the output name.
func FindMonitor(monitors []MonitorInfo, selector string) (MonitorInfo, error) {
	if len(monitors) == 0 {
		return MonitorInfo{}, errNoMonitors
	}
	lower := strings.ToLower(strings.TrimSpace(selector))
	if lower == "" {
		return monitors[0], nil
	}
	if lower == "primary" {
		for _, mon := range monitors {
			if mon.Primary {
				return mon, nil
			}
		}
		return monitors[0], nil
	}
	if idx, err := strconv.Atoi(strings.TrimPrefix(lower, "#")); err == nil {
		if idx < 0 || idx >= len(monitors) {
			return MonitorInfo{}, fmt.Errorf("monitor index %d out of range", idx)
		}
		return monitors[idx], nil
	}
	for _, mon := range monitors {
		if strings.Contains(strings.ToLower(mon.Name), lower) {
			return mon, nil
		}
	}
	return MonitorInfo{}, fmt.Errorf("monitor %q not found", selector)
}

func isPortalUnavailable(err error) bool {
	var dbusErr *dbus.Error
	if !errors.As(err, &dbusErr) {
		return errors.Is(err, errNoSessionBus)
	}
	switch dbusErr.Name {
	case "org.freedesktop.portal.Error.NotSupported",
		"org.freedesktop.DBus.Error.ServiceUnknown",
		"org.freedesktop.DBus.Error.UnknownMethod",
		"org.freedesktop.DBus.Error.Disconnected":
		return true
	}
	return false
}

func cropToRect(src *image.RGBA, rect image.Rectangle) (*image.RGBA, error) {
	rect = rect.Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("requested region outside captured image")
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
	return dst, nil
}
