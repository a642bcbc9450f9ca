//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package capture

import (
	"errors"
	"image"
)

var errNoSessionBus = errors.New("portal screenshot is not supported on this platform")

func portalScreenshot(bool, Options) (*image.RGBA, error) {
	return nil, errNoSessionBus
}
