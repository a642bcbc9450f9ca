//go:build linux || freebsd || openbsd || netbsd || dragonfly

package clipboard

import (
	"errors"
	"sync"
	"testing"

	"github.com/example/maskpaint/internal/mask"
)

func TestEnsureInitWithoutDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")

	initOnce = sync.Once{}
	active, initErr = nil, nil
	t.Cleanup(func() { initOnce = sync.Once{} })

	err := WritePoints(mask.Encoding{Runs: []int{1}, Box: mask.Box{}})
	if !errors.Is(err, errNoDisplay) {
		t.Fatalf("expected errNoDisplay, got %v", err)
	}
}
