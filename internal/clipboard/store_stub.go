//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package clipboard

import "errors"

func newStore() (store, error) {
	return nil, errors.New("clipboard is not supported on this platform")
}
