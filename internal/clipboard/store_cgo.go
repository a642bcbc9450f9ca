//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && cgo

package clipboard

import (
	"golang.design/x/clipboard"
)

// designStore uses golang.design/x/clipboard, which only knows text and
// images. Points are carried by their plain text offer.
type designStore struct{}

func newStore() (store, error) {
	if err := requireDisplay(); err != nil {
		return nil, err
	}
	if err := clipboard.Init(); err != nil {
		return nil, err
	}
	return designStore{}, nil
}

func designFormat(f Format) (clipboard.Format, bool) {
	switch f {
	case FormatText:
		return clipboard.FmtText, true
	case FormatImage:
		return clipboard.FmtImage, true
	}
	return 0, false
}

func (designStore) write(offers []offer) error {
	for _, o := range offers {
		if f, ok := designFormat(o.format); ok {
			clipboard.Write(f, o.data)
			return nil
		}
	}
	return errFormatUnsupported
}

func (designStore) read(f Format) ([]byte, error) {
	df, ok := designFormat(f)
	if !ok {
		return nil, errFormatUnsupported
	}
	return clipboard.Read(df), nil
}
