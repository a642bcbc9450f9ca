// Package clipboard moves images, text and mask points through the system
// clipboard.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
)

// Format is a kind of clipboard content.
type Format int

const (
	FormatText Format = iota
	FormatImage
	FormatPoints
)

// PointsMIME is offered next to plain text when points are copied, so a
// reader can tell a mask from arbitrary text.
const PointsMIME = "application/x-maskpaint-points"

var errFormatUnsupported = errors.New("clipboard format not supported by this backend")

type offer struct {
	format Format
	data   []byte
}

// store is a platform clipboard. write replaces the clipboard contents
// with every offer it can represent.
type store interface {
	write(offers []offer) error
	read(f Format) ([]byte, error)
}

var (
	initOnce  sync.Once
	initErr   error
	active    store
	openStore = newStore
)

func ensureInit() error {
	initOnce.Do(func() {
		active, initErr = openStore()
	})
	return initErr
}

// WriteImage encodes the provided image as PNG and publishes it to the clipboard.
func WriteImage(img image.Image) error {
	if err := ensureInit(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	return active.write([]offer{{format: FormatImage, data: buf.Bytes()}})
}

// ReadImage retrieves PNG image data from the clipboard and decodes it.
func ReadImage() (image.Image, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	data, err := active.read(FormatImage)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("clipboard does not contain image data")
	}
	return png.Decode(bytes.NewReader(data))
}

// WriteText writes text data to the clipboard.
func WriteText(text string) error {
	if err := ensureInit(); err != nil {
		return err
	}
	return active.write([]offer{{format: FormatText, data: []byte(text)}})
}

// ReadText returns UTF-8 text data from the clipboard.
func ReadText() (string, error) {
	if err := ensureInit(); err != nil {
		return "", err
	}
	data, err := active.read(FormatText)
	if err != nil {
		return "", err
	}
	// Some applications append a NUL to STRING responses.
	data = bytes.TrimRight(data, "\x00")
	if len(data) == 0 {
		return "", fmt.Errorf("clipboard does not contain text data")
	}
	return string(data), nil
}
