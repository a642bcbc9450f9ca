package clipboard

import (
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/example/maskpaint/internal/mask"
)

// memStore keeps the last write, honouring only the formats it is told to.
type memStore struct {
	formats map[Format]bool
	data    map[Format][]byte
}

func (m *memStore) write(offers []offer) error {
	m.data = map[Format][]byte{}
	for _, o := range offers {
		if m.formats[o.format] {
			m.data[o.format] = o.data
		}
	}
	return nil
}

func (m *memStore) read(f Format) ([]byte, error) {
	if !m.formats[f] {
		return nil, errFormatUnsupported
	}
	return m.data[f], nil
}

func useStore(t *testing.T, formats ...Format) *memStore {
	t.Helper()
	m := &memStore{formats: map[Format]bool{}, data: map[Format][]byte{}}
	for _, f := range formats {
		m.formats[f] = true
	}
	original := openStore
	openStore = func() (store, error) { return m, nil }
	initOnce = sync.Once{}
	t.Cleanup(func() {
		openStore = original
		initOnce = sync.Once{}
		active, initErr = nil, nil
	})
	return m
}

func TestPointsRoundTrip(t *testing.T) {
	m := useStore(t, FormatText, FormatPoints)
	enc, err := mask.Parse([]int{1, 2, 1, 4, 3, 5, 4})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := WritePoints(enc); err != nil {
		t.Fatalf("WritePoints: %v", err)
	}
	if got := string(m.data[FormatPoints]); got != "1,2,1,4,3,5,4" {
		t.Fatalf("points offer = %q", got)
	}
	if got, err := ReadText(); err != nil || got != "1,2,1,4,3,5,4" {
		t.Fatalf("ReadText = %q, %v", got, err)
	}
	got, err := ReadPoints()
	if err != nil {
		t.Fatalf("ReadPoints: %v", err)
	}
	if got.Box != enc.Box {
		t.Fatalf("box = %v, want %v", got.Box, enc.Box)
	}
}

func TestReadPointsFallsBackToText(t *testing.T) {
	useStore(t, FormatText)
	if err := WriteText("0,1,2,2,2,2\x00"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	got, err := ReadPoints()
	if err != nil {
		t.Fatalf("ReadPoints: %v", err)
	}
	if want := (mask.Box{Left: 2, Top: 2, Right: 2, Bottom: 2}); got.Box != want {
		t.Fatalf("box = %v, want %v", got.Box, want)
	}
}

func TestImageRoundTrip(t *testing.T) {
	useStore(t, FormatImage)
	if _, err := ReadImage(); err == nil {
		t.Fatalf("expected error for empty clipboard")
	}
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 0, color.RGBA{R: 255, A: 255})
	if err := WriteImage(img); err != nil {
		t.Fatalf("WriteImage: %v", err)
	}
	got, err := ReadImage()
	if err != nil {
		t.Fatalf("ReadImage: %v", err)
	}
	if r, _, _, a := got.At(1, 0).RGBA(); r != 0xffff || a != 0xffff {
		t.Fatalf("pixel = %v", got.At(1, 0))
	}
}
