package mask

import (
	"errors"
	"image"
	"image/color"
	"math"
	"reflect"
	"testing"
)

func TestEncodeScenarios(t *testing.T) {
	tests := []struct {
		name    string
		samples []bool
		box     Box
		want    []int
	}{
		{"trailing set pixel", []bool{false, false, false, true}, Box{0, 0, 3, 0}, []int{3, 1, 0, 0, 3, 0}},
		{"leading set pixels", []bool{true, true, false, false}, Box{0, 0, 3, 0}, []int{0, 2, 2, 0, 0, 3, 0}},
		{"all unset", []bool{false, false, false, false}, Box{2, 5, 3, 6}, []int{4, 2, 5, 3, 6}},
		{"all set", []bool{true, true}, Box{1, 1, 1, 2}, []int{0, 2, 1, 1, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := Encode(tt.samples, tt.box)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if got := enc.Points(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("points = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeSingleSetPixel(t *testing.T) {
	enc, err := Parse([]int{0, 1, 5, 5, 5, 5})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	img, err := Decode(enc, color.RGBA{R: 255, A: 255})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Bounds() != image.Rect(5, 5, 6, 6) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got := img.RGBAAt(5, 5); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("pixel = %v, want opaque red", got)
	}
}

func TestDecodeTransparentColourForcedOpaque(t *testing.T) {
	enc, err := Parse([]int{1, 1, 0, 0, 1, 0})
	if err != nil {
		t.Fatal(err)
	}
	img, err := Decode(enc, color.NRGBA{G: 200})
	if err != nil {
		t.Fatal(err)
	}
	if img.RGBAAt(0, 0).A != 0 {
		t.Errorf("unset pixel should be transparent, got %v", img.RGBAAt(0, 0))
	}
	if got := img.RGBAAt(1, 0); got.A != 255 || got.G != 200 {
		t.Errorf("set pixel = %v", got)
	}
}

func TestDecodeNilColourIsWhite(t *testing.T) {
	enc, err := Parse([]int{0, 1, 0, 0, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	img, err := Decode(enc, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("pixel = %v, want white", got)
	}
}

func TestRoundTrip(t *testing.T) {
	box := Box{3, 2, 9, 6}
	samples := make([]bool, box.Area())
	for i := range samples {
		samples[i] = (i*7+i/3)%5 < 2
	}
	enc, err := Encode(samples, box)
	if err != nil {
		t.Fatal(err)
	}
	if enc.Sum() != box.Area() {
		t.Fatalf("run sum %d, area %d", enc.Sum(), box.Area())
	}
	got, err := Bits(enc)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, samples) {
		t.Fatalf("round trip mismatch")
	}

	img, err := Decode(enc, color.White)
	if err != nil {
		t.Fatal(err)
	}
	again, err := EncodeImage(img, box)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(again.Points(), enc.Points()) {
		t.Errorf("image round trip = %v, want %v", again.Points(), enc.Points())
	}
}

func TestFirstRunPolarity(t *testing.T) {
	enc, err := Encode([]bool{true, false, true}, Box{0, 0, 2, 0})
	if err != nil {
		t.Fatal(err)
	}
	if enc.Runs[0] != 0 {
		t.Errorf("first run = %d, want 0 for leading set pixel", enc.Runs[0])
	}
}

func TestEncodeImageOutsideIsUnset(t *testing.T) {
	img := image.NewAlpha(image.Rect(0, 0, 2, 1))
	img.Pix[0] = 1
	img.Pix[1] = 255
	enc, err := EncodeImage(img, Box{0, 0, 3, 0})
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{0, 2, 2, 0, 0, 3, 0}; !reflect.DeepEqual(enc.Points(), want) {
		t.Errorf("points = %v, want %v", enc.Points(), want)
	}
}

func TestMalformed(t *testing.T) {
	tests := []struct {
		name   string
		points []int
	}{
		{"too short", []int{0, 0, 1}},
		{"run sum too small", []int{1, 0, 0, 1, 0}},
		{"run sum too large", []int{3, 0, 0, 1, 0}},
		{"inverted box", []int{1, 2, 0, 1, 0}},
		{"negative run", []int{-1, 3, 0, 0, 1, 0}},
		{"negative coordinate", []int{2, -1, 0, 0, 0}},
		{"box area overflows", []int{0, 0, math.MaxInt, 1}},
		{"coordinate past MaxCoord", []int{1, 0, 0, MaxCoord + 1, 0}},
		{"run sum wraps to box area", []int{math.MaxInt, math.MaxInt, 3, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.points)
			var me *MalformedEncodingError
			if !errors.As(err, &me) {
				t.Fatalf("Parse(%v) err = %v, want MalformedEncodingError", tt.points, err)
			}
		})
	}

	if _, err := Encode(nil, Box{0, 0, 0, 0}); err == nil {
		t.Errorf("Encode with no samples should fail")
	}
	if _, err := Encode([]bool{true}, Box{0, 0, 1, 0}); err == nil {
		t.Errorf("Encode with short samples should fail")
	}
}

func TestPointsText(t *testing.T) {
	in := []int{3, 1, 0, 0, 3, 0}
	s := FormatPoints(in)
	if s != "3,1,0,0,3,0" {
		t.Fatalf("FormatPoints = %q", s)
	}
	got, err := ParsePointsString("[3, 1 0,0\n3 , 0]")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, in) {
		t.Errorf("ParsePointsString = %v", got)
	}
	if _, err := ParsePointsString("1,x"); err == nil {
		t.Errorf("expected error for non-integer")
	}
}

func TestBoxHelpers(t *testing.T) {
	b := ClipBox(Box{-3, -1, 12, 4}, 10, 3)
	if b != (Box{0, 0, 9, 2}) {
		t.Errorf("ClipBox = %v", b)
	}
	if ClipBox(Box{20, 0, 25, 1}, 10, 3).Valid() {
		t.Errorf("box outside image should be invalid after clipping")
	}
	if u := Union(Box{1, 1, 2, 2}, Box{0, 3, 1, 5}); u != (Box{0, 1, 2, 5}) {
		t.Errorf("Union = %v", u)
	}
	r := image.Rect(2, 3, 5, 4)
	if BoxFromRect(r).Rect() != r {
		t.Errorf("BoxFromRect round trip failed")
	}
	if _, err := ParseBox("1,2,0,3"); err == nil {
		t.Errorf("inverted box should fail")
	}
	if huge := (Box{0, 0, math.MaxInt, 1}); huge.Valid() || huge.Area() != 0 {
		t.Errorf("box %v: valid = %v area = %d", huge, huge.Valid(), huge.Area())
	}
	if !(Box{0, 0, MaxCoord, 0}).Valid() {
		t.Errorf("box reaching MaxCoord should be valid")
	}
}

func TestTightBox(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	if _, ok := TightBox(img); ok {
		t.Fatalf("transparent image has no box")
	}
	img.Set(3, 7, color.NRGBA{A: 1})
	img.Set(6, 2, color.NRGBA{R: 255, A: 255})
	b, ok := TightBox(img)
	if !ok || b != (Box{Left: 3, Top: 2, Right: 6, Bottom: 7}) {
		t.Errorf("TightBox = %v, %v", b, ok)
	}
}
