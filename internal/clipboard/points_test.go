package clipboard

import (
	"errors"
	"testing"

	"github.com/example/maskpaint/internal/mask"
)

func TestParsePoints(t *testing.T) {
	enc, err := parsePoints(" [1, 2, 1, 4, 3, 5, 4]\n")
	if err != nil {
		t.Fatalf("parsePoints: %v", err)
	}
	if want := (mask.Box{Left: 4, Top: 3, Right: 5, Bottom: 4}); enc.Box != want {
		t.Errorf("box = %v, want %v", enc.Box, want)
	}

	if _, err := parsePoints(""); err == nil {
		t.Errorf("empty clipboard should fail")
	}
	var malformed *mask.MalformedEncodingError
	if _, err := parsePoints("1,2,3"); !errors.As(err, &malformed) {
		t.Errorf("short points: got %v, want MalformedEncodingError", err)
	}
}
