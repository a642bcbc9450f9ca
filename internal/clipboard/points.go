package clipboard

import (
	"fmt"
	"strings"

	"github.com/example/maskpaint/internal/mask"
)

// WritePoints publishes a mask encoding as comma separated text, offered
// both as PointsMIME and as plain text.
func WritePoints(enc mask.Encoding) error {
	if err := ensureInit(); err != nil {
		return err
	}
	text := []byte(mask.FormatPoints(enc.Points()))
	return active.write([]offer{
		{format: FormatPoints, data: text},
		{format: FormatText, data: text},
	})
}

// ReadPoints parses a mask encoding from the clipboard, preferring the
// PointsMIME target and falling back to plain text.
func ReadPoints() (mask.Encoding, error) {
	if err := ensureInit(); err != nil {
		return mask.Encoding{}, err
	}
	if data, err := active.read(FormatPoints); err == nil && len(data) > 0 {
		return parsePoints(string(data))
	}
	text, err := ReadText()
	if err != nil {
		return mask.Encoding{}, err
	}
	return parsePoints(text)
}

func parsePoints(text string) (mask.Encoding, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return mask.Encoding{}, fmt.Errorf("clipboard does not contain mask points")
	}
	points, err := mask.ParsePointsString(text)
	if err != nil {
		return mask.Encoding{}, fmt.Errorf("clipboard points: %w", err)
	}
	return mask.Parse(points)
}
