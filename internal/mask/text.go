package mask

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatPoints renders a flat point list as comma separated integers.
func FormatPoints(points []int) string {
	var sb strings.Builder
	for i, p := range points {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(p))
	}
	return sb.String()
}

// ParsePointsString reads integers separated by commas, whitespace or
// both. Surrounding brackets are ignored so JSON arrays paste cleanly.
func ParsePointsString(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("points: %q: %w", f, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseBox reads "left,top,right,bottom".
func ParseBox(s string) (Box, error) {
	v, err := ParsePointsString(s)
	if err != nil {
		return Box{}, err
	}
	if len(v) != 4 {
		return Box{}, fmt.Errorf("box: want 4 values, got %d", len(v))
	}
	b := Box{Left: v[0], Top: v[1], Right: v[2], Bottom: v[3]}
	if !b.Valid() {
		return Box{}, malformed("invalid bounding box %v", b)
	}
	return b, nil
}
