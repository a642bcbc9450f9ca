package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/example/maskpaint/internal/mask"
	"github.com/example/maskpaint/internal/session"
)

func newTestRunner(out io.Writer) *scriptRunner {
	sr := newScriptRunner(20, 20, out, slog.New(slog.NewTextHandler(io.Discard, nil)))
	sr.brush = session.BrushTool{Type: "brush", Form: "circle", Size: 4, Color: "red"}
	return sr
}

func resultLines(t *testing.T, out string) []mask.Encoding {
	t.Helper()
	var encs []mask.Encoding
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		points, err := mask.ParsePointsString(line)
		if err != nil {
			t.Fatalf("parse %q: %v", line, err)
		}
		enc, err := mask.Parse(points)
		if err != nil {
			t.Fatalf("result %q: %v", line, err)
		}
		encs = append(encs, enc)
	}
	return encs
}

func TestScriptBrushThenPolygon(t *testing.T) {
	var out bytes.Buffer
	sr := newTestRunner(&out)
	script := `
# brush stroke
down 5 5
move 5 5
move 10 5
up
done

tool polygon-plus
click 2 2
click 12 2
click 12 12
dblclick 12 12
done
`
	if err := sr.run(strings.NewReader(script)); err != nil {
		t.Fatalf("run: %v", err)
	}
	encs := resultLines(t, out.String())
	if len(encs) != 2 {
		t.Fatalf("got %d results, want 2:\n%s", len(encs), out.String())
	}
	b := encs[0].Box
	if b.Left > 5 || b.Right < 10 || b.Top > 5 || b.Bottom < 5 {
		t.Fatalf("brush box %v does not cover the stroke", b)
	}
	p := encs[1].Box
	if p.Left != 2 || p.Top != 2 || p.Right > 12 || p.Bottom > 12 {
		t.Fatalf("polygon box = %v", p)
	}
}

func TestScriptCancelPrintsNothing(t *testing.T) {
	var out bytes.Buffer
	sr := newTestRunner(&out)
	if err := sr.run(strings.NewReader("down 5 5\nmove 5 5\nup\ncancel\n")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestScriptFinishesOpenSessionAtEOF(t *testing.T) {
	var out bytes.Buffer
	sr := newTestRunner(&out)
	if err := sr.run(strings.NewReader("down 5 5\nmove 5 5\nup\n")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := resultLines(t, out.String()); len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
}

func TestScriptContinue(t *testing.T) {
	var out bytes.Buffer
	sr := newTestRunner(&out)
	sr.cont = true
	script := "down 3 3\nmove 3 3\nup\ndone\ndown 15 15\nmove 15 15\nup\ndone\n"
	if err := sr.run(strings.NewReader(script)); err != nil {
		t.Fatalf("run: %v", err)
	}
	encs := resultLines(t, out.String())
	if len(encs) != 2 {
		t.Fatalf("got %d results, want 2", len(encs))
	}
	if encs[1].Box.Left < 10 {
		t.Fatalf("second mask box %v overlaps the first stroke", encs[1].Box)
	}
}

func TestScriptEditUnchanged(t *testing.T) {
	var out bytes.Buffer
	sr := newTestRunner(&out)
	sr.asJSON = true
	sr.editState = &session.ObjectState{ID: "m1", ShapeType: session.ShapeMask, Points: []int{0, 1, 3, 3, 3, 3}}
	if err := sr.run(strings.NewReader("done\n")); err != nil {
		t.Fatalf("run: %v", err)
	}
	var res scriptResult
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("json: %v (%q)", err, out.String())
	}
	if res.Kind != "edit" || res.StateID != "m1" {
		t.Fatalf("result = %+v", res)
	}
	if got := mask.FormatPoints(res.Points); got != "0,1,3,3,3,3" {
		t.Fatalf("points = %s", got)
	}
}

func TestScriptErrors(t *testing.T) {
	for _, tc := range []struct {
		script string
		want   string
	}{
		{"jump 1 2\n", "line 1: unknown command"},
		{"# comment\nmove 1\n", "line 2: move"},
		{"opacity high\n", "line 1: opacity"},
		{"tool\n", "line 1: tool: missing type"},
	} {
		sr := newTestRunner(io.Discard)
		err := sr.run(strings.NewReader(tc.script))
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("script %q: got %v, want %q", tc.script, err, tc.want)
		}
	}
}

func TestScriptInvalidBrushReturnsError(t *testing.T) {
	sr := newTestRunner(io.Discard)
	sr.brush.Size = 0
	err := sr.run(strings.NewReader("down 1 1\n"))
	var berr *session.InvalidBrushConfigurationError
	if !errors.As(err, &berr) || berr.Field != "size" {
		t.Fatalf("expected brush size error, got %v", err)
	}
}

func TestParseToolArgs(t *testing.T) {
	prev := session.BrushTool{Type: "brush", Form: "circle", Size: 10, Color: "red"}
	got, err := parseToolArgs([]string{"eraser", "square", "3"}, prev)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := session.BrushTool{Type: "eraser", Form: "square", Size: 3, Color: "red"}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	got, err = parseToolArgs([]string{"brush", "#00ff00"}, prev)
	if err != nil || got.Color != "#00ff00" || got.Size != 10 {
		t.Fatalf("got %+v, %v", got, err)
	}
}
