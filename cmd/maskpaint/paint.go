package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/maskpaint/internal/mask"
	"github.com/example/maskpaint/internal/session"
	"github.com/example/maskpaint/internal/surface"
)

// paintCmd replays a pointer script against a headless session.
type paintCmd struct {
	script  string
	width   int
	height  int
	image   string
	edit    string
	color   string
	cont    bool
	asJSON  bool
	verbose bool
	opacity float64
	brush   session.BrushTool
	*root
	fs *flag.FlagSet
}

func (p *paintCmd) FlagSet() *flag.FlagSet {
	return p.fs
}

func parsePaintCmd(args []string, r *root) (*paintCmd, error) {
	fs := flag.NewFlagSet("paint", flag.ExitOnError)
	p := &paintCmd{root: r.subcommand("paint"), fs: fs}
	fs.Usage = usageFunc(p)
	p.brush = p.defaultBrush()
	fs.StringVar(&p.script, "script", "", "script file, or - for stdin")
	fs.IntVar(&p.width, "width", 0, "image width")
	fs.IntVar(&p.height, "height", 0, "image height")
	fs.StringVar(&p.image, "image", "", "take the image size from this file")
	fs.StringVar(&p.edit, "edit", "", "edit these mask points instead of drawing a new mask")
	fs.StringVar(&p.color, "color", "white", "color of the edited mask")
	fs.BoolVar(&p.cont, "continue", false, "start a new mask after each done")
	fs.BoolVar(&p.asJSON, "json", false, "print each result as JSON")
	fs.BoolVar(&p.verbose, "v", false, "log session events to stderr")
	fs.Float64Var(&p.opacity, "opacity", p.cfg().CreationOpacity, "polygon preview opacity")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if p.script == "" && fs.NArg() > 0 {
		p.script = fs.Arg(0)
	}
	if p.script == "" {
		return nil, &UsageError{of: p}
	}
	if p.image == "" && (p.width <= 0 || p.height <= 0) {
		return nil, errors.New("either -image or a positive -width and -height is required")
	}
	return p, nil
}

func (p *paintCmd) Run() error {
	if p.image != "" {
		img, err := loadImageFn(p.image)
		if err != nil {
			return fmt.Errorf("load %s: %w", p.image, err)
		}
		p.width, p.height = img.Bounds().Dx(), img.Bounds().Dy()
	}
	var in io.Reader = os.Stdin
	if p.script != "-" {
		f, err := os.Open(p.script)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	level := slog.LevelWarn
	if p.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(p.errOut(), &slog.HandlerOptions{Level: level}))
	sr := newScriptRunner(p.width, p.height, p.out(), logger)
	sr.asJSON = p.asJSON
	sr.cont = p.cont
	sr.brush = p.brush
	sr.h.Configure(session.Configuration{CreationOpacity: &p.opacity})
	if p.edit != "" {
		points, err := mask.ParsePointsString(p.edit)
		if err != nil {
			return err
		}
		sr.editState = &session.ObjectState{ID: "edit", ShapeType: session.ShapeMask, Points: points, Color: p.color}
	}
	return sr.run(in)
}

// scriptRunner feeds script commands to a session handler and prints what
// it reports.
type scriptRunner struct {
	h         *session.Handler
	out       io.Writer
	asJSON    bool
	cont      bool
	brush     session.BrushTool
	editState *session.ObjectState
	results   int
	err       error
}

func newScriptRunner(width, height int, out io.Writer, logger *slog.Logger) *scriptRunner {
	sr := &scriptRunner{out: out}
	sr.h = session.New(surface.NewSoftware(width, height),
		session.WithLogger(logger),
		session.WithDrawDone(sr.drawDone),
		session.WithEditDone(sr.editDone),
		session.WithDispatch(func(ev session.Event) {
			logger.Debug("session event", "name", ev.Name, "state", ev.StateID)
		}),
	)
	sr.h.Transform(session.Geometry{Image: session.ImageSize{Width: width, Height: height}, Scale: 1})
	return sr
}

type scriptResult struct {
	Kind      string `json:"kind"`
	StateID   string `json:"stateId,omitempty"`
	Points    []int  `json:"points"`
	ElapsedMS int64  `json:"elapsedMs,omitempty"`
}

func (sr *scriptRunner) drawDone(res *session.DrawResult, elapsed time.Duration, _ bool, _ *session.DrawSpec) {
	if res == nil {
		return
	}
	sr.print(scriptResult{Kind: "draw", Points: res.Points, ElapsedMS: elapsed.Milliseconds()})
}

func (sr *scriptRunner) editDone(state *session.ObjectState, points []int) {
	if state == nil {
		return
	}
	sr.print(scriptResult{Kind: "edit", StateID: state.ID, Points: points})
}

func (sr *scriptRunner) print(r scriptResult) {
	sr.results++
	if !sr.asJSON {
		fmt.Fprintln(sr.out, mask.FormatPoints(r.Points))
		return
	}
	data, err := json.Marshal(r)
	if err != nil {
		sr.err = err
		return
	}
	fmt.Fprintln(sr.out, string(data))
}

// open starts the session the script works in when none is active.
func (sr *scriptRunner) open() error {
	if sr.h.Enabled() {
		return nil
	}
	brush := sr.brush
	if sr.editState != nil {
		return sr.h.Edit(session.EditSpec{Enabled: true, State: sr.editState, BrushTool: &brush})
	}
	return sr.h.Draw(session.DrawSpec{Enabled: true, ShapeType: session.ShapeMask, Continue: sr.cont, BrushTool: &brush})
}

func (sr *scriptRunner) finish(cont bool) {
	switch sr.h.Kind() {
	case session.KindDraw:
		sr.h.Draw(session.DrawSpec{Enabled: false, Continue: cont})
	case session.KindEdit:
		sr.h.Edit(session.EditSpec{Enabled: false})
	}
}

func (sr *scriptRunner) run(in io.Reader) error {
	if err := sr.open(); err != nil {
		return err
	}
	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = strings.TrimSpace(text[:i])
		}
		if text == "" {
			continue
		}
		if err := sr.exec(strings.Fields(text)); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if sr.err != nil {
			return sr.err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	sr.finish(false)
	return sr.err
}

func (sr *scriptRunner) exec(f []string) error {
	cmd, args := strings.ToLower(f[0]), f[1:]
	switch cmd {
	case "tool":
		bt, err := parseToolArgs(args, sr.brush)
		if err != nil {
			return err
		}
		sr.brush = bt
		if !sr.h.Enabled() {
			return sr.open()
		}
		if sr.h.Kind() == session.KindEdit {
			return sr.h.Edit(session.EditSpec{Enabled: true, BrushTool: &bt})
		}
		return sr.h.Draw(session.DrawSpec{Enabled: true, ShapeType: session.ShapeMask, Continue: sr.cont, BrushTool: &bt})
	case "down", "move", "click", "rclick", "dblclick":
		pt, err := parsePoint(args)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd, err)
		}
		switch cmd {
		case "down":
			b := session.ButtonPrimary
			if len(args) > 2 && args[2] == "secondary" {
				b = session.ButtonSecondary
			}
			sr.h.PointerDown(pt, b)
		case "move":
			sr.h.PointerMove(pt)
		case "click":
			sr.h.PointerDown(pt, session.ButtonPrimary)
			sr.h.PointerUp()
		case "rclick":
			sr.h.PointerDown(pt, session.ButtonSecondary)
			sr.h.PointerUp()
		case "dblclick":
			sr.h.DoubleClick(pt)
		}
	case "up":
		sr.h.PointerUp()
	case "opacity":
		if len(args) != 1 {
			return errors.New("opacity: want one value")
		}
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("opacity: %w", err)
		}
		sr.h.Configure(session.Configuration{CreationOpacity: &v})
	case "done":
		sr.finish(sr.cont)
	case "cancel":
		sr.h.Cancel()
	default:
		return fmt.Errorf("unknown command %q", f[0])
	}
	return nil
}

// parseToolArgs reads "type [form] [size] [color]", keeping fields of prev
// that are not given.
func parseToolArgs(args []string, prev session.BrushTool) (session.BrushTool, error) {
	if len(args) == 0 {
		return prev, errors.New("tool: missing type")
	}
	bt := prev
	bt.Type = args[0]
	for _, a := range args[1:] {
		switch {
		case a == string(session.FormCircle) || a == string(session.FormSquare):
			bt.Form = a
		default:
			if n, err := strconv.Atoi(a); err == nil {
				bt.Size = n
				continue
			}
			bt.Color = a
		}
	}
	return bt, nil
}

func parsePoint(args []string) (surface.Point, error) {
	if len(args) < 2 {
		return surface.Point{}, errors.New("want x y")
	}
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return surface.Point{}, err
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return surface.Point{}, err
	}
	return surface.Point{X: x, Y: y}, nil
}
