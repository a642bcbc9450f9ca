package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/maskpaint/internal/appstate"
	"github.com/example/maskpaint/internal/capture"
	"github.com/example/maskpaint/internal/mask"
	"github.com/example/maskpaint/internal/session"
)

var (
	captureScreenFn = capture.Screen
	captureRegionFn = capture.Region
	runAnnotateFn   = func(st *appstate.AppState) { st.Run() }
)

// annotateCmd opens the paint window over an image.
type annotateCmd struct {
	file          string
	capture       string
	fromClipboard bool
	display       string
	includeCursor bool
	edit          string
	color         string
	states        string
	cont          bool
	toClipboard   bool
	output        string
	*root
	fs *flag.FlagSet
}

func (a *annotateCmd) FlagSet() *flag.FlagSet {
	return a.fs
}

func parseAnnotateCmd(args []string, r *root) (*annotateCmd, error) {
	fs := flag.NewFlagSet("annotate", flag.ExitOnError)
	a := &annotateCmd{root: r.subcommand("annotate"), fs: fs}
	fs.Usage = usageFunc(a)
	fs.StringVar(&a.file, "file", "", "image file to annotate")
	fs.StringVar(&a.capture, "capture", "", "capture the image first: screen or region")
	fs.BoolVar(&a.fromClipboard, "from-clipboard", false, "annotate the image on the clipboard")
	fs.StringVar(&a.display, "display", "", "monitor index or name for screen captures")
	fs.BoolVar(&a.includeCursor, "include-cursor", false, "embed the cursor in captures when supported")
	fs.StringVar(&a.edit, "edit", "", "edit these mask points instead of drawing new masks")
	fs.StringVar(&a.color, "color", "white", "color of the edited mask")
	fs.StringVar(&a.states, "states", "", "file of other masks to show, one line of points each")
	fs.BoolVar(&a.cont, "continue", false, "start a new mask after each one is finished")
	fs.BoolVar(&a.toClipboard, "to-clipboard", false, "copy each finished mask to the clipboard")
	fs.StringVar(&a.output, "output", "", "file the finished masks are saved to")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if a.fromClipboard && a.capture != "" {
		return nil, errors.New("-from-clipboard with -capture is not supported")
	}
	if a.file != "" && (a.fromClipboard || a.capture != "") {
		return nil, errors.New("-file cannot be combined with -capture or -from-clipboard")
	}
	if a.file == "" && !a.fromClipboard && a.capture == "" {
		return nil, &UsageError{of: a}
	}
	if a.output == "" && a.cfg().OutputDir != "" {
		a.output = filepath.Join(a.cfg().OutputDir, "masks.txt")
	}
	return a, nil
}

func (a *annotateCmd) source() (*image.RGBA, error) {
	opts := capture.Options{IncludeCursor: a.includeCursor, Display: a.display}
	switch {
	case a.file != "":
		return loadImageFn(a.file)
	case a.fromClipboard:
		img, err := readClipboardImageFn()
		if err != nil {
			return nil, fmt.Errorf("read clipboard image: %w", err)
		}
		return capture.ToRGBA(img), nil
	case a.capture == "screen":
		img, err := captureScreenFn(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to capture screen: %w", err)
		}
		return img, nil
	case a.capture == "region":
		img, err := captureRegionFn(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to capture region: %w", err)
		}
		return img, nil
	}
	return nil, fmt.Errorf("unknown capture mode %q", a.capture)
}

func (a *annotateCmd) Run() error {
	img, err := a.source()
	if err != nil {
		return err
	}
	opts := []appstate.Option{
		appstate.WithImage(img),
		appstate.WithOutput(a.output),
		appstate.WithBrush(a.defaultBrush()),
		appstate.WithOpacity(a.cfg().CreationOpacity),
		appstate.WithContinue(a.cont),
		appstate.WithOnResult(a.result),
	}
	opts = append(opts, appstate.WithNotifier(a.notifier))
	if a.activeTheme != nil {
		opts = append(opts, appstate.WithTheme(a.activeTheme))
	}
	if a.edit != "" {
		points, err := mask.ParsePointsString(a.edit)
		if err != nil {
			return err
		}
		if _, err := mask.Parse(points); err != nil {
			return err
		}
		opts = append(opts, appstate.WithEdit(&session.ObjectState{
			ID:        "edit",
			ShapeType: session.ShapeMask,
			Points:    points,
			Color:     a.color,
		}))
	}
	if a.states != "" {
		states, err := loadStates(a.states)
		if err != nil {
			return err
		}
		opts = append(opts, appstate.WithStates(states))
	}
	runAnnotateFn(appstate.New(opts...))
	return nil
}

// result prints a finished mask and optionally copies it.
func (a *annotateCmd) result(res appstate.Result) {
	fmt.Fprintln(a.out(), mask.FormatPoints(res.Points))
	if !a.toClipboard {
		return
	}
	enc, err := res.Encoding()
	if err != nil {
		fmt.Fprintf(a.errOut(), "copy: %v\n", err)
		return
	}
	if err := writePointsFn(enc); err != nil {
		fmt.Fprintf(a.errOut(), "copy: %v\n", err)
		return
	}
	a.notifyCopy(fmt.Sprintf("mask %v", enc.Box))
}

// loadStates reads one mask per non-empty line.
func loadStates(path string) ([]*session.ObjectState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var states []*session.ObjectState
	for i, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		points, err := mask.ParsePointsString(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, i+1, err)
		}
		states = append(states, &session.ObjectState{
			ID:        fmt.Sprintf("state-%d", i+1),
			ShapeType: session.ShapeMask,
			Points:    points,
		})
	}
	return states, nil
}
