package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"strings"

	"github.com/example/maskpaint/internal/clipboard"
	"github.com/example/maskpaint/internal/mask"
	"github.com/example/maskpaint/internal/render"
	"github.com/example/maskpaint/internal/session"
)

var readPointsFn = clipboard.ReadPoints

// decodeCmd renders mask points as a PNG, alone, on a blank canvas, or
// over an image.
type decodeCmd struct {
	points        string
	in            string
	fromClipboard bool
	color         string
	width         int
	height        int
	over          string
	opacity       float64
	feather       int
	outline       bool
	output        string
	*root
	fs *flag.FlagSet
}

func (d *decodeCmd) FlagSet() *flag.FlagSet {
	return d.fs
}

func parseDecodeCmd(args []string, r *root) (*decodeCmd, error) {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	d := &decodeCmd{root: r.subcommand("decode"), fs: fs}
	fs.Usage = usageFunc(d)
	defaults := render.DefaultOverlayOptions()
	fs.StringVar(&d.points, "points", "", "mask points, comma or space separated")
	fs.StringVar(&d.in, "in", "", "read the points from this text file")
	fs.BoolVar(&d.fromClipboard, "from-clipboard", false, "read the points from the clipboard")
	fs.StringVar(&d.color, "color", d.cfg().Brush.Color, "mask color name or #RRGGBB")
	fs.IntVar(&d.width, "width", 0, "place the mask on a transparent canvas this wide")
	fs.IntVar(&d.height, "height", 0, "place the mask on a transparent canvas this tall")
	fs.StringVar(&d.over, "over", "", "draw the mask over this image")
	fs.Float64Var(&d.opacity, "opacity", defaults.Opacity, "mask opacity when drawing over an image")
	fs.IntVar(&d.feather, "feather", defaults.Feather, "soften the mask edge by this many pixels when drawing over an image")
	fs.BoolVar(&d.outline, "outline", defaults.Outline, "outline the mask when drawing over an image")
	fs.StringVar(&d.output, "output", "", "output PNG file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	sources := 0
	for _, set := range []bool{d.points != "", d.in != "", d.fromClipboard} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return nil, errors.New("exactly one of -points, -in or -from-clipboard is required")
	}
	if d.output == "" {
		return nil, &UsageError{of: d}
	}
	if (d.width > 0) != (d.height > 0) {
		return nil, errors.New("-width and -height must be given together")
	}
	if d.over != "" && d.width > 0 {
		return nil, errors.New("-over cannot be used with -width and -height")
	}
	return d, nil
}

func (d *decodeCmd) encoding() (mask.Encoding, error) {
	if d.fromClipboard {
		return readPointsFn()
	}
	text := d.points
	if d.in != "" {
		data, err := os.ReadFile(d.in)
		if err != nil {
			return mask.Encoding{}, err
		}
		text = strings.TrimSpace(string(data))
		// Files saved by annotate hold one mask per line; the first is used.
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[:i]
		}
	}
	points, err := mask.ParsePointsString(text)
	if err != nil {
		return mask.Encoding{}, err
	}
	return mask.Parse(points)
}

func (d *decodeCmd) Run() error {
	enc, err := d.encoding()
	if err != nil {
		return err
	}
	col, err := session.ParseColor(d.color)
	if err != nil {
		return err
	}

	var out image.Image
	switch {
	case d.over != "":
		base, err := loadImageFn(d.over)
		if err != nil {
			return fmt.Errorf("load %s: %w", d.over, err)
		}
		opts := render.OverlayOptions{Opacity: d.opacity, Feather: d.feather, Outline: d.outline}
		if out, err = render.Composite(base, []render.Layer{{Encoding: enc, Color: col}}, opts); err != nil {
			return err
		}
	default:
		layer, err := mask.Decode(enc, col)
		if err != nil {
			return err
		}
		out = layer
		if d.width > 0 {
			canvas := image.NewRGBA(image.Rect(0, 0, d.width, d.height))
			draw.Draw(canvas, layer.Bounds(), layer, layer.Bounds().Min, draw.Src)
			out = canvas
		}
	}

	f, err := os.Create(d.output)
	if err != nil {
		return err
	}
	if err := png.Encode(f, out); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", d.output, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	d.notifySave(d.output)
	return nil
}
