package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"

	"github.com/example/maskpaint/internal/capture"
	"github.com/example/maskpaint/internal/clipboard"
	"github.com/example/maskpaint/internal/mask"
)

var (
	loadImageFn          = capture.LoadImage
	readClipboardImageFn = clipboard.ReadImage
	writePointsFn        = clipboard.WritePoints
)

// encodeCmd turns the alpha channel of an image into mask points.
type encodeCmd struct {
	file          string
	box           string
	asJSON        bool
	toClipboard   bool
	fromClipboard bool
	output        string
	*root
	fs *flag.FlagSet
}

func (e *encodeCmd) FlagSet() *flag.FlagSet {
	return e.fs
}

func parseEncodeCmd(args []string, r *root) (*encodeCmd, error) {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	e := &encodeCmd{root: r.subcommand("encode"), fs: fs}
	fs.Usage = usageFunc(e)
	fs.StringVar(&e.file, "file", "", "PNG or JPEG image whose non-transparent pixels form the mask")
	fs.StringVar(&e.box, "box", "", "bounding box left,top,right,bottom (default: tight bounds of set pixels)")
	fs.BoolVar(&e.asJSON, "json", false, "print points, runs and box as JSON")
	fs.BoolVar(&e.toClipboard, "to-clipboard", false, "copy the points to the clipboard")
	fs.BoolVar(&e.fromClipboard, "from-clipboard", false, "read the image from the clipboard")
	fs.StringVar(&e.output, "output", "", "write the points to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if e.file == "" && fs.NArg() > 0 {
		e.file = fs.Arg(0)
	}
	if e.file != "" && e.fromClipboard {
		return nil, errors.New("-file cannot be used with -from-clipboard")
	}
	if e.file == "" && !e.fromClipboard {
		return nil, &UsageError{of: e}
	}
	return e, nil
}

type encodeResult struct {
	Points []int `json:"points"`
	Runs   []int `json:"runs"`
	Box    []int `json:"box"`
}

func (e *encodeCmd) source() (image.Image, error) {
	if e.fromClipboard {
		img, err := readClipboardImageFn()
		if err != nil {
			return nil, fmt.Errorf("read clipboard image: %w", err)
		}
		return img, nil
	}
	img, err := loadImageFn(e.file)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", e.file, err)
	}
	return img, nil
}

func (e *encodeCmd) Run() error {
	img, err := e.source()
	if err != nil {
		return err
	}
	var box mask.Box
	if e.box != "" {
		if box, err = mask.ParseBox(e.box); err != nil {
			return err
		}
	} else {
		var ok bool
		if box, ok = mask.TightBox(img); !ok {
			return errors.New("image has no set pixels")
		}
	}
	enc, err := mask.EncodeImage(img, box)
	if err != nil {
		return err
	}

	text := mask.FormatPoints(enc.Points())
	if e.asJSON {
		data, err := json.Marshal(encodeResult{
			Points: enc.Points(),
			Runs:   enc.Runs,
			Box:    []int{box.Left, box.Top, box.Right, box.Bottom},
		})
		if err != nil {
			return err
		}
		text = string(data)
	}
	if e.output != "" {
		if err := os.WriteFile(e.output, []byte(text+"\n"), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", e.output, err)
		}
		e.notifySave(e.output)
	} else {
		fmt.Fprintln(e.out(), text)
	}
	if e.toClipboard {
		if err := writePointsFn(enc); err != nil {
			return fmt.Errorf("copy points: %w", err)
		}
		e.notifyCopy(fmt.Sprintf("mask %v", enc.Box))
	}
	return nil
}
