package main

import (
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/example/maskpaint/internal/appstate"
	"github.com/example/maskpaint/internal/capture"
)

func TestAnnotateRunCaptureError(t *testing.T) {
	original := captureScreenFn
	sentinel := errors.New("denied")
	captureScreenFn = func(capture.Options) (*image.RGBA, error) { return nil, sentinel }
	t.Cleanup(func() { captureScreenFn = original })

	cmd, err := parseAnnotateCmd([]string{"-capture", "screen"}, nil)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if err := cmd.Run(); err == nil {
		t.Fatalf("expected error")
	} else {
		if !errors.Is(err, sentinel) {
			t.Fatalf("expected wrapped error, got %v", err)
		}
		if want := "failed to capture screen"; !strings.Contains(err.Error(), want) {
			t.Fatalf("expected message context, got %v", err)
		}
	}
}

func TestAnnotateRejectsUnknownCapture(t *testing.T) {
	cmd, err := parseAnnotateCmd([]string{"-capture", "window"}, nil)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if err := cmd.Run(); err == nil || !strings.Contains(err.Error(), "unknown capture mode") {
		t.Fatalf("expected unknown capture mode, got %v", err)
	}
}

func TestAnnotateRunsWindowWithEdit(t *testing.T) {
	originalCapture := captureRegionFn
	captureRegionFn = func(capture.Options) (*image.RGBA, error) {
		return image.NewRGBA(image.Rect(0, 0, 8, 8)), nil
	}
	originalRun := runAnnotateFn
	var got *appstate.AppState
	runAnnotateFn = func(st *appstate.AppState) { got = st }
	t.Cleanup(func() {
		captureRegionFn = originalCapture
		runAnnotateFn = originalRun
	})

	cmd, err := parseAnnotateCmd([]string{"-capture", "region", "-edit", "0,1,3,3,3,3", "-continue"}, nil)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got == nil {
		t.Fatal("window was not run")
	}
	if got.Edit == nil || got.Edit.Color != "white" || len(got.Edit.Points) != 6 {
		t.Fatalf("edit state = %+v", got.Edit)
	}
	if !got.Continue || got.Image.Bounds().Dx() != 8 {
		t.Fatalf("state = %+v", got)
	}
}

func TestAnnotateRejectsMalformedEdit(t *testing.T) {
	originalCapture := captureRegionFn
	captureRegionFn = func(capture.Options) (*image.RGBA, error) {
		return image.NewRGBA(image.Rect(0, 0, 8, 8)), nil
	}
	t.Cleanup(func() { captureRegionFn = originalCapture })

	cmd, err := parseAnnotateCmd([]string{"-capture", "region", "-edit", "5,3,3,3,3"}, nil)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if err := cmd.Run(); err == nil {
		t.Fatal("expected malformed encoding error")
	}
}

func TestParseAnnotateClipboardCaptureError(t *testing.T) {
	_, err := parseAnnotateCmd([]string{"-from-clipboard", "-capture", "screen"}, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if want := "not supported"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error to mention %q, got %v", want, err)
	}
}

func TestParseDecodeNeedsOneSource(t *testing.T) {
	_, err := parseDecodeCmd([]string{"-points", "0,1,0,0,0,0", "-from-clipboard", "-output", "x.png"}, nil)
	if err == nil || !strings.Contains(err.Error(), "exactly one of") {
		t.Fatalf("expected source error, got %v", err)
	}
	_, err = parseDecodeCmd([]string{"-points", "0,1,0,0,0,0", "-width", "4", "-output", "x.png"}, nil)
	if err == nil || !strings.Contains(err.Error(), "together") {
		t.Fatalf("expected size error, got %v", err)
	}
}

func TestParseEncodeRequiresSource(t *testing.T) {
	_, err := parseEncodeCmd(nil, nil)
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(uerr.Error(), "maskpaint encode") {
		t.Fatalf("usage does not name the command: %q", uerr.Error())
	}
}
