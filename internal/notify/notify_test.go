package notify

import (
	"image"
	"os"
	"testing"
	"time"

	"github.com/example/maskpaint/internal/platform"
)

type sent struct {
	title, body string
	opts        platform.Options
	iconExisted bool
}

func capture(n *Notifier) *[]sent {
	var out []sent
	n.SetSender(func(title, body string, opts platform.Options) error {
		s := sent{title: title, body: body, opts: opts}
		if opts.IconPath != "" {
			_, err := os.Stat(opts.IconPath)
			s.iconExisted = err == nil
		}
		out = append(out, s)
		return nil
	})
	return &out
}

func TestDisabledEventsAreSilent(t *testing.T) {
	n := New(DefaultPreferences())
	got := capture(n)
	n.Draw("mask", nil)
	n.Copy("points")
	if len(*got) != 0 {
		t.Fatalf("sent %d notifications while disabled", len(*got))
	}
	var nilNotifier *Notifier
	nilNotifier.Copy("x")
}

func TestDrawWithPreview(t *testing.T) {
	n := New(DefaultPreferences())
	n.Enable(EventDraw, true)
	got := capture(n)
	n.Draw("mask 4x4", image.NewRGBA(image.Rect(0, 0, 4, 4)))
	if len(*got) != 1 {
		t.Fatalf("sent %d notifications", len(*got))
	}
	s := (*got)[0]
	if s.title != "maskpaint" || s.body != "Drew mask 4x4" {
		t.Errorf("notification = %q / %q", s.title, s.body)
	}
	if !s.iconExisted {
		t.Errorf("preview icon should exist while sending")
	}
	if _, err := os.Stat(s.opts.IconPath); !os.IsNotExist(err) {
		t.Errorf("preview icon should be removed after sending")
	}
	if s.opts.Timeout != 5*time.Second || !s.opts.Low {
		t.Errorf("opts = %+v", s.opts)
	}
}

func TestLoadPreferencesFromEnv(t *testing.T) {
	t.Setenv("MASKPAINT_NOTIFY_TITLE", "Masks")
	t.Setenv("MASKPAINT_NOTIFY_COPY_TEXT", "Clipboard now holds %s")
	t.Setenv("MASKPAINT_NOTIFY_TIMEOUT", "2s")
	prefs := LoadPreferences()
	if prefs.Title != "Masks" || prefs.Timeout != 2*time.Second {
		t.Errorf("prefs = %+v", prefs)
	}
	n := New(prefs)
	n.Enable(EventCopy, true)
	got := capture(n)
	n.Copy("")
	if len(*got) != 1 || (*got)[0].body != "Clipboard now holds mask" {
		t.Fatalf("sent = %+v", *got)
	}
}
