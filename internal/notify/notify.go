package notify

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/example/maskpaint/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventDraw emits a notification when a mask draw completes.
	EventDraw Event = "draw"
	// EventEdit emits a notification when a mask edit completes.
	EventEdit Event = "edit"
	// EventSave emits a notification when a mask is persisted to disk.
	EventSave Event = "save"
	// EventCopy emits a notification when data is copied to the clipboard.
	EventCopy Event = "copy"
)

// EventPreference describes formatting for a notification event.
type EventPreference struct {
	Template string
}

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title   string
	Timeout time.Duration
	Events  map[Event]EventPreference
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title:   "maskpaint",
		Timeout: 5 * time.Second,
		Events: map[Event]EventPreference{
			EventDraw: {Template: "Drew %s"},
			EventEdit: {Template: "Edited %s"},
			EventSave: {Template: "Saved %s"},
			EventCopy: {Template: "Copied %s to clipboard"},
		},
	}
}

type envPreferences struct {
	Title    string        `envconfig:"NOTIFY_TITLE"`
	Timeout  time.Duration `envconfig:"NOTIFY_TIMEOUT"`
	DrawText string        `envconfig:"NOTIFY_DRAW_TEXT"`
	EditText string        `envconfig:"NOTIFY_EDIT_TEXT"`
	SaveText string        `envconfig:"NOTIFY_SAVE_TEXT"`
	CopyText string        `envconfig:"NOTIFY_COPY_TEXT"`
}

// LoadPreferences reads MASKPAINT_NOTIFY_* environment variables on top of
// the defaults.
func LoadPreferences() Preferences {
	prefs := DefaultPreferences()
	var env envPreferences
	if err := envconfig.Process("maskpaint", &env); err != nil {
		log.Printf("notification preferences: %v", err)
		return prefs
	}
	if v := strings.TrimSpace(env.Title); v != "" {
		prefs.Title = v
	}
	if env.Timeout > 0 {
		prefs.Timeout = env.Timeout
	}
	apply := func(v string, event Event) {
		if v = strings.TrimSpace(v); v != "" {
			eventPrefs := prefs.Events[event]
			eventPrefs.Template = v
			prefs.Events[event] = eventPrefs
		}
	}
	apply(env.DrawText, EventDraw)
	apply(env.EditText, EventEdit)
	apply(env.SaveText, EventSave)
	apply(env.CopyText, EventCopy)
	return prefs
}

// SendFunc delivers one notification.
type SendFunc func(title, body string, opts platform.Options) error

// Notifier sends OS-level notifications based on the configured preferences.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
	send    SendFunc
}

// New creates a new Notifier using the provided preferences.
func New(prefs Preferences) *Notifier {
	cloned := Preferences{Title: prefs.Title, Timeout: prefs.Timeout, Events: make(map[Event]EventPreference, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	return &Notifier{prefs: cloned, enabled: make(map[Event]bool), send: platform.Notify}
}

// SetSender replaces the platform notification call.
func (n *Notifier) SetSender(fn SendFunc) {
	if n != nil && fn != nil {
		n.send = fn
	}
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	if n.enabled == nil {
		n.enabled = make(map[Event]bool)
	}
	n.enabled[event] = enabled
}

// Draw sends a draw notification with an optional mask preview.
func (n *Notifier) Draw(detail string, preview image.Image) {
	n.withPreview(EventDraw, detail, preview)
}

// Edit sends an edit notification with an optional mask preview.
func (n *Notifier) Edit(detail string, preview image.Image) {
	n.withPreview(EventEdit, detail, preview)
}

func (n *Notifier) withPreview(event Event, detail string, img image.Image) {
	if !n.enabledFor(event) {
		return
	}
	opts := platform.Options{Low: true}
	if img != nil {
		if path, cleanup, err := createPreview(img); err != nil {
			log.Printf("notification preview: %v", err)
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	n.dispatch(event, detail, opts)
}

// Save sends a save notification including the written filename when available.
func (n *Notifier) Save(path string) {
	if !n.enabledFor(EventSave) {
		return
	}
	detail := strings.TrimSpace(path)
	opts := platform.Options{}
	if abs, err := filepath.Abs(path); err == nil {
		detail = abs
		if strings.EqualFold(filepath.Ext(abs), ".png") {
			if _, statErr := os.Stat(abs); statErr == nil {
				opts.IconPath = abs
			}
		}
	}
	n.dispatch(EventSave, detail, opts)
}

// Copy sends a clipboard notification.
func (n *Notifier) Copy(detail string) {
	if !n.enabledFor(EventCopy) {
		return
	}
	if strings.TrimSpace(detail) == "" {
		detail = "mask"
	}
	n.dispatch(EventCopy, detail, platform.Options{Low: true})
}

func (n *Notifier) enabledFor(event Event) bool {
	if n == nil {
		return false
	}
	if n.enabled == nil {
		return false
	}
	return n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	if !n.enabledFor(event) {
		return
	}
	template := strings.TrimSpace(n.template(event))
	if template == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(template, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	opts.Timeout = n.prefs.Timeout
	opts.Tag = string(event)
	if err := n.send(n.prefs.Title, body, opts); err != nil {
		log.Printf("notification %s: %v", event, err)
	}
}

func (n *Notifier) template(event Event) string {
	if n == nil {
		return ""
	}
	if pref, ok := n.prefs.Events[event]; ok {
		return pref.Template
	}
	return ""
}

func createPreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "maskpaint-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove preview: %v", err)
		}
	}
	return path, cleanup, nil
}
