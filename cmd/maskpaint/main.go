package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/maskpaint/internal/config"
	"github.com/example/maskpaint/internal/notify"
	"github.com/example/maskpaint/internal/session"
	"github.com/example/maskpaint/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs          *flag.FlagSet
	program     string
	notifier    *notify.Notifier
	config      *config.Config
	drawAlerts  bool
	editAlerts  bool
	saveAlerts  bool
	copyAlerts  bool
	themeName   string
	activeTheme *theme.Theme
	stdout      io.Writer
	stderr      io.Writer
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	prefs := notify.LoadPreferences()
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r := &root{
		fs:       flag.NewFlagSet("maskpaint", flag.ExitOnError),
		program:  "maskpaint",
		notifier: notify.New(prefs),
		config:   cfg,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	r.fs.BoolVar(&r.drawAlerts, "notify-draw", cfg.Notify.Draw, "show a desktop notification after finishing a mask")
	r.fs.BoolVar(&r.editAlerts, "notify-edit", cfg.Notify.Edit, "show a desktop notification after editing a mask")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving masks")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")

	// Precedence: CLI > Env > Config > Default. The env and file layers are
	// already merged into cfg by the loader.
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use (light, dark)")
	r.fs.Usage = usageFunc(r)
	return r
}

// subcommand returns a copy of r named for a nested command.
func (r *root) subcommand(name string) *root {
	if r == nil {
		return &root{program: "maskpaint " + name}
	}
	c := *r
	c.fs = nil
	c.program = strings.TrimSpace(r.program + " " + name)
	return &c
}

func (r *root) out() io.Writer {
	if r == nil || r.stdout == nil {
		return os.Stdout
	}
	return r.stdout
}

func (r *root) errOut() io.Writer {
	if r == nil || r.stderr == nil {
		return os.Stderr
	}
	return r.stderr
}

func (r *root) cfg() *config.Config {
	if r == nil || r.config == nil {
		return config.New()
	}
	return r.config
}

// defaultBrush is the configured tool a session opens with.
func (r *root) defaultBrush() session.BrushTool {
	b := r.cfg().Brush
	return session.BrushTool{Type: b.Tool, Form: b.Form, Size: b.Size, Color: b.Color}
}

func (r *root) loadTheme() *theme.Theme {
	themeName := r.themeName
	if themeName == "" {
		themeName = r.cfg().Theme
	}
	if t, ok := r.cfg().Themes[themeName]; ok {
		return t
	}
	t, err := theme.NewLoader().Load(themeName)
	if err != nil {
		if themeName != "" && themeName != "default" {
			fmt.Fprintf(r.errOut(), "warning: failed to load theme '%s': %v. using default.\n", themeName, err)
		}
		return theme.Default()
	}
	return t
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if r.notifier != nil {
		r.notifier.Enable(notify.EventDraw, r.drawAlerts)
		r.notifier.Enable(notify.EventEdit, r.editAlerts)
		r.notifier.Enable(notify.EventSave, r.saveAlerts)
		r.notifier.Enable(notify.EventCopy, r.copyAlerts)
	}
	r.activeTheme = r.loadTheme()
	return r.dispatch(r.fs.Arg(0), r.fs.Args()[1:])
}

func (r *root) dispatch(cmdName string, subArgs []string) error {
	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "encode":
		cmd, err = parseEncodeCmd(subArgs, r)
	case "decode":
		cmd, err = parseDecodeCmd(subArgs, r)
	case "paint":
		cmd, err = parsePaintCmd(subArgs, r)
	case "annotate":
		cmd, err = parseAnnotateCmd(subArgs, r)
	case "serve":
		cmd, err = parseServeCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "interactive":
		cmd = &interactiveCmd{r: r, in: os.Stdin}
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (r *root) notifySave(path string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Save(path)
}

func (r *root) notifyCopy(detail string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Copy(detail)
}
