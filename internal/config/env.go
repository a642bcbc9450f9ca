package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g. MASKPAINT_THEME.
const EnvPrefix = "maskpaint"

// Env lists the settings that can be overridden from the environment.
// Values are kept as strings so an unset variable never clobbers the file
// value, and are validated by the same setters as the RC parser.
type Env struct {
	Theme           string `envconfig:"THEME"`
	OutputDir       string `envconfig:"OUTPUT_DIR"`
	CreationOpacity string `envconfig:"CREATION_OPACITY"`
	BrushTool       string `envconfig:"BRUSH_TOOL"`
	BrushForm       string `envconfig:"BRUSH_FORM"`
	BrushSize       string `envconfig:"BRUSH_SIZE"`
	BrushColor      string `envconfig:"BRUSH_COLOR"`
	NotifyDraw      string `envconfig:"NOTIFY_DRAW"`
	NotifyEdit      string `envconfig:"NOTIFY_EDIT"`
	NotifySave      string `envconfig:"NOTIFY_SAVE"`
	NotifyCopy      string `envconfig:"NOTIFY_COPY"`
	ServerAddr      string `envconfig:"SERVER_ADDR"`
	AllowedOrigins  string `envconfig:"ALLOWED_ORIGINS"`
}

// ApplyEnv overrides cfg with MASKPAINT_* environment variables.
func (cfg *Config) ApplyEnv() error {
	var e Env
	if err := envconfig.Process(EnvPrefix, &e); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return cfg.applyEnv(e)
}

func (cfg *Config) applyEnv(e Env) error {
	overrides := []struct {
		section, key, value string
	}{
		{"", "theme", e.Theme},
		{"", "output_dir", e.OutputDir},
		{"", "creation_opacity", e.CreationOpacity},
		{"brush", "tool", e.BrushTool},
		{"brush", "form", e.BrushForm},
		{"brush", "size", e.BrushSize},
		{"brush", "color", e.BrushColor},
		{"notify", "draw", e.NotifyDraw},
		{"notify", "edit", e.NotifyEdit},
		{"notify", "save", e.NotifySave},
		{"notify", "copy", e.NotifyCopy},
		{"server", "addr", e.ServerAddr},
		{"server", "allowed_origins", e.AllowedOrigins},
	}
	for _, o := range overrides {
		if o.value == "" {
			continue
		}
		if err := cfg.set(o.section, o.key, o.value); err != nil {
			return fmt.Errorf("environment: %w", err)
		}
	}
	return nil
}

// Usage prints the recognised environment variables to stdout.
func Usage() error {
	var e Env
	return envconfig.Usage(EnvPrefix, &e)
}
