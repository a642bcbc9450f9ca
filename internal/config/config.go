package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/maskpaint/internal/theme"
)

// Brush holds the tool selected when a session opens.
type Brush struct {
	Tool  string
	Form  string
	Size  int
	Color string
}

// Notify holds notification settings.
type Notify struct {
	Draw bool
	Edit bool
	Save bool
	Copy bool
}

// Server holds settings for the serve command.
type Server struct {
	Addr           string
	AllowedOrigins string // Comma separated websocket origin patterns
}

// Config holds the application configuration.
type Config struct {
	Theme           string
	OutputDir       string
	CreationOpacity float64
	Brush           Brush
	Notify          Notify
	Server          Server
	Themes          map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Theme:           "", // Default to empty to allow fallback to Env/Default
		CreationOpacity: 0.5,
		Brush: Brush{
			Tool:  "brush",
			Form:  "circle",
			Size:  10,
			Color: "#FF0000",
		},
		Notify: Notify{},
		Server: Server{
			Addr: ":8080",
		},
		Themes: make(map[string]*theme.Theme),
	}
}

// Origins splits Server.AllowedOrigins.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.Server.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	// Root section
	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.OutputDir != "" {
		fmt.Fprintf(&sb, "output_dir = %s\n", c.OutputDir)
	}
	fmt.Fprintf(&sb, "creation_opacity = %g\n", c.CreationOpacity)
	sb.WriteString("\n")

	sb.WriteString("[brush]\n")
	fmt.Fprintf(&sb, "tool = %s\n", c.Brush.Tool)
	fmt.Fprintf(&sb, "form = %s\n", c.Brush.Form)
	fmt.Fprintf(&sb, "size = %d\n", c.Brush.Size)
	fmt.Fprintf(&sb, "color = %s\n", c.Brush.Color)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "draw = %v\n", c.Notify.Draw)
	fmt.Fprintf(&sb, "edit = %v\n", c.Notify.Edit)
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	sb.WriteString("[server]\n")
	fmt.Fprintf(&sb, "addr = %s\n", c.Server.Addr)
	if c.Server.AllowedOrigins != "" {
		fmt.Fprintf(&sb, "allowed_origins = %s\n", c.Server.AllowedOrigins)
	}
	sb.WriteString("\n")

	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, kv := range t.Fields() {
			fmt.Fprintf(&sb, "%s: %s\n", kv[0], kv[1])
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
