package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/maskpaint/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	if err := cfg.parse(r); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	var currentSection string
	var currentTheme *theme.Theme

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			currentTheme = nil

			if themeName, ok := strings.CutPrefix(currentSection, "theme."); ok {
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = themeName
				cfg.Themes[themeName] = currentTheme
			}
			continue
		}

		// Key = Value or Key: Value
		var parts []string
		if strings.Contains(line, "=") {
			parts = strings.SplitN(line, "=", 2)
		} else if strings.Contains(line, ":") {
			parts = strings.SplitN(line, ":", 2)
		} else {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") && len(value) >= 2 {
			value = value[1 : len(value)-1]
		}

		if currentTheme != nil {
			if err := currentTheme.Set(key, value); err != nil {
				return fmt.Errorf("error in section [%s]: %w", currentSection, err)
			}
			continue
		}
		if err := cfg.set(currentSection, key, value); err != nil {
			if currentSection == "" {
				return fmt.Errorf("error in root section: %w", err)
			}
			return fmt.Errorf("error in section [%s]: %w", currentSection, err)
		}
	}

	return scanner.Err()
}

// set assigns one key of a non-theme section. Unknown sections and keys
// are ignored.
func (cfg *Config) set(section, key, value string) error {
	switch strings.ToLower(section) {
	case "":
		return setRootField(cfg, key, value)
	case "brush":
		return setBrushField(&cfg.Brush, key, value)
	case "notify":
		return setNotifyField(&cfg.Notify, key, value)
	case "server":
		return setServerField(&cfg.Server, key, value)
	}
	return nil
}

func setRootField(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "theme":
		cfg.Theme = value
	case "output_dir":
		cfg.OutputDir = value
	case "creation_opacity":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for key %s: %w", key, err)
		}
		if f < 0 || f > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", key, f)
		}
		cfg.CreationOpacity = f
	}
	return nil
}

func setBrushField(b *Brush, key, value string) error {
	switch strings.ToLower(key) {
	case "tool":
		b.Tool = value
	case "form":
		b.Form = value
	case "color":
		b.Color = value
	case "size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for key %s: %w", key, err)
		}
		if n <= 0 {
			return fmt.Errorf("%s must be positive, got %d", key, n)
		}
		b.Size = n
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch strings.ToLower(key) {
	case "draw":
		n.Draw = b
	case "edit":
		n.Edit = b
	case "save":
		n.Save = b
	case "copy":
		n.Copy = b
	}
	return nil
}

func setServerField(s *Server, key, value string) error {
	switch strings.ToLower(key) {
	case "addr":
		s.Addr = value
	case "allowed_origins":
		s.AllowedOrigins = value
	}
	return nil
}
