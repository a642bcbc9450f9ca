package theme

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned when no source has a theme of the requested name.
var ErrNotFound = errors.New("theme not found")

// Loader resolves theme names against the embedded themes and a list of
// directories, searched in order.
type Loader struct {
	Dirs []string
}

// NewLoader searches $XDG_CONFIG_HOME/maskpaint/themes (or
// ~/.config/maskpaint/themes) and then /usr/share/maskpaint/themes.
func NewLoader() *Loader {
	var dirs []string
	if cfg, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(cfg, "maskpaint", "themes"))
	}
	dirs = append(dirs, "/usr/share/maskpaint/themes")
	return &Loader{Dirs: dirs}
}

// Load returns the theme called name. An empty name is the default theme,
// an existing file path is parsed directly, and anything else is looked up
// as NAME.theme in the embedded set and then in each directory.
func (l *Loader) Load(name string) (*Theme, error) {
	if name == "" {
		return Default(), nil
	}
	if st, err := os.Stat(name); err == nil && !st.IsDir() {
		return parseFile(os.DirFS(filepath.Dir(name)), filepath.Base(name))
	}

	filename := name
	if !strings.HasSuffix(filename, ".theme") {
		filename += ".theme"
	}
	if t, err := parseFile(EmbeddedThemes, "defaults/"+filename); err == nil {
		return t, nil
	}
	for _, dir := range l.Dirs {
		t, err := parseFile(os.DirFS(dir), filename)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Join(dir, filename), err)
		}
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Available lists every theme name the loader can resolve, without
// duplicates.
func (l *Loader) Available() []string {
	seen := map[string]bool{}
	for _, n := range EmbeddedNames() {
		seen[n] = true
	}
	for _, dir := range l.Dirs {
		matches, _ := filepath.Glob(filepath.Join(dir, "*.theme"))
		for _, m := range matches {
			seen[strings.TrimSuffix(filepath.Base(m), ".theme")] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func parseFile(fsys fs.FS, name string) (*Theme, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
