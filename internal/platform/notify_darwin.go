//go:build darwin

package platform

import (
	"fmt"
	"os/exec"
)

// Notify displays a desktop notification using macOS Notification Center.
// Routine notifications are silent; the rest play the default sound.
func Notify(title, body string, opts Options) error {
	script := fmt.Sprintf("display notification %q with title %q subtitle %q", body, title, AppName)
	if !opts.Low {
		script += ` sound name "default"`
	}
	return exec.Command("osascript", "-e", script).Run()
}
