//go:build linux

package platform

import (
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = notifyDest + ".Notify"
)

var (
	replaceMu  sync.Mutex
	replaceIDs = map[string]uint32{}
)

// Notify sends a desktop notification using the Freedesktop.org notification
// spec. Tagged notifications replace the previous one with the same tag.
func Notify(title, body string, opts Options) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return err
	}
	defer conn.Close()

	replaceMu.Lock()
	replaces := replaceIDs[opts.Tag]
	replaceMu.Unlock()

	var id uint32
	err = conn.Object(notifyDest, notifyPath).Call(notifyMethod, 0,
		AppName, replaces, opts.IconPath, title, body, []string{}, notificationHints(opts), opts.expireMillis()).Store(&id)
	if err != nil {
		return err
	}
	if opts.Tag != "" {
		replaceMu.Lock()
		replaceIDs[opts.Tag] = id
		replaceMu.Unlock()
	}
	return nil
}

func notificationHints(opts Options) map[string]dbus.Variant {
	hints := map[string]dbus.Variant{
		"desktop-entry": dbus.MakeVariant(AppName),
	}
	if opts.Low {
		hints["urgency"] = dbus.MakeVariant(byte(0))
		hints["transient"] = dbus.MakeVariant(true)
	}
	if opts.IconPath != "" {
		hints["image-path"] = dbus.MakeVariant(opts.IconPath)
	}
	return hints
}
