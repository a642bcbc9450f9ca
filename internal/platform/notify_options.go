package platform

import "time"

// AppName identifies the application to the notification center.
const AppName = "maskpaint"

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	// Timeout is how long the notification stays visible. Zero leaves it to
	// the notification center.
	Timeout time.Duration
	// Low marks routine notifications so they can be shown quietly.
	Low bool
	// Tag groups notifications; a new one replaces the previous one with
	// the same tag where the platform allows it.
	Tag string
}

func (o Options) expireMillis() int32 {
	if o.Timeout <= 0 {
		return -1
	}
	return int32(o.Timeout / time.Millisecond)
}
