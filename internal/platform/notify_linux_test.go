//go:build linux

package platform

import (
	"testing"
	"time"
)

func TestNotificationHints(t *testing.T) {
	h := notificationHints(Options{})
	if _, ok := h["urgency"]; ok {
		t.Fatalf("normal notification should not set urgency")
	}
	if got := h["desktop-entry"].Value(); got != AppName {
		t.Fatalf("desktop-entry = %v", got)
	}

	h = notificationHints(Options{Low: true, IconPath: "/tmp/p.png"})
	if got := h["urgency"].Value(); got != byte(0) {
		t.Fatalf("urgency = %v", got)
	}
	if got := h["image-path"].Value(); got != "/tmp/p.png" {
		t.Fatalf("image-path = %v", got)
	}
}

func TestExpireMillis(t *testing.T) {
	if got := (Options{}).expireMillis(); got != -1 {
		t.Fatalf("default expire = %d", got)
	}
	if got := (Options{Timeout: 1500 * time.Millisecond}).expireMillis(); got != 1500 {
		t.Fatalf("expire = %d", got)
	}
}
