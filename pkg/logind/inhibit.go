package logind

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/godbus/dbus/v5"
)

type What string

const (
	WhatHandleLidSwitch  What = "handle-lid-switch"
	WhatHandleSuspendKey What = "handle-suspend-key"
	WhatIdle             What = "idle"
	WhatSleep            What = "sleep"
)

type Mode string

const (
	ModeBlock Mode = "block"
	ModeDelay Mode = "delay"
)

// Inhibit takes an inhibitor lock.
//   - who should be a short human-readable string identifying the application taking the lock.
//   - why should be a short human-readable string identifying the reason why the lock is taken.
//   - mode "block" prevents the operations while "delay" postpones them until the lock is released
//     or logind's InhibitDelayMaxSec passes.
//
// The lock is released the moment the returned object is closed.
func (c *Client) Inhibit(who string, why string, mode Mode, what ...What) (io.Closer, error) {
	if len(what) == 0 {
		return nil, errors.New("Inhibit: at least one What is required")
	}

	var fd dbus.UnixFD
	err := c.manager.
		Call(dbusManagerInterface+".Inhibit", 0, joinWhat(what), who, why, string(mode)).
		Store(&fd)
	if err != nil {
		return nil, fmt.Errorf("failed to create inhibit lock: %w", err)
	}

	return os.NewFile(uintptr(fd), "inhibit"), nil
}

// InhibitSleep delays sleep until the returned lock is closed. Close it once the screen is
// locked so the system does not resume to an unlocked session.
func (c *Client) InhibitSleep(who string, why string) (io.Closer, error) {
	return c.Inhibit(who, why, ModeDelay, WhatSleep)
}

func joinWhat(elems []What) string {
	parts := make([]string, len(elems))
	for i, w := range elems {
		parts[i] = string(w)
	}
	return strings.Join(parts, ":")
}
