// Package logind talks to systemd-logind over its D-Bus interface, [org.freedesktop.login1],
// for what a screen locker needs from it: lock requests for the current session, the
// session's LockedHint, and delaying sleep until the screen is locked.
//
// [org.freedesktop.login1]: https://www.freedesktop.org/software/systemd/man/latest/org.freedesktop.login1.html
package logind
