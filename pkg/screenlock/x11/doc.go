// Package x11 implements [screenlock.Display] on top of the X11 protocol using the pure Go
// [xgb] bindings, with the RandR extension for screen geometry changes.
//
// [xgb]: https://github.com/jezek/xgb
package x11
