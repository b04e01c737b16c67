// Package screenlock locks every screen of a display until the user enters their password.
//
// A [Session] resolves the user's credential, then uses a [Grabber] to cover each screen with
// a window and take exclusive hold of the pointer and keyboard. Screens are locked in order
// and the first screen that cannot be grabbed fails the whole session; screens locked before
// it stay locked until the process exits. Once every screen is locked, an [EventLoop] reads
// keystrokes into a [SecretBuffer] and returns only when the entered password matches.
//
// The windowing system is abstracted by [Display]; package x11 implements it for X11.
package screenlock
