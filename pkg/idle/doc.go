// Package idle notifies when the user has not touched the keyboard or pointer for a while.
package idle
