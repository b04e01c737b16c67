package screenlock

import "github.com/MatthiasKunnen/screenlock/pkg/keysym"

// WindowID identifies a window on the display.
type WindowID uint32

// CursorID identifies a cursor on the display.
type CursorID uint32

// Surface is a server-side image used as a window background, sized to its screen.
type Surface uint32

// NoSurface means the lock window shows its plain color.
const NoSurface Surface = 0

// GrabStatus is the outcome of a pointer or keyboard grab request.
type GrabStatus int

const (
	GrabSuccess GrabStatus = iota
	// GrabAlreadyGrabbed means another client holds the device. Retrying may succeed.
	GrabAlreadyGrabbed
	GrabInvalidTime
	GrabNotViewable
	GrabFrozen
)

func (s GrabStatus) String() string {
	switch s {
	case GrabSuccess:
		return "success"
	case GrabAlreadyGrabbed:
		return "already grabbed"
	case GrabInvalidTime:
		return "invalid time"
	case GrabNotViewable:
		return "not viewable"
	case GrabFrozen:
		return "frozen"
	}
	return "unknown"
}

// Rotation is the orientation reported by a geometry change.
type Rotation uint16

const (
	Rotate0   Rotation = 1
	Rotate90  Rotation = 2
	Rotate180 Rotation = 4
	Rotate270 Rotation = 8
)

// Event is anything received from the display's event stream.
type Event interface {
	event()
}

// KeyPress is a key being pressed while the keyboard is grabbed.
type KeyPress struct {
	Code  uint8
	State uint16

	// Native is the event as received by the Display implementation. It is used to forward
	// the key unchanged.
	Native any
}

// GeometryChange notifies that the screen of Window changed size or rotation.
type GeometryChange struct {
	Window        WindowID
	Width, Height uint16
	Rotation      Rotation
}

// OtherEvent is any event that is not handled specifically, e.g. a window being mapped on
// top of the lock.
type OtherEvent struct {
	Native any
}

func (KeyPress) event()       {}
func (GeometryChange) event() {}
func (OtherEvent) event()     {}

// Display is the windowing system the lock is drawn on.
// Its methods are called from a single goroutine.
type Display interface {
	ScreenCount() int
	Root(screen int) WindowID
	ScreenSize(screen int) (width, height uint16)

	// AllocColor resolves a color name, e.g. "black" or "#005577", to a pixel value of the
	// screen's default colormap.
	AllocColor(screen int, name string) (uint32, error)

	// CreateWindow creates a borderless, override-redirect window at the origin of the
	// screen's root window. The window is not mapped.
	CreateWindow(screen int, width, height uint16, background uint32) (WindowID, error)
	SetBackgroundSurface(win WindowID, s Surface) error
	SetBackgroundPixel(win WindowID, pixel uint32) error

	// InvisibleCursor creates a fully transparent cursor and defines it on win.
	InvisibleCursor(win WindowID) (CursorID, error)

	GrabPointer(root WindowID, cursor CursorID) (GrabStatus, error)
	GrabKeyboard(root WindowID) (GrabStatus, error)
	Ungrab() error

	MapRaised(win WindowID) error
	Raise(win WindowID) error
	Resize(win WindowID, width, height uint16) error
	Clear(win WindowID) error
	DestroyWindow(win WindowID) error

	// GeometryChangeSupported reports whether screen change notifications are available.
	GeometryChangeSupported() bool
	SelectGeometryChange(win WindowID) error
	// SelectSubstructure subscribes to windows being created or changed under root.
	SelectSubstructure(root WindowID) error

	// LookupKey translates a key press to a keysym and writes the text it produces to buf,
	// returning the number of bytes written.
	LookupKey(ev KeyPress, buf []byte) (keysym.Sym, int)
	// Forward sends the key press to the root window it was pressed on.
	Forward(ev KeyPress) error
	Bell() error

	// NextEvent blocks until the next event is available.
	NextEvent() (Event, error)
	Sync() error
}

// BackgroundProvider supplies the image shown on a screen's lock window.
type BackgroundProvider interface {
	Background(screen int) (Surface, error)
}
