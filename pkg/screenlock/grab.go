package screenlock

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultGrabAttempts = 6
	DefaultGrabInterval = 100 * time.Millisecond
)

// ScreenLock is a locked screen.
type ScreenLock struct {
	Screen  int
	Root    WindowID
	Window  WindowID
	Surface Surface
	Cursor  CursorID

	// Colors holds the background pixel for each State.
	Colors [NumStates]uint32

	PointerGrabbed  bool
	KeyboardGrabbed bool
}

// GrabFailure is returned when the pointer or keyboard of a screen could not be grabbed.
type GrabFailure struct {
	Screen   int
	Pointer  bool
	Keyboard bool
}

func (e *GrabFailure) Error() string {
	var failed []string
	if e.Pointer {
		failed = append(failed, "pointer")
	}
	if e.Keyboard {
		failed = append(failed, "keyboard")
	}
	return fmt.Sprintf("unable to grab %s for screen %d", strings.Join(failed, " and "), e.Screen)
}

type grabState int

const (
	ungrabbed grabState = iota
	grabbed
	grabFailed
)

// advance returns the state of a resource after a grab request.
// AlreadyGrabbed leaves the resource retryable, any other failure is final.
func advance(status GrabStatus, err error) grabState {
	switch {
	case err != nil:
		return grabFailed
	case status == GrabSuccess:
		return grabbed
	case status == GrabAlreadyGrabbed:
		return ungrabbed
	default:
		return grabFailed
	}
}

// Grabber covers screens with a lock window and grabs their input.
type Grabber struct {
	Display Display

	// Colors holds the color name for each State.
	Colors [NumStates]string

	// Attempts is the maximum number of grab attempts, DefaultGrabAttempts when zero.
	Attempts int
	// Interval is the pause between attempts, DefaultGrabInterval when zero.
	Interval time.Duration

	Logger *zap.Logger

	sleep func(time.Duration)
}

// Acquire locks the screen.
//
// The pointer and keyboard are grabbed independently: each attempt only retries what is not
// grabbed yet. If either is held by another client the attempt is repeated after Interval,
// any other failure aborts at once. When the grabs do not both succeed, a *GrabFailure is
// returned and the window is left as is; it disappears when the process exits.
func (g *Grabber) Acquire(screen int, background Surface) (*ScreenLock, error) {
	d := g.Display
	log := g.logger().With(zap.Int("screen", screen))

	lock := &ScreenLock{
		Screen:  screen,
		Root:    d.Root(screen),
		Surface: background,
	}

	for state := range NumStates {
		pixel, err := d.AllocColor(screen, g.Colors[state])
		if err != nil {
			return nil, fmt.Errorf("screen %d: allocating %s color %q: %w", screen, state, g.Colors[state], err)
		}
		lock.Colors[state] = pixel
	}

	width, height := d.ScreenSize(screen)
	var err error
	lock.Window, err = d.CreateWindow(screen, width, height, lock.Colors[Init])
	if err != nil {
		return nil, fmt.Errorf("screen %d: creating lock window: %w", screen, err)
	}

	if background != NoSurface {
		if err := d.SetBackgroundSurface(lock.Window, background); err != nil {
			return nil, fmt.Errorf("screen %d: setting background: %w", screen, err)
		}
	}

	lock.Cursor, err = d.InvisibleCursor(lock.Window)
	if err != nil {
		return nil, fmt.Errorf("screen %d: creating invisible cursor: %w", screen, err)
	}

	pointer, keyboard := ungrabbed, ungrabbed
	for attempt := range g.attempts() {
		if attempt > 0 {
			g.doSleep(g.interval())
		}

		if pointer != grabbed {
			status, err := d.GrabPointer(lock.Root, lock.Cursor)
			pointer = advance(status, err)
			if pointer != grabbed {
				log.Debug("Pointer grab failed",
					zap.Int("attempt", attempt+1), zap.Stringer("status", status), zap.Error(err))
			}
		}
		if keyboard != grabbed {
			status, err := d.GrabKeyboard(lock.Root)
			keyboard = advance(status, err)
			if keyboard != grabbed {
				log.Debug("Keyboard grab failed",
					zap.Int("attempt", attempt+1), zap.Stringer("status", status), zap.Error(err))
			}
		}

		if pointer == grabbed && keyboard == grabbed {
			lock.PointerGrabbed, lock.KeyboardGrabbed = true, true
			if err := g.engage(lock); err != nil {
				return nil, fmt.Errorf("screen %d: %w", screen, err)
			}
			return lock, nil
		}

		if pointer == grabFailed || keyboard == grabFailed {
			break
		}
	}

	failure := &GrabFailure{
		Screen:   screen,
		Pointer:  pointer != grabbed,
		Keyboard: keyboard != grabbed,
	}
	if failure.Pointer {
		log.Error("Unable to grab mouse pointer")
	}
	if failure.Keyboard {
		log.Error("Unable to grab keyboard")
	}

	return nil, failure
}

// engage shows the lock window once input is grabbed and subscribes to the events needed to
// keep it on top.
func (g *Grabber) engage(lock *ScreenLock) error {
	d := g.Display

	if err := d.MapRaised(lock.Window); err != nil {
		return fmt.Errorf("mapping lock window: %w", err)
	}

	if d.GeometryChangeSupported() {
		if err := d.SelectGeometryChange(lock.Window); err != nil {
			return fmt.Errorf("selecting screen change notifications: %w", err)
		}
	}

	if err := d.SelectSubstructure(lock.Root); err != nil {
		return fmt.Errorf("selecting root substructure notifications: %w", err)
	}

	return nil
}

func (g *Grabber) attempts() int {
	if g.Attempts <= 0 {
		return DefaultGrabAttempts
	}
	return g.Attempts
}

func (g *Grabber) interval() time.Duration {
	if g.Interval <= 0 {
		return DefaultGrabInterval
	}
	return g.Interval
}

func (g *Grabber) doSleep(d time.Duration) {
	if g.sleep != nil {
		g.sleep(d)
		return
	}
	time.Sleep(d)
}

func (g *Grabber) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}
