package screenlock

import (
	"fmt"

	"github.com/MatthiasKunnen/screenlock/pkg/credential"
	"github.com/MatthiasKunnen/screenlock/pkg/keysym"
	"go.uber.org/zap"
)

// Verifier checks a candidate password against the reference credential.
type Verifier interface {
	Verify(candidate []byte, reference credential.Credential) (bool, error)
}

// EventLoop reads input for a set of locked screens until the correct password is entered.
type EventLoop struct {
	Display  Display
	Verifier Verifier

	// FailOnClear shows the Failed state whenever the buffer is emptied, not only after a
	// wrong password.
	FailOnClear bool

	// BufferCapacity is the maximum password length, DefaultBufferCapacity when zero.
	BufferCapacity int

	Logger *zap.Logger
}

// loopContext is the state of a single Run.
type loopContext struct {
	*EventLoop
	log        *zap.Logger
	locks      []*ScreenLock
	credential credential.Credential
	buf        *SecretBuffer
	text       [32]byte
	state      State
	failure    bool
}

// Run blocks until the password matching cred is submitted, returning nil.
// The only other way out is a failing event stream, which is returned as an error.
func (l *EventLoop) Run(locks []*ScreenLock, cred credential.Credential) error {
	c := &loopContext{
		EventLoop:  l,
		log:        l.Logger,
		locks:      locks,
		credential: cred,
		buf:        NewSecretBuffer(l.BufferCapacity),
		state:      Init,
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	defer c.buf.Destroy()
	defer clear(c.text[:])

	for {
		ev, err := l.Display.NextEvent()
		if err != nil {
			return fmt.Errorf("waiting for input: %w", err)
		}

		switch ev := ev.(type) {
		case KeyPress:
			if c.handleKey(ev) {
				return nil
			}
		case GeometryChange:
			if l.Display.GeometryChangeSupported() {
				c.handleGeometryChange(ev)
			}
		default:
			c.raiseAll()
		}
	}
}

// handleKey processes a key press and reports whether the password was accepted.
func (c *loopContext) handleKey(ev KeyPress) bool {
	sym, n := c.Display.LookupKey(ev, c.text[:])
	defer clear(c.text[:])

	sym = keysym.Normalize(sym)
	if keysym.Ignored(sym) {
		return false
	}

	switch {
	case keysym.IsMediaKey(sym):
		if err := c.Display.Forward(ev); err != nil {
			c.log.Warn("Failed to forward media key", zap.Error(err))
		}
	case sym == keysym.Return:
		if c.submit() {
			return true
		}
	case sym == keysym.Escape:
		c.buf.Clear()
	case sym == keysym.BackSpace:
		c.buf.DeleteLast()
	default:
		if n > 0 && !isControl(c.text[0]) {
			c.buf.Append(c.text[:n])
		}
	}

	c.updateState()
	return false
}

func (c *loopContext) submit() bool {
	ok, err := c.buf.Consume(func(secret []byte) (bool, error) {
		return c.Verifier.Verify(secret, c.credential)
	})
	if err != nil {
		c.log.Warn("Password verification failed", zap.Error(err))
		ok = false
	}
	if ok {
		return true
	}

	if err := c.Display.Bell(); err != nil {
		c.log.Warn("Failed to ring bell", zap.Error(err))
	}
	c.failure = true
	return false
}

// updateState repaints every screen when the state changed.
func (c *loopContext) updateState() {
	state := ComputeState(c.buf.Len(), c.failure, c.FailOnClear)
	if state == c.state {
		return
	}
	c.state = state

	for _, lock := range c.locks {
		if err := c.paint(lock, state); err != nil {
			c.log.Warn("Failed to repaint lock window", zap.Int("screen", lock.Screen), zap.Error(err))
		}
	}
}

func (c *loopContext) paint(lock *ScreenLock, state State) error {
	var err error
	if state == Init && lock.Surface != NoSurface {
		err = c.Display.SetBackgroundSurface(lock.Window, lock.Surface)
	} else {
		err = c.Display.SetBackgroundPixel(lock.Window, lock.Colors[state])
	}
	if err != nil {
		return err
	}

	return c.Display.Clear(lock.Window)
}

func (c *loopContext) handleGeometryChange(ev GeometryChange) {
	for _, lock := range c.locks {
		if lock.Window != ev.Window {
			continue
		}

		width, height := ev.Width, ev.Height
		if ev.Rotation == Rotate90 || ev.Rotation == Rotate270 {
			width, height = height, width
		}

		if err := c.Display.Resize(lock.Window, width, height); err != nil {
			c.log.Warn("Failed to resize lock window", zap.Int("screen", lock.Screen), zap.Error(err))
		}
		if err := c.Display.Clear(lock.Window); err != nil {
			c.log.Warn("Failed to clear lock window", zap.Int("screen", lock.Screen), zap.Error(err))
		}
		return
	}
}

// raiseAll puts the lock windows back on top, e.g. after another window got mapped.
func (c *loopContext) raiseAll() {
	for _, lock := range c.locks {
		if err := c.Display.Raise(lock.Window); err != nil {
			c.log.Warn("Failed to raise lock window", zap.Int("screen", lock.Screen), zap.Error(err))
		}
	}
}

func isControl(b byte) bool {
	return b < 0x20 || b == 0x7f
}
