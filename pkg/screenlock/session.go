package screenlock

import (
	"errors"
	"fmt"
	"time"

	"github.com/MatthiasKunnen/screenlock/pkg/credential"
	"go.uber.org/zap"
)

// Session locks all screens of a Display until the user's password is entered.
type Session struct {
	Display     Display
	Credentials credential.Provider

	// Backgrounds supplies the image of each lock window. Plain colors are used when nil.
	Backgrounds BackgroundProvider

	// Colors holds the color name for each State.
	Colors      [NumStates]string
	FailOnClear bool

	// OnLocked is called once every screen is locked, before waiting for input.
	// An error is logged and does not unlock the screens.
	OnLocked func() error

	// ReleaseOnUnlock destroys the lock windows and releases the grabs after a successful
	// unlock so the Display can be locked again. Without it, the locks are released when the
	// process exits.
	ReleaseOnUnlock bool

	Logger *zap.Logger

	sleep func(time.Duration)
}

// Run resolves the credential of the user and locks until it is entered.
func (s *Session) Run() error {
	cred, err := s.Credentials.Resolve()
	if err != nil {
		return fmt.Errorf("resolving credential: %w", err)
	}

	return s.RunWith(cred)
}

// RunWith locks every screen, in order, and waits for the password matching cred.
//
// The first screen that cannot be locked ends the attempt with its error; for a grab failure
// this is a *GrabFailure. Screens locked before it are not released: the caller is expected
// to exit.
func (s *Session) RunWith(cred credential.Credential) error {
	log := s.logger()
	locks, err := s.acquireAll()
	if err != nil {
		return err
	}
	log.Info("All screens locked", zap.Int("screens", len(locks)))

	if s.OnLocked != nil {
		if err := s.OnLocked(); err != nil {
			log.Warn("Post lock action failed", zap.Error(err))
		}
	}

	loop := &EventLoop{
		Display:     s.Display,
		Verifier:    s.Credentials,
		FailOnClear: s.FailOnClear,
		Logger:      log,
	}
	if err := loop.Run(locks, cred); err != nil {
		return err
	}
	log.Info("Unlocked")

	if s.ReleaseOnUnlock {
		return s.release(locks)
	}

	return nil
}

func (s *Session) acquireAll() ([]*ScreenLock, error) {
	d := s.Display
	log := s.logger()
	grabber := &Grabber{
		Display: d,
		Colors:  s.Colors,
		Logger:  log,
		sleep:   s.sleep,
	}

	screens := d.ScreenCount()
	locks := make([]*ScreenLock, 0, screens)
	for screen := range screens {
		background := NoSurface
		if s.Backgrounds != nil {
			var err error
			background, err = s.Backgrounds.Background(screen)
			if err != nil {
				log.Warn("No background for screen, using plain color",
					zap.Int("screen", screen), zap.Error(err))
				background = NoSurface
			}
		}

		lock, err := grabber.Acquire(screen, background)
		if err != nil {
			return nil, errors.Join(err, d.Sync())
		}
		locks = append(locks, lock)
	}

	if err := d.Sync(); err != nil {
		return nil, fmt.Errorf("syncing display: %w", err)
	}

	return locks, nil
}

func (s *Session) release(locks []*ScreenLock) error {
	err := s.Display.Ungrab()
	for _, lock := range locks {
		err = errors.Join(err, s.Display.DestroyWindow(lock.Window))
	}
	err = errors.Join(err, s.Display.Sync())
	if err != nil {
		return fmt.Errorf("releasing locks: %w", err)
	}

	return nil
}

func (s *Session) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
