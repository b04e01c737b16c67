package main

import (
	"errors"
	"fmt"

	"github.com/MatthiasKunnen/screenlock/internal/config"
	"github.com/MatthiasKunnen/screenlock/pkg/credential"
	"github.com/MatthiasKunnen/screenlock/pkg/keyring"
	"github.com/MatthiasKunnen/screenlock/pkg/logind"
	"github.com/MatthiasKunnen/screenlock/pkg/privdrop"
	"github.com/MatthiasKunnen/screenlock/pkg/screenlock"
	"github.com/MatthiasKunnen/screenlock/pkg/screenlock/x11"
	"go.uber.org/zap"
)

// locker holds what stays the same between locks: the credential, the display connection and
// the desktop integrations.
type locker struct {
	opts        *config.Options
	log         *zap.Logger
	credentials credential.Provider
	cred        credential.Credential
	display     *x11.Display
	backgrounds screenlock.BackgroundProvider

	// Optional integrations, nil when unavailable.
	logind   *logind.Client
	keyrings *keyring.Locker
}

// newLocker prepares everything that needs privileges, then drops them.
func newLocker(o *config.Options, log *zap.Logger) (*locker, error) {
	id, err := privdrop.Lookup(o.User, o.Group)
	if err != nil {
		return nil, err
	}

	if err := privdrop.ProtectFromOOM(); err != nil {
		if privdrop.Privileged() {
			return nil, err
		}
		log.Warn("Running without OOM protection", zap.Error(err))
	}

	l := &locker{
		opts:        o,
		log:         log,
		credentials: credential.NewSystemProvider(),
	}

	l.cred, err = l.credentials.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolving credential: %w", err)
	}

	l.display, err = x11.Connect(o.Display, log.Named("x11"))
	if err != nil {
		return nil, err
	}

	// The buses authenticate the connecting user, connect before giving up the identity.
	l.logind, err = logind.Connect(o.SessionID)
	if err != nil {
		log.Warn("logind unavailable, the session will not be marked as locked", zap.Error(err))
		l.logind = nil
	}
	if len(o.Keyrings()) > 0 {
		l.keyrings, err = keyring.New()
		if err != nil {
			log.Warn("Secret Service unavailable, keyrings will not be locked", zap.Error(err))
			l.keyrings = nil
		}
	}

	if privdrop.Privileged() {
		if err := privdrop.Drop(id); err != nil {
			l.Close()
			return nil, err
		}
		log.Debug("Dropped privileges", zap.String("user", id.User), zap.String("group", id.Group))
	} else {
		log.Debug("Not running as root, keeping the current user")
	}

	if o.PixelSize > 0 {
		l.backgrounds = x11.NewPixelated(l.display, o.PixelSize)
	}

	return l, nil
}

// session returns a Session that calls afterLock once the screens are locked and the desktop
// was told so.
func (l *locker) session(releaseOnUnlock bool, afterLock func() error) *screenlock.Session {
	return &screenlock.Session{
		Display:         l.display,
		Credentials:     l.credentials,
		Backgrounds:     l.backgrounds,
		Colors:          l.opts.Colors(),
		FailOnClear:     l.opts.FailOnClear,
		ReleaseOnUnlock: releaseOnUnlock,
		Logger:          l.log,
		OnLocked: func() error {
			return errors.Join(l.markLocked(), afterLock())
		},
	}
}

// lock runs session with the resolved credential. Screens locked before a failure stay locked
// until the process exits.
func (l *locker) lock(session *screenlock.Session) error {
	if err := session.RunWith(l.cred); err != nil {
		return err
	}

	if l.logind != nil {
		if err := l.logind.SetLockedHint(false); err != nil {
			l.log.Warn("Failed to clear locked hint", zap.Error(err))
		}
	}

	return nil
}

func (l *locker) markLocked() error {
	var err error
	if l.logind != nil {
		err = errors.Join(err, l.logind.SetLockedHint(true))
	}
	if l.keyrings != nil {
		err = errors.Join(err, l.keyrings.Lock(l.opts.Keyrings()...))
	}
	return err
}

func (l *locker) Close() error {
	var err error
	if l.logind != nil {
		err = errors.Join(err, l.logind.Close())
	}
	if l.keyrings != nil {
		err = errors.Join(err, l.keyrings.Close())
	}
	if l.display != nil {
		err = errors.Join(err, l.display.Close())
	}
	return err
}
