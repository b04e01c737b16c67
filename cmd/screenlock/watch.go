package main

import (
	"context"
	"errors"
	"io"
	"os/signal"
	"syscall"

	"github.com/MatthiasKunnen/screenlock/internal/config"
	"github.com/MatthiasKunnen/screenlock/pkg/idle"
	"github.com/jezek/xgb/xproto"
	"go.uber.org/zap"
)

// sleepDelay holds the logind delay inhibitor that keeps the system awake until the screen is
// locked.
type sleepDelay struct {
	locker *locker
	lock   io.Closer
}

func (s *sleepDelay) take() {
	if s.locker.logind == nil || s.lock != nil {
		return
	}

	var err error
	s.lock, err = s.locker.logind.InhibitSleep("screenlock", "Lock the screen before sleeping")
	if err != nil {
		s.locker.log.Warn("Unable to delay sleep, the system may resume unlocked", zap.Error(err))
		s.lock = nil
	}
}

func (s *sleepDelay) release() {
	if s.lock == nil {
		return
	}
	if err := s.lock.Close(); err != nil {
		s.locker.log.Warn("Failed to release sleep delay", zap.Error(err))
	}
	s.lock = nil
}

// execWatch locks every time a trigger fires until ctx is done or a lock fails.
func execWatch(ctx context.Context, o *config.Options, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l, err := newLocker(o, log)
	if err != nil {
		return err
	}
	defer l.Close()

	lockRequests := make(chan struct{}, 1)
	sleeping := make(chan bool, 1)
	idleTimeouts := make(chan struct{}, 1)
	triggers := 0

	if l.logind != nil {
		if err := l.logind.SubscribeLock(lockRequests); err != nil {
			log.Warn("Not listening to logind lock requests", zap.Error(err))
		} else {
			triggers++
		}
		if err := l.logind.SubscribePrepareForSleep(sleeping); err != nil {
			log.Warn("Not locking before sleep", zap.Error(err))
		} else {
			triggers++
		}
	}

	if o.Idle > 0 {
		controller, err := idle.NewX11IdleController(l.display.Conn(), xproto.Window(l.display.Root(0)))
		if err != nil {
			return err
		}
		defer controller.Close()

		_, err = controller.AddNotification(&idle.CreateIdleNotification{
			Duration: o.Idle,
			Idle:     idleTimeouts,
		})
		if err != nil {
			return err
		}
		triggers++
	}

	if triggers == 0 {
		return errors.New("nothing to watch: logind is unavailable and -idle is not set")
	}

	delay := &sleepDelay{locker: l}
	delay.take()
	defer delay.release()

	log.Info("Watching for lock triggers", zap.Duration("idle", o.Idle))
	for {
		var reason string
		select {
		case <-ctx.Done():
			return nil
		case <-lockRequests:
			reason = "lock request"
		case <-idleTimeouts:
			reason = "idle"
		case goingToSleep := <-sleeping:
			if !goingToSleep {
				delay.take()
				continue
			}
			reason = "sleep"
		}

		log.Info("Locking", zap.String("reason", reason))
		session := l.session(true, func() error {
			delay.release()
			return nil
		})
		if err := l.lock(session); err != nil {
			return err
		}

		drain(lockRequests)
		drain(idleTimeouts)
		drain(sleeping)
		delay.take()
	}
}

// drain discards triggers that fired while the screen was locked.
func drain[T any](ch chan T) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
