package idle

import (
	"errors"
	"time"
)

// Controller watches the session for inactivity.
type Controller interface {
	// AddNotification starts watching for the inactivity described by notificationInput.
	AddNotification(notificationInput *CreateIdleNotification) (Notification, error)
	// Close stops every notification. The connection the Controller watches through is not
	// closed. Do not use the Controller after this.
	Close() error
}

type Notification interface {
	// Close stops this notification. Safe to be called more than once and from another
	// goroutine.
	Close() error
}

type CreateIdleNotification struct {
	// Duration is how long there must be no input before Idle is notified.
	Duration time.Duration

	// Idle is notified once when the session became idle.
	Idle chan<- struct{}

	// Resume is notified once on the first input after Idle.
	Resume chan<- struct{}
}

func (n *CreateIdleNotification) validate() error {
	switch {
	case n.Idle == nil && n.Resume == nil:
		return errors.New("either Idle or Resume is required")
	case n.Duration <= 0:
		return errors.New("duration must be positive")
	}
	return nil
}
