package idle

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/screensaver"
	"github.com/jezek/xgb/xproto"
)

// DefaultPollInterval is how often an idle session is checked for input.
const DefaultPollInterval = time.Second

type x11IdleController struct {
	// idleTime returns the time since the last user input.
	idleTime     func() (time.Duration, error)
	pollInterval time.Duration

	closeOnce sync.Once
	close     chan struct{}
	wg        sync.WaitGroup
}

type x11IdleNotification struct {
	closeOnce sync.Once
	close     chan struct{}
}

func (n *x11IdleNotification) Close() error {
	n.closeOnce.Do(func() { close(n.close) })
	return nil
}

// NewX11IdleController watches user input on the screen of root using the MIT-SCREEN-SAVER
// extension. The connection stays owned by the caller.
func NewX11IdleController(conn *xgb.Conn, root xproto.Window) (Controller, error) {
	if err := screensaver.Init(conn); err != nil {
		return nil, fmt.Errorf("MIT-SCREEN-SAVER extension unavailable: %w", err)
	}

	return newX11IdleController(func() (time.Duration, error) {
		info, err := screensaver.QueryInfo(conn, xproto.Drawable(root)).Reply()
		if err != nil {
			return 0, fmt.Errorf("QueryInfo: %w", err)
		}
		return time.Duration(info.MsSinceUserInput) * time.Millisecond, nil
	}, DefaultPollInterval), nil
}

func newX11IdleController(idleTime func() (time.Duration, error), pollInterval time.Duration) *x11IdleController {
	return &x11IdleController{
		idleTime:     idleTime,
		pollInterval: pollInterval,
		close:        make(chan struct{}),
	}
}

func (m *x11IdleController) Close() error {
	m.closeOnce.Do(func() { close(m.close) })
	m.wg.Wait()
	return nil
}

// AddNotification registers notification handlers on idle and resume.
// Idle is notified once the session has been idle for the given duration.
// Resume is notified when there is input after Idle was notified.
func (m *x11IdleController) AddNotification(notificationInput *CreateIdleNotification) (Notification, error) {
	if err := notificationInput.validate(); err != nil {
		return nil, err
	}

	select {
	case <-m.close:
		return nil, errors.New("controller is closed")
	default:
	}

	n := &x11IdleNotification{close: make(chan struct{})}
	input := *notificationInput

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.watch(&input, n.close)
	}()

	return n, nil
}

// watch polls the idle time. While active it sleeps until the duration could first be reached,
// while idle it polls every pollInterval to notice input quickly.
func (m *x11IdleController) watch(input *CreateIdleNotification, stop <-chan struct{}) {
	idle := false
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-m.close:
			return
		case <-stop:
			return
		case <-timer.C:
		}

		wait := m.pollInterval
		since, err := m.idleTime()
		switch {
		case err != nil:
			// The next poll tries again.
		case !idle && since >= input.Duration:
			idle = true
			if !m.send(input.Idle, stop) {
				return
			}
		case idle && since < input.Duration:
			idle = false
			if !m.send(input.Resume, stop) {
				return
			}
			wait = max(wait, input.Duration-since)
		case !idle:
			wait = max(wait, input.Duration-since)
		}

		timer.Reset(wait)
	}
}

// send reports whether watching should continue.
func (m *x11IdleController) send(ch chan<- struct{}, stop <-chan struct{}) bool {
	if ch == nil {
		return true
	}

	select {
	case ch <- struct{}{}:
		return true
	case <-m.close:
		return false
	case <-stop:
		return false
	}
}
