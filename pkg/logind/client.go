package logind

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	dbusDest             = "org.freedesktop.login1"
	dbusPath             = "/org/freedesktop/login1"
	dbusManagerInterface = "org.freedesktop.login1.Manager"
	dbusSessionInterface = "org.freedesktop.login1.Session"
)

// Client is a connection to logind for a single session.
// It is safe to call Client's methods concurrently.
type Client struct {
	conn        *dbus.Conn
	manager     dbus.BusObject
	session     dbus.BusObject
	sessionPath dbus.ObjectPath

	muSignals  sync.Mutex
	done       chan struct{}
	lockSubs   map[chan<- struct{}]struct{}
	unlockSubs map[chan<- struct{}]struct{}
	sleepSubs  map[chan<- bool]struct{}
	matches    map[string][]dbus.MatchOption
}

// Connect connects to the system bus and looks up the session.
//
// sessionID is the ID of the session, usually the XDG_SESSION_ID env var. When empty, the
// session of the current process is used.
func Connect(sessionID string) (*Client, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	c := newClient()
	c.conn = conn
	c.manager = conn.Object(dbusDest, dbusPath)

	if sessionID == "" {
		err = c.manager.Call(dbusManagerInterface+".GetSessionByPID", 0, uint32(os.Getpid())).
			Store(&c.sessionPath)
	} else {
		err = c.manager.Call(dbusManagerInterface+".GetSession", 0, sessionID).
			Store(&c.sessionPath)
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to find session object: %w", err)
	}
	c.session = conn.Object(dbusDest, c.sessionPath)

	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)
	go func() {
		defer conn.RemoveSignal(signals)
		for {
			select {
			case <-c.done:
				return
			case s := <-signals:
				c.handleSignal(s)
			}
		}
	}()

	return c, nil
}

func newClient() *Client {
	return &Client{
		done:       make(chan struct{}),
		lockSubs:   make(map[chan<- struct{}]struct{}),
		unlockSubs: make(map[chan<- struct{}]struct{}),
		sleepSubs:  make(map[chan<- bool]struct{}),
		matches:    make(map[string][]dbus.MatchOption),
	}
}

// SetLockedHint tells logind whether the session is locked.
func (c *Client) SetLockedHint(locked bool) error {
	err := c.session.Call(dbusSessionInterface+".SetLockedHint", 0, locked).Err
	if err != nil {
		return fmt.Errorf("could not set locked hint: %w", err)
	}

	return nil
}

// LockedHint returns whether logind considers the session locked.
func (c *Client) LockedHint() (bool, error) {
	variant, err := c.session.GetProperty(dbusSessionInterface + ".LockedHint")
	if err != nil {
		return false, fmt.Errorf("could not get locked hint: %w", err)
	}

	lockedHint, ok := variant.Value().(bool)
	if !ok {
		return false, errors.New("LockedHint property result is not a boolean")
	}

	return lockedHint, nil
}

// SubscribeLock registers a channel that is notified when the session should be locked, e.g.
// by `loginctl lock-session`.
// Writing to the channel does not block; use a buffered channel to not miss requests.
func (c *Client) SubscribeLock(ch chan<- struct{}) error {
	if ch == nil {
		return errors.New("SubscribeLock: channel cannot be nil")
	}

	c.muSignals.Lock()
	defer c.muSignals.Unlock()

	if err := c.addMatch(c.sessionPath, dbusSessionInterface, "Lock"); err != nil {
		return err
	}
	c.lockSubs[ch] = struct{}{}

	return nil
}

// SubscribeUnlock registers a channel that is notified when logind asks the session to unlock.
// A screen locker should ignore this unless it trusts the sender; it is offered for status
// reporting.
func (c *Client) SubscribeUnlock(ch chan<- struct{}) error {
	if ch == nil {
		return errors.New("SubscribeUnlock: channel cannot be nil")
	}

	c.muSignals.Lock()
	defer c.muSignals.Unlock()

	if err := c.addMatch(c.sessionPath, dbusSessionInterface, "Unlock"); err != nil {
		return err
	}
	c.unlockSubs[ch] = struct{}{}

	return nil
}

// SubscribePrepareForSleep registers a channel that is notified when the system is about to
// sleep (true) or resumed (false).
func (c *Client) SubscribePrepareForSleep(ch chan<- bool) error {
	if ch == nil {
		return errors.New("SubscribePrepareForSleep: channel cannot be nil")
	}

	c.muSignals.Lock()
	defer c.muSignals.Unlock()

	if err := c.addMatch(dbusPath, dbusManagerInterface, "PrepareForSleep"); err != nil {
		return err
	}
	c.sleepSubs[ch] = struct{}{}

	return nil
}

// addMatch registers a signal match once.
// Holding the muSignals mutex is required.
func (c *Client) addMatch(path dbus.ObjectPath, iface string, member string) error {
	key := iface + "." + member
	if _, ok := c.matches[key]; ok {
		return nil
	}

	options := []dbus.MatchOption{
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchInterface(iface),
		dbus.WithMatchSender(dbusDest),
		dbus.WithMatchMember(member),
	}
	if err := c.conn.AddMatchSignal(options...); err != nil {
		return fmt.Errorf("failed to register D-Bus %s signal: %w", member, err)
	}
	c.matches[key] = options

	return nil
}

// Close stops signal processing and closes the bus connection. Do not use the Client
// afterward.
func (c *Client) Close() error {
	c.muSignals.Lock()
	defer c.muSignals.Unlock()

	var err error
	for key, options := range c.matches {
		if rmErr := c.conn.RemoveMatchSignal(options...); rmErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to remove D-Bus signal %s: %w", key, rmErr))
		}
	}
	clear(c.matches)
	clear(c.lockSubs)
	clear(c.unlockSubs)
	clear(c.sleepSubs)

	close(c.done)
	return errors.Join(err, c.conn.Close())
}

func (c *Client) handleSignal(s *dbus.Signal) {
	if s == nil {
		// Seems to happen on close
		return
	}

	c.muSignals.Lock()
	defer c.muSignals.Unlock()

	switch {
	case s.Path == c.sessionPath && s.Name == dbusSessionInterface+".Lock":
		notify(c.lockSubs, struct{}{})
	case s.Path == c.sessionPath && s.Name == dbusSessionInterface+".Unlock":
		notify(c.unlockSubs, struct{}{})
	case s.Path == dbusPath && s.Name == dbusManagerInterface+".PrepareForSleep":
		if len(s.Body) == 0 {
			return
		}
		sleeping, ok := s.Body[0].(bool)
		if !ok {
			return
		}
		notify(c.sleepSubs, sleeping)
	}
}

func notify[T any](subs map[chan<- T]struct{}, v T) {
	for ch := range subs {
		select {
		case ch <- v:
		default:
		}
	}
}
