package keyring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	dbusDest             = "org.freedesktop.secrets"
	dbusServiceInterface = "org.freedesktop.Secret.Service"
	dbusPath             = "/org/freedesktop/secrets"
	collectionPrefix     = dbusPath + "/collection/"
)

// Locker locks Secret Service collections on the session bus.
type Locker struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

func New() (*Locker, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	return &Locker{
		conn: conn,
		obj:  conn.Object(dbusDest, dbusPath),
	}, nil
}

// Lock locks the named collections. A name is either an alias such as "default", a collection
// name such as "login", or a full object path.
func (l *Locker) Lock(names ...string) error {
	if len(names) == 0 {
		return nil
	}

	objs, err := collectionPaths(names, l.readAlias)
	if err != nil {
		return err
	}

	var locked []dbus.ObjectPath
	var prompt dbus.ObjectPath
	err = l.obj.Call(dbusServiceInterface+".Lock", 0, objs).Store(&locked, &prompt)
	if err != nil {
		return fmt.Errorf("could not lock collections: %w", err)
	}
	if len(locked) != len(objs) {
		return fmt.Errorf("locked %d of %d collections", len(locked), len(objs))
	}

	return nil
}

func (l *Locker) Close() error {
	return l.conn.Close()
}

func (l *Locker) readAlias(name string) (dbus.ObjectPath, error) {
	var path dbus.ObjectPath
	err := l.obj.Call(dbusServiceInterface+".ReadAlias", 0, name).Store(&path)
	return path, err
}

// collectionPaths turns names into collection object paths. Aliases take precedence over
// collection names.
func collectionPaths(
	names []string,
	readAlias func(string) (dbus.ObjectPath, error),
) ([]dbus.ObjectPath, error) {
	objs := make([]dbus.ObjectPath, 0, len(names))
	for _, name := range names {
		if name == "" {
			return nil, errors.New("empty collection name")
		}
		if strings.HasPrefix(name, "/") {
			objs = append(objs, dbus.ObjectPath(name))
			continue
		}

		path, err := readAlias(name)
		if err != nil {
			return nil, fmt.Errorf("could not resolve alias %q: %w", name, err)
		}
		if path == "/" || path == "" {
			path = dbus.ObjectPath(collectionPrefix + name)
		}
		objs = append(objs, path)
	}

	return objs, nil
}
