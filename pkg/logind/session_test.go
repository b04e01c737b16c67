package logind

import (
	"errors"
	"os"
	"syscall"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type objectCall struct {
	method string
	args   []any
}

// fakeObject answers method calls with body and err.
type fakeObject struct {
	dbus.BusObject
	calls      []objectCall
	body       []any
	err        error
	properties map[string]dbus.Variant
}

func (o *fakeObject) Call(method string, _ dbus.Flags, args ...any) *dbus.Call {
	o.calls = append(o.calls, objectCall{method: method, args: args})
	return &dbus.Call{Method: method, Args: args, Body: o.body, Err: o.err}
}

func (o *fakeObject) GetProperty(p string) (dbus.Variant, error) {
	v, ok := o.properties[p]
	if !ok {
		return dbus.Variant{}, errors.New("no such property")
	}
	return v, nil
}

func TestSetLockedHint(t *testing.T) {
	session := &fakeObject{}
	c := testClient()
	c.session = session

	require.NoError(t, c.SetLockedHint(true))
	require.NoError(t, c.SetLockedHint(false))

	assert.Equal(t, []objectCall{
		{method: dbusSessionInterface + ".SetLockedHint", args: []any{true}},
		{method: dbusSessionInterface + ".SetLockedHint", args: []any{false}},
	}, session.calls)

	session.err = errors.New("access denied")
	assert.ErrorContains(t, c.SetLockedHint(true), "access denied")
}

func TestLockedHint(t *testing.T) {
	session := &fakeObject{properties: map[string]dbus.Variant{
		dbusSessionInterface + ".LockedHint": dbus.MakeVariant(true),
	}}
	c := testClient()
	c.session = session

	locked, err := c.LockedHint()
	require.NoError(t, err)
	assert.True(t, locked)

	session.properties[dbusSessionInterface+".LockedHint"] = dbus.MakeVariant("yes")
	_, err = c.LockedHint()
	assert.Error(t, err)

	delete(session.properties, dbusSessionInterface+".LockedHint")
	_, err = c.LockedHint()
	assert.Error(t, err)
}

func TestInhibit(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()
	fd, err := syscall.Dup(int(w.Fd()))
	require.NoError(t, err)

	manager := &fakeObject{body: []any{dbus.UnixFD(fd)}}
	c := testClient()
	c.manager = manager

	lock, err := c.Inhibit("screenlock", "testing", ModeBlock, WhatHandleLidSwitch, WhatIdle)
	require.NoError(t, err)
	require.NoError(t, lock.Close())

	assert.Equal(t, []objectCall{{
		method: dbusManagerInterface + ".Inhibit",
		args:   []any{"handle-lid-switch:idle", "screenlock", "testing", "block"},
	}}, manager.calls)
}

func TestInhibitSleep(t *testing.T) {
	manager := &fakeObject{err: errors.New("inhibitors disabled")}
	c := testClient()
	c.manager = manager

	_, err := c.InhibitSleep("screenlock", "Lock the screen before sleeping")
	assert.ErrorContains(t, err, "inhibitors disabled")

	require.Len(t, manager.calls, 1)
	assert.Equal(t, []any{"sleep", "screenlock", "Lock the screen before sleeping", "delay"},
		manager.calls[0].args)
}

func TestInhibit_RequiresWhat(t *testing.T) {
	c := testClient()
	c.manager = &fakeObject{}

	_, err := c.Inhibit("screenlock", "testing", ModeDelay)
	assert.Error(t, err)
}
