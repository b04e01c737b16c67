// Package config defines the flags of the screenlock command. Every flag can also be set with
// a SCREENLOCK_ prefixed environment variable or in a plain config file given by -config.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MatthiasKunnen/screenlock/pkg/screenlock"
	"github.com/peterbourgon/ff/v3"
)

const EnvVarPrefix = "SCREENLOCK"

// Options holds the configuration shared by the lock and watch commands.
type Options struct {
	Display     string
	ColorInit   string
	ColorInput  string
	ColorFailed string
	FailOnClear bool
	PixelSize   int
	User        string
	Group       string
	LogLevel    string
	// LockKeyrings is a comma separated list of Secret Service collections.
	LockKeyrings string
	SessionID    string
	ConfigFile   string

	// Idle is the inactivity after which watch locks, zero disables it.
	Idle time.Duration
}

// RegisterFlags binds the flags of the lock command to o.
func (o *Options) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&o.Display, "display", "", "X display to lock, $DISPLAY when empty")
	fs.StringVar(&o.ColorInit, "color-init", "black", "color after unlocking or clearing the input")
	fs.StringVar(&o.ColorInput, "color-input", "#005577", "color while typing")
	fs.StringVar(&o.ColorFailed, "color-failed", "#CC3333", "color after a wrong password")
	fs.BoolVar(&o.FailOnClear, "fail-on-clear", false, "show the failed color when the input is cleared")
	fs.IntVar(&o.PixelSize, "pixel-size", 0, "show a pixelated screenshot with blocks of this size, 0 disables it")
	fs.StringVar(&o.User, "user", "nobody", "user to drop privileges to")
	fs.StringVar(&o.Group, "group", "nogroup", "group to drop privileges to")
	fs.StringVar(&o.LogLevel, "log-level", "info", "debug, info, warn or error")
	fs.StringVar(&o.LockKeyrings, "lock-keyrings", "", "comma separated Secret Service collections to lock, e.g. default")
	fs.StringVar(&o.SessionID, "session-id", os.Getenv("XDG_SESSION_ID"), "logind session to mark as locked")
	fs.StringVar(&o.ConfigFile, "config", "", "config file with one flag per line")
}

// RegisterWatchFlags binds the flags of the watch command to o.
func (o *Options) RegisterWatchFlags(fs *flag.FlagSet) {
	o.RegisterFlags(fs)
	fs.DurationVar(&o.Idle, "idle", 0, "lock after this much time without input, 0 disables it")
}

// ParseOptions are the ff options for every command.
func ParseOptions() []ff.Option {
	return []ff.Option{
		ff.WithEnvVarPrefix(EnvVarPrefix),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	}
}

// Colors returns the color names indexed by state.
func (o *Options) Colors() [screenlock.NumStates]string {
	var colors [screenlock.NumStates]string
	colors[screenlock.Init] = o.ColorInit
	colors[screenlock.Input] = o.ColorInput
	colors[screenlock.Failed] = o.ColorFailed
	return colors
}

// Keyrings returns the collections named by LockKeyrings.
func (o *Options) Keyrings() []string {
	var names []string
	for _, name := range strings.Split(o.LockKeyrings, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (o *Options) Validate() error {
	var err error
	for state, color := range o.Colors() {
		if color == "" {
			err = errors.Join(err, fmt.Errorf("color for state %s is empty", screenlock.State(state)))
		}
	}
	if o.PixelSize < 0 {
		err = errors.Join(err, fmt.Errorf("pixel size must not be negative, got %d", o.PixelSize))
	}
	if o.User == "" {
		err = errors.Join(err, errors.New("user is empty"))
	}
	if o.Group == "" {
		err = errors.Join(err, errors.New("group is empty"))
	}
	if o.Idle < 0 {
		err = errors.Join(err, fmt.Errorf("idle must not be negative, got %s", o.Idle))
	}

	return err
}
