// Package main is the screenlock command. It locks every screen of an X display until the
// password of the user is typed, and can run as a daemon that locks on logind requests,
// before sleep, and after a period of inactivity.
package main

import (
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/MatthiasKunnen/screenlock/internal/config"
	"github.com/MatthiasKunnen/screenlock/internal/logger"
	"github.com/peterbourgon/ff/v3/ffcli"
	"go.uber.org/zap"
)

// version holds the build version set via ldflags.
var version string

func main() {
	err := buildCLI(os.Stdout).ParseAndRun(context.Background(), os.Args[1:])
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
	default:
		fmt.Fprintf(os.Stderr, "screenlock: %v\n", err)
		os.Exit(1)
	}
}

func buildCLI(stdout io.Writer) *ffcli.Command {
	var lockOptions config.Options
	lockFlagSet := flag.NewFlagSet("screenlock", flag.ContinueOnError)
	lockOptions.RegisterFlags(lockFlagSet)

	var watchOptions config.Options
	watchFlagSet := flag.NewFlagSet("screenlock watch", flag.ContinueOnError)
	watchOptions.RegisterWatchFlags(watchFlagSet)

	versionCmd := &ffcli.Command{
		Name:       "version",
		ShortUsage: "screenlock version",
		ShortHelp:  "Print the version",
		Exec: func(_ context.Context, _ []string) error {
			_, err := fmt.Fprintf(stdout, "screenlock %s\n", cmp.Or(version, "dev"))
			return err
		},
	}

	watchCmd := &ffcli.Command{
		Name:       "watch",
		ShortUsage: "screenlock watch [flags]",
		ShortHelp:  "Lock on logind lock requests, before sleep, and when idle",
		FlagSet:    watchFlagSet,
		Options:    config.ParseOptions(),
		Exec: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("watch takes no arguments, got %q", args)
			}
			log, err := initLogger(&watchOptions)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			return execWatch(ctx, &watchOptions, log)
		},
	}

	return &ffcli.Command{
		ShortUsage: "screenlock [flags] [cmd [arg ...]]",
		ShortHelp:  "Lock the screen",
		LongHelp: "Locks every screen until the password of the user is entered.\n" +
			"When cmd is given it is started once all screens are locked, e.g. \"systemctl suspend\".",
		FlagSet:     lockFlagSet,
		Options:     config.ParseOptions(),
		Subcommands: []*ffcli.Command{watchCmd, versionCmd},
		Exec: func(_ context.Context, args []string) error {
			log, err := initLogger(&lockOptions)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			return execLock(&lockOptions, args, log)
		},
	}
}

func initLogger(o *config.Options) (*zap.Logger, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	l := logger.New()
	if err := l.Init(o.LogLevel); err != nil {
		return nil, err
	}

	return l.Log, nil
}

// execLock locks once and returns after the unlock.
func execLock(o *config.Options, args []string, log *zap.Logger) error {
	l, err := newLocker(o, log)
	if err != nil {
		return err
	}
	defer l.Close()

	var command *exec.Cmd
	if len(args) > 0 {
		command = exec.Command(args[0], args[1:]...)
		command.Stdin, command.Stdout, command.Stderr = os.Stdin, os.Stdout, os.Stderr
	}

	session := l.session(false, func() error {
		if command == nil {
			return nil
		}
		return startCommand(command, log)
	})

	return l.lock(session)
}

// startCommand runs the command in the background and logs how it ended.
func startCommand(command *exec.Cmd, log *zap.Logger) error {
	if err := command.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", command.Path, err)
	}

	go func() {
		err := command.Wait()
		if err != nil {
			log.Warn("Post lock command failed", zap.String("command", command.Path), zap.Error(err))
			return
		}
		log.Debug("Post lock command finished", zap.String("command", command.Path))
	}()

	return nil
}
