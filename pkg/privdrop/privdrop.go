package privdrop

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"strconv"

	"golang.org/x/sys/unix"
)

var ErrConfiguration = errors.New("invalid privilege configuration")

// oomScoreAdjMin exempts a process from the OOM killer.
const oomScoreAdjMin = -1000

var oomScoreAdjPath = "/proc/self/oom_score_adj"

// Identity is the user and group to continue as.
type Identity struct {
	User  string
	Group string
	UID   int
	GID   int
}

// Lookup resolves the user and group names.
func Lookup(userName string, groupName string) (Identity, error) {
	u, err := user.Lookup(userName)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: user %s: %w", ErrConfiguration, userName, err)
	}
	g, err := user.LookupGroup(groupName)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: group %s: %w", ErrConfiguration, groupName, err)
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: user %s has non-numeric uid %q", ErrConfiguration, userName, u.Uid)
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: group %s has non-numeric gid %q", ErrConfiguration, groupName, g.Gid)
	}

	return Identity{User: userName, Group: groupName, UID: uid, GID: gid}, nil
}

// Drop clears the supplementary groups, then switches group and user, in that order so the
// process still has the privilege for each step. It applies to every thread of the process.
func Drop(id Identity) error {
	if err := unix.Setgroups(nil); err != nil {
		return fmt.Errorf("setgroups: %w", err)
	}
	if err := unix.Setgid(id.GID); err != nil {
		return fmt.Errorf("setgid %d: %w", id.GID, err)
	}
	if err := unix.Setuid(id.UID); err != nil {
		return fmt.Errorf("setuid %d: %w", id.UID, err)
	}

	return nil
}

// Privileged reports whether the process runs with root as effective user, which Drop requires.
func Privileged() bool {
	return os.Geteuid() == 0
}

// ProtectFromOOM asks the kernel to never pick this process when out of memory.
// A kernel without the OOM score interface is not an error.
func ProtectFromOOM() error {
	err := writeOOMScoreAdj(oomScoreAdjMin)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("unable to disable the OOM killer, run as root or set the setuid bit: %w", err)
	default:
		return fmt.Errorf("writing %s: %w", oomScoreAdjPath, err)
	}
}

func writeOOMScoreAdj(score int) error {
	f, err := os.OpenFile(oomScoreAdjPath, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(strconv.Itoa(score)); err != nil {
		f.Close()
		return err
	}
	// Permission problems of the proc file surface on close.
	return f.Close()
}
