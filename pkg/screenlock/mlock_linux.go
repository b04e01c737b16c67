package screenlock

import "golang.org/x/sys/unix"

func lockMemory(b []byte) bool {
	return unix.Mlock(b) == nil
}

func unlockMemory(b []byte) {
	_ = unix.Munlock(b)
}
