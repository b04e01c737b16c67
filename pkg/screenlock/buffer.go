package screenlock

import "unicode/utf8"

// DefaultBufferCapacity is the maximum password length in bytes.
const DefaultBufferCapacity = 256

// SecretBuffer holds a password as it is typed.
// Every operation that shrinks the buffer zeroes the bytes it drops, and the backing memory
// is kept out of swap when the platform allows it.
type SecretBuffer struct {
	data   []byte
	n      int
	locked bool
}

// NewSecretBuffer allocates a buffer holding up to capacity bytes.
// Call Destroy when done.
func NewSecretBuffer(capacity int) *SecretBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}

	b := &SecretBuffer{data: make([]byte, capacity)}
	b.locked = lockMemory(b.data)
	return b
}

func (b *SecretBuffer) Len() int { return b.n }

func (b *SecretBuffer) Cap() int { return len(b.data) }

// Append adds p if it fits entirely, reporting whether it did.
func (b *SecretBuffer) Append(p []byte) bool {
	if len(p) == 0 || b.n+len(p) > len(b.data) {
		return false
	}

	b.n += copy(b.data[b.n:], p)
	return true
}

// DeleteLast removes the last character, reporting whether there was one.
func (b *SecretBuffer) DeleteLast() bool {
	if b.n == 0 {
		return false
	}

	_, size := utf8.DecodeLastRune(b.data[:b.n])
	clear(b.data[b.n-size : b.n])
	b.n -= size
	return true
}

// Clear empties the buffer.
func (b *SecretBuffer) Clear() {
	clear(b.data)
	b.n = 0
}

// Consume passes the contents to fn and empties the buffer afterward, however fn returns.
// The slice must not be retained by fn.
func (b *SecretBuffer) Consume(fn func(secret []byte) (bool, error)) (bool, error) {
	defer b.Clear()
	return fn(b.data[:b.n:b.n])
}

// Destroy empties the buffer and releases its memory lock.
func (b *SecretBuffer) Destroy() {
	b.Clear()
	if b.locked {
		unlockMemory(b.data)
		b.locked = false
	}
}
