package credential

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when the account record of the user cannot be found.
	ErrConfiguration = errors.New("account configuration error")

	// ErrNoShadowEntry is returned when the account refers to the shadow database but no
	// shadow entry can be read.
	ErrNoShadowEntry = errors.New("cannot retrieve shadow entry")

	// ErrHash is returned when the hashing primitive fails, e.g. for an unsupported or
	// locked hash.
	ErrHash = errors.New("hash error")
)

const redacted = "[redacted]"

// Credential is the reference secret all candidates are verified against.
// Its textual representations never reveal the secret.
type Credential struct {
	hash string
}

// New wraps an existing crypt(3) style hash.
func New(hash string) Credential {
	return Credential{hash: hash}
}

func (c Credential) String() string { return redacted }

func (c Credential) GoString() string { return redacted }

func (c Credential) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(redacted))
}

// IsZero reports whether c holds no hash.
func (c Credential) IsZero() bool {
	return c.hash == ""
}

// Provider resolves the reference credential and verifies candidates against it.
type Provider interface {
	// Resolve looks up the reference credential of the invoking user.
	Resolve() (Credential, error)

	// Verify reports whether candidate matches reference.
	// An error wrapping ErrHash means the primitive failed and nothing was compared.
	Verify(candidate []byte, reference Credential) (bool, error)
}
