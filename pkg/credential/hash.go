package credential

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/GehirnInc/crypt"
	_ "github.com/GehirnInc/crypt/md5_crypt"
	_ "github.com/GehirnInc/crypt/sha256_crypt"
	_ "github.com/GehirnInc/crypt/sha512_crypt"
	"github.com/openwall/yescrypt-go"
	"golang.org/x/crypto/bcrypt"
)

// Verify hashes candidate using the scheme of reference and compares the results.
func Verify(candidate []byte, reference Credential) (bool, error) {
	hash := reference.hash

	switch {
	case hash == "":
		return false, fmt.Errorf("%w: empty hash", ErrHash)
	case strings.HasPrefix(hash, "$2a$"),
		strings.HasPrefix(hash, "$2b$"),
		strings.HasPrefix(hash, "$2y$"):
		err := bcrypt.CompareHashAndPassword([]byte(hash), candidate)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, fmt.Errorf("%w: bcrypt: %w", ErrHash, err)
		}
	case strings.HasPrefix(hash, "$y$"):
		computed, err := yescrypt.Hash(candidate, []byte(hash))
		if err != nil {
			return false, fmt.Errorf("%w: yescrypt: %w", ErrHash, err)
		}
		return subtle.ConstantTimeCompare(computed, []byte(hash)) == 1, nil
	case crypt.IsHashSupported(hash):
		err := crypt.NewFromHash(hash).Verify(hash, candidate)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, crypt.ErrKeyMismatch):
			return false, nil
		default:
			return false, fmt.Errorf("%w: crypt: %w", ErrHash, err)
		}
	}

	return false, fmt.Errorf("%w: unsupported or locked hash", ErrHash)
}
