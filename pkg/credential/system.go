package credential

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/user"
	"strconv"
	"strings"
)

const (
	DefaultPasswdPath = "/etc/passwd"
	DefaultShadowPath = "/etc/shadow"

	// shadowPlaceholder is stored in the passwd password field when the hash lives in the
	// shadow database.
	shadowPlaceholder = "x"
)

// SystemProvider reads the password hash of a user from passwd(5) and shadow(5) files.
type SystemProvider struct {
	PasswdPath string
	ShadowPath string

	// UID is the user whose hash is resolved.
	UID int

	// lookupID finds accounts missing from PasswdPath, user.LookupId when nil.
	lookupID func(uid string) (*user.User, error)
}

// NewSystemProvider returns a Provider for the real user ID of the current process using the
// default database locations.
func NewSystemProvider() *SystemProvider {
	return &SystemProvider{
		PasswdPath: DefaultPasswdPath,
		ShadowPath: DefaultShadowPath,
		UID:        os.Getuid(),
	}
}

// Resolve returns the reference credential of the user.
// The hash is checked once against an empty candidate to make sure it can be verified at
// all; a failure there wraps ErrHash.
func (p *SystemProvider) Resolve() (Credential, error) {
	name, hash, err := p.lookupPasswd()
	if err != nil {
		return Credential{}, err
	}

	if hash == shadowPlaceholder {
		hash, err = p.lookupShadow(name)
		if err != nil {
			return Credential{}, err
		}
	}

	cred := New(hash)
	if _, err := p.Verify(nil, cred); err != nil {
		return Credential{}, fmt.Errorf("self-test of password hash failed: %w", err)
	}

	return cred, nil
}

func (p *SystemProvider) Verify(candidate []byte, reference Credential) (bool, error) {
	return Verify(candidate, reference)
}

func (p *SystemProvider) lookupPasswd() (name string, hash string, err error) {
	f, err := os.Open(p.PasswdPath)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	defer f.Close()

	uid := strconv.Itoa(p.UID)
	fields, err := findRecord(f, 2, func(fields []string) bool {
		return len(fields) >= 3 && fields[2] == uid
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: reading %s: %w", ErrConfiguration, p.PasswdPath, err)
	}
	if fields == nil {
		return p.lookupAccount(uid)
	}

	return fields[0], fields[1], nil
}

// lookupAccount resolves accounts provided by other name services, e.g. LDAP or sssd.
// Their hash is only found when the shadow file holds it.
func (p *SystemProvider) lookupAccount(uid string) (name string, hash string, err error) {
	lookupID := p.lookupID
	if lookupID == nil {
		lookupID = user.LookupId
	}

	u, err := lookupID(uid)
	if err != nil {
		return "", "", fmt.Errorf("%w: no passwd entry for uid %d: %w", ErrConfiguration, p.UID, err)
	}

	return u.Username, shadowPlaceholder, nil
}

func (p *SystemProvider) lookupShadow(name string) (string, error) {
	f, err := os.Open(p.ShadowPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoShadowEntry, err)
	}
	defer f.Close()

	fields, err := findRecord(f, 2, func(fields []string) bool {
		return fields[0] == name
	})
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %w", ErrNoShadowEntry, p.ShadowPath, err)
	}
	if fields == nil {
		return "", fmt.Errorf("%w: no shadow entry for %q", ErrNoShadowEntry, name)
	}

	return fields[1], nil
}

// findRecord returns the fields of the first colon separated record with at least minFields
// fields for which match returns true. Comments and blank lines are skipped.
func findRecord(r io.Reader, minFields int, match func([]string) bool) ([]string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ":")
		if len(fields) < minFields {
			continue
		}

		if match(fields) {
			return fields, nil
		}
	}

	return nil, scanner.Err()
}
