package credential

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func sha512Hash(t *testing.T, password string) string {
	t.Helper()
	hash, err := sha512_crypt.New().Generate([]byte(password), []byte("$6$Zn5bB0kQhF1lLqRv"))
	require.NoError(t, err)
	return hash
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestResolve_Shadow(t *testing.T) {
	dir := t.TempDir()
	hash := sha512Hash(t, "abc")
	p := &SystemProvider{
		PasswdPath: writeFile(t, dir, "passwd", "# comment\n"+
			"root:x:0:0:root:/root:/bin/sh\n"+
			"alice:x:1000:1000::/home/alice:/bin/sh\n"),
		ShadowPath: writeFile(t, dir, "shadow", "root:*:19000:0:99999:7:::\n"+
			"alice:"+hash+":19000:0:99999:7:::\n"),
		UID: 1000,
	}

	cred, err := p.Resolve()
	require.NoError(t, err)

	ok, err := p.Verify([]byte("abc"), cred)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Verify([]byte("xyz"), cred)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_HashInPasswd(t *testing.T) {
	dir := t.TempDir()
	hash, err := bcrypt.GenerateFromPassword([]byte("abc"), bcrypt.MinCost)
	require.NoError(t, err)

	p := &SystemProvider{
		PasswdPath: writeFile(t, dir, "passwd", "bob:"+string(hash)+":1001:1001::/home/bob:/bin/sh\n"),
		ShadowPath: filepath.Join(dir, "missing"),
		UID:        1001,
	}

	cred, err := p.Resolve()
	require.NoError(t, err)

	ok, err := p.Verify([]byte("abc"), cred)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResolve_AccountFromNameService(t *testing.T) {
	dir := t.TempDir()
	hash := sha512Hash(t, "abc")
	p := &SystemProvider{
		PasswdPath: writeFile(t, dir, "passwd", "root:x:0:0:root:/root:/bin/sh\n"),
		ShadowPath: writeFile(t, dir, "shadow", "carol:"+hash+":19000:0:99999:7:::\n"),
		UID:        5000,
		lookupID: func(uid string) (*user.User, error) {
			require.Equal(t, "5000", uid)
			return &user.User{Uid: uid, Username: "carol"}, nil
		},
	}

	cred, err := p.Resolve()
	require.NoError(t, err)

	ok, err := p.Verify([]byte("abc"), cred)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResolve_Errors(t *testing.T) {
	dir := t.TempDir()
	passwd := writeFile(t, dir, "passwd", "alice:x:1000:1000::/home/alice:/bin/sh\n"+
		"locked:x:1002:1002::/home/locked:/bin/sh\n")
	shadow := writeFile(t, dir, "shadow", "locked:!:19000::::::\n")

	tests := []struct {
		name    string
		p       *SystemProvider
		wantErr error
	}{
		{
			name: "unknown uid",
			p: &SystemProvider{PasswdPath: passwd, ShadowPath: shadow, UID: 4242,
				lookupID: func(uid string) (*user.User, error) { return nil, user.UnknownUserIdError(4242) }},
			wantErr: ErrConfiguration,
		},
		{
			name:    "missing passwd file",
			p:       &SystemProvider{PasswdPath: filepath.Join(dir, "nope"), ShadowPath: shadow, UID: 1000},
			wantErr: ErrConfiguration,
		},
		{
			name:    "no shadow entry",
			p:       &SystemProvider{PasswdPath: passwd, ShadowPath: shadow, UID: 1000},
			wantErr: ErrNoShadowEntry,
		},
		{
			name:    "unreadable shadow",
			p:       &SystemProvider{PasswdPath: passwd, ShadowPath: filepath.Join(dir, "nope"), UID: 1000},
			wantErr: ErrNoShadowEntry,
		},
		{
			name:    "locked account fails the self-test",
			p:       &SystemProvider{PasswdPath: passwd, ShadowPath: shadow, UID: 1002},
			wantErr: ErrHash,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.p.Resolve()
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerify_Schemes(t *testing.T) {
	bcryptHash, err := bcrypt.GenerateFromPassword([]byte("abc"), bcrypt.MinCost)
	require.NoError(t, err)
	sha256Hash, err := sha256_crypt.New().Generate([]byte("abc"), []byte("$5$Zn5bB0kQhF1lLqRv"))
	require.NoError(t, err)

	tests := []struct {
		name string
		hash string
	}{
		{"yescrypt", "$y$j9T$F5Jx5fExrKuPp53xLKQ..1$aC5fZPrKSlHTuOtuJjdRm7BCdVfOnO9UIkyfXQcyB83"},
		{"md5 crypt", "$1$abcdefgh$Kn5qrjcQzV7oAHBJ23Cu3/"},
		{"sha256 crypt", sha256Hash},
		{"sha512 crypt", sha512Hash(t, "abc")},
		{"bcrypt", string(bcryptHash)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred := New(tt.hash)

			ok, err := Verify(nil, cred)
			require.NoError(t, err, "empty candidate")
			assert.False(t, ok)

			ok, err = Verify([]byte("abc"), cred)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = Verify([]byte("abd"), cred)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestVerify_UnsupportedHash(t *testing.T) {
	for _, hash := range []string{"", "*", "!", "$9$abc$def"} {
		ok, err := Verify([]byte("abc"), New(hash))
		assert.ErrorIs(t, err, ErrHash, hash)
		assert.False(t, ok)
	}
}

func TestCredential_NeverPrinted(t *testing.T) {
	cred := New("$6$salt$secret")

	for _, s := range []string{
		cred.String(),
		fmt.Sprint(cred),
		fmt.Sprintf("%v %+v %#v %s %q", cred, cred, cred, cred, cred),
	} {
		assert.NotContains(t, s, "secret")
	}
	assert.False(t, cred.IsZero())
	assert.True(t, Credential{}.IsZero())
}
