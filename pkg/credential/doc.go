// Package credential resolves the invoking user's password hash from the system account
// databases and verifies candidate passwords against it.
//
// Supported hash formats are MD5-crypt ($1$), SHA-256-crypt ($5$), SHA-512-crypt ($6$),
// bcrypt ($2a$, $2b$, $2y$) and yescrypt ($y$).
//
// Accounts are read from the passwd file first. Accounts only known to another name service
// (LDAP, sssd, systemd-homed) are found through os/user, but their hash must still be in the
// shadow file; hashes kept by the name service itself cannot be resolved.
package credential
