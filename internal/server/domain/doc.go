// Package domain holds the validated value types of the authentication core:
// email addresses, raw and hashed passwords, login attempt ids, 2FA codes and
// the user record. Every constructor validates its input, so a value of one of
// these types is always well formed.
package domain
