// Package apikey provides bcrypt-hashed API key storage for the admin
// API's optional authentication middleware, adapted from the teacher's
// persistent key store down to an in-memory sibling — the admin API has
// no database of its own.
package apikey

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// APIKey is one credential the admin API will accept on /v1/* routes.
type APIKey struct {
	ID        string
	Hash      string
	Active    bool
	CreatedAt time.Time
}

// Store looks up a presented key and reports whether it is valid. It
// mirrors the teacher's storage.APIKeyStore shape closely enough that a
// nil Store disables authentication the same way a nil
// storage.APIKeyStore does.
type Store interface {
	FindByKey(ctx context.Context, key string) (*APIKey, bool)
}

// HashKey bcrypt-hashes a plaintext API key for storage.
func HashKey(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// verify reports whether plaintext matches hash.
func verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
