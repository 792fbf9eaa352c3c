// Package auth holds the API key model used to guard administrative routes.
package auth

import "context"

// APIKeyInfo is a provisioned API key. Keys are stored hashed; the plaintext
// exists only on the caller's side.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// Allows reports whether the key carries the given scope. The wildcard
// scope "*" grants everything.
func (k *APIKeyInfo) Allows(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope || s == "*" {
			return true
		}
	}
	return false
}

// Repository looks up active API keys by their HMAC-SHA256 hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
