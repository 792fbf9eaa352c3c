package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/fanstack/coupon-engine/internal/domain/auth"
)

// RequireAPIKey returns a middleware that authenticates administrative
// requests via HMAC-SHA256 hashed API keys and requires the given scope on
// the key. The key is taken from the Authorization header (Bearer) or the
// api_key header.
func RequireAPIKey(apikeys auth.Repository, pepper []byte, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractAPIKey(r)
			if key == "" {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing API key")
				return
			}

			mac := hmac.New(sha256.New, pepper)
			mac.Write([]byte(key))
			hash := mac.Sum(nil)

			info, err := apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid API key")
				return
			}

			// Constant-time comparison guards against timing side-channels
			// if the repository returns a stale or wrong row.
			stored, err := hex.DecodeString(info.KeyHash)
			if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid API key")
				return
			}

			if !info.Allows(scope) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "API key lacks required scope")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractAPIKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && h[:7] == "Bearer " {
		return h[7:]
	}
	return r.Header.Get("api_key")
}
