package httpserver

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/fairyhunter13/ai-placement-coach/internal/domain"
)

type identityKey struct{}

// SessionAuth resolves the bearer token against the session store and puts
// the caller identity on the request context. Requests without a valid
// session are rejected with 401.
func SessionAuth(store domain.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, r, fmt.Errorf("missing bearer token: %w", domain.ErrUnauthorized), nil)
				return
			}
			ident, err := store.Resolve(r.Context(), token)
			if err != nil {
				writeError(w, r, err, nil)
				return
			}
			ctx := context.WithValue(r.Context(), identityKey{}, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom returns the authenticated identity stored by SessionAuth.
func IdentityFrom(r *http.Request) domain.Identity {
	if v := r.Context().Value(identityKey{}); v != nil {
		if id, ok := v.(domain.Identity); ok {
			return id
		}
	}
	return domain.Identity{}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// AdminBasicAuth protects admin routes with HTTP basic auth verified against
// an Argon2id password hash. When no credentials are configured the guard
// rejects everything.
func AdminBasicAuth(username, passwordHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || username == "" || passwordHash == "" {
				w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
				writeError(w, r, fmt.Errorf("admin credentials required: %w", domain.ErrUnauthorized), nil)
				return
			}
			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passOK := VerifyPassword(pass, passwordHash)
			if !userOK || !passOK {
				w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
				writeError(w, r, fmt.Errorf("invalid admin credentials: %w", domain.ErrUnauthorized), nil)
				return
			}
			ctx := context.WithValue(r.Context(), identityKey{}, domain.Identity{UserID: user, Admin: true})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 2
	argonKeyLen  = 32
)

// HashPassword produces an encoded Argon2id hash in the standard
// $argon2id$v=19$m=...,t=...,p=...$salt$hash form.
func HashPassword(password string, salt []byte) string {
	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

// VerifyPassword checks password against an encoded Argon2id hash.
func VerifyPassword(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}
	var m uint32
	var t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, t, m, p, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}
