package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Reidond/subsctl/internal/auth"
	"github.com/Reidond/subsctl/internal/store"
)

type claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// RequireOwner authenticates requests with an HS256 bearer token and puts
// the caller's identity on the context. The user row is created lazily on
// first sight. WebSocket clients cannot set headers, so an access_token
// query parameter is accepted as a fallback.
func RequireOwner(secret []byte, users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				raw = r.URL.Query().Get("access_token")
			}
			if raw == "" {
				http.Error(w, "missing credentials", http.StatusUnauthorized)
				return
			}

			var c claims
			token, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			})
			if err != nil || !token.Valid || c.Email == "" {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			user, err := users.Ensure(c.Email, c.Name)
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			ctx := auth.WithIdentity(r.Context(), auth.Identity{
				UserID: user.ID,
				Email:  user.Email,
				Name:   user.Name,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
