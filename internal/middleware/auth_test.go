package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Reidond/subsctl/internal/auth"
	"github.com/Reidond/subsctl/internal/database"
	"github.com/Reidond/subsctl/internal/store"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, email, name string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	raw, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func setupAuth(t *testing.T) (http.Handler, *store.UserStore, *auth.Identity) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	users := store.NewUserStore(db)

	var seen auth.Identity
	handler := RequireOwner(testSecret, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok {
			t.Error("identity missing from context")
		}
		seen = id
		w.WriteHeader(http.StatusOK)
	}))
	return handler, users, &seen
}

func TestRequireOwnerAcceptsBearer(t *testing.T) {
	handler, users, seen := setupAuth(t)

	req := httptest.NewRequest("GET", "/api/subscriptions", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "alice@example.com", "Alice"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if seen.Email != "alice@example.com" {
		t.Errorf("email = %q", seen.Email)
	}

	// User row was provisioned lazily.
	u, _ := users.GetByEmail("alice@example.com")
	if u == nil || u.ID != seen.UserID {
		t.Errorf("user not provisioned: %+v", u)
	}
}

func TestRequireOwnerAcceptsQueryToken(t *testing.T) {
	handler, _, _ := setupAuth(t)

	req := httptest.NewRequest("GET", "/ws?access_token="+signToken(t, testSecret, "alice@example.com", "Alice"), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequireOwnerRejectsBadTokens(t *testing.T) {
	handler, _, _ := setupAuth(t)

	cases := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not-a-jwt"},
		{"wrong key", signToken(t, []byte("other-secret"), "alice@example.com", "Alice")},
		{"no email", signToken(t, testSecret, "", "Alice")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/subscriptions", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRequireOwnerRejectsExpiredToken(t *testing.T) {
	handler, _, _ := setupAuth(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: "alice@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	raw, _ := token.SignedString(testSecret)

	req := httptest.NewRequest("GET", "/api/subscriptions", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
