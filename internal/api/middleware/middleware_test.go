package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TheGojiOG/mcadmin/internal/auth"
	"github.com/TheGojiOG/mcadmin/internal/permissions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestIsOriginAllowed(t *testing.T) {
	allowed := []string{"*", "https://example.com"}

	if !isOriginAllowed("https://example.com", allowed) {
		t.Fatalf("expected origin to be allowed")
	}

	if !isOriginAllowed("https://anything.local", allowed) {
		t.Fatalf("expected wildcard allowlist to permit origin")
	}

	if !isOriginAllowed("", allowed) {
		t.Fatalf("expected empty origin to be allowed")
	}

	if isOriginAllowed("https://evil.example", []string{"https://example.com"}) {
		t.Fatalf("did not expect unknown origin to be allowed")
	}
}

func TestContainsWildcard(t *testing.T) {
	if !containsWildcard([]string{" * "}) {
		t.Fatalf("expected wildcard to be detected")
	}

	if containsWildcard([]string{"https://example.com"}) {
		t.Fatalf("did not expect wildcard to be detected")
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := newRateLimiter(true, 2)
	key := "127.0.0.1"

	if !limiter.allow(key) {
		t.Fatalf("expected first request to be allowed")
	}
	if !limiter.allow(key) {
		t.Fatalf("expected second request to be allowed")
	}
	if limiter.allow(key) {
		t.Fatalf("expected third request to be rate limited")
	}

	limiter.entries[key].windowStart = time.Now().Add(-limiter.window)
	if !limiter.allow(key) {
		t.Fatalf("expected request to be allowed after window reset")
	}
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRequestID))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(generated); err != nil {
		t.Fatalf("expected generated uuid, got %q", generated)
	}
	if rec.Body.String() != generated {
		t.Fatalf("expected request id in context")
	}

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) != incoming {
		t.Fatalf("expected incoming request id to be kept")
	}
}

func signedToken(t *testing.T, secret, subject, roles string) string {
	t.Helper()
	claims := &auth.Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestAuthAndRequireTier(t *testing.T) {
	router := gin.New()
	router.Use(Auth(auth.NewJWTManager("secret")))
	router.POST("/ban", RequireTier(permissions.PlayersBan), func(c *gin.Context) {
		c.String(http.StatusOK, Subject(c)+":"+Roles(c).String())
	})
	router.GET("/players", RequireTier(permissions.PlayersRead), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	cases := []struct {
		name   string
		method string
		path   string
		header string
		status int
	}{
		{"missing header", http.MethodGet, "/players", "", http.StatusUnauthorized},
		{"wrong scheme", http.MethodGet, "/players", "Basic abc", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/players", "Bearer nope", http.StatusUnauthorized},
		{"wrong secret", http.MethodGet, "/players", "Bearer " + signedToken(t, "other", "alice", "admin"), http.StatusUnauthorized},
		{"viewer reads", http.MethodGet, "/players", "Bearer " + signedToken(t, "secret", "alice", "viewer"), http.StatusOK},
		{"no role reads", http.MethodGet, "/players", "Bearer " + signedToken(t, "secret", "alice", ""), http.StatusForbidden},
		{"operator bans", http.MethodPost, "/ban", "Bearer " + signedToken(t, "secret", "alice", "operator"), http.StatusForbidden},
		{"admin bans", http.MethodPost, "/ban", "Bearer " + signedToken(t, "secret", "alice", "admin,viewer"), http.StatusOK},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("%s: expected status %d, got %d (%s)", tc.name, tc.status, rec.Code, rec.Body.String())
		}
		if tc.name == "admin bans" && rec.Body.String() != "alice:admin,viewer" {
			t.Fatalf("unexpected identity in context: %s", rec.Body.String())
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeaders(false))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("expected nosniff header")
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Fatalf("did not expect HSTS without TLS")
	}
}
