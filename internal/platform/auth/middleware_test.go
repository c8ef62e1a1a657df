package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/medlab/medlab/internal/platform/apperr"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func newTestTokens() *Tokens {
	return NewTokens(JWTConfig{Issuer: "medlab", SigningKey: testSigningKey, TTL: time.Hour})
}

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func expectUnauthorized(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	err := JWTMiddleware(newTestTokens(), nil)(handler)(c)
	expectUnauthorized(t, err)
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/patients", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			}

			err := JWTMiddleware(newTestTokens(), nil)(handler)(c)
			expectUnauthorized(t, err)
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	tokens := newTestTokens()
	tokenStr, _, err := tokens.Issue("user-123", "a@clinic.test", "Dr. A")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotUser string
	var gotClaims *Claims
	handler := func(c echo.Context) error {
		gotUser = UserIDFromContext(c.Request().Context())
		gotClaims = ClaimsFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	}

	if err := JWTMiddleware(tokens, nil)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUser != "user-123" {
		t.Errorf("expected user-123, got %q", gotUser)
	}
	if gotClaims == nil || gotClaims.Email != "a@clinic.test" || gotClaims.Name != "Dr. A" {
		t.Errorf("unexpected claims: %+v", gotClaims)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Issuer:    "medlab",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	tokenStr := createTestToken(t, claims, testSigningKey)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		t.Error("handler should not run for an expired token")
		return nil
	}

	err := JWTMiddleware(newTestTokens(), nil)(handler)(c)
	expectUnauthorized(t, err)
}

func TestJWTMiddleware_WrongKey(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Issuer:    "medlab",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tokenStr := createTestToken(t, claims, []byte("another-key-another-key-another-key"))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	c := e.NewContext(req, httptest.NewRecorder())

	err := JWTMiddleware(newTestTokens(), nil)(func(echo.Context) error { return nil })(c)
	expectUnauthorized(t, err)
}

func TestJWTMiddleware_SkipsPublicRoutes(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/users/login", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/users/login")

	called := false
	handler := func(c echo.Context) error {
		called = true
		return nil
	}

	if err := JWTMiddleware(newTestTokens(), AuthSkipper)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected handler to be called for a public route")
	}
}

func TestDevAuthMiddleware_NoToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotUser string
	handler := func(c echo.Context) error {
		gotUser = UserIDFromContext(c.Request().Context())
		return nil
	}

	if err := DevAuthMiddleware(newTestTokens())(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUser != DevUserID {
		t.Errorf("expected %q, got %q", DevUserID, gotUser)
	}
}

func TestDevAuthMiddleware_ValidatesPresentedToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.Header.Set("Authorization", "Bearer forged")
	c := e.NewContext(req, httptest.NewRecorder())

	err := DevAuthMiddleware(newTestTokens())(func(echo.Context) error { return nil })(c)
	expectUnauthorized(t, err)
}

func TestRequireToken(t *testing.T) {
	tokens := newTestTokens()
	tokenStr, _, _ := tokens.Issue("user-1", "u@clinic.test", "U")

	e := echo.New()
	h := DevAuthMiddleware(tokens)(RequireToken()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	expectUnauthorized(t, h(c))

	req = httptest.NewRequest(http.MethodGet, "/users/profile", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	c = e.NewContext(req, httptest.NewRecorder())
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUserIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := UserIDFromContext(req.Context()); got != "" {
		t.Errorf("expected empty user id, got %q", got)
	}
	if ClaimsFromContext(req.Context()) != nil {
		t.Error("expected nil claims")
	}
}
