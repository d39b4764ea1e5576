package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func newJWKSServer(t *testing.T, kid string, pub *rsa.PublicKey) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": kid,
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestJWTMiddleware_JWKS(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv, _ := newJWKSServer(t, "k1", &priv.PublicKey)

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7d0c2a4e-3f3b-4c55-9a51-6b2f1d9e8c10",
			Issuer:    "https://id.example.test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: []string{"clinician"},
	})
	tok.Header["kid"] = "k1"
	signed, err := tok.SignedString(priv)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotUser string
	var gotRoles []string
	mw := JWTMiddleware(JWTConfig{Issuer: "https://id.example.test", JWKSURL: srv.URL})
	err = mw(func(c echo.Context) error {
		gotUser = UserIDFromContext(c.Request().Context())
		gotRoles = RolesFromContext(c.Request().Context())
		return nil
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUser != "7d0c2a4e-3f3b-4c55-9a51-6b2f1d9e8c10" {
		t.Errorf("unexpected user %q", gotUser)
	}
	if len(gotRoles) != 1 || gotRoles[0] != "clinician" {
		t.Errorf("unexpected roles %v", gotRoles)
	}
}

func TestKeySet_CachesAndThrottlesUnknownKids(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv, hits := newJWKSServer(t, "k1", &priv.PublicKey)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ks := newKeySet(srv.URL, srv.Client())
	ks.now = func() time.Time { return now }

	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()
	if _, err := ks.key(ctx, "k1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ks.key(ctx, "k1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(hits); got != 1 {
		t.Errorf("expected 1 fetch for a cached key, got %d", got)
	}

	if _, err := ks.key(ctx, "other"); !errors.Is(err, errUnknownKey) {
		t.Errorf("expected errUnknownKey, got %v", err)
	}
	if got := atomic.LoadInt32(hits); got != 1 {
		t.Errorf("expected unknown kid inside the refresh interval not to refetch, got %d fetches", got)
	}

	now = now.Add(keySetTTL + time.Second)
	if _, err := ks.key(ctx, "k1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(hits); got != 2 {
		t.Errorf("expected a refetch after the ttl, got %d fetches", got)
	}
}

func TestKeySet_ServesStaleKeyWhenProviderDown(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv, _ := newJWKSServer(t, "k1", &priv.PublicKey)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ks := newKeySet(srv.URL, srv.Client())
	ks.now = func() time.Time { return now }

	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()
	if _, err := ks.key(ctx, "k1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	srv.Close()
	now = now.Add(keySetTTL + time.Second)

	k, err := ks.key(ctx, "k1")
	if err != nil {
		t.Fatalf("expected stale key, got error: %v", err)
	}
	if k.N.Cmp(priv.PublicKey.N) != 0 {
		t.Error("expected the cached key")
	}
}

func TestJSONWebKey_RejectsBadExponent(t *testing.T) {
	k := jsonWebKey{Kty: "RSA", Kid: "k", N: "AQAB", E: base64.RawURLEncoding.EncodeToString([]byte{1})}
	if _, err := k.rsaPublicKey(); err == nil {
		t.Error("expected error for exponent 1")
	}
}
