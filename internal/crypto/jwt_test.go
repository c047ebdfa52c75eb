package crypto

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestIssuer(t *testing.T, opts ...TokenOption) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer("test-secret", time.Hour, opts...)
	if err != nil {
		t.Fatalf("NewTokenIssuer() unexpected error: %v", err)
	}
	return issuer
}

func TestNewTokenIssuerEmptySecret(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour)
	if !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("NewTokenIssuer() error = %v, want ErrEmptySecret", err)
	}
}

func TestNewTokenIssuerDefaultTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := NewTokenIssuer("test-secret", 0, WithClock(fixedClock(now)))
	if err != nil {
		t.Fatalf("NewTokenIssuer() unexpected error: %v", err)
	}

	_, expiresAt, err := issuer.Issue(1, "a@b.c", false)
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}
	if want := now.Add(30 * 24 * time.Hour); !expiresAt.Equal(want) {
		t.Errorf("Issue() expiresAt = %v, want %v", expiresAt, want)
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	issuer := newTestIssuer(t)

	tests := []struct {
		name    string
		userID  int64
		email   string
		isAdmin bool
	}{
		{name: "regular user", userID: 42, email: "alice@x.com", isAdmin: false},
		{name: "admin", userID: 1, email: "admin@x.com", isAdmin: true},
		{name: "large id", userID: 1 << 40, email: "big@x.com", isAdmin: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _, err := issuer.Issue(tt.userID, tt.email, tt.isAdmin)
			if err != nil {
				t.Fatalf("Issue() unexpected error: %v", err)
			}

			claims, err := issuer.Verify(token)
			if err != nil {
				t.Fatalf("Verify() unexpected error: %v", err)
			}
			if claims.UserID != tt.userID || claims.Email != tt.email || claims.IsAdmin != tt.isAdmin {
				t.Errorf("Verify() claims = %+v, want %d/%s/%v", claims, tt.userID, tt.email, tt.isAdmin)
			}
		})
	}
}

func TestVerifyExpiry(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := issuedAt
	issuer := newTestIssuer(t, WithClock(func() time.Time { return clock }))

	token, expiresAt, err := issuer.Issue(7, "bob@x.com", false)
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	clock = expiresAt.Add(-time.Second)
	if _, err := issuer.Verify(token); err != nil {
		t.Fatalf("Verify() before expiry unexpected error: %v", err)
	}

	clock = expiresAt
	if _, err := issuer.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Verify() at expiry error = %v, want ErrTokenExpired", err)
	}

	clock = expiresAt.Add(time.Hour)
	if _, err := issuer.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Verify() after expiry error = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyInvalid(t *testing.T) {
	issuer := newTestIssuer(t)

	_, err := issuer.Verify("not-a-valid-token")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Verify() error = %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _, err := newTestIssuer(t).Issue(42, "a@b.c", false)
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	other, err := NewTokenIssuer("wrong-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer() unexpected error: %v", err)
	}
	if _, err := other.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Verify() error = %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyTamperedPayload(t *testing.T) {
	issuer := newTestIssuer(t)
	token, _, err := issuer.Issue(42, "a@b.c", false)
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	parts := strings.Split(token, ".")
	forged, _, err := issuer.Issue(1, "admin@b.c", true)
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}
	// Payload from one token, signature from another.
	parts[1] = strings.Split(forged, ".")[1]

	if _, err := issuer.Verify(strings.Join(parts, ".")); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Verify() error = %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID:  1,
		IsAdmin: true,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() unexpected error: %v", err)
	}

	if _, err := newTestIssuer(t).Verify(tokenString); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Verify() error = %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyWrongIssuerAndAudience(t *testing.T) {
	secret := "test-secret"

	tests := []struct {
		name     string
		issuer   string
		audience string
	}{
		{name: "wrong issuer", issuer: "wrong-issuer", audience: tokenAudience},
		{name: "wrong audience", issuer: tokenIssuer, audience: "wrong-audience"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Issuer:    tt.issuer,
					Audience:  jwt.ClaimStrings{tt.audience},
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
					IssuedAt:  jwt.NewNumericDate(time.Now()),
				},
				UserID: 42,
			}
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
			tokenString, err := token.SignedString([]byte(secret))
			if err != nil {
				t.Fatalf("SignedString() unexpected error: %v", err)
			}

			if _, err := newTestIssuer(t).Verify(tokenString); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("Verify() error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}

func TestVerifyMissingExpiry(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   tokenIssuer,
			Audience: jwt.ClaimStrings{tokenAudience},
		},
		UserID: 42,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString() unexpected error: %v", err)
	}

	if _, err := newTestIssuer(t).Verify(tokenString); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Verify() error = %v, want ErrTokenInvalid", err)
	}
}
