package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

func testAccount() *models.Account {
	return &models.Account{
		ID:     "acc-123",
		Email:  "a@x.com",
		Status: models.StatusActive,
		Roles:  []string{models.RoleUser, "ADMIN"},
	}
}

func TestIssueAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("super-secret"), time.Hour, 24*time.Hour)
	acc := testAccount()

	tok, err := issuer.IssueAccessToken(acc)
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}

	claims, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.Subject != acc.ID {
		t.Fatalf("subject mismatch: got %q want %q", claims.Subject, acc.ID)
	}
	if claims.Email != acc.Email {
		t.Fatalf("email mismatch: got %q want %q", claims.Email, acc.Email)
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != models.RoleUser || claims.Roles[1] != "ADMIN" {
		t.Fatalf("roles mismatch: %v", claims.Roles)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(time.Now()) {
		t.Fatalf("expiry not in the future: %v", claims.ExpiresAt)
	}
}

func TestIssueRefreshToken_CarriesOnlySubject(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("super-secret"), time.Hour, 24*time.Hour)

	tok, err := issuer.IssueRefreshToken(testAccount())
	if err != nil {
		t.Fatalf("IssueRefreshToken error: %v", err)
	}

	claims, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.Subject != "acc-123" {
		t.Fatalf("subject mismatch: %q", claims.Subject)
	}
	if claims.Email != "" || claims.Roles != nil {
		t.Fatalf("refresh token must not carry email/roles: %+v", claims)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("secret"), -1*time.Second, -1*time.Second)

	tok, err := issuer.IssueAccessToken(testAccount())
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}

	_, err = issuer.Verify(tok)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("right-secret"), time.Hour, time.Hour)
	other := NewTokenIssuer([]byte("wrong-secret"), time.Hour, time.Hour)

	tok, err := issuer.IssueAccessToken(testAccount())
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}

	_, err = other.Verify(tok)
	if !errors.Is(err, common.ErrTokenInvalid) {
		t.Fatalf("want ErrTokenInvalid, got %v", err)
	}
}

func TestVerify_TamperedSignature(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("secret"), time.Hour, time.Hour)

	tok, err := issuer.IssueAccessToken(testAccount())
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", tok)
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = issuer.Verify(tampered)
	if !errors.Is(err, common.ErrTokenInvalid) {
		t.Fatalf("want ErrTokenInvalid for tampered signature, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("k"), time.Hour, time.Hour)

	_, err := issuer.Verify("not.a.jwt")
	if !errors.Is(err, common.ErrTokenMalformed) {
		t.Fatalf("want ErrTokenMalformed, got %v", err)
	}
}

func TestVerify_RejectsForeignAlgorithm(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	issuer := NewTokenIssuer(secret, time.Hour, time.Hour)

	// Same secret, but HS256: must be rejected regardless of a valid MAC.
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "acc-123",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}

	_, err = issuer.Verify(tok)
	if !errors.Is(err, common.ErrTokenInvalid) {
		t.Fatalf("want ErrTokenInvalid for HS256 token, got %v", err)
	}
}
