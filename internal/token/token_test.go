package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yeojun7429/portfolio-api/internal/models"
)

func TestSigner_RoundTrip(t *testing.T) {
	t.Parallel()

	signer := NewSigner([]byte("test-secret"), "portfolio-api", time.Hour)
	user := &models.User{
		ID:    uuid.New(),
		Email: "demo@example.com",
		Name:  "Demo User",
	}

	tokenString, err := signer.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := signer.Verify(tokenString)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if claims.Sub != user.ID.String() {
		t.Errorf("Sub = %q, want %q", claims.Sub, user.ID.String())
	}
	if claims.Email != user.Email {
		t.Errorf("Email = %q, want %q", claims.Email, user.Email)
	}
	if claims.Name != user.Name {
		t.Errorf("Name = %q, want %q", claims.Name, user.Name)
	}
	if claims.Iss != "portfolio-api" {
		t.Errorf("Iss = %q, want %q", claims.Iss, "portfolio-api")
	}
	if claims.Exp <= claims.Iat {
		t.Errorf("Exp (%d) should be after Iat (%d)", claims.Exp, claims.Iat)
	}
}

func TestSigner_RejectsWrongSecret(t *testing.T) {
	t.Parallel()

	signer := NewSigner([]byte("secret-a"), "portfolio-api", time.Hour)
	other := NewSigner([]byte("secret-b"), "portfolio-api", time.Hour)

	tokenString, err := signer.Issue(&models.User{ID: uuid.New(), Email: "a@b.c"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := other.Verify(tokenString); err == nil {
		t.Error("expected verification to fail with wrong secret")
	}
}

func TestSigner_RejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	signer := NewSigner([]byte("secret"), "issuer-a", time.Hour)
	other := NewSigner([]byte("secret"), "issuer-b", time.Hour)

	tokenString, err := signer.Issue(&models.User{ID: uuid.New(), Email: "a@b.c"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := other.Verify(tokenString); err == nil {
		t.Error("expected verification to fail with wrong issuer")
	}
}

func TestSigner_RejectsGarbage(t *testing.T) {
	t.Parallel()

	signer := NewSigner([]byte("secret"), "portfolio-api", time.Hour)
	if _, err := signer.Verify("not-a-token"); err == nil {
		t.Error("expected verification to fail for garbage input")
	}
}
