// internal/auth/jwt_test.go

package auth

import (
	"testing"
	"time"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	tok, err := m.Generate("0x00ABCDEF", "admin", "admin")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims, err := m.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.CompanyCode != "0x00ABCDEF" {
		t.Fatalf("company_code = %q", claims.CompanyCode)
	}
	if claims.Username != "admin" || claims.Role != "admin" {
		t.Fatalf("claims = %q/%q", claims.Username, claims.Role)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	tok, err := NewManager("secret-a", time.Hour).Generate("0x00ABCDEF", "admin", "admin")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := NewManager("secret-b", time.Hour).Verify(tok); err != ErrInvalidToken {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)

	tok, err := m.Generate("0x00ABCDEF", "admin", "admin")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := m.Verify(tok); err != ErrExpiredToken {
		t.Fatalf("err = %v, want ErrExpiredToken", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.Verify(tok); err != ErrInvalidToken {
			t.Errorf("Verify(%q) err = %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	plain := GeneratePassword()
	hash, err := HashPassword(plain)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == plain {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword(hash, plain) {
		t.Fatal("hash does not verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("wrong password verified")
	}
}
