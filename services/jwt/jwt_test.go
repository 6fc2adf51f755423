package jwt

import (
	"testing"
	"time"
)

func TestGenerateAndValidate(t *testing.T) {
	token, err := GenerateToken(42, "a@example.com", "admin", "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateAndGetClaims(token, "secret")
	if err != nil {
		t.Fatalf("ValidateAndGetClaims: %v", err)
	}
	id, err := UserIDFromClaims(claims)
	if err != nil {
		t.Fatalf("UserIDFromClaims: %v", err)
	}
	if id != 42 {
		t.Errorf("id = %d, want 42", id)
	}
	if claims["role"] != "admin" {
		t.Errorf("role = %v, want admin", claims["role"])
	}
}

func TestValidateRejects(t *testing.T) {
	good, _ := GenerateToken(1, "a@example.com", "user", "secret", time.Hour)
	expired, _ := GenerateToken(1, "a@example.com", "user", "secret", -time.Minute)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", good, "other"},
		{"expired", expired, "secret"},
		{"garbage", "not.a.token", "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateAndGetClaims(tt.token, tt.secret); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestGenerateRequiresSecret(t *testing.T) {
	if _, err := GenerateToken(1, "a@example.com", "user", "", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}
