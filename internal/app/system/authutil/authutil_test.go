package authutil

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		pw   string
		want error
	}{
		{"secure123", nil},
		{"MyP@ssw0rd", nil},
		{"abcdef1", nil},
		{strings.Repeat("a", MaxPasswordLength), nil},
		{"", ErrPasswordTooShort},
		{"abcde", ErrPasswordTooShort},
		{strings.Repeat("a", MaxPasswordLength+1), ErrPasswordTooLong},
		{"password", ErrPasswordCommon},
		{"QWERTY", ErrPasswordCommon},
		{"ILoveYou", ErrPasswordCommon},
		{"letmein", ErrPasswordCommon},
	}
	for _, tt := range tests {
		if got := ValidatePassword(tt.pw); got != tt.want {
			t.Errorf("ValidatePassword(%q): got %v, want %v", tt.pw, got, tt.want)
		}
	}
}

func TestHashPassword_RandomSalt(t *testing.T) {
	h1, err := HashPassword("SecurePassword123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, err := HashPassword("SecurePassword123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(h1, "$2") {
		t.Errorf("expected a bcrypt hash, got %q", h1)
	}
	if h1 == h2 {
		t.Error("expected different hashes for the same password")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("SecurePassword123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if !CheckPassword("SecurePassword123", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("WrongPassword456", hash) {
		t.Error("wrong password accepted")
	}
	if CheckPassword("", hash) {
		t.Error("empty password accepted")
	}
	if CheckPassword("password", "not-a-valid-hash") {
		t.Error("invalid hash accepted")
	}
}

func TestPasswordRules(t *testing.T) {
	if !strings.Contains(PasswordRules(), "6") {
		t.Errorf("rules should mention the minimum length: %q", PasswordRules())
	}
}
