package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{
			name:     "valid password",
			password: "validpassword123",
		},
		{
			name:     "password too short",
			password: "short",
			wantErr:  ErrPasswordTooShort,
		},
		{
			name:     "password at minimum length",
			password: "12345678",
		},
		{
			name:     "password one below minimum",
			password: "1234567",
			wantErr:  ErrPasswordTooShort,
		},
		{
			name:     "password too long",
			password: strings.Repeat("a", 73),
			wantErr:  ErrPasswordTooLong,
		},
		{
			name:     "password at maximum length",
			password: strings.Repeat("a", 72),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, bcrypt.MinCost)
			if err != tt.wantErr {
				t.Errorf("HashPassword() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr == nil && hash == "" {
				t.Error("HashPassword() returned empty hash for valid password")
			}
		})
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}

	if err := CheckPassword("correct horse", hash); err != nil {
		t.Errorf("CheckPassword() with correct password = %v", err)
	}
	if err := CheckPassword("battery staple", hash); err != ErrInvalidPassword {
		t.Errorf("CheckPassword() with wrong password = %v, want ErrInvalidPassword", err)
	}
	if err := CheckPassword("correct horse", "not-a-hash"); err == nil {
		t.Error("CheckPassword() with malformed hash should fail")
	}
}

func TestGenerateSessionSecret(t *testing.T) {
	a, err := GenerateSessionSecret()
	if err != nil {
		t.Fatalf("GenerateSessionSecret() failed: %v", err)
	}
	b, _ := GenerateSessionSecret()

	if len(a) != 64 {
		t.Errorf("secret length = %d, want 64 hex chars", len(a))
	}
	if a == b {
		t.Error("two generated secrets should differ")
	}
}
