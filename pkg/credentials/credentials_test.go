package credentials

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixelfolio/cli/pkg/config"
)

func initConfig(t *testing.T) {
	t.Helper()
	if err := config.Init(filepath.Join(t.TempDir(), "config.toml")); err != nil {
		t.Fatalf("config init: %v", err)
	}
}

// TestCredentialsIsExpired validates token expiration check
func TestCredentialsIsExpired(t *testing.T) {
	testCases := []struct {
		expiresAt time.Time
		expect    bool
		name      string
	}{
		{time.Now().Add(-1 * time.Hour), true, "past expiration"},
		{time.Now().Add(1 * time.Hour), false, "future expiration"},
		{time.Time{}, false, "unknown expiration"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			creds := &Credentials{AccessToken: "test_token", ExpiresAt: tc.expiresAt}
			if got := creds.IsExpired(); got != tc.expect {
				t.Errorf("Expected IsExpired=%v, got %v", tc.expect, got)
			}
		})
	}
}

// TestCredentialsIsValid validates credential validity check
func TestCredentialsIsValid(t *testing.T) {
	testCases := []struct {
		accessToken string
		expiresAt   time.Time
		expect      bool
		name        string
	}{
		{"valid_token", time.Now().Add(1 * time.Hour), true, "valid credentials"},
		{"valid_token", time.Time{}, true, "opaque token"},
		{"", time.Now().Add(1 * time.Hour), false, "empty access token"},
		{"valid_token", time.Now().Add(-1 * time.Hour), false, "expired token"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			creds := &Credentials{AccessToken: tc.accessToken, ExpiresAt: tc.expiresAt}
			if got := creds.IsValid(); got != tc.expect {
				t.Errorf("Expected IsValid=%v, got %v", tc.expect, got)
			}
		})
	}
}

func TestSaveLoadDelete(t *testing.T) {
	initConfig(t)

	creds, err := Load()
	if err != nil {
		t.Fatalf("Load with no file: %v", err)
	}
	if creds != nil {
		t.Fatal("Expected nil credentials before Save")
	}

	want := &Credentials{AccessToken: "tok", UserID: "u1", Name: "Sarah", Email: "s@example.com"}
	if err := Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(config.GetCredentialsPath())
	if err != nil {
		t.Fatalf("stat credentials: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected 0600 permissions, got %v", info.Mode().Perm())
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.AccessToken != "tok" || got.UserID != "u1" || got.Name != "Sarah" {
		t.Errorf("Loaded credentials mismatch: %+v", got)
	}

	if err := Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := Delete(); err != nil {
		t.Errorf("Deleting twice should not fail: %v", err)
	}
}

func TestDisplayName(t *testing.T) {
	if got := (&Credentials{Name: "Alex", Email: "a@x"}).DisplayName(); got != "Alex" {
		t.Errorf("got %q", got)
	}
	if got := (&Credentials{Email: "a@x"}).DisplayName(); got != "a@x" {
		t.Errorf("got %q", got)
	}
}

func TestPendingEmail(t *testing.T) {
	initConfig(t)

	if LoadPendingEmail() != "" {
		t.Fatal("Expected no pending email")
	}
	if err := SavePendingEmail("new@example.com"); err != nil {
		t.Fatalf("SavePendingEmail: %v", err)
	}
	if got := LoadPendingEmail(); got != "new@example.com" {
		t.Errorf("got %q", got)
	}
	ClearPendingEmail()
	if LoadPendingEmail() != "" {
		t.Error("Expected pending email cleared")
	}
}

func TestSessions(t *testing.T) {
	if Anonymous().Authenticated() {
		t.Error("Anonymous session must not be authenticated")
	}
	if Anonymous().Token() != "" {
		t.Error("Anonymous session must have no token")
	}

	s := Static("tok", "u1")
	if !s.Authenticated() || s.Token() != "tok" || s.UserID() != "u1" {
		t.Errorf("Static session mismatch")
	}

	expired := FromCredentials(&Credentials{AccessToken: "tok", ExpiresAt: time.Now().Add(-time.Minute)})
	if expired.Authenticated() {
		t.Error("Expired credentials must not authenticate")
	}
}

func TestFromDisk(t *testing.T) {
	initConfig(t)

	s, err := FromDisk()
	if err != nil {
		t.Fatalf("FromDisk: %v", err)
	}
	if s.Authenticated() {
		t.Error("Expected anonymous session without credentials file")
	}

	if err := Save(&Credentials{AccessToken: "tok", Name: "Sarah"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s, err = FromDisk()
	if err != nil {
		t.Fatalf("FromDisk: %v", err)
	}
	if !s.Authenticated() || s.DisplayName() != "Sarah" {
		t.Errorf("Expected authenticated session for Sarah")
	}
}
