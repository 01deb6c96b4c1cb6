package credentials

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/json-iterator/go"
	"github.com/pixelfolio/cli/pkg/config"
)

// Credentials is the persisted login state: the bearer token issued by the
// backend and a denormalized copy of the user record.
type Credentials struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Avatar      string    `json:"avatar,omitempty"`
}

// Load loads credentials from disk. Missing credentials are not an error.
func Load() (*Credentials, error) {
	path := config.GetCredentialsPath()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}

	return &creds, nil
}

// Save saves credentials to disk
func Save(creds *Credentials) error {
	path := config.GetCredentialsPath()

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}

	// Owner read/write only
	return os.WriteFile(path, data, 0600)
}

// Delete deletes credentials from disk. Deleting absent credentials is fine.
func Delete() error {
	err := os.Remove(config.GetCredentialsPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsExpired reports whether a known expiry has passed. The backend token is
// opaque, so a zero ExpiresAt means "unknown" and never expires locally.
func (c *Credentials) IsExpired() bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(c.ExpiresAt)
}

// IsValid checks if credentials are usable
func (c *Credentials) IsValid() bool {
	return c.AccessToken != "" && !c.IsExpired()
}

// DisplayName prefers the user's name and falls back to the email.
func (c *Credentials) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Email
}

func pendingEmailPath() string {
	return filepath.Join(config.GetConfigDir(), "pending_otp")
}

// SavePendingEmail remembers the address awaiting OTP verification.
func SavePendingEmail(email string) error {
	return os.WriteFile(pendingEmailPath(), []byte(email), 0600)
}

// LoadPendingEmail returns the address awaiting OTP verification, if any.
func LoadPendingEmail() string {
	data, err := os.ReadFile(pendingEmailPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// ClearPendingEmail forgets the address awaiting OTP verification.
func ClearPendingEmail() {
	_ = os.Remove(pendingEmailPath())
}
