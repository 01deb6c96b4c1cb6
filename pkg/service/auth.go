package service

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pixelfolio/cli/pkg/api"
	"github.com/pixelfolio/cli/pkg/client"
	"github.com/pixelfolio/cli/pkg/credentials"
	clierrors "github.com/pixelfolio/cli/pkg/errors"
	"github.com/pixelfolio/cli/pkg/formatter"
	"github.com/pixelfolio/cli/pkg/logger"
	"github.com/pixelfolio/cli/pkg/prompter"
)

// MinPasswordLength matches the backend's signup validation
const MinPasswordLength = 6

// AuthService handles signup, OTP verification and login
type AuthService struct {
	deps Deps
}

// NewAuthService creates a new auth service
func NewAuthService(d Deps) *AuthService {
	return &AuthService{deps: d}
}

// SignupOptions carries values given as flags; empty ones are prompted
type SignupOptions struct {
	Name       string
	Email      string
	AvatarPath string
}

// Signup registers an account and offers to verify the emailed code
func (s *AuthService) Signup(ctx context.Context, opts SignupOptions) error {
	var err error
	name := opts.Name
	if name == "" {
		if name, err = prompter.PromptRequired("Name: "); err != nil {
			return err
		}
	}
	email := strings.TrimSpace(opts.Email)
	if email == "" {
		if email, err = prompter.PromptRequired("Email: "); err != nil {
			return err
		}
	}
	if !strings.Contains(email, "@") {
		return clierrors.ValidationError("email", "must be a valid email address")
	}

	password, err := prompter.PromptNewPassword("Password: ", MinPasswordLength)
	if err != nil {
		return clierrors.ValidationError("password", err.Error())
	}

	req := api.SignupRequest{Name: name, Email: email, Password: password}
	if opts.AvatarPath != "" {
		if err := checkImageFile(opts.AvatarPath); err != nil {
			return err
		}
		formatter.PrintInfo("Uploading profile image...")
		url, err := s.deps.API.UploadAvatar(ctx, opts.AvatarPath)
		if err != nil {
			return err
		}
		req.ProfileImage = url
	}

	formatter.PrintInfo("Creating account...")
	resp, err := s.deps.API.Signup(ctx, req)
	if err != nil {
		return err
	}

	if err := credentials.SavePendingEmail(email); err != nil {
		logger.Warn("Failed to remember pending email", "error", err)
	}

	msg := resp.Message
	if msg == "" {
		msg = "Account created."
	}
	formatter.PrintSuccess("✓ %s", msg)
	formatter.PrintInfo("A verification code was sent to %s.", email)

	now, err := prompter.PromptConfirm("Enter the code now?")
	if err != nil || !now {
		formatter.PrintInfo("Run 'pixelfolio auth verify' when you have the code.")
		return nil
	}
	return s.Verify(ctx, email)
}

// Verify submits the emailed OTP. A token in the answer logs the user in.
func (s *AuthService) Verify(ctx context.Context, email string) error {
	email, err := s.pendingEmail(email)
	if err != nil {
		return err
	}

	otp, err := prompter.PromptRequired("Verification code: ")
	if err != nil {
		return err
	}

	resp, err := s.deps.API.VerifyOTP(ctx, email, otp)
	if err != nil {
		return err
	}
	credentials.ClearPendingEmail()

	if resp.Token != "" && resp.User != nil {
		if err := s.saveSession(resp.Token, resp.User); err != nil {
			return err
		}
		formatter.PrintSuccess("✓ Email verified. Logged in as %s", formatter.Bold.Sprint(resp.User.Name))
		return nil
	}

	formatter.PrintSuccess("✓ Email verified. You can now log in with 'pixelfolio auth login'.")
	return nil
}

// ResendOTP asks for a new code
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	email, err := s.pendingEmail(email)
	if err != nil {
		return err
	}
	resp, err := s.deps.API.ResendOTP(ctx, email)
	if err != nil {
		return err
	}
	msg := resp.Message
	if msg == "" {
		msg = "A new code was sent."
	}
	formatter.PrintSuccess("✓ %s", msg)
	return nil
}

// Login handles user login. An unverified account is routed to OTP entry.
func (s *AuthService) Login(ctx context.Context, email string) error {
	if sess := s.deps.session(); sess.Authenticated() {
		formatter.PrintWarning("Already logged in as %s", sess.DisplayName())
		confirm, err := prompter.PromptConfirm("Continue with new login?")
		if err != nil {
			return err
		}
		if !confirm {
			return nil
		}
	}

	var err error
	if email == "" {
		if email, err = prompter.PromptRequired("Email: "); err != nil {
			return err
		}
	}
	password, err := prompter.PromptPassword("Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return clierrors.ValidationError("password", "cannot be empty")
	}

	formatter.PrintInfo("Authenticating...")
	resp, err := s.deps.API.Login(ctx, email, password)
	if err != nil {
		if api.IsEmailUnverified(err) {
			return s.routeToVerify(ctx, email)
		}
		return err
	}
	if resp.Token == "" || resp.User == nil {
		return fmt.Errorf("login response did not include a session")
	}

	if err := s.saveSession(resp.Token, resp.User); err != nil {
		return err
	}

	formatter.PrintSuccess("✓ Login successful!")
	formatter.PrintInfo("Logged in as %s", formatter.Bold.Sprint(resp.User.Name))
	return nil
}

func (s *AuthService) routeToVerify(ctx context.Context, email string) error {
	if err := credentials.SavePendingEmail(email); err != nil {
		logger.Warn("Failed to remember pending email", "error", err)
	}
	formatter.PrintWarning("Please verify your email before logging in.")

	now, err := prompter.PromptConfirm("Enter the verification code now?")
	if err != nil || !now {
		return clierrors.EmailUnverifiedError(email)
	}
	return s.Verify(ctx, email)
}

// Logout forgets the stored session
func (s *AuthService) Logout() error {
	creds, err := credentials.Load()
	if err != nil {
		return err
	}
	if creds == nil {
		formatter.PrintWarning("Not logged in")
		return nil
	}

	confirm, err := prompter.PromptConfirm("Logout?")
	if err != nil {
		return err
	}
	if !confirm {
		return nil
	}

	if err := credentials.Delete(); err != nil {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	client.ClearSession()
	formatter.PrintSuccess("✓ Logged out")
	return nil
}

// WhoAmI prints the logged-in account
func (s *AuthService) WhoAmI(ctx context.Context) error {
	if !s.deps.session().Authenticated() {
		formatter.PrintInfo("Not logged in")
		return nil
	}
	user, err := s.deps.API.GetCurrentUser(ctx)
	if err != nil {
		return s.deps.guard().Check(err)
	}
	return formatter.PrintUser(user)
}

// ForgotPassword requests a reset code and then offers to use it
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	var err error
	if email == "" {
		if email, err = prompter.PromptRequired("Email: "); err != nil {
			return err
		}
	}
	resp, err := s.deps.API.ForgotPassword(ctx, email)
	if err != nil {
		return err
	}
	msg := resp.Message
	if msg == "" {
		msg = "A reset code was sent."
	}
	formatter.PrintSuccess("✓ %s", msg)

	now, err := prompter.PromptConfirm("Reset your password now?")
	if err != nil || !now {
		formatter.PrintInfo("Run 'pixelfolio auth reset-password --email %s' when you have the code.", email)
		return nil
	}
	return s.ResetPassword(ctx, email)
}

// ResetPassword sets a new password with the emailed code
func (s *AuthService) ResetPassword(ctx context.Context, email string) error {
	var err error
	if email == "" {
		if email, err = prompter.PromptRequired("Email: "); err != nil {
			return err
		}
	}
	otp, err := prompter.PromptRequired("Reset code: ")
	if err != nil {
		return err
	}
	password, err := prompter.PromptNewPassword("New password: ", MinPasswordLength)
	if err != nil {
		return clierrors.ValidationError("password", err.Error())
	}

	if _, err := s.deps.API.ResetPassword(ctx, api.ResetPasswordRequest{Email: email, OTP: otp, NewPassword: password}); err != nil {
		return err
	}
	formatter.PrintSuccess("✓ Password reset. Log in with 'pixelfolio auth login'.")
	return nil
}

func (s *AuthService) pendingEmail(email string) (string, error) {
	if email != "" {
		return email, nil
	}
	if pending := credentials.LoadPendingEmail(); pending != "" {
		formatter.PrintInfo("Using %s", pending)
		return pending, nil
	}
	return prompter.PromptRequired("Email: ")
}

func (s *AuthService) saveSession(token string, user *api.User) error {
	creds := &credentials.Credentials{
		AccessToken: token,
		UserID:      user.Key(),
		Name:        user.Name,
		Email:       user.Email,
		Avatar:      user.Image(),
	}
	if err := credentials.Save(creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	sess := credentials.FromCredentials(creds)
	client.SetSession(sess)
	s.deps.Session = sess
	return nil
}

func checkImageFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return clierrors.FileNotFoundError(path)
	}
	if !api.IsImageFile(path) {
		return clierrors.ImageFormatError(path)
	}
	return nil
}
