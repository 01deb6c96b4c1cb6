package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pixelfolio/cli/pkg/api"
	"github.com/pixelfolio/cli/pkg/client"
	"github.com/pixelfolio/cli/pkg/credentials"
	clierrors "github.com/pixelfolio/cli/pkg/errors"
	"github.com/pixelfolio/cli/pkg/formatter"
	"github.com/pixelfolio/cli/pkg/logger"
	"github.com/pixelfolio/cli/pkg/prompter"
)

// ProfileService shows and edits the logged-in account
type ProfileService struct {
	deps Deps
}

// NewProfileService creates a new profile service
func NewProfileService(d Deps) *ProfileService {
	return &ProfileService{deps: d}
}

// ProfileUpdate carries flag values. With none set, every field is prompted.
type ProfileUpdate struct {
	Name       string
	Email      string
	Bio        string
	AvatarPath string
}

func (u ProfileUpdate) empty() bool {
	return u == ProfileUpdate{}
}

// Show prints the current account
func (s *ProfileService) Show(ctx context.Context) error {
	if err := s.deps.requireAuth("view your profile"); err != nil {
		return err
	}
	user, err := s.deps.API.GetCurrentUser(ctx)
	if err != nil {
		return s.deps.guard().Check(err)
	}
	return formatter.PrintUser(user)
}

// Update sends only the fields that differ from the current account
func (s *ProfileService) Update(ctx context.Context, opts ProfileUpdate) error {
	if err := s.deps.requireAuth("update your profile"); err != nil {
		return err
	}
	guard := s.deps.guard()

	current, err := s.deps.API.GetCurrentUser(ctx)
	if err != nil {
		return guard.Check(err)
	}

	if opts.empty() {
		if opts, err = promptProfile(current); err != nil {
			return err
		}
	}

	var req api.UpdateProfileRequest
	if name := strings.TrimSpace(opts.Name); name != "" && name != current.Name {
		req.Name = name
	}
	if email := strings.TrimSpace(opts.Email); email != "" && email != current.Email {
		if !strings.Contains(email, "@") {
			return clierrors.ValidationError("email", "must be a valid email address")
		}
		req.Email = email
	}
	if bio := strings.TrimSpace(opts.Bio); bio != "" && bio != current.Bio {
		req.Bio = bio
	}
	if opts.AvatarPath != "" {
		if err := checkImageFile(opts.AvatarPath); err != nil {
			return err
		}
		formatter.PrintInfo("Uploading profile image...")
		url, err := s.deps.API.UploadAvatar(ctx, opts.AvatarPath)
		if err != nil {
			return guard.Check(err)
		}
		req.ProfileImage = url
	}

	if req == (api.UpdateProfileRequest{}) {
		formatter.PrintInfo("Nothing to update")
		return nil
	}

	resp, err := s.deps.API.UpdateCurrentUser(ctx, req)
	if err != nil {
		return guard.Check(err)
	}
	s.refreshCredentials(&resp.User)

	formatter.PrintSuccess("✓ Profile updated")
	return formatter.PrintUser(&resp.User)
}

func promptProfile(current *api.User) (ProfileUpdate, error) {
	var (
		u   ProfileUpdate
		err error
	)
	if u.Name, err = prompter.PromptDefault("Name", current.Name); err != nil {
		return u, err
	}
	if u.Email, err = prompter.PromptDefault("Email", current.Email); err != nil {
		return u, err
	}
	if u.Bio, err = prompter.PromptDefault("Bio", current.Bio); err != nil {
		return u, err
	}
	u.AvatarPath, err = prompter.PromptString("New profile image file (empty to keep): ")
	return u, err
}

// refreshCredentials keeps the stored display fields in step with the server
func (s *ProfileService) refreshCredentials(user *api.User) {
	creds, err := credentials.Load()
	if err != nil || creds == nil {
		return
	}
	if user.Name != "" {
		creds.Name = user.Name
	}
	if user.Email != "" {
		creds.Email = user.Email
	}
	if img := user.Image(); img != "" {
		creds.Avatar = img
	}
	if err := credentials.Save(creds); err != nil {
		logger.Warn("Failed to update stored profile", "error", err)
		return
	}
	sess := credentials.FromCredentials(creds)
	client.SetSession(sess)
	s.deps.Session = sess
}

// ChangePassword asks for the current password and a confirmed new one
func (s *ProfileService) ChangePassword(ctx context.Context) error {
	if err := s.deps.requireAuth("change your password"); err != nil {
		return err
	}
	current, err := prompter.PromptPassword("Current password: ")
	if err != nil {
		return err
	}
	if current == "" {
		return clierrors.ValidationError("password", "cannot be empty")
	}
	next, err := prompter.PromptNewPassword("New password: ", MinPasswordLength)
	if err != nil {
		return clierrors.ValidationError("password", err.Error())
	}
	if next == current {
		return clierrors.ValidationError("password", "new password must differ from the current one")
	}

	if _, err := s.deps.API.ChangePassword(ctx, current, next); err != nil {
		if api.IsUnauthorized(err) {
			// a wrong current password is also a 401
			return fmt.Errorf("password not changed: %w", err)
		}
		return s.deps.guard().Check(err)
	}
	formatter.PrintSuccess("✓ Password changed")
	return nil
}
