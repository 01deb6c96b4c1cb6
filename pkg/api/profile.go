package api

import (
	"context"
	"fmt"

	"github.com/pixelfolio/cli/pkg/logger"
)

// GetCurrentUser gets the authenticated user's account
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	logger.Debug("Fetching current user")

	resp, err := c.http.R().
		SetContext(ctx).
		Get("/auth/me")

	var out UserResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return &out.User, nil
}

// UpdateCurrentUser saves changed account fields
func (c *Client) UpdateCurrentUser(ctx context.Context, req UpdateProfileRequest) (*UserResponse, error) {
	logger.Debug("Updating profile")

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Put("/auth/me")

	var out UserResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &out, nil
}

// ChangePassword replaces the password after checking the current one
func (c *Client) ChangePassword(ctx context.Context, current, next string) (*MessageResponse, error) {
	logger.Debug("Changing password")

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(ChangePasswordRequest{CurrentPassword: current, NewPassword: next}).
		Put("/auth/me/password")

	var out MessageResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, fmt.Errorf("failed to change password: %w", err)
	}
	return &out, nil
}

// GetProfile fetches the caller's record with their portfolios
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	logger.Debug("Fetching profile portfolios")

	resp, err := c.http.R().
		SetContext(ctx).
		Get("/api/profile")

	var out Profile
	if err := decode(resp, err, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	for i := range out.Portfolios {
		out.Portfolios[i].normalize()
	}
	return &out, nil
}
