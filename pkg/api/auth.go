package api

import (
	"context"

	"github.com/pixelfolio/cli/pkg/logger"
)

// Signup registers an account. The server emails an OTP that must be
// verified before login.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	logger.Debug("Signing up", "email", req.Email)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/auth/signup")

	var out AuthResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOTP confirms the emailed code; on success the server may return a
// token and user so the caller is logged in immediately.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*AuthResponse, error) {
	logger.Debug("Verifying OTP", "email", email)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(OTPRequest{Email: email, OTP: otp}).
		Post("/auth/verify-otp")

	var out AuthResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResendOTP asks the server to email a fresh code
func (c *Client) ResendOTP(ctx context.Context, email string) (*MessageResponse, error) {
	logger.Debug("Resending OTP", "email", email)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"email": email}).
		Post("/auth/resendOtp")

	var out MessageResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates with email and password
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	logger.Debug("Attempting login", "email", email)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(LoginRequest{Email: email, Password: password}).
		Post("/auth/login")

	var out AuthResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}

	logger.Debug("Login successful", "email", email)
	return &out, nil
}

// ForgotPassword requests a password reset code by email
func (c *Client) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	logger.Debug("Requesting password reset", "email", email)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"email": email}).
		Post("/auth/forgot-password")

	var out MessageResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword sets a new password using the emailed code
func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*MessageResponse, error) {
	logger.Debug("Resetting password", "email", req.Email)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/auth/reset-password")

	var out MessageResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
