package api

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pixelfolio/cli/pkg/logger"
)

// Accepted image extensions for uploads
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".avif": true,
}

// IsImageFile reports whether the path has an accepted image extension
func IsImageFile(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// ImageHost uploads portfolio images to the hosting provider with an
// unsigned upload preset. It uses its own client because the backend's
// bearer token must not leak to a third party.
type ImageHost struct {
	http      *resty.Client
	cloudName string
	preset    string
}

// NewImageHost builds an uploader for {baseURL}/{cloudName}/image/upload
func NewImageHost(c *resty.Client, cloudName, preset string) *ImageHost {
	return &ImageHost{http: c, cloudName: cloudName, preset: preset}
}

// Configured reports whether a cloud name and preset were provided
func (h *ImageHost) Configured() bool {
	return h.cloudName != "" && h.preset != ""
}

// Upload sends one local file and returns its hosted URL
func (h *ImageHost) Upload(ctx context.Context, path string) (string, error) {
	if !h.Configured() {
		return "", fmt.Errorf("image upload is not configured: set upload.cloud_name and upload.preset")
	}
	if !IsImageFile(path) {
		return "", fmt.Errorf("unsupported image type: %s", filepath.Base(path))
	}

	logger.Debug("Uploading image", "file", path)

	resp, err := h.http.R().
		SetContext(ctx).
		SetFile("file", path).
		SetFormData(map[string]string{"upload_preset": h.preset}).
		SetPathParam("cloud", h.cloudName).
		Post("/{cloud}/image/upload")

	var out UploadedImage
	if err := decode(resp, err, &out); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", filepath.Base(path), err)
	}
	if out.Location() == "" {
		return "", fmt.Errorf("failed to upload %s: no URL in response", filepath.Base(path))
	}
	return out.Location(), nil
}

// UploadAvatar sends a profile image to the backend's /upload endpoint
func (c *Client) UploadAvatar(ctx context.Context, path string) (string, error) {
	if !IsImageFile(path) {
		return "", fmt.Errorf("unsupported image type: %s", filepath.Base(path))
	}

	logger.Debug("Uploading avatar", "file", path)

	resp, err := c.http.R().
		SetContext(ctx).
		SetFile("profileImage", path).
		Post("/upload")

	var out AvatarUploadResponse
	if err := decode(resp, err, &out); err != nil {
		return "", fmt.Errorf("image upload failed: %w", err)
	}
	if out.ImageURL == "" {
		return "", fmt.Errorf("image upload failed: no URL in response")
	}
	return string(out.ImageURL), nil
}
