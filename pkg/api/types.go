package api

import (
	"time"

	json "github.com/json-iterator/go"
)

// ImageRef is an image URL. The backend sometimes stores avatars as
// {"public_id": ..., "url": ...}, so both shapes decode into the URL.
type ImageRef string

func (r *ImageRef) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*r = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = ImageRef(s)
		return nil
	}
	var obj struct {
		URL       string `json:"url"`
		SecureURL string `json:"secure_url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.SecureURL != "" {
		*r = ImageRef(obj.SecureURL)
	} else {
		*r = ImageRef(obj.URL)
	}
	return nil
}

// Auth types
type SignupRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	ProfileImage string `json:"profileImage,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type OTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
}

// MessageResponse is the bare {success, message} envelope
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type User struct {
	MongoID      string    `json:"_id,omitempty"`
	ID           string    `json:"id,omitempty"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ProfileImage ImageRef  `json:"profileImage,omitempty"`
	Avatar       ImageRef  `json:"avatar,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	IsVerified   bool      `json:"isVerified,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty"`
}

// Key returns the server identifier regardless of which field carried it
func (u *User) Key() string {
	if u.ID != "" {
		return u.ID
	}
	return u.MongoID
}

// Image returns the avatar URL regardless of which field carried it
func (u *User) Image() string {
	if u.ProfileImage != "" {
		return string(u.ProfileImage)
	}
	return string(u.Avatar)
}

type UserResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	User    User   `json:"user"`
}

// UpdateProfileRequest only carries changed fields
type UpdateProfileRequest struct {
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Bio          string `json:"bio,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Portfolio types
type Creator struct {
	Name   string   `json:"name"`
	Avatar ImageRef `json:"avatar,omitempty"`
}

type Portfolio struct {
	MongoID       string    `json:"_id,omitempty"`
	ID            string    `json:"id,omitempty"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	ThumbnailURL  string    `json:"thumbnailUrl"`
	ImageURLs     []string  `json:"imageUrls"`
	Category      string    `json:"category"`
	Preview       string    `json:"preview,omitempty"`
	Source        string    `json:"source,omitempty"`
	CreatorID     string    `json:"creatorId,omitempty"`
	Creator       Creator   `json:"creator"`
	LikesCount    int       `json:"likesCount"`
	ViewsCount    int       `json:"viewsCount"`
	IsLikedByUser bool      `json:"isLikedByUser,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}

// Key returns the server identifier regardless of which field carried it
func (p *Portfolio) Key() string {
	if p.ID != "" {
		return p.ID
	}
	return p.MongoID
}

func (p *Portfolio) normalize() {
	if p.ID == "" {
		p.ID = p.MongoID
	}
}

type PortfolioResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Data    Portfolio `json:"data"`
}

// ListQuery mirrors the list endpoint's query parameters
type ListQuery struct {
	Page        int
	Limit       int
	Category    string
	SortBy      string
	SearchQuery string
}

type PortfolioListResponse struct {
	Success     bool        `json:"success"`
	Data        []Portfolio `json:"data"`
	TotalCount  int         `json:"totalCount,omitempty"`
	CurrentPage int         `json:"currentPage,omitempty"`
	TotalPages  int         `json:"totalPages,omitempty"`
	HasNextPage bool        `json:"hasNextPage,omitempty"`
}

// PortfolioInput is the create/update body
type PortfolioInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Category     string   `json:"category"`
	ThumbnailURL string   `json:"thumbnailUrl"`
	ImageURLs    []string `json:"imageUrls"`
	Preview      string   `json:"preview"`
	Source       string   `json:"source"`
	CreatorID    string   `json:"creatorId,omitempty"`
	Creator      *Creator `json:"creator,omitempty"`
}

// LikeResult is the authoritative like state after a toggle. Older
// backends wrap it in {"data": {"likesCount", "isLiked"}}.
type LikeResult struct {
	LikesCount    int         `json:"likesCount"`
	IsLikedByUser bool        `json:"isLikedByUser"`
	IsLiked       *bool       `json:"isLiked,omitempty"`
	Data          *LikeResult `json:"data,omitempty"`
}

func (l LikeResult) normalize() LikeResult {
	if l.Data != nil {
		return l.Data.normalize()
	}
	out := LikeResult{LikesCount: l.LikesCount, IsLikedByUser: l.IsLikedByUser}
	if l.IsLiked != nil {
		out.IsLikedByUser = *l.IsLiked
	}
	return out
}

// Profile is the logged-in user's record with their portfolios
type Profile struct {
	User
	Portfolios []Portfolio `json:"portfolios"`
}

// TotalLikes sums likes across the user's portfolios
func (p *Profile) TotalLikes() int {
	total := 0
	for _, pf := range p.Portfolios {
		total += pf.LikesCount
	}
	return total
}

// TotalViews sums views across the user's portfolios
func (p *Profile) TotalViews() int {
	total := 0
	for _, pf := range p.Portfolios {
		total += pf.ViewsCount
	}
	return total
}

// UploadedImage is the image host's upload response
type UploadedImage struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	PublicID  string `json:"public_id"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Format    string `json:"format,omitempty"`
	Bytes     int64  `json:"bytes,omitempty"`
}

// Location prefers the https URL
func (u *UploadedImage) Location() string {
	if u.SecureURL != "" {
		return u.SecureURL
	}
	return u.URL
}

type AvatarUploadResponse struct {
	Message  string   `json:"message"`
	ImageURL ImageRef `json:"ImageUrl"`
}
