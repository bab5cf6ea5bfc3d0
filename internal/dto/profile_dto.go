package dto

import "time"

type UpdateProfileRequest struct {
	FullName  string `json:"full_name" validate:"omitempty,max=255"`
	Email     string `json:"email" validate:"omitempty,email,max=255"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url,max=512"`
}

type ProfileResponse struct {
	FullName  string    `json:"full_name,omitempty"`
	Email     string    `json:"email,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
