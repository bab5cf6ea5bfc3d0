package dto

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CreateImageRequest struct {
	OriginalKey string         `json:"original_key" validate:"required,max=512"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
}

type ImageResultRequest struct {
	ProcessedKey string `json:"processed_key" validate:"required_if=Status completed,max=512"`
	Status       string `json:"status" validate:"required,oneof=completed failed"`
}

type ImageResponse struct {
	ID           uuid.UUID      `json:"id"`
	OriginalKey  string         `json:"original_key"`
	ProcessedKey *string        `json:"processed_key,omitempty"`
	ProcessedURL string         `json:"processed_url,omitempty"`
	Status       string         `json:"status"`
	Metadata     datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

type ImageListResponse struct {
	Images []ImageResponse `json:"images"`
	Total  int64           `json:"total"`
}

type UploadURLResponse struct {
	Key       string `json:"key"`
	UploadURL string `json:"upload_url"`
}
