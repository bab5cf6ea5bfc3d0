package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/imagenwiz/backend/internal/config"
	"github.com/imagenwiz/backend/internal/dto"
	"github.com/imagenwiz/backend/internal/models"
	"github.com/imagenwiz/backend/internal/storage"
	"gorm.io/gorm"
)

var (
	ErrImageNotFound = errors.New("image not found")
	ErrNotOwner      = errors.New("not the owner of this image")
)

type ImageService struct {
	db      *gorm.DB
	credits *CreditService
	store   storage.Store
	cfg     *config.Config
}

func NewImageService(db *gorm.DB, credits *CreditService, store storage.Store, cfg *config.Config) *ImageService {
	return &ImageService{db: db, credits: credits, store: store, cfg: cfg}
}

// CreateUpload returns a presigned PUT URL the client uploads the source
// image to. Nothing is persisted until the job is created.
func (s *ImageService) CreateUpload(ctx context.Context, userID uuid.UUID) (string, string, error) {
	key := storage.UploadKey(userID)
	url, err := s.store.PresignUpload(ctx, key)
	if err != nil {
		return "", "", err
	}
	return key, url, nil
}

// CreateJob inserts the pending job and debits the per-image credit cost in
// one transaction; either both happen or neither does.
func (s *ImageService) CreateJob(userID uuid.UUID, req *dto.CreateImageRequest) (*models.Image, error) {
	image := models.Image{
		ID:          uuid.New(),
		UserID:      userID,
		OriginalKey: req.OriginalKey,
		Status:      models.ImageStatusPending,
		Metadata:    req.Metadata,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.credits.DebitTx(tx, userID, s.cfg.CreditsPerImage, "background removal"); err != nil {
			return err
		}
		return tx.Create(&image).Error
	})
	if err != nil {
		return nil, err
	}

	return &image, nil
}

func (s *ImageService) ListJobs(userID uuid.UUID, limit, offset int) ([]models.Image, int64, error) {
	var total int64
	if err := s.db.Model(&models.Image{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var images []models.Image
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&images).Error
	return images, total, err
}

// GetJob enforces ownership: non-admin callers only see their own rows.
func (s *ImageService) GetJob(userID uuid.UUID, isAdmin bool, id uuid.UUID) (*models.Image, error) {
	var image models.Image
	if err := s.db.First(&image, "id = ?", id).Error; err != nil {
		return nil, ErrImageNotFound
	}
	if !isAdmin && image.UserID != userID {
		return nil, ErrNotOwner
	}
	return &image, nil
}

func (s *ImageService) DeleteJob(userID uuid.UUID, isAdmin bool, id uuid.UUID) error {
	image, err := s.GetJob(userID, isAdmin, id)
	if err != nil {
		return err
	}
	return s.db.Delete(image).Error
}

// SetResult records the processing backend's outcome for a pending job.
func (s *ImageService) SetResult(id uuid.UUID, req *dto.ImageResultRequest) (*models.Image, error) {
	var image models.Image
	if err := s.db.First(&image, "id = ?", id).Error; err != nil {
		return nil, ErrImageNotFound
	}

	updates := map[string]interface{}{"status": req.Status}
	if req.Status == models.ImageStatusCompleted {
		updates["processed_key"] = req.ProcessedKey
	}
	if err := s.db.Model(&image).Updates(updates).Error; err != nil {
		return nil, err
	}

	if err := s.db.First(&image, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

// ResultURL returns a presigned GET URL for a completed job's output, or
// "" when there is nothing to fetch yet.
func (s *ImageService) ResultURL(ctx context.Context, image *models.Image) string {
	if image.Status != models.ImageStatusCompleted || image.ProcessedKey == nil {
		return ""
	}
	url, err := s.store.PresignDownload(ctx, *image.ProcessedKey)
	if err != nil {
		slog.Error("failed to presign result url", "image_id", image.ID, "error", err)
		return ""
	}
	return url
}
