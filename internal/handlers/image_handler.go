package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/imagenwiz/backend/internal/dto"
	"github.com/imagenwiz/backend/internal/middleware"
	"github.com/imagenwiz/backend/internal/models"
	"github.com/imagenwiz/backend/internal/services"
	"github.com/imagenwiz/backend/internal/validation"
)

type ImageHandler struct {
	imageService *services.ImageService
}

func NewImageHandler(imageService *services.ImageService) *ImageHandler {
	return &ImageHandler{imageService: imageService}
}

// CreateUpload handles POST /images/uploads.
func (h *ImageHandler) CreateUpload(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	key, url, err := h.imageService.CreateUpload(c.Context(), userID)
	if err != nil {
		slog.Error("failed to presign upload url", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create upload URL",
		})
	}

	return c.JSON(dto.UploadURLResponse{Key: key, UploadURL: url})
}

// Create handles POST /images: one pending job, one credit.
func (h *ImageHandler) Create(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.CreateImageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if err := validation.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	image, err := h.imageService.CreateJob(userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientCredits) {
			return c.Status(fiber.StatusPaymentRequired).JSON(dto.ErrorResponse{
				Error: true, Message: "Insufficient credits",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create image job",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(h.toResponse(c, image))
}

// List handles GET /images.
func (h *ImageHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	limit, offset := pagination(c)
	images, total, err := h.imageService.ListJobs(userID, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch images",
		})
	}

	resp := make([]dto.ImageResponse, len(images))
	for i := range images {
		resp[i] = h.toResponse(c, &images[i])
	}

	return c.JSON(dto.ImageListResponse{Images: resp, Total: total})
}

// Get handles GET /images/:id.
func (h *ImageHandler) Get(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid image ID",
		})
	}

	image, err := h.imageService.GetJob(userID, middleware.IsAdmin(c), id)
	if err != nil {
		return h.jobError(c, err)
	}

	return c.JSON(h.toResponse(c, image))
}

// Delete handles DELETE /images/:id.
func (h *ImageHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid image ID",
		})
	}

	if err := h.imageService.DeleteJob(userID, middleware.IsAdmin(c), id); err != nil {
		return h.jobError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Image deleted successfully"})
}

// SetResult handles POST /internal/images/:id/result, called by the
// processing backend (InternalOnly middleware applies).
func (h *ImageHandler) SetResult(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid image ID",
		})
	}

	var req dto.ImageResultRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if err := validation.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	image, err := h.imageService.SetResult(id, &req)
	if err != nil {
		return h.jobError(c, err)
	}

	return c.JSON(h.toResponse(c, image))
}

func (h *ImageHandler) jobError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrImageNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Image not found",
		})
	}
	if errors.Is(err, services.ErrNotOwner) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "You do not own this image",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}

func (h *ImageHandler) toResponse(c *fiber.Ctx, image *models.Image) dto.ImageResponse {
	return dto.ImageResponse{
		ID:           image.ID,
		OriginalKey:  image.OriginalKey,
		ProcessedKey: image.ProcessedKey,
		ProcessedURL: h.imageService.ResultURL(c.Context(), image),
		Status:       image.Status,
		Metadata:     image.Metadata,
		CreatedAt:    image.CreatedAt,
	}
}
