package handlers

import (
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/imagenwiz/backend/internal/catalog"
	"github.com/imagenwiz/backend/internal/dto"
	"github.com/imagenwiz/backend/internal/middleware"
	"github.com/imagenwiz/backend/internal/payments"
	"github.com/imagenwiz/backend/internal/services"
	"github.com/imagenwiz/backend/internal/validation"
	"github.com/stripe/stripe-go/v76"
)

type BillingHandler struct {
	creditService *services.CreditService
	provider      payments.Provider
	catalog       *catalog.Catalog
}

func NewBillingHandler(creditService *services.CreditService, provider payments.Provider, cat *catalog.Catalog) *BillingHandler {
	return &BillingHandler{
		creditService: creditService,
		provider:      provider,
		catalog:       cat,
	}
}

// ListPackages handles GET /packages (public).
func (h *BillingHandler) ListPackages(c *fiber.Ctx) error {
	pkgs := h.catalog.All()
	resp := make([]dto.PackageResponse, len(pkgs))
	for i, p := range pkgs {
		resp[i] = dto.PackageResponse{
			ID:         p.ID,
			Name:       p.Name,
			PriceCents: p.PriceCents,
			Credits:    p.Credits,
			Currency:   p.Currency,
		}
	}
	return c.JSON(fiber.Map{"packages": resp})
}

// CreateCheckout handles POST /payments/checkout.
func (h *BillingHandler) CreateCheckout(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.CheckoutRequest
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

	pkg := h.catalog.Get(req.PackageID)
	if pkg == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Unknown package: " + req.PackageID,
		})
	}

	sess, err := h.provider.CreateCheckoutSession(c.Context(), &payments.CheckoutParams{
		UserID:     userID,
		Package:    pkg,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		slog.Error("checkout session creation failed", "user_id", userID, "package", pkg.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create checkout session",
		})
	}

	return c.JSON(dto.CheckoutResponse{SessionID: sess.ID, CheckoutURL: sess.URL})
}

// HandleWebhook handles POST /payments/webhook. The raw body and
// Stripe-Signature header go straight to signature verification; a bad
// signature is terminal with no state change. Crediting is idempotent per
// session id, so Stripe's at-least-once redelivery is safe to ack again.
func (h *BillingHandler) HandleWebhook(c *fiber.Ctx) error {
	event, err := h.provider.VerifyWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		slog.Warn("webhook signature verification failed", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook signature",
		})
	}

	if event.Type == "checkout.session.completed" {
		if err := h.handleCheckoutCompleted(event); err != nil {
			slog.Error("webhook processing failed", "event_id", event.ID, "error", err)
			// Non-2xx makes Stripe redeliver; the dedupe check absorbs it.
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to process webhook event",
			})
		}
		slog.Info("webhook processed", "event_id", event.ID, "event_type", event.Type)
	}

	return c.JSON(fiber.Map{"received": true})
}

func (h *BillingHandler) handleCheckoutCompleted(event *stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return err
	}

	userID, err := uuid.Parse(sess.ClientReferenceID)
	if err != nil {
		return err
	}

	credits, err := strconv.Atoi(sess.Metadata[payments.MetaCredits])
	if err != nil {
		return err
	}

	return h.creditService.RecordPurchase(&services.PurchaseParams{
		UserID:        userID,
		SessionID:     sess.ID,
		Credits:       credits,
		AmountCents:   sess.AmountTotal,
		Currency:      string(sess.Currency),
		PaymentStatus: string(sess.PaymentStatus),
		PackageID:     sess.Metadata[payments.MetaPackageID],
	})
}

// Balance handles GET /credits/balance.
func (h *BillingHandler) Balance(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	credits, err := h.creditService.Balance(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch balance",
		})
	}

	return c.JSON(dto.BalanceResponse{Credits: credits})
}

// History handles GET /credits/history.
func (h *BillingHandler) History(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	limit, offset := pagination(c)
	entries, total, err := h.creditService.History(userID, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch history",
		})
	}

	resp := make([]dto.TransactionResponse, len(entries))
	for i, t := range entries {
		resp[i] = dto.TransactionResponse{
			ID:            t.ID,
			Type:          t.Type,
			Credits:       t.Credits,
			AmountCents:   t.AmountCents,
			Currency:      t.Currency,
			PaymentStatus: t.PaymentStatus,
			Description:   t.Description,
			CreatedAt:     t.CreatedAt,
		}
	}

	return c.JSON(dto.HistoryResponse{Transactions: resp, Total: total})
}
