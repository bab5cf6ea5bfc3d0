package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/imagenwiz/backend/internal/catalog"
	"github.com/imagenwiz/backend/internal/config"
	"github.com/imagenwiz/backend/internal/database"
	"github.com/imagenwiz/backend/internal/dto"
	"github.com/imagenwiz/backend/internal/handlers"
	"github.com/imagenwiz/backend/internal/models"
	"github.com/imagenwiz/backend/internal/payments"
	"github.com/imagenwiz/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubProvider struct{}

func (stubProvider) CreateCheckoutSession(_ context.Context, p *payments.CheckoutParams) (*payments.CheckoutSession, error) {
	return &payments.CheckoutSession{
		ID:  "cs_test_stub",
		URL: "https://checkout.test/" + p.Package.ID,
	}, nil
}

func (stubProvider) VerifyWebhook(_ []byte, _ string) (*stripe.Event, error) {
	return nil, fmt.Errorf("signature verification failed")
}

type stubStore struct{}

func (stubStore) PresignUpload(_ context.Context, key string) (string, error) {
	return "https://s3.test/put/" + key, nil
}

func (stubStore) PresignDownload(_ context.Context, key string) (string, error) {
	return "https://s3.test/get/" + key, nil
}

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB, *config.Config) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.RefreshToken{},
		&models.Transaction{},
		&models.Image{},
	))

	// The health check pings through the package-level handle.
	database.DB = db

	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  time.Hour,
		JWTRefreshExpiry: 24 * time.Hour,
		SignupCredits:    3,
		CreditsPerImage:  1,
		InternalToken:    "internal-secret",
	}

	authService := services.NewAuthService(db, cfg)
	creditService := services.NewCreditService(db)
	imageService := services.NewImageService(db, creditService, stubStore{}, cfg)
	userService := services.NewUserService(db)

	app := fiber.New()
	Setup(app, cfg, db,
		handlers.NewAuthHandler(authService),
		handlers.NewHealthHandler(),
		handlers.NewBillingHandler(creditService, stubProvider{}, catalog.Default()),
		handlers.NewImageHandler(imageService),
		handlers.NewUserHandler(userService),
		handlers.NewAdminHandler(userService, creditService),
	)
	return app, db, cfg
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func register(t *testing.T, app *fiber.App, username string) dto.AuthResponse {
	t.Helper()
	resp, body := doJSON(t, app, "POST", "/api/auth/register", "", fiber.Map{
		"username": username,
		"password": "correct-horse",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))

	var auth dto.AuthResponse
	require.NoError(t, json.Unmarshal(body, &auth))
	return auth
}

func TestHealth(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, body := doJSON(t, app, "GET", "/api/health", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)
}

func TestAuthFlow(t *testing.T) {
	app, _, _ := newTestApp(t)

	auth := register(t, app, "alice")
	assert.NotEmpty(t, auth.AccessToken)
	assert.Equal(t, 3, auth.User.Credits)

	// Duplicate username
	resp, _ := doJSON(t, app, "POST", "/api/auth/register", "", fiber.Map{
		"username": "alice",
		"password": "correct-horse",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// Login
	resp, body := doJSON(t, app, "POST", "/api/auth/login", "", fiber.Map{
		"username": "alice",
		"password": "correct-horse",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var login dto.AuthResponse
	require.NoError(t, json.Unmarshal(body, &login))

	// Authenticated profile read
	resp, body = doJSON(t, app, "GET", "/api/users/me", login.AccessToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"alice"`)

	// No token
	resp, _ = doJSON(t, app, "GET", "/api/users/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Wrong signing key
	resp, _ = doJSON(t, app, "GET", "/api/users/me", "not-a-jwt", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCheckoutRequiresAuth(t *testing.T) {
	app, _, _ := newTestApp(t)
	auth := register(t, app, "alice")

	checkout := fiber.Map{
		"package_id":  "standard",
		"success_url": "https://app.test/success",
		"cancel_url":  "https://app.test/cancel",
	}

	resp, _ := doJSON(t, app, "POST", "/api/payments/checkout", "", checkout)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, body := doJSON(t, app, "POST", "/api/payments/checkout", auth.AccessToken, checkout)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), "cs_test_stub")

	// Unknown package
	checkout["package_id"] = "enterprise"
	resp, _ = doJSON(t, app, "POST", "/api/payments/checkout", auth.AccessToken, checkout)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestWebhookRejectedWithoutValidSignature(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, _ := doJSON(t, app, "POST", "/api/payments/webhook", "", fiber.Map{"type": "checkout.session.completed"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAdminAccess(t *testing.T) {
	app, db, _ := newTestApp(t)
	auth := register(t, app, "alice")

	resp, _ := doJSON(t, app, "GET", "/api/admin/users", auth.AccessToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Role comes from the database, not the token, so promoting the row
	// grants access to the already-issued token.
	require.NoError(t, db.Model(&models.User{}).
		Where("id = ?", auth.User.ID).
		UpdateColumn("role", models.RoleAdmin).Error)

	resp, body := doJSON(t, app, "GET", "/api/admin/users", auth.AccessToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"alice"`)

	resp, body = doJSON(t, app, "GET", "/api/admin/reconcile/"+auth.User.ID.String(), auth.AccessToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"consistent":true`)
}

func TestImageJobLifecycle(t *testing.T) {
	app, _, _ := newTestApp(t)
	auth := register(t, app, "alice")

	// Presigned upload slot
	resp, body := doJSON(t, app, "POST", "/api/images/uploads", auth.AccessToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

	var upload dto.UploadURLResponse
	require.NoError(t, json.Unmarshal(body, &upload))
	assert.NotEmpty(t, upload.Key)
	assert.NotEmpty(t, upload.UploadURL)

	// Create the job (3 signup credits cover it)
	resp, body = doJSON(t, app, "POST", "/api/images", auth.AccessToken, fiber.Map{
		"original_key": upload.Key,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))

	var image dto.ImageResponse
	require.NoError(t, json.Unmarshal(body, &image))
	assert.Equal(t, models.ImageStatusPending, image.Status)

	// Balance dropped by one
	resp, body = doJSON(t, app, "GET", "/api/credits/balance", auth.AccessToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"credits":2`)

	// Processing backend reports completion
	resultPath := "/api/internal/images/" + image.ID.String() + "/result"
	result := fiber.Map{"status": "completed", "processed_key": "results/out.png"}

	req := httptest.NewRequest("POST", resultPath, jsonBody(t, result))
	req.Header.Set("Content-Type", "application/json")
	httpResp, err := app.Test(req, 5000)
	require.NoError(t, err)
	httpResp.Body.Close()
	assert.Equal(t, fiber.StatusUnauthorized, httpResp.StatusCode, "callback requires the shared token")

	req = httptest.NewRequest("POST", resultPath, jsonBody(t, result))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-Token", "internal-secret")
	httpResp, err = app.Test(req, 5000)
	require.NoError(t, err)
	httpResp.Body.Close()
	require.Equal(t, fiber.StatusOK, httpResp.StatusCode)

	// Owner sees the completed job with a download URL
	resp, body = doJSON(t, app, "GET", "/api/images/"+image.ID.String(), auth.AccessToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"completed"`)
	assert.Contains(t, string(body), "https://s3.test/get/results/out.png")

	// Another user cannot read it
	other := register(t, app, "mallory")
	resp, _ = doJSON(t, app, "GET", "/api/images/"+image.ID.String(), other.AccessToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Delete, then it is gone
	resp, _ = doJSON(t, app, "DELETE", "/api/images/"+image.ID.String(), auth.AccessToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/api/images/"+image.ID.String(), auth.AccessToken, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestInsufficientCreditsIsPaymentRequired(t *testing.T) {
	app, db, _ := newTestApp(t)
	auth := register(t, app, "alice")

	require.NoError(t, db.Model(&models.User{}).
		Where("id = ?", auth.User.ID).
		UpdateColumn("credits", 0).Error)

	resp, _ := doJSON(t, app, "POST", "/api/images", auth.AccessToken, fiber.Map{
		"original_key": "uploads/orig.png",
	})
	assert.Equal(t, fiber.StatusPaymentRequired, resp.StatusCode)
}

func TestProfileRoundTrip(t *testing.T) {
	app, _, _ := newTestApp(t)
	auth := register(t, app, "alice")

	resp, body := doJSON(t, app, "PUT", "/api/profile", auth.AccessToken, fiber.Map{
		"full_name": "Alice Doe",
		"email":     "alice@example.com",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

	resp, body = doJSON(t, app, "GET", "/api/profile", auth.AccessToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Alice Doe")
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}
