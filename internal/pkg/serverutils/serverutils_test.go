package serverutils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type stubResolver struct {
	tc  *entity.TenantContext
	err error
}

func (s stubResolver) Resolve(ctx context.Context, identity *entity.Identity) (*entity.TenantContext, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tc, nil
}

func signToken(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger.NewNopLogger())})
	app.Get("/", handlers...)
	return app
}

func decode(t *testing.T, body io.Reader) BaseResponse {
	t.Helper()
	var res BaseResponse
	require.NoError(t, json.NewDecoder(body).Decode(&res))
	return res
}

func TestJwtMiddlewareExtractsIdentity(t *testing.T) {
	userId := uuid.New()
	app := newApp(JwtMiddleware(testSecret), func(ctx *fiber.Ctx) error {
		identity, err := GetIdentity(ctx)
		if err != nil {
			return err
		}
		return ctx.JSON(SuccessResponse("ok", fiber.Map{"user_id": identity.UserId.String(), "email": identity.Email}))
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userId.String(),
		"email": "owner@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	res := decode(t, resp.Body)
	data := res.Data.(map[string]interface{})
	assert.Equal(t, userId.String(), data["user_id"])
	assert.Equal(t, "owner@example.com", data["email"])
}

func TestJwtMiddlewareRejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"expired", "Bearer " + signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": uuid.NewString(),
			"exp": time.Now().Add(-time.Minute).Unix(),
		})},
		{"subject not a uuid", "Bearer " + signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"})},
		{"missing subject", "Bearer " + signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"email": "a@example.com"})},
		{"wrong algorithm", "Bearer " + signToken(t, jwt.SigningMethodHS512, jwt.MapClaims{"sub": uuid.NewString()})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(JwtMiddleware(testSecret), func(ctx *fiber.Ctx) error {
				return ctx.SendStatus(fiber.StatusOK)
			})
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "UNAUTHENTICATED", decode(t, resp.Body).Error.Code)
		})
	}
}

func TestTenantMiddlewareStoresContext(t *testing.T) {
	tc := &entity.TenantContext{UserId: uuid.New(), WorkspaceId: uuid.New(), Tier: entity.TierPro}
	app := newApp(
		JwtMiddleware(testSecret),
		TenantMiddleware(stubResolver{tc: tc}),
		func(ctx *fiber.Ctx) error {
			got, err := GetTenant(ctx)
			if err != nil {
				return err
			}
			return ctx.SendString(got.WorkspaceId.String())
		},
	)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": tc.UserId.String()}))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, tc.WorkspaceId.String(), string(body))
}

func TestErrorHandlerMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{errs.ErrUnauthenticated, 401, "UNAUTHENTICATED"},
		{errs.ErrProfileNotFound, 404, "PROFILE_NOT_FOUND"},
		{errs.ErrNoWorkspace, 409, "NO_WORKSPACE"},
		{fmt.Errorf("chat: %w", errs.ErrAccessDenied), 403, "ACCESS_DENIED"},
		{errs.ErrUpgradeRequired, 402, "UPGRADE_REQUIRED"},
		{&errs.QuotaExceededError{Resource: "messages", Tier: "basic", Limit: 1000, Current: 1000}, 429, "QUOTA_EXCEEDED"},
		{errs.ErrRateLimited, 429, "RATE_LIMITED"},
		{errs.Validation("messages", "must not be empty"), 400, "VALIDATION_ERROR"},
		{errs.Database("account.find", fmt.Errorf("dial tcp: refused")), 500, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			app := newApp(func(ctx *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			res := decode(t, resp.Body)
			assert.False(t, res.Success)
			require.NotNil(t, res.Error)
			assert.Equal(t, tt.code, res.Error.Code)
			if tt.status == 500 {
				assert.NotContains(t, res.Message, "dial tcp")
			}
		})
	}
}

func TestQuotaDetailsAreRendered(t *testing.T) {
	app := newApp(func(ctx *fiber.Ctx) error {
		return &errs.QuotaExceededError{Resource: "documents", Tier: "pro", Limit: 100, Current: 100}
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	res := decode(t, resp.Body)
	details := res.Error.Details.(map[string]interface{})
	assert.Equal(t, "documents", details["resource"])
	assert.Equal(t, "pro", details["tier"])
	assert.Equal(t, float64(100), details["limit"])
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		PlanId string `validate:"required"`
		Name   string `validate:"max=5"`
	}

	err := ValidateRequest(req{Name: "ok"})
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "plan_id", ve.Field)
	assert.Equal(t, "is required", ve.Reason)

	assert.NoError(t, ValidateRequest(req{PlanId: "pro_monthly"}))
}
