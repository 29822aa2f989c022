package serverutils

import (
	"context"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/errs"

	"github.com/gofiber/fiber/v2"
)

// TenantResolver is satisfied by the tenant service.
type TenantResolver interface {
	Resolve(ctx context.Context, identity *entity.Identity) (*entity.TenantContext, error)
}

// TenantMiddleware must run after JwtMiddleware. Handlers read the workspace
// only through GetTenant.
func TenantMiddleware(resolver TenantResolver) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		identity, err := GetIdentity(ctx)
		if err != nil {
			return err
		}
		tc, err := resolver.Resolve(ctx.UserContext(), identity)
		if err != nil {
			return err
		}
		ctx.Locals(tenantKey, tc)
		return ctx.Next()
	}
}

func GetTenant(ctx *fiber.Ctx) (*entity.TenantContext, error) {
	tc, ok := ctx.Locals(tenantKey).(*entity.TenantContext)
	if !ok || tc == nil {
		return nil, errs.ErrUnauthenticated
	}
	return tc, nil
}
