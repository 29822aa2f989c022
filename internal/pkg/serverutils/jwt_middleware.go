package serverutils

import (
	"strings"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/errs"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	identityKey = "identity"
	tenantKey   = "tenant"
)

// JwtMiddleware verifies an HS256 bearer token and stores the caller's
// entity.Identity, taken from the sub and email claims, in ctx.Locals.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return errs.ErrUnauthenticated
		}
		tokenStr := strings.TrimSpace(authHeader[len("Bearer "):])

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return errs.ErrUnauthenticated
		}

		subject, err := token.Claims.GetSubject()
		if err != nil {
			return errs.ErrUnauthenticated
		}
		userId, err := uuid.Parse(subject)
		if err != nil || userId == uuid.Nil {
			return errs.ErrUnauthenticated
		}

		identity := &entity.Identity{UserId: userId}
		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if email, ok := claims["email"].(string); ok {
				identity.Email = email
			}
		}

		ctx.Locals(identityKey, identity)
		return ctx.Next()
	}
}

// GetIdentity returns the identity set by JwtMiddleware.
func GetIdentity(ctx *fiber.Ctx) (*entity.Identity, error) {
	identity, ok := ctx.Locals(identityKey).(*entity.Identity)
	if !ok || identity == nil {
		return nil, errs.ErrUnauthenticated
	}
	return identity, nil
}
