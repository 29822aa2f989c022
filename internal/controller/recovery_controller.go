package controller

import (
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/serverutils"
	"ai-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const adminKeyHeader = "X-Admin-Key"

type IRecoveryController interface {
	RegisterRoutes(api fiber.Router)
	Run(ctx *fiber.Ctx) error
}

type recoveryController struct {
	service service.IRecoveryService
	keyHash []byte
}

// NewRecoveryController takes the bcrypt hash of the operator key. An empty
// hash disables the endpoint.
func NewRecoveryController(service service.IRecoveryService, keyHash string) IRecoveryController {
	return &recoveryController{service: service, keyHash: []byte(keyHash)}
}

func (c *recoveryController) RegisterRoutes(api fiber.Router) {
	h := api.Group("/admin/recovery", c.adminKeyMiddleware)
	h.Post("/run", c.Run)
}

func (c *recoveryController) adminKeyMiddleware(ctx *fiber.Ctx) error {
	key := ctx.Get(adminKeyHeader)
	if key == "" {
		return errs.ErrUnauthenticated
	}
	if len(c.keyHash) == 0 || bcrypt.CompareHashAndPassword(c.keyHash, []byte(key)) != nil {
		return errs.ErrAccessDenied
	}
	return ctx.Next()
}

func (c *recoveryController) Run(ctx *fiber.Ctx) error {
	res, err := c.service.Run(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Recovery run finished", res))
}
