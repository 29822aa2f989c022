package controller

import (
	"ai-chatbot-be/internal/pkg/serverutils"
	"ai-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUsageController interface {
	RegisterRoutes(api fiber.Router, jwtMiddleware, tenantMiddleware fiber.Handler)
	Get(ctx *fiber.Ctx) error
}

type usageController struct {
	service service.IUsageService
}

func NewUsageController(service service.IUsageService) IUsageController {
	return &usageController{service: service}
}

func (c *usageController) RegisterRoutes(api fiber.Router, jwtMiddleware, tenantMiddleware fiber.Handler) {
	api.Get("/usage", jwtMiddleware, tenantMiddleware, c.Get)
}

func (c *usageController) Get(ctx *fiber.Ctx) error {
	tc, err := serverutils.GetTenant(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Get(ctx.UserContext(), tc)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get usage", res))
}
