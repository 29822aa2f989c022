package controller

import (
	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/serverutils"
	"ai-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(api fiber.Router, jwtMiddleware, tenantMiddleware fiber.Handler)
	Chat(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(api fiber.Router, jwtMiddleware, tenantMiddleware fiber.Handler) {
	api.Post("/chat/:botId", jwtMiddleware, tenantMiddleware, c.Chat)
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	tc, err := serverutils.GetTenant(ctx)
	if err != nil {
		return err
	}

	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.Validation("messages", "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Chat(ctx.UserContext(), tc, ctx.Params("botId"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success chat", res))
}
