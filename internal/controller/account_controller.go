package controller

import (
	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/serverutils"
	"ai-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAccountController interface {
	RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler)
	Onboard(ctx *fiber.Ctx) error
	Access(ctx *fiber.Ctx) error
	StartTrial(ctx *fiber.Ctx) error
}

type accountController struct {
	service service.IAccountService
}

func NewAccountController(service service.IAccountService) IAccountController {
	return &accountController{service: service}
}

// Account routes only need an identity: onboarding runs before a workspace exists.
func (c *accountController) RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler) {
	h := api.Group("/account", jwtMiddleware)
	h.Post("/onboard", c.Onboard)
	h.Get("/access", c.Access)
	h.Post("/trial", c.StartTrial)
}

func (c *accountController) Onboard(ctx *fiber.Ctx) error {
	identity, err := serverutils.GetIdentity(ctx)
	if err != nil {
		return err
	}

	var req dto.OnboardRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return errs.Validation("", "invalid request body")
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Onboard(ctx.UserContext(), identity, &req)
	if err != nil {
		return err
	}

	status := fiber.StatusOK
	if res.Created {
		status = fiber.StatusCreated
	}
	return ctx.Status(status).JSON(serverutils.SuccessResponse("Success onboard account", res))
}

func (c *accountController) Access(ctx *fiber.Ctx) error {
	identity, err := serverutils.GetIdentity(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Access(ctx.UserContext(), identity)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get access", res))
}

func (c *accountController) StartTrial(ctx *fiber.Ctx) error {
	identity, err := serverutils.GetIdentity(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ActivateTrial(ctx.UserContext(), identity)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Trial started", res))
}
