package controller

import (
	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/serverutils"
	"ai-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPaymentController interface {
	RegisterRoutes(api fiber.Router, jwtMiddleware, tenantMiddleware fiber.Handler)
	GetPlans(ctx *fiber.Ctx) error
	Checkout(ctx *fiber.Ctx) error
	Verify(ctx *fiber.Ctx) error
}

type paymentController struct {
	service service.IPaymentService
}

func NewPaymentController(service service.IPaymentService) IPaymentController {
	return &paymentController{service: service}
}

func (c *paymentController) RegisterRoutes(api fiber.Router, jwtMiddleware, tenantMiddleware fiber.Handler) {
	h := api.Group("/payment")
	h.Get("/plans", c.GetPlans)

	// Protected Routes
	h.Post("/checkout", jwtMiddleware, tenantMiddleware, c.Checkout)
	h.Post("/verify", jwtMiddleware, tenantMiddleware, c.Verify)
}

func (c *paymentController) GetPlans(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success fetching plans", c.service.Plans()))
}

func (c *paymentController) Checkout(ctx *fiber.Ctx) error {
	tc, err := serverutils.GetTenant(ctx)
	if err != nil {
		return err
	}

	var req dto.CheckoutRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.Validation("", "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Checkout(ctx.UserContext(), tc, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Checkout created", res))
}

func (c *paymentController) Verify(ctx *fiber.Ctx) error {
	tc, err := serverutils.GetTenant(ctx)
	if err != nil {
		return err
	}

	var req dto.VerifyPaymentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.Validation("", "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Verify(ctx.UserContext(), tc, &req)
	if err != nil {
		return err
	}

	message := "Payment verified"
	if !res.Activated {
		message = "Payment recorded, activation pending"
	}
	return ctx.JSON(serverutils.SuccessResponse(message, res))
}
