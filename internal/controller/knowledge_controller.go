package controller

import (
	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/serverutils"
	"ai-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IKnowledgeController interface {
	RegisterRoutes(api fiber.Router, jwtMiddleware, tenantMiddleware fiber.Handler)
	List(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
}

type knowledgeController struct {
	service service.IKnowledgeService
}

func NewKnowledgeController(service service.IKnowledgeService) IKnowledgeController {
	return &knowledgeController{service: service}
}

func (c *knowledgeController) RegisterRoutes(api fiber.Router, jwtMiddleware, tenantMiddleware fiber.Handler) {
	h := api.Group("/knowledge", jwtMiddleware, tenantMiddleware)
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Get("/search", c.Search)
	h.Put("/:id", c.Update)
	h.Delete("/:id", c.Delete)
}

// List and Delete stay open after a subscription lapses so owners can
// still see and remove their data.
func (c *knowledgeController) List(ctx *fiber.Ctx) error {
	tc, err := serverutils.GetTenant(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), entity.ScopeFromTenant(tc))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all knowledge", res))
}

func (c *knowledgeController) Create(ctx *fiber.Ctx) error {
	tc, err := paidTenant(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateKnowledgeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.Validation("", "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), entity.ScopeFromTenant(tc), tc.Tier, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create knowledge", res))
}

func (c *knowledgeController) Update(ctx *fiber.Ctx) error {
	tc, err := paidTenant(ctx)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errs.ErrAccessDenied
	}

	var req dto.UpdateKnowledgeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.Validation("", "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.UserContext(), entity.ScopeFromTenant(tc), id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update knowledge", res))
}

func (c *knowledgeController) Delete(ctx *fiber.Ctx) error {
	tc, err := serverutils.GetTenant(ctx)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errs.ErrAccessDenied
	}

	if err := c.service.Delete(ctx.UserContext(), entity.ScopeFromTenant(tc), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete knowledge", nil))
}

func (c *knowledgeController) Search(ctx *fiber.Ctx) error {
	tc, err := paidTenant(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Search(ctx.UserContext(), entity.ScopeFromTenant(tc), ctx.Query("q"), ctx.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success search knowledge", res))
}

// paidTenant returns the tenant only when it has paid or trial access.
func paidTenant(ctx *fiber.Ctx) (*entity.TenantContext, error) {
	tc, err := serverutils.GetTenant(ctx)
	if err != nil {
		return nil, err
	}
	if !tc.HasAccess {
		return nil, errs.ErrUpgradeRequired
	}
	return tc, nil
}
