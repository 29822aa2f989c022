package service

import (
	"context"
	"time"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/entitlement"
	"ai-chatbot-be/pkg/payment"

	"github.com/google/uuid"
)

type IPaymentService interface {
	Plans() []entitlement.Plan
	Checkout(ctx context.Context, tc *entity.TenantContext, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	Verify(ctx context.Context, tc *entity.TenantContext, req *dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error)
}

type paymentService struct {
	uowFactory unitofwork.RepositoryFactory
	gateway    payment.Gateway
	activator  ISubscriptionActivator
	logger     logger.ILogger
	finishURL  string
	clock      func() time.Time
}

func NewPaymentService(
	uowFactory unitofwork.RepositoryFactory,
	gateway payment.Gateway,
	activator ISubscriptionActivator,
	logger logger.ILogger,
	clientURL string,
) IPaymentService {
	finishURL := ""
	if clientURL != "" {
		finishURL = clientURL + "/billing?payment=finished"
	}
	return &paymentService{
		uowFactory: uowFactory,
		gateway:    gateway,
		activator:  activator,
		logger:     logger,
		finishURL:  finishURL,
		clock:      time.Now,
	}
}

func (s *paymentService) Plans() []entitlement.Plan {
	return entitlement.Plans()
}

func (s *paymentService) Checkout(ctx context.Context, tc *entity.TenantContext, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	plan, ok := entitlement.PlanByID(req.PlanId)
	if !ok {
		return nil, errs.Validation("plan_id", "unknown plan")
	}

	order := &entity.Order{
		Id:        uuid.New(),
		AccountId: tc.UserId,
		PlanId:    plan.Id,
		Status:    entity.OrderStatusPending,
		CreatedAt: s.clock(),
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.OrderRepository().Create(ctx, order); err != nil {
		return nil, errs.Database("payment.create_order", err)
	}

	checkout, err := s.gateway.CreateCheckout(ctx, payment.CheckoutRequest{
		OrderId:   order.Id,
		Plan:      plan,
		Email:     tc.UserEmail,
		FinishURL: s.finishURL,
	})
	if err != nil {
		s.logger.Error("PAYMENT", "Checkout creation failed", map[string]interface{}{
			"order_id": order.Id.String(),
			"error":    err,
		})
		if markErr := uow.OrderRepository().MarkFailed(context.WithoutCancel(ctx), order.Id); markErr != nil {
			s.logger.Error("PAYMENT", "Failed to mark order failed", map[string]interface{}{
				"order_id": order.Id.String(),
				"error":    markErr,
			})
		}
		return nil, err
	}

	return &dto.CheckoutResponse{
		OrderId:     order.Id,
		PlanId:      plan.Id,
		Amount:      plan.Price,
		Token:       checkout.Token,
		RedirectURL: checkout.RedirectURL,
	}, nil
}

// Verify records the payment first and activates second. If activation fails
// the completed order stays behind for the recovery reconciler.
func (s *paymentService) Verify(ctx context.Context, tc *entity.TenantContext, req *dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error) {
	if !s.gateway.VerifySignature(req.OrderId.String(), req.PaymentId, req.Signature) {
		return nil, errs.Validation("signature", "payment signature does not match")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	order, err := uow.OrderRepository().FindOne(ctx,
		specification.ByID{ID: req.OrderId},
		specification.ByAccountID{AccountID: tc.UserId},
	)
	if err != nil {
		return nil, errs.Database("payment.find_order", err)
	}
	if order == nil {
		return nil, errs.ErrAccessDenied
	}

	switch order.Status {
	case entity.OrderStatusPending, entity.OrderStatusFailed:
		paid, err := uow.OrderRepository().FindOne(ctx, specification.ByPaymentReference{Reference: req.PaymentId})
		if err != nil {
			return nil, errs.Database("payment.find_reference", err)
		}
		if paid != nil && paid.Id != order.Id {
			return nil, errs.Validation("payment_id", "payment already completed another order")
		}
		// the payment record must survive a client disconnect
		if err := uow.OrderRepository().MarkCompleted(context.WithoutCancel(ctx), order.Id, req.PaymentId, s.clock()); err != nil {
			return nil, errs.Database("payment.complete_order", err)
		}
	case entity.OrderStatusCompleted:
		if order.PaymentReference == nil || *order.PaymentReference != req.PaymentId {
			return nil, errs.Validation("payment_id", "order was already paid with another payment")
		}
	}

	res := &dto.VerifyPaymentResponse{OrderId: order.Id}
	if _, err := s.activator.Activate(context.WithoutCancel(ctx), order.Id); err != nil {
		s.logger.Warn("PAYMENT", "Activation deferred to recovery", map[string]interface{}{
			"order_id":   order.Id.String(),
			"account_id": tc.UserId.String(),
			"error":      err,
		})
	} else {
		res.Activated = true
	}

	account, err := uow.AccountRepository().FindOne(ctx, specification.ByID{ID: tc.UserId})
	if err != nil {
		return nil, errs.Database("payment.reload_account", err)
	}
	res.Access = AccessFor(account, s.clock())
	return res, nil
}
