package dto

import "github.com/google/uuid"

type CheckoutRequest struct {
	PlanId string `json:"plan_id" validate:"required,oneof=basic_monthly pro_monthly ultra_monthly pro_yearly ultra_yearly"`
}

type CheckoutResponse struct {
	OrderId     uuid.UUID `json:"order_id"`
	PlanId      string    `json:"plan_id"`
	Amount      int64     `json:"amount"`
	Token       string    `json:"token"`
	RedirectURL string    `json:"redirect_url"`
}

type VerifyPaymentRequest struct {
	OrderId   uuid.UUID `json:"order_id" validate:"required"`
	PaymentId string    `json:"payment_id" validate:"required,max=128"`
	Signature string    `json:"signature" validate:"required,hexadecimal"`
}

// VerifyPaymentResponse reports Activated false when the payment was recorded
// but the account could not be switched yet. The reconciler finishes it.
type VerifyPaymentResponse struct {
	OrderId   uuid.UUID       `json:"order_id"`
	Activated bool            `json:"activated"`
	Access    *AccessResponse `json:"access"`
}
