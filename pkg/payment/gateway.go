// Package payment creates hosted checkouts and verifies payment callbacks.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"ai-chatbot-be/pkg/entitlement"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

var ErrCheckoutFailed = errors.New("payment: checkout creation failed")

type CheckoutRequest struct {
	OrderId   uuid.UUID
	Plan      entitlement.Plan
	Email     string
	FinishURL string
}

type Checkout struct {
	OrderId     uuid.UUID `json:"order_id"`
	Token       string    `json:"token"`
	RedirectURL string    `json:"redirect_url"`
}

// Gateway is the payment provider as seen by the payment service.
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	// VerifySignature checks the HMAC-SHA256 of "orderId|paymentId".
	VerifySignature(orderId, paymentId, signature string) bool
}

type snapClient interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

type MidtransGateway struct {
	client          snapClient
	signatureSecret []byte
}

func NewMidtransGateway(serverKey string, production bool, signatureSecret string) *MidtransGateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	var client snap.Client
	client.New(serverKey, env)

	return &MidtransGateway{
		client:          &client,
		signatureSecret: []byte(signatureSecret),
	}
}

func (g *MidtransGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderId.String(),
			GrossAmt: req.Plan.Price,
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			Email: req.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    req.Plan.Id,
				Price: req.Plan.Price,
				Qty:   1,
				Name:  req.Plan.Name,
			},
		},
		EnabledPayments: snap.AllSnapPaymentType,
	}
	if req.FinishURL != "" {
		snapReq.Callbacks = &snap.Callbacks{Finish: req.FinishURL}
	}

	resp, midErr := g.client.CreateTransaction(snapReq)
	if midErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrCheckoutFailed, midErr.GetMessage())
	}

	return &Checkout{
		OrderId:     req.OrderId,
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}

func (g *MidtransGateway) VerifySignature(orderId, paymentId, signature string) bool {
	return Verify(g.signatureSecret, orderId, paymentId, signature)
}

// Sign returns the hex HMAC-SHA256 of "orderId|paymentId".
func Sign(secret []byte, orderId, paymentId string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(orderId + "|" + paymentId))
	return hex.EncodeToString(mac.Sum(nil))
}

func Verify(secret []byte, orderId, paymentId, signature string) bool {
	if len(secret) == 0 || signature == "" {
		return false
	}
	expected, err := hex.DecodeString(Sign(secret, orderId, paymentId))
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}
