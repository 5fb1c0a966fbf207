package checkout

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/matthieuvidal/fermelink-backend/pkg/square"
)

// PaymentGateway abstracts the card payment provider for the intent bridge.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, amount decimal.Decimal, sourceID, referenceID string) (providerID string, err error)
}

type squareGateway struct {
	client *square.Client
}

// NewSquareGateway adapts the Square client to the checkout gateway.
func NewSquareGateway(client *square.Client) PaymentGateway {
	return &squareGateway{client: client}
}

func (g *squareGateway) CreatePayment(ctx context.Context, amount decimal.Decimal, sourceID, referenceID string) (string, error) {
	payment, err := g.client.CreatePayment(ctx, square.PaymentCreateParams{
		Amount:      amount,
		SourceID:    sourceID,
		ReferenceID: referenceID,
		Note:        "fermelink order payment",
	})
	if err != nil {
		return "", err
	}
	if payment == nil || payment.ID == nil {
		return "", nil
	}
	return *payment.ID, nil
}
