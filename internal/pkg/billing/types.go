package billing

import (
	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/tokens"
)

// chargeRequest is a fully validated charge, shared by charge creation and
// payment intent confirmation.
type chargeRequest struct {
	ID                  string
	Amount              int64
	Currency            string
	Capture             bool
	CustomerID          string
	Source              string
	Description         *string
	Metadata            map[string]string
	PaymentIntent       *string
	ReceiptEmail        *string
	StatementDescriptor *string

	// TokenSource lets Source be a token even when a customer is named,
	// as payment intents allow.
	TokenSource bool
}

// resolvedSource is a card ready to be charged or attached, plus the
// behavior its token carries.
type resolvedSource struct {
	card *models.Card
	def  tokens.Definition
}
