package models

const (
	AccountTypeStandard = "standard"
	AccountTypeCustom   = "custom"
	AccountTypeExpress  = "express"
)

// DefaultAccountID is the platform account every request acts on unless it
// names a connected account.
const DefaultAccountID = "acct_default"

// Account is either the platform account or a Connect account created by it.
type Account struct {
	ID               string            `json:"id"`
	Object           string            `json:"object"`
	BusinessType     *string           `json:"business_type"`
	ChargesEnabled   bool              `json:"charges_enabled"`
	Country          string            `json:"country"`
	Created          int64             `json:"created"`
	DefaultCurrency  string            `json:"default_currency"`
	DetailsSubmitted bool              `json:"details_submitted"`
	Email            *string           `json:"email"`
	Livemode         bool              `json:"livemode"`
	Metadata         map[string]string `json:"metadata"`
	PayoutsEnabled   bool              `json:"payouts_enabled"`
	Settings         map[string]any    `json:"settings"`
	Type             string            `json:"type"`
}

func (a *Account) GetID() string     { return a.ID }
func (a *Account) GetCreated() int64 { return a.Created }
