package models

// Customer owns an ordered set of cards and any number of subscriptions.
type Customer struct {
	ID            string               `json:"id"`
	Object        string               `json:"object"`
	Balance       int64                `json:"balance"`
	Created       int64                `json:"created"`
	Currency      *string              `json:"currency"`
	DefaultSource *string              `json:"default_source"`
	Delinquent    bool                 `json:"delinquent"`
	Description   *string              `json:"description"`
	Email         *string              `json:"email"`
	Livemode      bool                 `json:"livemode"`
	Metadata      map[string]string    `json:"metadata"`
	Name          *string              `json:"name"`
	Phone         *string              `json:"phone"`
	Sources       *List[*Card]         `json:"sources,omitempty"`
	Subscriptions *List[*Subscription] `json:"subscriptions,omitempty"`

	// SourceIDs are the attached card ids in attachment order.
	SourceIDs []string `json:"-"`
}

func (c *Customer) GetID() string     { return c.ID }
func (c *Customer) GetCreated() int64 { return c.Created }

// Card is a payment card, either attached to a customer or embedded in a
// token or charge.
type Card struct {
	ID                 string            `json:"id"`
	Object             string            `json:"object"`
	AddressCity        *string           `json:"address_city"`
	AddressCountry     *string           `json:"address_country"`
	AddressLine1       *string           `json:"address_line1"`
	AddressLine2       *string           `json:"address_line2"`
	AddressState       *string           `json:"address_state"`
	AddressZip         *string           `json:"address_zip"`
	Brand              string            `json:"brand"`
	Country            string            `json:"country"`
	Customer           *string           `json:"customer"`
	CvcCheck           *string           `json:"cvc_check"`
	ExpMonth           int64             `json:"exp_month"`
	ExpYear            int64             `json:"exp_year"`
	Fingerprint        string            `json:"fingerprint"`
	Funding            string            `json:"funding"`
	Last4              string            `json:"last4"`
	Metadata           map[string]string `json:"metadata"`
	Name               *string           `json:"name"`
	TokenizationMethod *string           `json:"tokenization_method"`

	// Created only orders cards inside the store.
	Created int64 `json:"-"`
	// Behavior names the magic token whose side effects the card carries.
	Behavior string `json:"-"`
}

func (c *Card) GetID() string     { return c.ID }
func (c *Card) GetCreated() int64 { return c.Created }

// Token is a single-use card token created from raw card details.
type Token struct {
	ID       string  `json:"id"`
	Object   string  `json:"object"`
	Card     *Card   `json:"card"`
	ClientIP *string `json:"client_ip"`
	Created  int64   `json:"created"`
	Livemode bool    `json:"livemode"`
	Type     string  `json:"type"`
	Used     bool    `json:"used"`
}

func (t *Token) GetID() string     { return t.ID }
func (t *Token) GetCreated() int64 { return t.Created }
