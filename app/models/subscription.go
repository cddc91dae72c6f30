package models

const (
	SubscriptionStatusActive     = "active"
	SubscriptionStatusTrialing   = "trialing"
	SubscriptionStatusPastDue    = "past_due"
	SubscriptionStatusCanceled   = "canceled"
	SubscriptionStatusIncomplete = "incomplete"
	SubscriptionStatusUnpaid     = "unpaid"
)

// Subscription bills a customer periodically for its items.
type Subscription struct {
	ID                 string                   `json:"id"`
	Object             string                   `json:"object"`
	BillingCycleAnchor int64                    `json:"billing_cycle_anchor"`
	CancelAtPeriodEnd  bool                     `json:"cancel_at_period_end"`
	CanceledAt         *int64                   `json:"canceled_at"`
	Created            int64                    `json:"created"`
	CurrentPeriodEnd   int64                    `json:"current_period_end"`
	CurrentPeriodStart int64                    `json:"current_period_start"`
	Customer           string                   `json:"customer"`
	DefaultTaxRates    []*TaxRate               `json:"default_tax_rates"`
	EndedAt            *int64                   `json:"ended_at"`
	Items              *List[*SubscriptionItem] `json:"items"`
	Livemode           bool                     `json:"livemode"`
	Metadata           map[string]string        `json:"metadata"`
	Plan               *Plan                    `json:"plan"`
	Quantity           *int64                   `json:"quantity"`
	StartDate          int64                    `json:"start_date"`
	Status             string                   `json:"status"`
	TrialEnd           *int64                   `json:"trial_end"`
	TrialStart         *int64                   `json:"trial_start"`
}

func (s *Subscription) GetID() string     { return s.ID }
func (s *Subscription) GetCreated() int64 { return s.Created }

// SubscriptionItem is one plan or price line of a subscription.
type SubscriptionItem struct {
	ID           string            `json:"id"`
	Object       string            `json:"object"`
	Created      int64             `json:"created"`
	Metadata     map[string]string `json:"metadata"`
	Plan         *Plan             `json:"plan"`
	Price        *Price            `json:"price"`
	Quantity     int64             `json:"quantity"`
	Subscription string            `json:"subscription"`
	TaxRates     []*TaxRate        `json:"tax_rates"`
}

func (i *SubscriptionItem) GetID() string     { return i.ID }
func (i *SubscriptionItem) GetCreated() int64 { return i.Created }

// CheckoutLineItem is one line of a checkout session.
type CheckoutLineItem struct {
	Amount   *int64  `json:"amount"`
	Currency *string `json:"currency"`
	Name     *string `json:"name"`
	Price    *string `json:"price"`
	Quantity int64   `json:"quantity"`
}

// CheckoutSession is a hosted payment page.
type CheckoutSession struct {
	ID                 string             `json:"id"`
	Object             string             `json:"object"`
	CancelURL          string             `json:"cancel_url"`
	ClientReferenceID  *string            `json:"client_reference_id"`
	Created            int64              `json:"created"`
	Customer           *string            `json:"customer"`
	CustomerEmail      *string            `json:"customer_email"`
	LineItems          []CheckoutLineItem `json:"display_items"`
	Livemode           bool               `json:"livemode"`
	Metadata           map[string]string  `json:"metadata"`
	Mode               string             `json:"mode"`
	PaymentIntent      *string            `json:"payment_intent"`
	PaymentMethodTypes []string           `json:"payment_method_types"`
	PaymentStatus      string             `json:"payment_status"`
	Status             string             `json:"status"`
	Subscription       *string            `json:"subscription"`
	SuccessURL         string             `json:"success_url"`
	URL                string             `json:"url"`
}

func (c *CheckoutSession) GetID() string     { return c.ID }
func (c *CheckoutSession) GetCreated() int64 { return c.Created }

const (
	PaymentIntentRequiresPaymentMethod = "requires_payment_method"
	PaymentIntentRequiresConfirmation  = "requires_confirmation"
	PaymentIntentRequiresCapture       = "requires_capture"
	PaymentIntentSucceeded             = "succeeded"
	PaymentIntentCanceled              = "canceled"
)

// PaymentIntent tracks a payment through confirmation and capture.
type PaymentIntent struct {
	ID                 string            `json:"id"`
	Object             string            `json:"object"`
	Amount             int64             `json:"amount"`
	AmountCapturable   int64             `json:"amount_capturable"`
	AmountReceived     int64             `json:"amount_received"`
	CanceledAt         *int64            `json:"canceled_at"`
	CancellationReason *string           `json:"cancellation_reason"`
	CaptureMethod      string            `json:"capture_method"`
	Charges            *List[*Charge]    `json:"charges"`
	ClientSecret       string            `json:"client_secret"`
	ConfirmationMethod string            `json:"confirmation_method"`
	Created            int64             `json:"created"`
	Currency           string            `json:"currency"`
	Customer           *string           `json:"customer"`
	Description        *string           `json:"description"`
	LastPaymentError   any               `json:"last_payment_error"`
	LatestCharge       *string           `json:"latest_charge"`
	Livemode           bool              `json:"livemode"`
	Metadata           map[string]string `json:"metadata"`
	PaymentMethod      *string           `json:"payment_method"`
	PaymentMethodTypes []string          `json:"payment_method_types"`
	ReceiptEmail       *string           `json:"receipt_email"`
	Status             string            `json:"status"`
}

func (p *PaymentIntent) GetID() string     { return p.ID }
func (p *PaymentIntent) GetCreated() int64 { return p.Created }
