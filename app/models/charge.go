package models

const (
	ChargeStatusSucceeded = "succeeded"
	ChargeStatusPending   = "pending"
	ChargeStatusFailed    = "failed"
)

// Outcome describes how the card network and risk checks handled a charge.
type Outcome struct {
	NetworkStatus string `json:"network_status"`
	Reason        string `json:"reason,omitempty"`
	RiskLevel     string `json:"risk_level"`
	RiskScore     int    `json:"risk_score"`
	SellerMessage string `json:"seller_message"`
	Type          string `json:"type"`
}

// Charge is a single attempt to move money from a card.
type Charge struct {
	ID                  string            `json:"id"`
	Object              string            `json:"object"`
	Amount              int64             `json:"amount"`
	AmountCaptured      int64             `json:"amount_captured"`
	AmountRefunded      int64             `json:"amount_refunded"`
	BalanceTransaction  *string           `json:"balance_transaction"`
	Captured            bool              `json:"captured"`
	Created             int64             `json:"created"`
	Currency            string            `json:"currency"`
	Customer            *string           `json:"customer"`
	Description         *string           `json:"description"`
	Dispute             *string           `json:"dispute"`
	Disputed            bool              `json:"disputed"`
	FailureCode         *string           `json:"failure_code"`
	FailureMessage      *string           `json:"failure_message"`
	Livemode            bool              `json:"livemode"`
	Metadata            map[string]string `json:"metadata"`
	Outcome             *Outcome          `json:"outcome"`
	Paid                bool              `json:"paid"`
	PaymentIntent       *string           `json:"payment_intent"`
	PaymentMethod       *string           `json:"payment_method"`
	ReceiptEmail        *string           `json:"receipt_email"`
	Refunded            bool              `json:"refunded"`
	Refunds             *List[*Refund]    `json:"refunds"`
	Source              *Card             `json:"source"`
	StatementDescriptor *string           `json:"statement_descriptor"`
	Status              string            `json:"status"`
}

func (c *Charge) GetID() string     { return c.ID }
func (c *Charge) GetCreated() int64 { return c.Created }

// Refundable is what remains to be refunded.
func (c *Charge) Refundable() int64 {
	return c.Amount - c.AmountRefunded
}

// Refund returns money from a charge.
type Refund struct {
	ID                 string            `json:"id"`
	Object             string            `json:"object"`
	Amount             int64             `json:"amount"`
	BalanceTransaction *string           `json:"balance_transaction"`
	Charge             string            `json:"charge"`
	Created            int64             `json:"created"`
	Currency           string            `json:"currency"`
	Metadata           map[string]string `json:"metadata"`
	PaymentIntent      *string           `json:"payment_intent"`
	Reason             *string           `json:"reason"`
	Status             string            `json:"status"`
}

func (r *Refund) GetID() string     { return r.ID }
func (r *Refund) GetCreated() int64 { return r.Created }

const (
	DisputeStatusNeedsResponse        = "needs_response"
	DisputeStatusWarningNeedsResponse = "warning_needs_response"
	DisputeStatusUnderReview          = "under_review"
	DisputeStatusWarningUnderReview   = "warning_under_review"
	DisputeStatusLost                 = "lost"
	DisputeStatusWarningClosed        = "warning_closed"
)

// EvidenceDetails tracks the evidence deadline of a dispute.
type EvidenceDetails struct {
	DueBy           int64 `json:"due_by"`
	HasEvidence     bool  `json:"has_evidence"`
	PastDue         bool  `json:"past_due"`
	SubmissionCount int64 `json:"submission_count"`
}

// Dispute is a cardholder's challenge of a charge.
type Dispute struct {
	ID                  string                `json:"id"`
	Object              string                `json:"object"`
	Amount              int64                 `json:"amount"`
	BalanceTransactions []*BalanceTransaction `json:"balance_transactions"`
	Charge              string                `json:"charge"`
	Created             int64                 `json:"created"`
	Currency            string                `json:"currency"`
	Evidence            map[string]string     `json:"evidence"`
	EvidenceDetails     EvidenceDetails       `json:"evidence_details"`
	IsChargeRefundable  bool                  `json:"is_charge_refundable"`
	Livemode            bool                  `json:"livemode"`
	Metadata            map[string]string     `json:"metadata"`
	PaymentIntent       *string               `json:"payment_intent"`
	Reason              string                `json:"reason"`
	Status              string                `json:"status"`
}

func (d *Dispute) GetID() string     { return d.ID }
func (d *Dispute) GetCreated() int64 { return d.Created }

// Closed reports whether the dispute no longer accepts changes.
func (d *Dispute) Closed() bool {
	return d.Status == DisputeStatusLost || d.Status == DisputeStatusWarningClosed
}

// FeeDetail is one component of a balance transaction fee.
type FeeDetail struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// BalanceTransaction records funds moving in or out of the account balance.
type BalanceTransaction struct {
	ID          string      `json:"id"`
	Object      string      `json:"object"`
	Amount      int64       `json:"amount"`
	AvailableOn int64       `json:"available_on"`
	Created     int64       `json:"created"`
	Currency    string      `json:"currency"`
	Description *string     `json:"description"`
	Fee         int64       `json:"fee"`
	FeeDetails  []FeeDetail `json:"fee_details"`
	Net         int64       `json:"net"`
	Source      string      `json:"source"`
	Status      string      `json:"status"`
	Type        string      `json:"type"`
}

func (b *BalanceTransaction) GetID() string     { return b.ID }
func (b *BalanceTransaction) GetCreated() int64 { return b.Created }
