package models

const (
	ProductTypeGood    = "good"
	ProductTypeService = "service"
)

const (
	IntervalDay   = "day"
	IntervalWeek  = "week"
	IntervalMonth = "month"
	IntervalYear  = "year"
)

// Product is something sold, either a physical good or a service.
type Product struct {
	ID                  string            `json:"id"`
	Object              string            `json:"object"`
	Active              bool              `json:"active"`
	Attributes          []string          `json:"attributes"`
	Caption             *string           `json:"caption"`
	Created             int64             `json:"created"`
	Description         *string           `json:"description"`
	Images              []string          `json:"images"`
	Livemode            bool              `json:"livemode"`
	Metadata            map[string]string `json:"metadata"`
	Name                string            `json:"name"`
	Shippable           *bool             `json:"shippable"`
	StatementDescriptor *string           `json:"statement_descriptor"`
	Type                string            `json:"type"`
	UnitLabel           *string           `json:"unit_label"`
	Updated             int64             `json:"updated"`
	URL                 *string           `json:"url"`
}

func (p *Product) GetID() string     { return p.ID }
func (p *Product) GetCreated() int64 { return p.Created }

// Plan is the legacy recurring price of a service product.
type Plan struct {
	ID              string            `json:"id"`
	Object          string            `json:"object"`
	Active          bool              `json:"active"`
	Amount          int64             `json:"amount"`
	BillingScheme   string            `json:"billing_scheme"`
	Created         int64             `json:"created"`
	Currency        string            `json:"currency"`
	Interval        string            `json:"interval"`
	IntervalCount   int64             `json:"interval_count"`
	Livemode        bool              `json:"livemode"`
	Metadata        map[string]string `json:"metadata"`
	Nickname        *string           `json:"nickname"`
	Product         string            `json:"product"`
	TrialPeriodDays *int64            `json:"trial_period_days"`
	UsageType       string            `json:"usage_type"`
}

func (p *Plan) GetID() string     { return p.ID }
func (p *Plan) GetCreated() int64 { return p.Created }

// Recurring holds the billing cycle of a recurring price.
type Recurring struct {
	Interval      string `json:"interval"`
	IntervalCount int64  `json:"interval_count"`
	UsageType     string `json:"usage_type"`
}

// Price is a one-time or recurring amount for a product.
type Price struct {
	ID            string            `json:"id"`
	Object        string            `json:"object"`
	Active        bool              `json:"active"`
	BillingScheme string            `json:"billing_scheme"`
	Created       int64             `json:"created"`
	Currency      string            `json:"currency"`
	Livemode      bool              `json:"livemode"`
	LookupKey     *string           `json:"lookup_key"`
	Metadata      map[string]string `json:"metadata"`
	Nickname      *string           `json:"nickname"`
	Product       string            `json:"product"`
	Recurring     *Recurring        `json:"recurring"`
	Type          string            `json:"type"`
	UnitAmount    *int64            `json:"unit_amount"`
}

func (p *Price) GetID() string     { return p.ID }
func (p *Price) GetCreated() int64 { return p.Created }

// SkuInventory describes how a SKU's stock is tracked.
type SkuInventory struct {
	Quantity *int64  `json:"quantity"`
	Type     string  `json:"type"`
	Value    *string `json:"value"`
}

// Sku is a purchasable variant of a good.
type Sku struct {
	ID         string            `json:"id"`
	Object     string            `json:"object"`
	Active     bool              `json:"active"`
	Attributes map[string]string `json:"attributes"`
	Created    int64             `json:"created"`
	Currency   string            `json:"currency"`
	Image      *string           `json:"image"`
	Inventory  SkuInventory      `json:"inventory"`
	Livemode   bool              `json:"livemode"`
	Metadata   map[string]string `json:"metadata"`
	Price      int64             `json:"price"`
	Product    string            `json:"product"`
	Updated    int64             `json:"updated"`
}

func (s *Sku) GetID() string     { return s.ID }
func (s *Sku) GetCreated() int64 { return s.Created }

// TaxRate is a percentage applied to subscription amounts.
type TaxRate struct {
	ID           string            `json:"id"`
	Object       string            `json:"object"`
	Active       bool              `json:"active"`
	Country      *string           `json:"country"`
	Created      int64             `json:"created"`
	Description  *string           `json:"description"`
	DisplayName  string            `json:"display_name"`
	Inclusive    bool              `json:"inclusive"`
	Jurisdiction *string           `json:"jurisdiction"`
	Livemode     bool              `json:"livemode"`
	Metadata     map[string]string `json:"metadata"`
	Percentage   float64           `json:"percentage"`
	State        *string           `json:"state"`
}

func (t *TaxRate) GetID() string     { return t.ID }
func (t *TaxRate) GetCreated() int64 { return t.Created }
