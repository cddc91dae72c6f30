package models

import "maps"

// Object tags written into the "object" field of every resource.
const (
	ObjectAccount            = "account"
	ObjectBalanceTransaction = "balance_transaction"
	ObjectCard               = "card"
	ObjectCharge             = "charge"
	ObjectCheckoutSession    = "checkout.session"
	ObjectCustomer           = "customer"
	ObjectDispute            = "dispute"
	ObjectList               = "list"
	ObjectPaymentIntent      = "payment_intent"
	ObjectPlan               = "plan"
	ObjectPrice              = "price"
	ObjectProduct            = "product"
	ObjectRefund             = "refund"
	ObjectSku                = "sku"
	ObjectSubscription       = "subscription"
	ObjectSubscriptionItem   = "subscription_item"
	ObjectTaxRate            = "tax_rate"
	ObjectToken              = "token"
)

// Record is implemented by every stored resource.
type Record interface {
	GetID() string
	GetCreated() int64
}

// List is the envelope around a page of resources.
type List[T any] struct {
	Object  string `json:"object"`
	Data    []T    `json:"data"`
	HasMore bool   `json:"has_more"`
	URL     string `json:"url"`
}

// NewList wraps data in a list envelope. A nil slice is rendered as [].
func NewList[T any](url string, data []T, hasMore bool) *List[T] {
	if data == nil {
		data = []T{}
	}
	return &List[T]{Object: ObjectList, Data: data, HasMore: hasMore, URL: url}
}

// Deleted is returned by delete operations.
type Deleted struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

// NewDeleted builds the deletion acknowledgement for a resource.
func NewDeleted(id, object string) *Deleted {
	return &Deleted{ID: id, Object: object, Deleted: true}
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

// Int64 returns a pointer to n.
func Int64(n int64) *int64 {
	return &n
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

// StringValue dereferences p, returning "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// ApplyMetadata merges an update into existing metadata. An empty value
// removes the key, a nil update clears everything. The input map is not
// modified.
func ApplyMetadata(current, update map[string]string) map[string]string {
	if update == nil {
		return map[string]string{}
	}
	out := maps.Clone(current)
	if out == nil {
		out = map[string]string{}
	}
	for k, v := range update {
		if v == "" {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}
