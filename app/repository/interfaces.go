package repository

import "github.com/ManuelReschke/PayFox/app/models"

// RecordStore holds records of one type, segmented by account partition.
type RecordStore[T models.Record] interface {
	Get(partition, id string) (T, bool)
	GetAll(partition string) []T
	Contains(partition, id string) bool
	Put(partition string, record T) error
	Replace(partition string, record T) error
	Remove(partition, id string)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Accounts            RecordStore[*models.Account]
	BalanceTransactions RecordStore[*models.BalanceTransaction]
	Cards               RecordStore[*models.Card]
	Charges             RecordStore[*models.Charge]
	CheckoutSessions    RecordStore[*models.CheckoutSession]
	Customers           RecordStore[*models.Customer]
	Disputes            RecordStore[*models.Dispute]
	PaymentIntents      RecordStore[*models.PaymentIntent]
	Plans               RecordStore[*models.Plan]
	Prices              RecordStore[*models.Price]
	Products            RecordStore[*models.Product]
	Refunds             RecordStore[*models.Refund]
	Skus                RecordStore[*models.Sku]
	SubscriptionItems   RecordStore[*models.SubscriptionItem]
	Subscriptions       RecordStore[*models.Subscription]
	TaxRates            RecordStore[*models.TaxRate]
	Tokens              RecordStore[*models.Token]
}

// NewRepositories creates a new, empty instance of all repositories
func NewRepositories() *Repositories {
	return &Repositories{
		Accounts:            NewStore[*models.Account](),
		BalanceTransactions: NewStore[*models.BalanceTransaction](),
		Cards:               NewStore[*models.Card](),
		Charges:             NewStore[*models.Charge](),
		CheckoutSessions:    NewStore[*models.CheckoutSession](),
		Customers:           NewStore[*models.Customer](),
		Disputes:            NewStore[*models.Dispute](),
		PaymentIntents:      NewStore[*models.PaymentIntent](),
		Plans:               NewStore[*models.Plan](),
		Prices:              NewStore[*models.Price](),
		Products:            NewStore[*models.Product](),
		Refunds:             NewStore[*models.Refund](),
		Skus:                NewStore[*models.Sku](),
		SubscriptionItems:   NewStore[*models.SubscriptionItem](),
		Subscriptions:       NewStore[*models.Subscription](),
		TaxRates:            NewStore[*models.TaxRate](),
		Tokens:              NewStore[*models.Token](),
	}
}
