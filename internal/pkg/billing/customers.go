package billing

import (
	"context"
	"fmt"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
	"github.com/ManuelReschke/PayFox/internal/pkg/tokens"
	"github.com/ManuelReschke/PayFox/internal/pkg/validation"
)

type customerFields struct {
	description params.Field[string]
	email       params.Field[string]
	name        params.Field[string]
	phone       params.Field[string]
	currency    params.Field[string]
}

func readCustomerFields(p *params.Params) (customerFields, error) {
	f := customerFields{
		description: p.String("description"),
		email:       p.String("email"),
		name:        p.String("name"),
		phone:       p.String("phone"),
		currency:    lowerCurrency(p, "currency"),
	}
	if f.email.IsSet() {
		if err := validation.Email(f.email.Value, "email"); err != nil {
			return f, err
		}
	}
	if f.currency.IsSet() {
		if err := validation.Currency(f.currency.Value, "currency"); err != nil {
			return f, err
		}
	}
	return f, nil
}

// CreateCustomer creates a customer, attaching the card of source when given.
func (s *Service) CreateCustomer(ctx context.Context, account string, p *params.Params) (*models.Customer, error) {
	fields, err := readCustomerFields(p)
	if err != nil {
		return nil, err
	}
	metadata, err := createMetadata(p)
	if err != nil {
		return nil, err
	}
	balance, err := p.Int64("balance")
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkFreeID(s.repos.Customers, account, p, "customer"); err != nil {
		return nil, err
	}

	var src *resolvedSource
	if raw := p.String("source"); raw.IsSet() {
		r, err := s.resolveSource(account, raw.Value, "source")
		if err != nil {
			return nil, err
		}
		src = &r
	}

	c := &models.Customer{
		ID:          newID(p, "cus"),
		Object:      models.ObjectCustomer,
		Balance:     balance.Value,
		Created:     s.now().Unix(),
		Currency:    optionalString(fields.currency, nil),
		Description: optionalString(fields.description, nil),
		Email:       optionalString(fields.email, nil),
		Metadata:    metadata,
		Name:        optionalString(fields.name, nil),
		Phone:       optionalString(fields.phone, nil),
		SourceIDs:   []string{},
	}

	if src != nil && src.def.Effect == tokens.EffectForget {
		src.card.Customer = models.String(c.ID)
		c.DefaultSource = models.String(src.card.ID)
		c.Sources = models.NewList(sourcesURL(c.ID), []*models.Card{src.card}, false)
		c.Subscriptions = models.NewList(subscriptionsURL(c.ID), []*models.Subscription{}, false)
		return c, nil
	}

	if err := put(s.repos.Customers, account, c, "customer"); err != nil {
		return nil, err
	}
	if src != nil {
		if c, err = s.attachCard(account, c, src.card, true); err != nil {
			return nil, err
		}
	}
	return s.hydrate(account, c), nil
}

// RetrieveCustomer returns a customer with its sources and subscriptions.
func (s *Service) RetrieveCustomer(ctx context.Context, account, id, param string) (*models.Customer, error) {
	c, err := get(s.repos.Customers, account, id, "customer", param)
	if err != nil {
		return nil, err
	}
	return s.hydrate(account, c), nil
}

// UpdateCustomer changes the customer's details. A new source is attached
// and becomes the default; default_source must name an attached card.
func (s *Service) UpdateCustomer(ctx context.Context, account, id string, p *params.Params) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := get(s.repos.Customers, account, id, "customer", "id")
	if err != nil {
		return nil, err
	}
	fields, err := readCustomerFields(p)
	if err != nil {
		return nil, err
	}
	metadata, err := updateMetadata(p, current.Metadata)
	if err != nil {
		return nil, err
	}
	balance, err := p.Int64("balance")
	if err != nil {
		return nil, err
	}
	defaultSource := p.String("default_source")
	if defaultSource.IsSet() {
		if _, err := s.customerCard(account, current, defaultSource.Value, "default_source"); err != nil {
			return nil, err
		}
	}

	c := *current
	c.Balance = balance.Or(current.Balance)
	c.Currency = optionalString(fields.currency, current.Currency)
	c.Description = optionalString(fields.description, current.Description)
	c.Email = optionalString(fields.email, current.Email)
	c.Name = optionalString(fields.name, current.Name)
	c.Phone = optionalString(fields.phone, current.Phone)
	c.Metadata = metadata
	c.DefaultSource = optionalString(defaultSource, current.DefaultSource)

	// the token is consumed last so a rejected update leaves it usable
	var src *resolvedSource
	if raw := p.String("source"); raw.IsSet() {
		r, err := s.resolveSource(account, raw.Value, "source")
		if err != nil {
			return nil, err
		}
		src = &r
	}
	if err := replace(s.repos.Customers, account, &c, "customer"); err != nil {
		return nil, err
	}
	updated := &c
	if src != nil {
		if updated, err = s.attachCard(account, updated, src.card, true); err != nil {
			return nil, err
		}
	}
	return s.hydrate(account, updated), nil
}

// DeleteCustomer removes a customer together with its cards, and cancels
// its subscriptions.
func (s *Service) DeleteCustomer(ctx context.Context, account, id string) (*models.Deleted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := get(s.repos.Customers, account, id, "customer", "id")
	if err != nil {
		return nil, err
	}
	for _, sub := range s.repos.Subscriptions.GetAll(account) {
		if sub.Customer == id && sub.Status != models.SubscriptionStatusCanceled {
			if _, err := s.cancelSubscription(account, sub); err != nil {
				return nil, err
			}
		}
	}
	for _, cardID := range c.SourceIDs {
		s.repos.Cards.Remove(account, cardID)
	}
	s.repos.Customers.Remove(account, id)
	return models.NewDeleted(id, models.ObjectCustomer), nil
}

// ListCustomers lists customers, optionally only those with a given email.
func (s *Service) ListCustomers(ctx context.Context, account string, p *params.Params) (listing.Page[*models.Customer], error) {
	email := p.String("email")
	page, err := list(s.repos.Customers, account, "customer", p, func(c *models.Customer) bool {
		return !email.IsSet() || models.StringValue(c.Email) == email.Value
	})
	if err != nil {
		return page, err
	}
	for i, c := range page.Data {
		page.Data[i] = s.hydrate(account, c)
	}
	return page, nil
}

// defaultCard returns the card a customer is charged with when no source
// is named.
func (s *Service) defaultCard(account string, c *models.Customer) (*models.Card, error) {
	if c.DefaultSource == nil {
		return nil, apierror.InvalidRequestCode(apierror.CodeMissingPaymentSource,
			"Cannot charge a customer that has no active card", "card")
	}
	return get(s.repos.Cards, account, *c.DefaultSource, "source", "card")
}

// hydrate returns a copy of c with its sources and live subscriptions
// embedded as list envelopes.
func (s *Service) hydrate(account string, c *models.Customer) *models.Customer {
	out := *c
	cards := make([]*models.Card, 0, len(c.SourceIDs))
	for _, id := range c.SourceIDs {
		if card, ok := s.repos.Cards.Get(account, id); ok {
			cards = append(cards, card)
		}
	}
	out.Sources = models.NewList(sourcesURL(c.ID), cards, false)

	subs := []*models.Subscription{}
	for _, sub := range s.repos.Subscriptions.GetAll(account) {
		if sub.Customer == c.ID && sub.Status != models.SubscriptionStatusCanceled {
			subs = append(subs, sub)
		}
	}
	out.Subscriptions = models.NewList(subscriptionsURL(c.ID), subs, false)
	return &out
}

func sourcesURL(customerID string) string {
	return fmt.Sprintf("/v1/customers/%s/sources", customerID)
}

func subscriptionsURL(customerID string) string {
	return fmt.Sprintf("/v1/customers/%s/subscriptions", customerID)
}
