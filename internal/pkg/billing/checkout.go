package billing

import (
	"context"
	"fmt"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
	"github.com/ManuelReschke/PayFox/internal/pkg/validation"
)

const checkoutBaseURL = "https://checkout.stripe.com/pay/"

const (
	checkoutModePayment      = "payment"
	checkoutModeSetup        = "setup"
	checkoutModeSubscription = "subscription"
)

func readLineItems(p *params.Params, mode string) ([]models.CheckoutLineItem, error) {
	f, err := p.List("line_items")
	if err != nil {
		return nil, err
	}
	if !f.IsSet() {
		if mode == checkoutModeSetup {
			return []models.CheckoutLineItem{}, nil
		}
		return nil, apierror.ParameterMissing("line_items")
	}

	items := make([]models.CheckoutLineItem, 0, len(f.Value))
	for _, li := range f.Value {
		quantity, err := li.Int64("quantity")
		if err != nil {
			return nil, err
		}
		if quantity.IsSet() && quantity.Value < 1 {
			return nil, apierror.InvalidRequest("Invalid quantity: must be at least 1", li.Name("quantity"))
		}
		item := models.CheckoutLineItem{
			Name:     optionalString(li.String("name"), nil),
			Price:    optionalString(li.String("price"), nil),
			Quantity: quantity.Or(1),
		}
		if item.Price == nil {
			if err := validation.RequiredParams(li, "name", "amount", "currency"); err != nil {
				return nil, err
			}
			amount, err := li.Int64("amount")
			if err != nil {
				return nil, err
			}
			if err := validation.Amount(amount.Value, li.Name("amount")); err != nil {
				return nil, err
			}
			currency := lowerCurrency(li, "currency").Value
			if err := validation.Currency(currency, li.Name("currency")); err != nil {
				return nil, err
			}
			item.Amount = models.Int64(amount.Value)
			item.Currency = models.String(currency)
		}
		items = append(items, item)
	}
	return items, nil
}

// CreateCheckoutSession opens a hosted payment page.
func (s *Service) CreateCheckoutSession(ctx context.Context, account string, p *params.Params) (*models.CheckoutSession, error) {
	if err := validation.RequiredParams(p, "success_url", "cancel_url", "payment_method_types"); err != nil {
		return nil, err
	}
	methods, err := p.Strings("payment_method_types")
	if err != nil {
		return nil, err
	}
	for _, m := range methods.Value {
		if err := validation.OneOf(m, "payment_method_types", "card", "ideal", "sepa_debit", "bacs_debit", "fpx", "bancontact", "giropay", "p24", "eps"); err != nil {
			return nil, err
		}
	}
	mode := p.String("mode").Or(checkoutModePayment)
	if err := validation.OneOf(mode, "mode", checkoutModePayment, checkoutModeSetup, checkoutModeSubscription); err != nil {
		return nil, err
	}
	items, err := readLineItems(p, mode)
	if err != nil {
		return nil, err
	}
	email := p.String("customer_email")
	if email.IsSet() {
		if err := validation.Email(email.Value, "customer_email"); err != nil {
			return nil, err
		}
	}
	metadata, err := createMetadata(p)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkFreeID(s.repos.CheckoutSessions, account, p, "checkout.session"); err != nil {
		return nil, err
	}
	customer := p.String("customer")
	if customer.IsSet() {
		if _, err := get(s.repos.Customers, account, customer.Value, "customer", "customer"); err != nil {
			return nil, err
		}
	}
	for i, item := range items {
		if item.Price == nil {
			continue
		}
		price, err := get(s.repos.Prices, account, *item.Price, "price", fmt.Sprintf("line_items[%d][price]", i))
		if err != nil {
			return nil, err
		}
		items[i].Amount = price.UnitAmount
		items[i].Currency = models.String(price.Currency)
	}

	id := newID(p, "cs")
	cs := &models.CheckoutSession{
		ID:                 id,
		Object:             models.ObjectCheckoutSession,
		CancelURL:          p.String("cancel_url").Value,
		ClientReferenceID:  optionalString(p.String("client_reference_id"), nil),
		Created:            s.now().Unix(),
		Customer:           optionalString(customer, nil),
		CustomerEmail:      optionalString(email, nil),
		LineItems:          items,
		Metadata:           metadata,
		Mode:               mode,
		PaymentMethodTypes: methods.Value,
		PaymentStatus:      "unpaid",
		Status:             "open",
		SuccessURL:         p.String("success_url").Value,
		URL:                checkoutBaseURL + id,
	}
	if mode == checkoutModeSetup {
		cs.PaymentStatus = "no_payment_required"
	}
	if err := put(s.repos.CheckoutSessions, account, cs, "checkout.session"); err != nil {
		return nil, err
	}
	return cs, nil
}

// RetrieveCheckoutSession returns a checkout session.
func (s *Service) RetrieveCheckoutSession(ctx context.Context, account, id string) (*models.CheckoutSession, error) {
	return get(s.repos.CheckoutSessions, account, id, "checkout.session", "session")
}

// ListCheckoutSessions lists checkout sessions, filtered by customer and
// payment intent.
func (s *Service) ListCheckoutSessions(ctx context.Context, account string, p *params.Params) (listing.Page[*models.CheckoutSession], error) {
	customer := p.String("customer")
	intent := p.String("payment_intent")
	return list(s.repos.CheckoutSessions, account, "checkout.session", p, func(cs *models.CheckoutSession) bool {
		if customer.IsSet() && models.StringValue(cs.Customer) != customer.Value {
			return false
		}
		return !intent.IsSet() || models.StringValue(cs.PaymentIntent) == intent.Value
	})
}
