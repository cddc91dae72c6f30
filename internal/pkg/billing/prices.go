package billing

import (
	"context"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
	"github.com/ManuelReschke/PayFox/internal/pkg/validation"
)

const (
	priceTypeOneTime   = "one_time"
	priceTypeRecurring = "recurring"
)

// CreatePrice creates a one-time or recurring price.
func (s *Service) CreatePrice(ctx context.Context, account string, p *params.Params) (*models.Price, error) {
	if err := validation.RequiredParams(p, "currency", "unit_amount"); err != nil {
		return nil, err
	}
	amount, err := p.Int64("unit_amount")
	if err != nil {
		return nil, err
	}
	if err := validation.NonNegative(amount.Value, "unit_amount"); err != nil {
		return nil, err
	}
	currency := lowerCurrency(p, "currency").Value
	if err := validation.Currency(currency, "currency"); err != nil {
		return nil, err
	}
	var recurring *models.Recurring
	if sub := p.Sub("recurring"); sub != nil {
		if err := validation.RequiredParams(sub, "interval"); err != nil {
			return nil, err
		}
		interval, count, usage, err := readRecurring(sub, "interval")
		if err != nil {
			return nil, err
		}
		recurring = &models.Recurring{Interval: interval, IntervalCount: count, UsageType: usage}
	}
	ref, err := readProductRef(p, "product", "product_data")
	if err != nil {
		return nil, err
	}
	active, err := p.Bool("active")
	if err != nil {
		return nil, err
	}
	metadata, err := createMetadata(p)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkFreeID(s.repos.Prices, account, p, "price"); err != nil {
		return nil, err
	}
	prod, err := s.productFor(account, ref, "product")
	if err != nil {
		return nil, err
	}
	price := &models.Price{
		ID:            newID(p, "price"),
		Object:        models.ObjectPrice,
		Active:        active.Or(true),
		BillingScheme: schemePerUnit,
		Created:       s.now().Unix(),
		Currency:      currency,
		LookupKey:     optionalString(p.String("lookup_key"), nil),
		Metadata:      metadata,
		Nickname:      optionalString(p.String("nickname"), nil),
		Product:       prod.ID,
		Recurring:     recurring,
		Type:          priceTypeOneTime,
		UnitAmount:    models.Int64(amount.Value),
	}
	if recurring != nil {
		price.Type = priceTypeRecurring
	}
	if err := put(s.repos.Prices, account, price, "price"); err != nil {
		return nil, err
	}
	return price, nil
}

// fabricatePrice stores a free monthly price under an id a subscription
// named but nobody created. Callers hold s.mu.
func (s *Service) fabricatePrice(account, id string) (*models.Price, error) {
	prod, err := s.newServiceProduct(account, id)
	if err != nil {
		return nil, err
	}
	price := &models.Price{
		ID:            id,
		Object:        models.ObjectPrice,
		Active:        true,
		BillingScheme: schemePerUnit,
		Created:       s.now().Unix(),
		Currency:      "usd",
		Metadata:      map[string]string{},
		Product:       prod.ID,
		Recurring:     &models.Recurring{Interval: models.IntervalMonth, IntervalCount: 1, UsageType: usageLicensed},
		Type:          priceTypeRecurring,
		UnitAmount:    models.Int64(0),
	}
	if err := put(s.repos.Prices, account, price, "price"); err != nil {
		return nil, err
	}
	return price, nil
}

// RetrievePrice returns a price.
func (s *Service) RetrievePrice(ctx context.Context, account, id, param string) (*models.Price, error) {
	return get(s.repos.Prices, account, id, "price", param)
}

// UpdatePrice changes active, nickname, lookup key and metadata.
func (s *Service) UpdatePrice(ctx context.Context, account, id string, p *params.Params) (*models.Price, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := get(s.repos.Prices, account, id, "price", "id")
	if err != nil {
		return nil, err
	}
	active, err := optionalBool(p, "active", current.Active)
	if err != nil {
		return nil, err
	}
	metadata, err := updateMetadata(p, current.Metadata)
	if err != nil {
		return nil, err
	}

	price := *current
	price.Active = active
	price.Nickname = optionalString(p.String("nickname"), current.Nickname)
	price.LookupKey = optionalString(p.String("lookup_key"), current.LookupKey)
	price.Metadata = metadata
	if err := replace(s.repos.Prices, account, &price, "price"); err != nil {
		return nil, err
	}
	return &price, nil
}

// ListPrices lists prices, filtered by product, active, type and currency.
func (s *Service) ListPrices(ctx context.Context, account string, p *params.Params) (listing.Page[*models.Price], error) {
	active, err := p.Bool("active")
	if err != nil {
		return listing.Page[*models.Price]{}, err
	}
	product := p.String("product")
	typ := p.String("type")
	currency := lowerCurrency(p, "currency")
	return list(s.repos.Prices, account, "price", p, func(price *models.Price) bool {
		switch {
		case active.IsSet() && price.Active != active.Value:
			return false
		case product.IsSet() && price.Product != product.Value:
			return false
		case typ.IsSet() && price.Type != typ.Value:
			return false
		}
		return !currency.IsSet() || price.Currency == currency.Value
	})
}
