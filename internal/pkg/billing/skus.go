package billing

import (
	"context"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
	"github.com/ManuelReschke/PayFox/internal/pkg/validation"
)

func readInventory(p *params.Params, current *models.SkuInventory) (models.SkuInventory, error) {
	sub := p.Sub("inventory")
	if sub == nil {
		if current != nil {
			return *current, nil
		}
		return models.SkuInventory{}, apierror.ParameterMissing("inventory[type]")
	}
	if err := validation.RequiredParams(sub, "type"); err != nil {
		return models.SkuInventory{}, err
	}
	inv := models.SkuInventory{Type: sub.String("type").Value}
	if err := validation.OneOf(inv.Type, "inventory[type]", "finite", "bucket", "infinite"); err != nil {
		return inv, err
	}
	switch inv.Type {
	case "finite":
		if err := validation.RequiredParams(sub, "quantity"); err != nil {
			return inv, err
		}
		q, err := sub.Int64("quantity")
		if err != nil {
			return inv, err
		}
		if err := validation.NonNegative(q.Value, "inventory[quantity]"); err != nil {
			return inv, err
		}
		inv.Quantity = models.Int64(q.Value)
	case "bucket":
		if err := validation.RequiredParams(sub, "value"); err != nil {
			return inv, err
		}
		v := sub.String("value").Value
		if err := validation.OneOf(v, "inventory[value]", "in_stock", "limited", "out_of_stock"); err != nil {
			return inv, err
		}
		inv.Value = models.String(v)
	}
	return inv, nil
}

// CreateSku creates a SKU of a good.
func (s *Service) CreateSku(ctx context.Context, account string, p *params.Params) (*models.Sku, error) {
	if err := validation.RequiredParams(p, "currency", "price", "product"); err != nil {
		return nil, err
	}
	price, err := p.Int64("price")
	if err != nil {
		return nil, err
	}
	if err := validation.NonNegative(price.Value, "price"); err != nil {
		return nil, err
	}
	currency := lowerCurrency(p, "currency").Value
	if err := validation.Currency(currency, "currency"); err != nil {
		return nil, err
	}
	inventory, err := readInventory(p, nil)
	if err != nil {
		return nil, err
	}
	attributes, err := p.StringMap("attributes")
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

	if err := checkFreeID(s.repos.Skus, account, p, "sku"); err != nil {
		return nil, err
	}
	prod, err := get(s.repos.Products, account, p.String("product").Value, "product", "product")
	if err != nil {
		return nil, err
	}
	if prod.Type != models.ProductTypeGood {
		return nil, apierror.InvalidRequest("SKUs can only be created for products of type `good`.", "product")
	}

	now := s.now().Unix()
	sku := &models.Sku{
		ID:         newID(p, "sku"),
		Object:     models.ObjectSku,
		Active:     active.Or(true),
		Attributes: models.ApplyMetadata(nil, attributes.Value),
		Created:    now,
		Currency:   currency,
		Image:      optionalString(p.String("image"), nil),
		Inventory:  inventory,
		Metadata:   metadata,
		Price:      price.Value,
		Product:    prod.ID,
		Updated:    now,
	}
	if err := put(s.repos.Skus, account, sku, "sku"); err != nil {
		return nil, err
	}
	return sku, nil
}

// RetrieveSku returns a SKU.
func (s *Service) RetrieveSku(ctx context.Context, account, id string) (*models.Sku, error) {
	return get(s.repos.Skus, account, id, "sku", "id")
}

// UpdateSku changes price, inventory, image, active and metadata.
func (s *Service) UpdateSku(ctx context.Context, account, id string, p *params.Params) (*models.Sku, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := get(s.repos.Skus, account, id, "sku", "id")
	if err != nil {
		return nil, err
	}
	price, err := p.Int64("price")
	if err != nil {
		return nil, err
	}
	if price.IsSet() {
		if err := validation.NonNegative(price.Value, "price"); err != nil {
			return nil, err
		}
	}
	inventory, err := readInventory(p, &current.Inventory)
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

	sku := *current
	sku.Active = active
	sku.Image = optionalString(p.String("image"), current.Image)
	sku.Inventory = inventory
	sku.Metadata = metadata
	sku.Price = price.Or(current.Price)
	sku.Updated = s.now().Unix()
	if err := replace(s.repos.Skus, account, &sku, "sku"); err != nil {
		return nil, err
	}
	return &sku, nil
}

// DeleteSku removes a SKU.
func (s *Service) DeleteSku(ctx context.Context, account, id string) (*models.Deleted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := get(s.repos.Skus, account, id, "sku", "id"); err != nil {
		return nil, err
	}
	s.repos.Skus.Remove(account, id)
	return models.NewDeleted(id, models.ObjectSku), nil
}

// ListSkus lists SKUs, filtered by product and active.
func (s *Service) ListSkus(ctx context.Context, account string, p *params.Params) (listing.Page[*models.Sku], error) {
	active, err := p.Bool("active")
	if err != nil {
		return listing.Page[*models.Sku]{}, err
	}
	product := p.String("product")
	return list(s.repos.Skus, account, "sku", p, func(sku *models.Sku) bool {
		if active.IsSet() && sku.Active != active.Value {
			return false
		}
		return !product.IsSet() || sku.Product == product.Value
	})
}
