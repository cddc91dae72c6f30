package billing

import (
	"context"
	"fmt"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/idgen"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
	"github.com/ManuelReschke/PayFox/internal/pkg/validation"
)

// CreateProduct creates a good or a service.
func (s *Service) CreateProduct(ctx context.Context, account string, p *params.Params) (*models.Product, error) {
	if err := validation.RequiredParams(p, "name"); err != nil {
		return nil, err
	}
	typ := p.String("type").Or(models.ProductTypeService)
	if err := validation.OneOf(typ, "type", models.ProductTypeGood, models.ProductTypeService); err != nil {
		return nil, err
	}
	active, err := p.Bool("active")
	if err != nil {
		return nil, err
	}
	shippable, err := p.Bool("shippable")
	if err != nil {
		return nil, err
	}
	descriptor, err := readStatementDescriptor(p)
	if err != nil {
		return nil, err
	}
	attributes, err := p.Strings("attributes")
	if err != nil {
		return nil, err
	}
	images, err := p.Strings("images")
	if err != nil {
		return nil, err
	}
	metadata, err := createMetadata(p)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkFreeID(s.repos.Products, account, p, "product"); err != nil {
		return nil, err
	}
	now := s.now().Unix()
	prod := &models.Product{
		ID:                  newID(p, "prod"),
		Object:              models.ObjectProduct,
		Active:              active.Or(true),
		Attributes:          nonNil(attributes.Value),
		Caption:             optionalString(p.String("caption"), nil),
		Created:             now,
		Description:         optionalString(p.String("description"), nil),
		Images:              nonNil(images.Value),
		Metadata:            metadata,
		Name:                p.String("name").Value,
		StatementDescriptor: optionalString(descriptor, nil),
		Type:                typ,
		UnitLabel:           optionalString(p.String("unit_label"), nil),
		Updated:             now,
		URL:                 optionalString(p.String("url"), nil),
	}
	if shippable.IsSet() {
		prod.Shippable = models.Bool(shippable.Value)
	}
	if err := put(s.repos.Products, account, prod, "product"); err != nil {
		return nil, err
	}
	return prod, nil
}

// newServiceProduct stores the product created inline by a plan or price.
// Callers hold s.mu.
func (s *Service) newServiceProduct(account, name string) (*models.Product, error) {
	now := s.now().Unix()
	prod := &models.Product{
		ID:         idgen.New("prod"),
		Object:     models.ObjectProduct,
		Active:     true,
		Attributes: []string{},
		Created:    now,
		Images:     []string{},
		Metadata:   map[string]string{},
		Name:       name,
		Type:       models.ProductTypeService,
		Updated:    now,
	}
	if err := put(s.repos.Products, account, prod, "product"); err != nil {
		return nil, err
	}
	return prod, nil
}

// RetrieveProduct returns a product.
func (s *Service) RetrieveProduct(ctx context.Context, account, id, param string) (*models.Product, error) {
	return get(s.repos.Products, account, id, "product", param)
}

// UpdateProduct changes the mutable fields of a product.
func (s *Service) UpdateProduct(ctx context.Context, account, id string, p *params.Params) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := get(s.repos.Products, account, id, "product", "id")
	if err != nil {
		return nil, err
	}
	name := p.String("name")
	if name.IsNull() {
		return nil, apierror.InvalidRequest("You cannot unset the name of a product.", "name")
	}
	active, err := optionalBool(p, "active", current.Active)
	if err != nil {
		return nil, err
	}
	descriptor, err := readStatementDescriptor(p)
	if err != nil {
		return nil, err
	}
	metadata, err := updateMetadata(p, current.Metadata)
	if err != nil {
		return nil, err
	}

	prod := *current
	prod.Name = name.Or(current.Name)
	prod.Active = active
	prod.Caption = optionalString(p.String("caption"), current.Caption)
	prod.Description = optionalString(p.String("description"), current.Description)
	prod.StatementDescriptor = optionalString(descriptor, current.StatementDescriptor)
	prod.UnitLabel = optionalString(p.String("unit_label"), current.UnitLabel)
	prod.URL = optionalString(p.String("url"), current.URL)
	prod.Metadata = metadata
	prod.Updated = s.now().Unix()
	if err := replace(s.repos.Products, account, &prod, "product"); err != nil {
		return nil, err
	}
	return &prod, nil
}

// DeleteProduct removes a product nothing refers to any more.
func (s *Service) DeleteProduct(ctx context.Context, account, id string) (*models.Deleted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := get(s.repos.Products, account, id, "product", "id"); err != nil {
		return nil, err
	}
	inUse := false
	for _, pl := range s.repos.Plans.GetAll(account) {
		inUse = inUse || pl.Product == id
	}
	for _, pr := range s.repos.Prices.GetAll(account) {
		inUse = inUse || pr.Product == id
	}
	for _, sku := range s.repos.Skus.GetAll(account) {
		inUse = inUse || sku.Product == id
	}
	if inUse {
		return nil, apierror.InvalidRequest(fmt.Sprintf("This product cannot be deleted because it has one or more user-created prices, plans or SKUs: %s.", id), "id")
	}
	s.repos.Products.Remove(account, id)
	return models.NewDeleted(id, models.ObjectProduct), nil
}

// ListProducts lists products, filtered by active and type.
func (s *Service) ListProducts(ctx context.Context, account string, p *params.Params) (listing.Page[*models.Product], error) {
	active, err := p.Bool("active")
	if err != nil {
		return listing.Page[*models.Product]{}, err
	}
	typ := p.String("type")
	return list(s.repos.Products, account, "product", p, func(prod *models.Product) bool {
		if active.IsSet() && prod.Active != active.Value {
			return false
		}
		return !typ.IsSet() || prod.Type == typ.Value
	})
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
