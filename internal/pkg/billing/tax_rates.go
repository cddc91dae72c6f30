package billing

import (
	"context"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
	"github.com/ManuelReschke/PayFox/internal/pkg/validation"
)

// CreateTaxRate creates a tax rate.
func (s *Service) CreateTaxRate(ctx context.Context, account string, p *params.Params) (*models.TaxRate, error) {
	if err := validation.RequiredParams(p, "display_name", "percentage", "inclusive"); err != nil {
		return nil, err
	}
	percentage, err := p.Float64("percentage")
	if err != nil {
		return nil, err
	}
	if err := validation.Validator().Var(percentage.Value, "gte=0,lte=100"); err != nil {
		return nil, apierror.InvalidRequest("Invalid percentage: must be between 0 and 100", "percentage")
	}
	inclusive, err := p.Bool("inclusive")
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

	if err := checkFreeID(s.repos.TaxRates, account, p, "tax_rate"); err != nil {
		return nil, err
	}
	tr := &models.TaxRate{
		ID:           newID(p, "txr"),
		Object:       models.ObjectTaxRate,
		Active:       active.Or(true),
		Country:      optionalString(p.String("country"), nil),
		Created:      s.now().Unix(),
		Description:  optionalString(p.String("description"), nil),
		DisplayName:  p.String("display_name").Value,
		Inclusive:    inclusive.Value,
		Jurisdiction: optionalString(p.String("jurisdiction"), nil),
		Metadata:     metadata,
		Percentage:   percentage.Value,
		State:        optionalString(p.String("state"), nil),
	}
	if err := put(s.repos.TaxRates, account, tr, "tax_rate"); err != nil {
		return nil, err
	}
	return tr, nil
}

// RetrieveTaxRate returns a tax rate.
func (s *Service) RetrieveTaxRate(ctx context.Context, account, id, param string) (*models.TaxRate, error) {
	return get(s.repos.TaxRates, account, id, "tax_rate", param)
}

// UpdateTaxRate changes the descriptive fields of a tax rate. Percentage and
// inclusiveness are fixed once created.
func (s *Service) UpdateTaxRate(ctx context.Context, account, id string, p *params.Params) (*models.TaxRate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := get(s.repos.TaxRates, account, id, "tax_rate", "id")
	if err != nil {
		return nil, err
	}
	displayName := p.String("display_name")
	if displayName.IsNull() {
		return nil, apierror.InvalidRequest("You cannot unset the display name of a tax rate.", "display_name")
	}
	active, err := optionalBool(p, "active", current.Active)
	if err != nil {
		return nil, err
	}
	metadata, err := updateMetadata(p, current.Metadata)
	if err != nil {
		return nil, err
	}

	tr := *current
	tr.Active = active
	tr.Country = optionalString(p.String("country"), current.Country)
	tr.Description = optionalString(p.String("description"), current.Description)
	tr.DisplayName = displayName.Or(current.DisplayName)
	tr.Jurisdiction = optionalString(p.String("jurisdiction"), current.Jurisdiction)
	tr.State = optionalString(p.String("state"), current.State)
	tr.Metadata = metadata
	if err := replace(s.repos.TaxRates, account, &tr, "tax_rate"); err != nil {
		return nil, err
	}
	return &tr, nil
}

// ListTaxRates lists tax rates, filtered by active and inclusive.
func (s *Service) ListTaxRates(ctx context.Context, account string, p *params.Params) (listing.Page[*models.TaxRate], error) {
	active, err := p.Bool("active")
	if err != nil {
		return listing.Page[*models.TaxRate]{}, err
	}
	inclusive, err := p.Bool("inclusive")
	if err != nil {
		return listing.Page[*models.TaxRate]{}, err
	}
	return list(s.repos.TaxRates, account, "tax_rate", p, func(tr *models.TaxRate) bool {
		if active.IsSet() && tr.Active != active.Value {
			return false
		}
		return !inclusive.IsSet() || tr.Inclusive == inclusive.Value
	})
}
