package billing

import (
	"context"
	"strings"
	"time"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
	"github.com/ManuelReschke/PayFox/internal/pkg/validation"
)

const (
	usageLicensed = "licensed"
	usageMetered  = "metered"

	schemePerUnit = "per_unit"
)

func normalizeInterval(interval string) string {
	i := strings.ToLower(strings.TrimSpace(interval))
	switch i {
	case models.IntervalDay, models.IntervalWeek, models.IntervalMonth, models.IntervalYear:
		return i
	default:
		return ""
	}
}

// addInterval moves t forward by count billing intervals.
func addInterval(t time.Time, interval string, count int64) time.Time {
	n := int(count)
	switch interval {
	case models.IntervalDay:
		return t.AddDate(0, 0, n)
	case models.IntervalWeek:
		return t.AddDate(0, 0, 7*n)
	case models.IntervalYear:
		return t.AddDate(n, 0, 0)
	default:
		return t.AddDate(0, n, 0)
	}
}

// readRecurring validates an interval, its count and usage type.
func readRecurring(p *params.Params, intervalParam string) (string, int64, string, error) {
	interval := normalizeInterval(p.String(intervalParam).Value)
	if interval == "" {
		return "", 0, "", apierror.InvalidRequest("Invalid interval: must be one of day, week, month or year", p.Name(intervalParam))
	}
	count, err := p.Int64("interval_count")
	if err != nil {
		return "", 0, "", err
	}
	if count.IsSet() && count.Value < 1 {
		return "", 0, "", apierror.InvalidRequest("Invalid interval_count: must be at least 1", p.Name("interval_count"))
	}
	usage := p.String("usage_type").Or(usageLicensed)
	if err := validation.OneOf(usage, p.Name("usage_type"), usageLicensed, usageMetered); err != nil {
		return "", 0, "", err
	}
	return interval, count.Or(1), usage, nil
}

func readTrialDays(p *params.Params) (params.Field[int64], error) {
	f, err := p.Int64("trial_period_days")
	if err != nil {
		return f, err
	}
	if f.IsSet() {
		if err := validation.NonNegative(f.Value, "trial_period_days"); err != nil {
			return f, err
		}
	}
	return f, nil
}

// productRef is a product named by id, or one to be created inline.
type productRef struct {
	id   string
	name string
}

// readProductRef reads a product given either as an id under idParam or as
// a hash with a name under inlineParam.
func readProductRef(p *params.Params, idParam, inlineParam string) (productRef, error) {
	if sub := p.Sub(inlineParam); sub != nil {
		if err := validation.RequiredParams(sub, "name"); err != nil {
			return productRef{}, err
		}
		return productRef{name: sub.String("name").Value}, nil
	}
	if id := p.String(idParam); id.IsSet() {
		return productRef{id: id.Value}, nil
	}
	return productRef{}, apierror.ParameterMissing(idParam)
}

// productFor resolves ref to a stored service product. Callers hold s.mu.
func (s *Service) productFor(account string, ref productRef, param string) (*models.Product, error) {
	if ref.id == "" {
		return s.newServiceProduct(account, ref.name)
	}
	prod, err := get(s.repos.Products, account, ref.id, "product", param)
	if err != nil {
		return nil, err
	}
	if prod.Type != models.ProductTypeService {
		return nil, apierror.InvalidRequest("Products of type `good` cannot be used with plans or prices.", param)
	}
	return prod, nil
}

// CreatePlan creates a plan for a new or existing service product.
func (s *Service) CreatePlan(ctx context.Context, account string, p *params.Params) (*models.Plan, error) {
	if err := validation.RequiredParams(p, "currency", "interval"); err != nil {
		return nil, err
	}
	if !p.Has("amount") {
		return nil, apierror.ParameterMissing("amount")
	}
	amount, err := p.Int64("amount")
	if err != nil {
		return nil, err
	}
	if err := validation.NonNegative(amount.Value, "amount"); err != nil {
		return nil, err
	}
	currency := lowerCurrency(p, "currency").Value
	if err := validation.Currency(currency, "currency"); err != nil {
		return nil, err
	}
	interval, count, usage, err := readRecurring(p, "interval")
	if err != nil {
		return nil, err
	}
	trial, err := readTrialDays(p)
	if err != nil {
		return nil, err
	}
	ref, err := readProductRef(p, "product", "product")
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

	if err := checkFreeID(s.repos.Plans, account, p, "plan"); err != nil {
		return nil, err
	}
	prod, err := s.productFor(account, ref, "product")
	if err != nil {
		return nil, err
	}
	plan := &models.Plan{
		ID:            newID(p, "plan"),
		Object:        models.ObjectPlan,
		Active:        active.Or(true),
		Amount:        amount.Value,
		BillingScheme: schemePerUnit,
		Created:       s.now().Unix(),
		Currency:      currency,
		Interval:      interval,
		IntervalCount: count,
		Metadata:      metadata,
		Nickname:      optionalString(p.String("nickname"), nil),
		Product:       prod.ID,
		UsageType:     usage,
	}
	if trial.IsSet() {
		plan.TrialPeriodDays = models.Int64(trial.Value)
	}
	if err := put(s.repos.Plans, account, plan, "plan"); err != nil {
		return nil, err
	}
	return plan, nil
}

// fabricatePlan stores a free monthly plan under an id a subscription named
// but nobody created. Callers hold s.mu.
func (s *Service) fabricatePlan(account, id string) (*models.Plan, error) {
	prod, err := s.newServiceProduct(account, id)
	if err != nil {
		return nil, err
	}
	plan := &models.Plan{
		ID:            id,
		Object:        models.ObjectPlan,
		Active:        true,
		BillingScheme: schemePerUnit,
		Created:       s.now().Unix(),
		Currency:      "usd",
		Interval:      models.IntervalMonth,
		IntervalCount: 1,
		Metadata:      map[string]string{},
		Product:       prod.ID,
		UsageType:     usageLicensed,
	}
	if err := put(s.repos.Plans, account, plan, "plan"); err != nil {
		return nil, err
	}
	return plan, nil
}

// RetrievePlan returns a plan.
func (s *Service) RetrievePlan(ctx context.Context, account, id, param string) (*models.Plan, error) {
	return get(s.repos.Plans, account, id, "plan", param)
}

// UpdatePlan changes nickname, active, trial days and metadata.
func (s *Service) UpdatePlan(ctx context.Context, account, id string, p *params.Params) (*models.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := get(s.repos.Plans, account, id, "plan", "id")
	if err != nil {
		return nil, err
	}
	active, err := optionalBool(p, "active", current.Active)
	if err != nil {
		return nil, err
	}
	trial, err := readTrialDays(p)
	if err != nil {
		return nil, err
	}
	metadata, err := updateMetadata(p, current.Metadata)
	if err != nil {
		return nil, err
	}

	plan := *current
	plan.Active = active
	plan.Nickname = optionalString(p.String("nickname"), current.Nickname)
	plan.Metadata = metadata
	switch trial.State {
	case params.Set:
		plan.TrialPeriodDays = models.Int64(trial.Value)
	case params.Null:
		plan.TrialPeriodDays = nil
	}
	if err := replace(s.repos.Plans, account, &plan, "plan"); err != nil {
		return nil, err
	}
	return &plan, nil
}

// DeletePlan removes a plan.
func (s *Service) DeletePlan(ctx context.Context, account, id string) (*models.Deleted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := get(s.repos.Plans, account, id, "plan", "id"); err != nil {
		return nil, err
	}
	s.repos.Plans.Remove(account, id)
	return models.NewDeleted(id, models.ObjectPlan), nil
}

// ListPlans lists plans, filtered by product and active.
func (s *Service) ListPlans(ctx context.Context, account string, p *params.Params) (listing.Page[*models.Plan], error) {
	active, err := p.Bool("active")
	if err != nil {
		return listing.Page[*models.Plan]{}, err
	}
	product := p.String("product")
	return list(s.repos.Plans, account, "plan", p, func(plan *models.Plan) bool {
		if active.IsSet() && plan.Active != active.Value {
			return false
		}
		return !product.IsSet() || plan.Product == product.Value
	})
}
