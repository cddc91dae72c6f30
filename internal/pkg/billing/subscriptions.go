package billing

import (
	"context"
	"fmt"
	"slices"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/idgen"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
	"github.com/ManuelReschke/PayFox/internal/pkg/validation"
)

// itemSpec is one requested subscription item, as sent in items[n] or
// through the legacy top-level plan and quantity.
type itemSpec struct {
	p        *params.Params
	id       string
	plan     string
	price    string
	quantity params.Field[int64]
	metadata params.Field[map[string]string]
	taxRates params.Field[[]string]
	deleted  bool
}

func readItemSpec(ip *params.Params, legacy bool) (itemSpec, error) {
	spec := itemSpec{p: ip, plan: ip.String("plan").Value}
	var err error
	if spec.quantity, err = ip.Int64("quantity"); err != nil {
		return spec, err
	}
	if spec.quantity.IsSet() {
		if err := validation.NonNegative(spec.quantity.Value, ip.Name("quantity")); err != nil {
			return spec, err
		}
	}
	if legacy {
		return spec, nil
	}
	spec.id = ip.String("id").Value
	spec.price = ip.String("price").Value
	if spec.metadata, err = ip.StringMap("metadata"); err != nil {
		return spec, err
	}
	if spec.taxRates, err = ip.Strings("tax_rates"); err != nil {
		return spec, err
	}
	deleted, err := ip.Bool("deleted")
	if err != nil {
		return spec, err
	}
	spec.deleted = deleted.Or(false)
	return spec, nil
}

// readItemSpecs reads items[n], falling back to the legacy plan parameter.
func readItemSpecs(p *params.Params) ([]itemSpec, error) {
	items, err := p.List("items")
	if err != nil {
		return nil, err
	}
	if items.IsSet() {
		specs := make([]itemSpec, 0, len(items.Value))
		for _, ip := range items.Value {
			spec, err := readItemSpec(ip, false)
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		}
		return specs, nil
	}
	if p.String("plan").IsSet() {
		spec, err := readItemSpec(p, true)
		if err != nil {
			return nil, err
		}
		return []itemSpec{spec}, nil
	}
	return nil, nil
}

// itemPlan is an item spec with its plan or price looked up. Ids that do
// not exist yet are kept aside and only fabricated once every check passed.
type itemPlan struct {
	spec     itemSpec
	plan     *models.Plan
	price    *models.Price
	newPlan  string
	newPrice string
	taxRates []*models.TaxRate
}

func (r itemPlan) key() string {
	if r.spec.plan != "" {
		return "plan:" + r.spec.plan
	}
	return "price:" + r.spec.price
}

func (r itemPlan) amount(quantity int64) int64 {
	switch {
	case r.plan != nil:
		return r.plan.Amount * quantity
	case r.price != nil && r.price.UnitAmount != nil:
		return *r.price.UnitAmount * quantity
	}
	return 0
}

func (r itemPlan) interval() (string, int64) {
	switch {
	case r.plan != nil:
		return r.plan.Interval, r.plan.IntervalCount
	case r.price != nil && r.price.Recurring != nil:
		return r.price.Recurring.Interval, r.price.Recurring.IntervalCount
	}
	return models.IntervalMonth, 1
}

func itemKey(item *models.SubscriptionItem) string {
	if item.Plan != nil {
		return "plan:" + item.Plan.ID
	}
	if item.Price != nil {
		return "price:" + item.Price.ID
	}
	return ""
}

// resolveItem looks up the plan or price of spec without storing anything.
func (s *Service) resolveItem(account string, spec itemSpec) (itemPlan, error) {
	r := itemPlan{spec: spec}
	switch {
	case spec.plan != "" && spec.price != "":
		return r, apierror.InvalidRequest("You may only specify one of these parameters: plan, price.", spec.p.Name("price"))
	case spec.plan != "":
		if plan, ok := s.repos.Plans.Get(account, spec.plan); ok {
			r.plan = plan
		} else {
			r.newPlan = spec.plan
		}
	case spec.price != "":
		price, ok := s.repos.Prices.Get(account, spec.price)
		if !ok {
			r.newPrice = spec.price
			break
		}
		if price.Recurring == nil {
			return r, apierror.InvalidRequest("The price specified is set to `type=one_time` but this field only accepts prices with `type=recurring`.", spec.p.Name("price"))
		}
		r.price = price
	default:
		return r, apierror.ParameterMissing(spec.p.Name("plan"))
	}

	taxRates, err := s.resolveTaxRates(account, spec.taxRates.Value, spec.p.Name("tax_rates"))
	if err != nil {
		return r, err
	}
	r.taxRates = taxRates
	return r, nil
}

// materialize stores the plan or price r refers to when nobody created it.
// Callers hold s.mu.
func (s *Service) materialize(account string, r *itemPlan) error {
	var err error
	switch {
	case r.newPlan != "":
		r.plan, err = s.fabricatePlan(account, r.newPlan)
		r.newPlan = ""
	case r.newPrice != "":
		r.price, err = s.fabricatePrice(account, r.newPrice)
		r.newPrice = ""
	}
	return err
}

func (s *Service) resolveTaxRates(account string, ids []string, param string) ([]*models.TaxRate, error) {
	out := make([]*models.TaxRate, 0, len(ids))
	for _, id := range ids {
		tr, err := get(s.repos.TaxRates, account, id, "tax_rate", param)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}

// putItem stores a new item of subscription subID. Callers hold s.mu.
func (s *Service) putItem(account, subID, id string, r itemPlan) (*models.SubscriptionItem, error) {
	if id == "" {
		id = idgen.New("si")
	}
	item := &models.SubscriptionItem{
		ID:           id,
		Object:       models.ObjectSubscriptionItem,
		Created:      s.now().Unix(),
		Metadata:     models.ApplyMetadata(nil, r.spec.metadata.Value),
		Plan:         r.plan,
		Price:        r.price,
		Quantity:     r.spec.quantity.Or(1),
		Subscription: subID,
		TaxRates:     r.taxRates,
	}
	if err := put(s.repos.SubscriptionItems, account, item, "subscription_item"); err != nil {
		return nil, err
	}
	return item, nil
}

// subscriptionItems returns the items of a subscription, oldest first.
func (s *Service) subscriptionItems(account, subID string) []*models.SubscriptionItem {
	var items []*models.SubscriptionItem
	for _, item := range s.repos.SubscriptionItems.GetAll(account) {
		if item.Subscription == subID {
			items = append(items, item)
		}
	}
	slices.Reverse(items)
	return items
}

// syncSubscription rebuilds the embedded item list of sub. Plan and quantity
// mirror the item when there is exactly one. Callers hold s.mu.
func (s *Service) syncSubscription(account string, sub *models.Subscription) (*models.Subscription, error) {
	out := *sub
	items := s.subscriptionItems(account, sub.ID)
	out.Items = models.NewList(fmt.Sprintf("/v1/subscription_items?subscription=%s", sub.ID), items, false)
	out.Plan = nil
	out.Quantity = nil
	if len(items) == 1 {
		out.Plan = items[0].Plan
		out.Quantity = models.Int64(items[0].Quantity)
	}
	if err := replace(s.repos.Subscriptions, account, &out, "subscription"); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSubscription subscribes a customer to one or more plans or prices.
func (s *Service) CreateSubscription(ctx context.Context, account string, p *params.Params) (*models.Subscription, error) {
	if err := validation.RequiredParams(p, "customer"); err != nil {
		return nil, err
	}
	specs, err := readItemSpecs(p)
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, apierror.ParameterMissing("items")
	}
	trial, err := readTrialDays(p)
	if err != nil {
		return nil, err
	}
	cancelAtPeriodEnd, err := p.Bool("cancel_at_period_end")
	if err != nil {
		return nil, err
	}
	taxIDs, err := p.Strings("default_tax_rates")
	if err != nil {
		return nil, err
	}
	metadata, err := createMetadata(p)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkFreeID(s.repos.Subscriptions, account, p, "subscription"); err != nil {
		return nil, err
	}
	customer, err := get(s.repos.Customers, account, p.String("customer").Value, "customer", "customer")
	if err != nil {
		return nil, err
	}
	taxRates, err := s.resolveTaxRates(account, taxIDs.Value, "default_tax_rates")
	if err != nil {
		return nil, err
	}

	resolved := make([]itemPlan, 0, len(specs))
	seen := map[string]bool{}
	var amount int64
	for _, spec := range specs {
		r, err := s.resolveItem(account, spec)
		if err != nil {
			return nil, err
		}
		if seen[r.key()] {
			return nil, apierror.InvalidRequest(fmt.Sprintf("Cannot add multiple subscription items with the same plan: %s", r.spec.plan+r.spec.price), spec.p.Name("plan"))
		}
		seen[r.key()] = true
		amount += r.amount(spec.quantity.Or(1))
		resolved = append(resolved, r)
	}

	trialDays := trial.Value
	if !trial.IsSet() && len(resolved) == 1 && resolved[0].plan != nil && resolved[0].plan.TrialPeriodDays != nil {
		trialDays = *resolved[0].plan.TrialPeriodDays
	}
	if amount > 0 && trialDays == 0 && customer.DefaultSource == nil {
		return nil, apierror.InvalidRequestCode(apierror.CodeMissingPaymentSource,
			"This customer has no attached payment source or default payment method.", "")
	}

	for i := range resolved {
		if err := s.materialize(account, &resolved[i]); err != nil {
			return nil, err
		}
	}

	now := s.now()
	interval, count := resolved[0].interval()
	sub := &models.Subscription{
		ID:                 newID(p, "sub"),
		Object:             models.ObjectSubscription,
		BillingCycleAnchor: now.Unix(),
		CancelAtPeriodEnd:  cancelAtPeriodEnd.Or(false),
		Created:            now.Unix(),
		CurrentPeriodEnd:   addInterval(now, interval, count).Unix(),
		CurrentPeriodStart: now.Unix(),
		Customer:           customer.ID,
		DefaultTaxRates:    taxRates,
		Metadata:           metadata,
		StartDate:          now.Unix(),
		Status:             models.SubscriptionStatusActive,
	}
	if trialDays > 0 {
		end := now.AddDate(0, 0, int(trialDays)).Unix()
		sub.TrialStart = models.Int64(now.Unix())
		sub.TrialEnd = models.Int64(end)
		sub.CurrentPeriodEnd = end
		sub.BillingCycleAnchor = end
		sub.Status = models.SubscriptionStatusTrialing
	}
	if err := put(s.repos.Subscriptions, account, sub, "subscription"); err != nil {
		return nil, err
	}
	for _, r := range resolved {
		if _, err := s.putItem(account, sub.ID, "", r); err != nil {
			return nil, err
		}
	}
	return s.syncSubscription(account, sub)
}

// RetrieveSubscription returns a subscription.
func (s *Service) RetrieveSubscription(ctx context.Context, account, id, param string) (*models.Subscription, error) {
	return get(s.repos.Subscriptions, account, id, "subscription", param)
}

// itemChange is one validated modification of a subscription's items.
type itemChange struct {
	target  *models.SubscriptionItem
	r       itemPlan
	hasRef  bool
	deleted bool
}

// UpdateSubscription changes metadata, tax rates and cancel_at_period_end,
// and adds, changes or removes items.
func (s *Service) UpdateSubscription(ctx context.Context, account, id string, p *params.Params) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := get(s.repos.Subscriptions, account, id, "subscription", "id")
	if err != nil {
		return nil, err
	}
	if current.Status == models.SubscriptionStatusCanceled {
		for _, k := range p.Keys() {
			if k != "metadata" {
				return nil, apierror.InvalidRequest("A canceled subscription can only update its metadata.", k)
			}
		}
	}
	metadata, err := updateMetadata(p, current.Metadata)
	if err != nil {
		return nil, err
	}
	cancelAtPeriodEnd, err := optionalBool(p, "cancel_at_period_end", current.CancelAtPeriodEnd)
	if err != nil {
		return nil, err
	}
	taxIDs, err := p.Strings("default_tax_rates")
	if err != nil {
		return nil, err
	}
	taxRates := current.DefaultTaxRates
	if taxIDs.Present() {
		if taxRates, err = s.resolveTaxRates(account, taxIDs.Value, "default_tax_rates"); err != nil {
			return nil, err
		}
	}

	existing := s.subscriptionItems(account, id)
	var specs []itemSpec
	if p.Has("plan") || p.Has("quantity") {
		if p.Has("items") {
			return nil, apierror.InvalidRequest("You may only specify one of these parameters: items, plan.", "plan")
		}
		if len(existing) != 1 {
			return nil, apierror.InvalidRequest("This subscription has multiple items; update them through items instead.", "plan")
		}
		spec, err := readItemSpec(p, true)
		if err != nil {
			return nil, err
		}
		spec.id = existing[0].ID
		specs = []itemSpec{spec}
	} else if specs, err = readItemSpecs(p); err != nil {
		return nil, err
	}

	changes, err := s.planItemChanges(account, existing, specs)
	if err != nil {
		return nil, err
	}
	if err := s.applyItemChanges(account, id, changes); err != nil {
		return nil, err
	}

	sub, _ := s.repos.Subscriptions.Get(account, id)
	updated := *sub
	updated.CancelAtPeriodEnd = cancelAtPeriodEnd
	updated.DefaultTaxRates = taxRates
	updated.Metadata = metadata
	return s.syncSubscription(account, &updated)
}

// planItemChanges validates every requested item modification against the
// subscription's current items without changing anything.
func (s *Service) planItemChanges(account string, existing []*models.SubscriptionItem, specs []itemSpec) ([]itemChange, error) {
	byID := make(map[string]*models.SubscriptionItem, len(existing))
	keys := make(map[string]string, len(existing))
	for _, item := range existing {
		byID[item.ID] = item
		keys[item.ID] = itemKey(item)
	}

	changes := make([]itemChange, 0, len(specs))
	added := 0
	for _, spec := range specs {
		var target *models.SubscriptionItem
		if spec.id != "" {
			var ok bool
			if target, ok = byID[spec.id]; !ok {
				return nil, apierror.ResourceMissing("subscription_item", spec.id, spec.p.Name("id"))
			}
		}
		if spec.deleted {
			if target == nil {
				return nil, apierror.ParameterMissing(spec.p.Name("id"))
			}
			delete(keys, target.ID)
			changes = append(changes, itemChange{target: target, deleted: true})
			continue
		}

		c := itemChange{target: target, r: itemPlan{spec: spec}}
		if target == nil || spec.plan != "" || spec.price != "" {
			r, err := s.resolveItem(account, spec)
			if err != nil {
				return nil, err
			}
			c.r = r
			c.hasRef = true
		} else if spec.taxRates.Present() {
			taxRates, err := s.resolveTaxRates(account, spec.taxRates.Value, spec.p.Name("tax_rates"))
			if err != nil {
				return nil, err
			}
			c.r.taxRates = taxRates
		}
		if c.hasRef {
			slot := fmt.Sprintf("new:%d", added)
			if target != nil {
				slot = target.ID
			} else {
				added++
			}
			for other, key := range keys {
				if other != slot && key == c.r.key() {
					return nil, apierror.InvalidRequest(fmt.Sprintf("Cannot add multiple subscription items with the same plan: %s", spec.plan+spec.price), spec.p.Name("plan"))
				}
			}
			keys[slot] = c.r.key()
		}
		changes = append(changes, c)
	}
	if len(keys) == 0 {
		return nil, apierror.InvalidRequest("A subscription must have at least one active item.", "items")
	}
	return changes, nil
}

// applyItemChanges stores validated item changes. Callers hold s.mu.
func (s *Service) applyItemChanges(account, subID string, changes []itemChange) error {
	for _, c := range changes {
		switch {
		case c.deleted:
			s.repos.SubscriptionItems.Remove(account, c.target.ID)
			continue
		case c.hasRef:
			if err := s.materialize(account, &c.r); err != nil {
				return err
			}
		}
		if c.target == nil {
			if _, err := s.putItem(account, subID, "", c.r); err != nil {
				return err
			}
			continue
		}

		item := *c.target
		spec := c.r.spec
		if c.hasRef {
			item.Plan = c.r.plan
			item.Price = c.r.price
		}
		if spec.taxRates.Present() {
			item.TaxRates = c.r.taxRates
		}
		item.Quantity = spec.quantity.Or(item.Quantity)
		switch spec.metadata.State {
		case params.Set:
			item.Metadata = models.ApplyMetadata(item.Metadata, spec.metadata.Value)
		case params.Null:
			item.Metadata = map[string]string{}
		}
		if err := replace(s.repos.SubscriptionItems, account, &item, "subscription_item"); err != nil {
			return err
		}
	}
	return nil
}

// CancelSubscription ends a subscription immediately.
func (s *Service) CancelSubscription(ctx context.Context, account, id string) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := get(s.repos.Subscriptions, account, id, "subscription", "id")
	if err != nil {
		return nil, err
	}
	if current.Status == models.SubscriptionStatusCanceled {
		return nil, apierror.InvalidRequest(fmt.Sprintf("Subscription %s has already been canceled.", id), "id")
	}
	return s.cancelSubscription(account, current)
}

// cancelSubscription marks sub canceled. Callers hold s.mu.
func (s *Service) cancelSubscription(account string, sub *models.Subscription) (*models.Subscription, error) {
	now := s.now().Unix()
	c := *sub
	c.Status = models.SubscriptionStatusCanceled
	c.CanceledAt = models.Int64(now)
	c.EndedAt = models.Int64(now)
	if err := replace(s.repos.Subscriptions, account, &c, "subscription"); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListSubscriptions lists subscriptions, filtered by customer, plan, price
// and status. Canceled subscriptions only show up when asked for.
func (s *Service) ListSubscriptions(ctx context.Context, account string, p *params.Params) (listing.Page[*models.Subscription], error) {
	status := p.String("status")
	if status.IsSet() {
		if err := validation.OneOf(status.Value, "status",
			models.SubscriptionStatusActive, models.SubscriptionStatusTrialing, models.SubscriptionStatusPastDue,
			models.SubscriptionStatusCanceled, models.SubscriptionStatusUnpaid, models.SubscriptionStatusIncomplete, "all"); err != nil {
			return listing.Page[*models.Subscription]{}, err
		}
	}
	customer := p.String("customer")
	plan := p.String("plan")
	price := p.String("price")
	return list(s.repos.Subscriptions, account, "subscription", p, func(sub *models.Subscription) bool {
		switch {
		case !status.IsSet() && sub.Status == models.SubscriptionStatusCanceled:
			return false
		case status.IsSet() && status.Value != "all" && sub.Status != status.Value:
			return false
		case customer.IsSet() && sub.Customer != customer.Value:
			return false
		}
		if !plan.IsSet() && !price.IsSet() {
			return true
		}
		for _, item := range sub.Items.Data {
			if plan.IsSet() && item.Plan != nil && item.Plan.ID == plan.Value {
				return true
			}
			if price.IsSet() && item.Price != nil && item.Price.ID == price.Value {
				return true
			}
		}
		return false
	})
}

// CreateSubscriptionItem adds an item to a subscription.
func (s *Service) CreateSubscriptionItem(ctx context.Context, account string, p *params.Params) (*models.SubscriptionItem, error) {
	if err := validation.RequiredParams(p, "subscription"); err != nil {
		return nil, err
	}
	spec, err := readItemSpec(p, false)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkFreeID(s.repos.SubscriptionItems, account, p, "subscription_item"); err != nil {
		return nil, err
	}
	sub, err := get(s.repos.Subscriptions, account, p.String("subscription").Value, "subscription", "subscription")
	if err != nil {
		return nil, err
	}
	if sub.Status == models.SubscriptionStatusCanceled {
		return nil, apierror.InvalidRequest("Items cannot be added to a canceled subscription.", "subscription")
	}
	r, err := s.resolveItem(account, spec)
	if err != nil {
		return nil, err
	}
	for _, item := range s.subscriptionItems(account, sub.ID) {
		if itemKey(item) == r.key() {
			return nil, apierror.InvalidRequest(fmt.Sprintf("Cannot add multiple subscription items with the same plan: %s", spec.plan+spec.price), "plan")
		}
	}
	if err := s.materialize(account, &r); err != nil {
		return nil, err
	}
	item, err := s.putItem(account, sub.ID, spec.id, r)
	if err != nil {
		return nil, err
	}
	if _, err := s.syncSubscription(account, sub); err != nil {
		return nil, err
	}
	return item, nil
}

// RetrieveSubscriptionItem returns a subscription item.
func (s *Service) RetrieveSubscriptionItem(ctx context.Context, account, id string) (*models.SubscriptionItem, error) {
	return get(s.repos.SubscriptionItems, account, id, "subscription_item", "id")
}

// UpdateSubscriptionItem changes an item's plan or price, quantity, tax
// rates and metadata.
func (s *Service) UpdateSubscriptionItem(ctx context.Context, account, id string, p *params.Params) (*models.SubscriptionItem, error) {
	spec, err := readItemSpec(p, false)
	if err != nil {
		return nil, err
	}
	spec.id = id
	spec.deleted = false

	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := get(s.repos.SubscriptionItems, account, id, "subscription_item", "id")
	if err != nil {
		return nil, err
	}
	sub, err := get(s.repos.Subscriptions, account, item.Subscription, "subscription", "subscription")
	if err != nil {
		return nil, err
	}
	changes, err := s.planItemChanges(account, s.subscriptionItems(account, sub.ID), []itemSpec{spec})
	if err != nil {
		return nil, err
	}
	if err := s.applyItemChanges(account, sub.ID, changes); err != nil {
		return nil, err
	}
	if _, err := s.syncSubscription(account, sub); err != nil {
		return nil, err
	}
	updated, _ := s.repos.SubscriptionItems.Get(account, id)
	return updated, nil
}

// DeleteSubscriptionItem removes an item. The last item of a subscription
// cannot be removed; cancel the subscription instead.
func (s *Service) DeleteSubscriptionItem(ctx context.Context, account, id string) (*models.Deleted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := get(s.repos.SubscriptionItems, account, id, "subscription_item", "id")
	if err != nil {
		return nil, err
	}
	sub, err := get(s.repos.Subscriptions, account, item.Subscription, "subscription", "subscription")
	if err != nil {
		return nil, err
	}
	if len(s.subscriptionItems(account, sub.ID)) <= 1 {
		return nil, apierror.InvalidRequest("A subscription must have at least one active item. To remove the last item, cancel the subscription instead.", "id")
	}
	s.repos.SubscriptionItems.Remove(account, id)
	if _, err := s.syncSubscription(account, sub); err != nil {
		return nil, err
	}
	return models.NewDeleted(id, models.ObjectSubscriptionItem), nil
}

// ListSubscriptionItems lists the items of one subscription.
func (s *Service) ListSubscriptionItems(ctx context.Context, account string, p *params.Params) (listing.Page[*models.SubscriptionItem], error) {
	if err := validation.RequiredParams(p, "subscription"); err != nil {
		return listing.Page[*models.SubscriptionItem]{}, err
	}
	subID := p.String("subscription").Value
	if _, err := get(s.repos.Subscriptions, account, subID, "subscription", "subscription"); err != nil {
		return listing.Page[*models.SubscriptionItem]{}, err
	}
	return list(s.repos.SubscriptionItems, account, "subscription_item", p, func(item *models.SubscriptionItem) bool {
		return item.Subscription == subID
	})
}
