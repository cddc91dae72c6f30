package billing

import (
	"context"
	"maps"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
	"github.com/ManuelReschke/PayFox/internal/pkg/validation"
)

// Accounts live in the platform partition, whichever account is acting.
const accountPartition = models.DefaultAccountID

// AccountExists reports whether id names the platform or a Connect account.
func (s *Service) AccountExists(id string) bool {
	return id == models.DefaultAccountID || s.repos.Accounts.Contains(accountPartition, id)
}

// platformAccount returns the platform account, creating it on first use.
func (s *Service) platformAccount() *models.Account {
	if a, ok := s.repos.Accounts.Get(accountPartition, models.DefaultAccountID); ok {
		return a
	}
	a := &models.Account{
		ID:               models.DefaultAccountID,
		Object:           models.ObjectAccount,
		ChargesEnabled:   true,
		Country:          "US",
		Created:          s.now().Unix(),
		DefaultCurrency:  "usd",
		DetailsSubmitted: true,
		Metadata:         map[string]string{},
		PayoutsEnabled:   true,
		Settings:         map[string]any{},
		Type:             models.AccountTypeStandard,
	}
	if err := s.repos.Accounts.Put(accountPartition, a); err != nil {
		// lost a race against another first request
		existing, _ := s.repos.Accounts.Get(accountPartition, models.DefaultAccountID)
		return existing
	}
	return a
}

// CreateAccount creates a Connect account. Only the platform may do so.
func (s *Service) CreateAccount(ctx context.Context, account string, p *params.Params) (*models.Account, error) {
	if account != models.DefaultAccountID {
		return nil, apierror.InvalidRequest("Connected accounts cannot create other accounts.", "")
	}
	if err := validation.RequiredParams(p, "type"); err != nil {
		return nil, err
	}
	typ := p.String("type").Value
	if err := validation.OneOf(typ, "type", models.AccountTypeStandard, models.AccountTypeCustom, models.AccountTypeExpress); err != nil {
		return nil, err
	}
	email := p.String("email")
	if email.IsSet() {
		if err := validation.Email(email.Value, "email"); err != nil {
			return nil, err
		}
	}
	businessType := p.String("business_type")
	if businessType.IsSet() {
		if err := validation.OneOf(businessType.Value, "business_type", "individual", "company", "non_profit", "government_entity"); err != nil {
			return nil, err
		}
	}
	currency := lowerCurrency(p, "default_currency")
	if currency.IsSet() {
		if err := validation.Currency(currency.Value, "default_currency"); err != nil {
			return nil, err
		}
	}
	metadata, err := createMetadata(p)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.platformAccount()
	if err := checkFreeID(s.repos.Accounts, accountPartition, p, "account"); err != nil {
		return nil, err
	}

	settings := map[string]any{}
	if sub := p.Sub("settings"); sub != nil {
		settings = deepCopy(sub.Tree())
	}

	a := &models.Account{
		ID:              newID(p, "acct"),
		Object:          models.ObjectAccount,
		BusinessType:    optionalString(businessType, nil),
		Country:         p.String("country").Or("US"),
		Created:         s.now().Unix(),
		DefaultCurrency: currency.Or("usd"),
		Email:           optionalString(email, nil),
		Metadata:        metadata,
		Settings:        settings,
		Type:            typ,
	}
	if err := put(s.repos.Accounts, accountPartition, a, "account"); err != nil {
		return nil, err
	}
	return a, nil
}

// RetrieveAccount returns id, or the acting account when id is empty.
func (s *Service) RetrieveAccount(ctx context.Context, account, id string) (*models.Account, error) {
	if id == "" {
		id = account
	}
	if id == models.DefaultAccountID {
		return s.platformAccount(), nil
	}
	if account != models.DefaultAccountID && account != id {
		return nil, apierror.ResourceMissing("account", id, "account")
	}
	return get(s.repos.Accounts, accountPartition, id, "account", "account")
}

// UpdateAccount changes email, business type, settings and metadata.
func (s *Service) UpdateAccount(ctx context.Context, account, id string, p *params.Params) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.RetrieveAccount(ctx, account, id)
	if err != nil {
		return nil, err
	}

	email := p.String("email")
	if email.IsSet() {
		if err := validation.Email(email.Value, "email"); err != nil {
			return nil, err
		}
	}
	businessType := p.String("business_type")
	if businessType.IsSet() {
		if err := validation.OneOf(businessType.Value, "business_type", "individual", "company", "non_profit", "government_entity"); err != nil {
			return nil, err
		}
	}
	metadata, err := updateMetadata(p, current.Metadata)
	if err != nil {
		return nil, err
	}

	a := *current
	a.Email = optionalString(email, current.Email)
	a.BusinessType = optionalString(businessType, current.BusinessType)
	a.Metadata = metadata
	if sub := p.Sub("settings"); sub != nil {
		a.Settings = mergeTree(current.Settings, sub.Tree())
	}
	if err := replace(s.repos.Accounts, accountPartition, &a, "account"); err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteAccount removes a Connect account. The platform cannot be deleted.
func (s *Service) DeleteAccount(ctx context.Context, account, id string) (*models.Deleted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == models.DefaultAccountID {
		return nil, apierror.InvalidRequest("The platform account cannot be deleted.", "account")
	}
	if _, err := s.RetrieveAccount(ctx, account, id); err != nil {
		return nil, err
	}
	s.repos.Accounts.Remove(accountPartition, id)
	return models.NewDeleted(id, models.ObjectAccount), nil
}

// ListAccounts lists the Connect accounts of the platform.
func (s *Service) ListAccounts(ctx context.Context, account string, p *params.Params) (listing.Page[*models.Account], error) {
	if account != models.DefaultAccountID {
		return listing.Page[*models.Account]{Data: []*models.Account{}}, nil
	}
	return list(s.repos.Accounts, accountPartition, "account", p, func(a *models.Account) bool {
		return a.ID != models.DefaultAccountID
	})
}

func deepCopy(tree map[string]any) map[string]any {
	out := make(map[string]any, len(tree))
	for k, v := range tree {
		out[k] = copyNode(v)
	}
	return out
}

func copyNode(v any) any {
	switch n := v.(type) {
	case map[string]any:
		return deepCopy(n)
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = copyNode(e)
		}
		return out
	}
	return v
}

// mergeTree overlays update onto a copy of current, recursing into hashes.
func mergeTree(current, update map[string]any) map[string]any {
	out := maps.Clone(current)
	if out == nil {
		out = map[string]any{}
	}
	for k, v := range update {
		cur, curIsMap := out[k].(map[string]any)
		upd, updIsMap := v.(map[string]any)
		if curIsMap && updIsMap {
			out[k] = mergeTree(cur, upd)
			continue
		}
		out[k] = copyNode(v)
	}
	return out
}
