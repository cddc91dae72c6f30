package billing

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/idgen"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
	"github.com/ManuelReschke/PayFox/internal/pkg/tokens"
	"github.com/ManuelReschke/PayFox/internal/pkg/validation"
)

// magicCardLifetime is how many years ahead fixed-table cards expire.
const magicCardLifetime = 4

// CreateToken tokenizes raw card details. Test card numbers carry the same
// behavior as their fixed-table token.
func (s *Service) CreateToken(ctx context.Context, account string, p *params.Params) (*models.Token, error) {
	if err := validation.RequiredParams(p, "card"); err != nil {
		return nil, err
	}
	card := p.Sub("card")
	if card == nil {
		return nil, apierror.InvalidRequest("Invalid hash", "card")
	}
	if err := validation.RequiredParams(card, "number", "exp_month", "exp_year"); err != nil {
		return nil, err
	}

	def, ok := tokens.LookupNumber(card.String("number").Value)
	if !ok {
		return nil, apierror.CardError(apierror.CodeIncorrectNumber, "", "Your card number is incorrect.", "number")
	}
	expMonth, err := card.Int64("exp_month")
	if err != nil {
		return nil, err
	}
	if expMonth.Value < 1 || expMonth.Value > 12 {
		return nil, apierror.CardError(apierror.CodeInvalidExpiryMonth, "", "Your card's expiration month is invalid.", "exp_month")
	}
	expYear, err := card.Int64("exp_year")
	if err != nil {
		return nil, err
	}
	year := expYear.Value
	if year < 100 {
		year += 2000
	}
	now := s.now()
	if year < int64(now.Year()) || (year == int64(now.Year()) && expMonth.Value < int64(now.Month())) {
		return nil, apierror.CardError(apierror.CodeInvalidExpiryYear, "", "Your card's expiration year is invalid.", "exp_year")
	}
	cvc := card.String("cvc")
	if cvc.IsSet() {
		if err := validation.Validator().Var(cvc.Value, "numeric,min=3,max=4"); err != nil {
			return nil, apierror.CardError("invalid_cvc", "", "Your card's security code is invalid.", "cvc")
		}
	}

	c := &models.Card{
		ID:             idgen.New("card"),
		Object:         models.ObjectCard,
		AddressCity:    optionalString(card.String("address_city"), nil),
		AddressCountry: optionalString(card.String("address_country"), nil),
		AddressLine1:   optionalString(card.String("address_line1"), nil),
		AddressLine2:   optionalString(card.String("address_line2"), nil),
		AddressState:   optionalString(card.String("address_state"), nil),
		AddressZip:     optionalString(card.String("address_zip"), nil),
		Brand:          def.Brand,
		Country:        def.Country,
		ExpMonth:       expMonth.Value,
		ExpYear:        year,
		Fingerprint:    tokens.FingerprintNumber(def.Number),
		Funding:        def.Funding,
		Last4:          def.Last4,
		Metadata:       map[string]string{},
		Name:           optionalString(card.String("name"), nil),
		Created:        now.Unix(),
		Behavior:       def.Token,
	}
	if cvc.IsSet() {
		c.CvcCheck = models.String("unchecked")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkFreeID(s.repos.Tokens, account, p, "token"); err != nil {
		return nil, err
	}
	t := &models.Token{
		ID:      newID(p, "tok"),
		Object:  models.ObjectToken,
		Card:    c,
		Created: now.Unix(),
		Type:    "card",
	}
	if err := put(s.repos.Tokens, account, t, "token"); err != nil {
		return nil, err
	}
	return t, nil
}

// RetrieveToken returns a stored card token.
func (s *Service) RetrieveToken(ctx context.Context, account, id string) (*models.Token, error) {
	return get(s.repos.Tokens, account, id, "token", "token")
}

// resolveSource consumes one use of a source string: a chain step, a stored
// single-use token, a fixed-table token or a pm_card_* test payment method.
// Callers hold s.mu.
func (s *Service) resolveSource(account, raw, param string) (resolvedSource, error) {
	tok, err := s.tokens.Next(raw, param)
	if err != nil {
		return resolvedSource{}, err
	}
	if strings.HasPrefix(tok, "pm_card_") {
		tok = "tok_" + strings.TrimPrefix(tok, "pm_card_")
	}

	if stored, ok := s.repos.Tokens.Get(account, tok); ok {
		if stored.Used {
			return resolvedSource{}, apierror.InvalidRequestCode(apierror.CodeTokenAlreadyUsed,
				fmt.Sprintf("You cannot use a Stripe token more than once: %s.", tok), param)
		}
		used := *stored
		used.Used = true
		if err := replace(s.repos.Tokens, account, &used, "token"); err != nil {
			return resolvedSource{}, err
		}
		card := *stored.Card
		return resolvedSource{card: &card, def: definitionFor(&card)}, nil
	}

	def, ok := tokens.Lookup(tok)
	if !ok {
		return resolvedSource{}, apierror.ResourceMissing("token", tok, param)
	}
	now := s.now()
	return resolvedSource{
		card: &models.Card{
			ID:          idgen.New("card"),
			Object:      models.ObjectCard,
			Brand:       def.Brand,
			Country:     def.Country,
			ExpMonth:    int64(now.Month()),
			ExpYear:     int64(now.Year() + magicCardLifetime),
			Fingerprint: def.Fingerprint(),
			Funding:     def.Funding,
			Last4:       def.Last4,
			Metadata:    map[string]string{},
			Created:     now.Unix(),
			Behavior:    def.Token,
		},
		def: def,
	}, nil
}

// definitionFor recovers the token behavior a stored card carries.
func definitionFor(card *models.Card) tokens.Definition {
	if card.Behavior != "" {
		if def, ok := tokens.Lookup(card.Behavior); ok {
			return def
		}
	}
	return tokens.Definition{
		Brand:   card.Brand,
		Last4:   card.Last4,
		Country: card.Country,
		Funding: card.Funding,
	}
}

// attachCard stores card on the customer and makes it the default source
// when the customer has none, or when makeDefault is set. Callers hold s.mu.
func (s *Service) attachCard(account string, customer *models.Customer, card *models.Card, makeDefault bool) (*models.Customer, error) {
	card.Customer = models.String(customer.ID)
	if err := put(s.repos.Cards, account, card, "card"); err != nil {
		return nil, err
	}

	c := *customer
	c.SourceIDs = append(slices.Clone(customer.SourceIDs), card.ID)
	if makeDefault || c.DefaultSource == nil {
		c.DefaultSource = models.String(card.ID)
	}
	if err := replace(s.repos.Customers, account, &c, "customer"); err != nil {
		return nil, err
	}
	return &c, nil
}

// customerCard returns a card attached to customer, or a 404 naming param.
func (s *Service) customerCard(account string, customer *models.Customer, cardID, param string) (*models.Card, error) {
	if !slices.Contains(customer.SourceIDs, cardID) {
		return nil, apierror.ResourceMissing("source", cardID, param)
	}
	return get(s.repos.Cards, account, cardID, "source", param)
}

// CreateCard attaches a new card to a customer from a token.
func (s *Service) CreateCard(ctx context.Context, account, customerID string, p *params.Params) (*models.Card, error) {
	if err := validation.RequiredParams(p, "source"); err != nil {
		return nil, err
	}
	metadata, err := createMetadata(p)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	customer, err := get(s.repos.Customers, account, customerID, "customer", "customer")
	if err != nil {
		return nil, err
	}
	src, err := s.resolveSource(account, p.String("source").Value, "source")
	if err != nil {
		return nil, err
	}
	src.card.Metadata = metadata
	if _, err := s.attachCard(account, customer, src.card, false); err != nil {
		return nil, err
	}
	return src.card, nil
}

// RetrieveCard returns a card attached to a customer.
func (s *Service) RetrieveCard(ctx context.Context, account, customerID, id string) (*models.Card, error) {
	customer, err := get(s.repos.Customers, account, customerID, "customer", "customer")
	if err != nil {
		return nil, err
	}
	return s.customerCard(account, customer, id, "id")
}

// ListCards lists the cards of a customer in attachment order, newest first.
func (s *Service) ListCards(ctx context.Context, account, customerID string, p *params.Params) (listing.Page[*models.Card], error) {
	if _, err := get(s.repos.Customers, account, customerID, "customer", "customer"); err != nil {
		return listing.Page[*models.Card]{}, err
	}
	return list(s.repos.Cards, account, "source", p, func(c *models.Card) bool {
		return models.StringValue(c.Customer) == customerID
	})
}

// DeleteCard detaches a card. Deleting the default source promotes the
// oldest remaining card.
func (s *Service) DeleteCard(ctx context.Context, account, customerID, id string) (*models.Deleted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer, err := get(s.repos.Customers, account, customerID, "customer", "customer")
	if err != nil {
		return nil, err
	}
	if _, err := s.customerCard(account, customer, id, "id"); err != nil {
		return nil, err
	}

	c := *customer
	c.SourceIDs = slices.DeleteFunc(slices.Clone(customer.SourceIDs), func(s string) bool { return s == id })
	if models.StringValue(c.DefaultSource) == id {
		c.DefaultSource = nil
		if len(c.SourceIDs) > 0 {
			c.DefaultSource = models.String(c.SourceIDs[0])
		}
	}
	if err := replace(s.repos.Customers, account, &c, "customer"); err != nil {
		return nil, err
	}
	s.repos.Cards.Remove(account, id)
	return models.NewDeleted(id, models.ObjectCard), nil
}
