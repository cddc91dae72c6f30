package billing

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/idgen"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
	"github.com/ManuelReschke/PayFox/internal/pkg/validation"
)

const (
	captureAutomatic = "automatic"
	captureManual    = "manual"

	clientSecretLength = 24
)

var cancellationReasons = []string{"duplicate", "fraudulent", "requested_by_customer", "abandoned"}

func intentStateError(action string, pi *models.PaymentIntent) error {
	return apierror.InvalidRequestCode(apierror.CodePaymentIntentState,
		fmt.Sprintf("You cannot %s this PaymentIntent because it has a status of %s.", action, pi.Status), "")
}

// CreatePaymentIntent creates a payment intent, and confirms it right away
// when confirm=true.
func (s *Service) CreatePaymentIntent(ctx context.Context, account string, p *params.Params) (*models.PaymentIntent, error) {
	amount, currency, err := readAmount(p, "amount")
	if err != nil {
		return nil, err
	}
	captureMethod := p.String("capture_method").Or(captureAutomatic)
	if err := validation.OneOf(captureMethod, "capture_method", captureAutomatic, captureManual); err != nil {
		return nil, err
	}
	confirmationMethod := p.String("confirmation_method").Or(captureAutomatic)
	if err := validation.OneOf(confirmationMethod, "confirmation_method", captureAutomatic, captureManual); err != nil {
		return nil, err
	}
	methodTypes, err := p.Strings("payment_method_types")
	if err != nil {
		return nil, err
	}
	confirm, err := p.Bool("confirm")
	if err != nil {
		return nil, err
	}
	receiptEmail, err := readReceiptEmail(p)
	if err != nil {
		return nil, err
	}
	metadata, err := createMetadata(p)
	if err != nil {
		return nil, err
	}
	slug, err := idgen.GenerateSecureSlug(clientSecretLength)
	if err != nil {
		return nil, apierror.APIError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkFreeID(s.repos.PaymentIntents, account, p, "payment_intent"); err != nil {
		return nil, err
	}
	customer := p.String("customer")
	if customer.IsSet() {
		if _, err := get(s.repos.Customers, account, customer.Value, "customer", "customer"); err != nil {
			return nil, err
		}
	}

	id := newID(p, "pi")
	pi := &models.PaymentIntent{
		ID:                 id,
		Object:             models.ObjectPaymentIntent,
		Amount:             amount,
		CaptureMethod:      captureMethod,
		ClientSecret:       id + "_secret_" + slug,
		ConfirmationMethod: confirmationMethod,
		Created:            s.now().Unix(),
		Currency:           currency,
		Customer:           optionalString(customer, nil),
		Description:        optionalString(p.String("description"), nil),
		Metadata:           metadata,
		PaymentMethod:      optionalString(p.String("payment_method"), nil),
		PaymentMethodTypes: methodTypes.Or([]string{"card"}),
		ReceiptEmail:       optionalString(receiptEmail, nil),
		Status:             models.PaymentIntentRequiresPaymentMethod,
	}
	if pi.PaymentMethod != nil {
		pi.Status = models.PaymentIntentRequiresConfirmation
	}
	if err := put(s.repos.PaymentIntents, account, pi, "payment_intent"); err != nil {
		return nil, err
	}
	if confirm.Or(false) {
		confirmed, err := s.confirmIntent(ctx, account, pi, "")
		if err != nil && apierror.From(err).Charge == "" {
			s.repos.PaymentIntents.Remove(account, pi.ID)
		}
		return confirmed, err
	}
	return s.hydrateIntent(account, pi), nil
}

// confirmIntent runs the charge of pi. A declined card sends the intent back
// to requires_payment_method with the decline as last_payment_error.
// Callers hold s.mu.
func (s *Service) confirmIntent(ctx context.Context, account string, pi *models.PaymentIntent, paymentMethod string) (*models.PaymentIntent, error) {
	if pi.Status != models.PaymentIntentRequiresPaymentMethod && pi.Status != models.PaymentIntentRequiresConfirmation {
		return nil, intentStateError("confirm", pi)
	}
	if paymentMethod == "" {
		paymentMethod = models.StringValue(pi.PaymentMethod)
	}
	if paymentMethod == "" {
		return nil, apierror.InvalidRequestCode(apierror.CodeMissingPaymentSource,
			"You cannot confirm this PaymentIntent because it's missing a payment method.", "payment_method")
	}

	ch, err := s.executeCharge(ctx, account, chargeRequest{
		ID:            idgen.New("ch"),
		Amount:        pi.Amount,
		Currency:      pi.Currency,
		Capture:       pi.CaptureMethod == captureAutomatic,
		CustomerID:    models.StringValue(pi.Customer),
		Source:        paymentMethod,
		Description:   pi.Description,
		Metadata:      maps.Clone(pi.Metadata),
		PaymentIntent: models.String(pi.ID),
		ReceiptEmail:  pi.ReceiptEmail,
		TokenSource:   true,
	})
	if err != nil && ch == nil {
		return nil, err
	}

	updated := *pi
	updated.LatestCharge = models.String(ch.ID)
	if err != nil {
		var apiErr *apierror.Error
		if errors.As(err, &apiErr) {
			updated.LastPaymentError = apiErr
		}
		updated.PaymentMethod = nil
		updated.Status = models.PaymentIntentRequiresPaymentMethod
		if rerr := replace(s.repos.PaymentIntents, account, &updated, "payment_intent"); rerr != nil {
			return nil, rerr
		}
		return nil, err
	}

	updated.LastPaymentError = nil
	updated.PaymentMethod = models.String(paymentMethod)
	if ch.Captured {
		updated.AmountReceived = ch.Amount
		updated.Status = models.PaymentIntentSucceeded
	} else {
		updated.AmountCapturable = ch.Amount
		updated.Status = models.PaymentIntentRequiresCapture
	}
	if err := replace(s.repos.PaymentIntents, account, &updated, "payment_intent"); err != nil {
		return nil, err
	}
	return s.hydrateIntent(account, &updated), nil
}

// hydrateIntent embeds the charges made for pi.
func (s *Service) hydrateIntent(account string, pi *models.PaymentIntent) *models.PaymentIntent {
	out := *pi
	charges := []*models.Charge{}
	for _, ch := range s.repos.Charges.GetAll(account) {
		if models.StringValue(ch.PaymentIntent) == pi.ID {
			charges = append(charges, ch)
		}
	}
	out.Charges = models.NewList(fmt.Sprintf("/v1/charges?payment_intent=%s", pi.ID), charges, false)
	return &out
}

// RetrievePaymentIntent returns a payment intent with its charges.
func (s *Service) RetrievePaymentIntent(ctx context.Context, account, id string) (*models.PaymentIntent, error) {
	pi, err := get(s.repos.PaymentIntents, account, id, "payment_intent", "intent")
	if err != nil {
		return nil, err
	}
	return s.hydrateIntent(account, pi), nil
}

// UpdatePaymentIntent changes an unconfirmed intent.
func (s *Service) UpdatePaymentIntent(ctx context.Context, account, id string, p *params.Params) (*models.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := get(s.repos.PaymentIntents, account, id, "payment_intent", "intent")
	if err != nil {
		return nil, err
	}
	if current.Status != models.PaymentIntentRequiresPaymentMethod && current.Status != models.PaymentIntentRequiresConfirmation {
		return nil, intentStateError("update", current)
	}
	amount, err := p.Int64("amount")
	if err != nil {
		return nil, err
	}
	currency := lowerCurrency(p, "currency")
	if currency.IsSet() {
		if err := validation.Currency(currency.Value, "currency"); err != nil {
			return nil, err
		}
	}
	newCurrency := currency.Or(current.Currency)
	if amount.IsSet() {
		if err := validation.Amount(amount.Value, "amount"); err != nil {
			return nil, err
		}
	}
	newAmount := amount.Or(current.Amount)
	if err := validation.MinimumAmount(newAmount, newCurrency, "amount"); err != nil {
		return nil, err
	}
	receiptEmail, err := readReceiptEmail(p)
	if err != nil {
		return nil, err
	}
	customer := p.String("customer")
	if customer.IsSet() {
		if _, err := get(s.repos.Customers, account, customer.Value, "customer", "customer"); err != nil {
			return nil, err
		}
	}
	metadata, err := updateMetadata(p, current.Metadata)
	if err != nil {
		return nil, err
	}

	pi := *current
	pi.Amount = newAmount
	pi.Currency = newCurrency
	pi.Customer = optionalString(customer, current.Customer)
	pi.Description = optionalString(p.String("description"), current.Description)
	pi.ReceiptEmail = optionalString(receiptEmail, current.ReceiptEmail)
	pi.PaymentMethod = optionalString(p.String("payment_method"), current.PaymentMethod)
	pi.Metadata = metadata
	pi.Status = models.PaymentIntentRequiresPaymentMethod
	if pi.PaymentMethod != nil {
		pi.Status = models.PaymentIntentRequiresConfirmation
	}
	if err := replace(s.repos.PaymentIntents, account, &pi, "payment_intent"); err != nil {
		return nil, err
	}
	return s.hydrateIntent(account, &pi), nil
}

// ConfirmPaymentIntent charges the intent's payment method.
func (s *Service) ConfirmPaymentIntent(ctx context.Context, account, id string, p *params.Params) (*models.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pi, err := get(s.repos.PaymentIntents, account, id, "payment_intent", "intent")
	if err != nil {
		return nil, err
	}
	return s.confirmIntent(ctx, account, pi, p.String("payment_method").Value)
}

// CapturePaymentIntent captures the authorized charge of a manual-capture
// intent.
func (s *Service) CapturePaymentIntent(ctx context.Context, account, id string, p *params.Params) (*models.PaymentIntent, error) {
	amount, err := p.Int64("amount_to_capture")
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := get(s.repos.PaymentIntents, account, id, "payment_intent", "intent")
	if err != nil {
		return nil, err
	}
	if current.Status != models.PaymentIntentRequiresCapture {
		return nil, intentStateError("capture", current)
	}
	ch, err := get(s.repos.Charges, account, models.StringValue(current.LatestCharge), "charge", "intent")
	if err != nil {
		return nil, err
	}
	captured, err := s.captureCharge(account, ch, amount, "amount_to_capture")
	if err != nil {
		return nil, err
	}

	pi := *current
	pi.AmountCapturable = 0
	pi.AmountReceived = captured.AmountCaptured
	pi.Status = models.PaymentIntentSucceeded
	if err := replace(s.repos.PaymentIntents, account, &pi, "payment_intent"); err != nil {
		return nil, err
	}
	return s.hydrateIntent(account, &pi), nil
}

// CancelPaymentIntent cancels an intent that has not succeeded. An
// authorized charge is released in full.
func (s *Service) CancelPaymentIntent(ctx context.Context, account, id string, p *params.Params) (*models.PaymentIntent, error) {
	reason := p.String("cancellation_reason")
	if reason.IsSet() {
		if err := validation.OneOf(reason.Value, "cancellation_reason", cancellationReasons...); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := get(s.repos.PaymentIntents, account, id, "payment_intent", "intent")
	if err != nil {
		return nil, err
	}
	if current.Status == models.PaymentIntentSucceeded || current.Status == models.PaymentIntentCanceled {
		return nil, intentStateError("cancel", current)
	}
	if current.Status == models.PaymentIntentRequiresCapture {
		ch, err := get(s.repos.Charges, account, models.StringValue(current.LatestCharge), "charge", "intent")
		if err != nil {
			return nil, err
		}
		if _, _, err := s.recordRefund(account, ch, ch.Refundable(), nil, map[string]string{}, false); err != nil {
			return nil, err
		}
	}

	pi := *current
	pi.AmountCapturable = 0
	pi.CanceledAt = models.Int64(s.now().Unix())
	pi.CancellationReason = optionalString(reason, nil)
	pi.Status = models.PaymentIntentCanceled
	if err := replace(s.repos.PaymentIntents, account, &pi, "payment_intent"); err != nil {
		return nil, err
	}
	return s.hydrateIntent(account, &pi), nil
}

// ListPaymentIntents lists payment intents, optionally of one customer.
func (s *Service) ListPaymentIntents(ctx context.Context, account string, p *params.Params) (listing.Page[*models.PaymentIntent], error) {
	customer := p.String("customer")
	page, err := list(s.repos.PaymentIntents, account, "payment_intent", p, func(pi *models.PaymentIntent) bool {
		return !customer.IsSet() || models.StringValue(pi.Customer) == customer.Value
	})
	if err != nil {
		return page, err
	}
	for i, pi := range page.Data {
		page.Data[i] = s.hydrateIntent(account, pi)
	}
	return page, nil
}
