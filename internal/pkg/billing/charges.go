package billing

import (
	"context"
	"fmt"
	"slices"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/idgen"
	"github.com/ManuelReschke/PayFox/internal/pkg/jobqueue"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
	"github.com/ManuelReschke/PayFox/internal/pkg/validation"
)

const statementDescriptorMax = 22

// readAmount reads a required charge amount and checks it against the
// currency's bounds.
func readAmount(p *params.Params, amountParam string) (int64, string, error) {
	if err := validation.RequiredParams(p, amountParam, "currency"); err != nil {
		return 0, "", err
	}
	amount, err := p.Int64(amountParam)
	if err != nil {
		return 0, "", err
	}
	if err := validation.Amount(amount.Value, amountParam); err != nil {
		return 0, "", err
	}
	currency := lowerCurrency(p, "currency").Value
	if err := validation.Currency(currency, "currency"); err != nil {
		return 0, "", err
	}
	if err := validation.MinimumAmount(amount.Value, currency, amountParam); err != nil {
		return 0, "", err
	}
	return amount.Value, currency, nil
}

func readStatementDescriptor(p *params.Params) (params.Field[string], error) {
	f := p.String("statement_descriptor")
	if f.IsSet() {
		if err := validation.MaxLength(f.Value, statementDescriptorMax, "statement_descriptor"); err != nil {
			return f, err
		}
	}
	return f, nil
}

func readReceiptEmail(p *params.Params) (params.Field[string], error) {
	f := p.String("receipt_email")
	if f.IsSet() {
		if err := validation.Email(f.Value, "receipt_email"); err != nil {
			return f, err
		}
	}
	return f, nil
}

// CreateCharge charges a source token, or a customer's card.
func (s *Service) CreateCharge(ctx context.Context, account string, p *params.Params) (*models.Charge, error) {
	amount, currency, err := readAmount(p, "amount")
	if err != nil {
		return nil, err
	}
	capture, err := p.Bool("capture")
	if err != nil {
		return nil, err
	}
	descriptor, err := readStatementDescriptor(p)
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
	customer := p.String("customer")
	source := p.String("source")
	if !customer.IsSet() && !source.IsSet() {
		return nil, apierror.InvalidRequestCode(apierror.CodeMissingPaymentSource, "Must provide source or customer.", "")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkFreeID(s.repos.Charges, account, p, "charge"); err != nil {
		return nil, err
	}
	return s.executeCharge(ctx, account, chargeRequest{
		ID:                  newID(p, "ch"),
		Amount:              amount,
		Currency:            currency,
		Capture:             capture.Or(true),
		CustomerID:          customer.Value,
		Source:              source.Value,
		Description:         optionalString(p.String("description"), nil),
		Metadata:            metadata,
		ReceiptEmail:        optionalString(receiptEmail, nil),
		StatementDescriptor: optionalString(descriptor, nil),
	})
}

// executeCharge resolves the card to charge, applies its token's effects and
// stores the charge. A declined charge is stored as failed and returned
// together with the card error. Callers hold s.mu.
func (s *Service) executeCharge(ctx context.Context, account string, req chargeRequest) (*models.Charge, error) {
	card, src, err := s.chargeCard(account, req)
	if err != nil {
		return nil, err
	}
	def := src.def
	if err := def.PreChargeError(); err != nil {
		return nil, err
	}

	now := s.now()
	outcome := def.Outcome()
	ch := &models.Charge{
		ID:                  req.ID,
		Object:              models.ObjectCharge,
		Amount:              req.Amount,
		Created:             now.Unix(),
		Currency:            req.Currency,
		Description:         req.Description,
		Metadata:            req.Metadata,
		Outcome:             &outcome,
		PaymentIntent:       req.PaymentIntent,
		PaymentMethod:       models.String(card.ID),
		ReceiptEmail:        req.ReceiptEmail,
		Refunds:             models.NewList(refundsURL(req.ID), []*models.Refund{}, false),
		Source:              card,
		StatementDescriptor: req.StatementDescriptor,
	}
	if req.CustomerID != "" {
		ch.Customer = models.String(req.CustomerID)
	}

	if def.Decline != nil {
		ch.Status = models.ChargeStatusFailed
		ch.FailureCode = models.String(def.Decline.Code)
		ch.FailureMessage = models.String(def.Decline.Message)
		if err := put(s.repos.Charges, account, ch, "charge"); err != nil {
			return nil, err
		}
		log.Debugf("[Billing] Charge %s declined: %s", ch.ID, def.Decline.DeclineCode)
		return ch, def.DeclineError(ch.ID)
	}

	ch.Status = models.ChargeStatusSucceeded
	ch.Paid = true
	if req.Capture {
		ch.Captured = true
		ch.AmountCaptured = req.Amount
		bt, err := s.recordBalance(account, balanceTypeCharge, ch.ID, req.Currency, req.Amount, processingFee(req.Amount), "")
		if err != nil {
			return nil, err
		}
		ch.BalanceTransaction = models.String(bt.ID)
	}
	if err := put(s.repos.Charges, account, ch, "charge"); err != nil {
		return nil, err
	}

	if def.SchedulesDispute() {
		payload := jobqueue.DisputeJobPayload{Account: account, ChargeID: ch.ID, Token: def.Token}
		if _, err := s.queue.EnqueueDelayed(jobqueue.JobTypeCreateDispute, payload.ToMap(), s.disputeDelay); err != nil {
			log.Errorf("[Billing] Failed to schedule dispute for charge %s: %v", ch.ID, err)
		}
	}
	return ch, nil
}

// chargeCard picks the card a charge is made with: a named source of the
// customer, the customer's default card, or a freshly resolved token.
func (s *Service) chargeCard(account string, req chargeRequest) (*models.Card, resolvedSource, error) {
	param := "source"
	if req.PaymentIntent != nil {
		param = "payment_method"
	}
	if req.CustomerID == "" {
		src, err := s.resolveSource(account, req.Source, param)
		if err != nil {
			return nil, src, err
		}
		return src.card, src, nil
	}

	customer, err := get(s.repos.Customers, account, req.CustomerID, "customer", "customer")
	if err != nil {
		return nil, resolvedSource{}, err
	}
	if req.TokenSource && req.Source != "" && !slices.Contains(customer.SourceIDs, req.Source) {
		src, err := s.resolveSource(account, req.Source, param)
		if err != nil {
			return nil, src, err
		}
		return src.card, src, nil
	}
	var card *models.Card
	if req.Source != "" {
		if !slices.Contains(customer.SourceIDs, req.Source) {
			return nil, resolvedSource{}, apierror.InvalidRequestCode(apierror.CodeMissingPaymentSource,
				fmt.Sprintf("Customer %s does not have a linked source with ID %s.", customer.ID, req.Source), param)
		}
		card, err = get(s.repos.Cards, account, req.Source, "source", param)
	} else {
		card, err = s.defaultCard(account, customer)
	}
	if err != nil {
		return nil, resolvedSource{}, err
	}
	return card, resolvedSource{card: card, def: definitionFor(card)}, nil
}

// RetrieveCharge returns a charge.
func (s *Service) RetrieveCharge(ctx context.Context, account, id, param string) (*models.Charge, error) {
	return get(s.repos.Charges, account, id, "charge", param)
}

// UpdateCharge changes the description, receipt email and metadata.
func (s *Service) UpdateCharge(ctx context.Context, account, id string, p *params.Params) (*models.Charge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := get(s.repos.Charges, account, id, "charge", "id")
	if err != nil {
		return nil, err
	}
	receiptEmail, err := readReceiptEmail(p)
	if err != nil {
		return nil, err
	}
	metadata, err := updateMetadata(p, current.Metadata)
	if err != nil {
		return nil, err
	}

	ch := *current
	ch.Description = optionalString(p.String("description"), current.Description)
	ch.ReceiptEmail = optionalString(receiptEmail, current.ReceiptEmail)
	ch.Metadata = metadata
	if err := replace(s.repos.Charges, account, &ch, "charge"); err != nil {
		return nil, err
	}
	return &ch, nil
}

// ListCharges lists charges, filtered by customer or payment intent.
func (s *Service) ListCharges(ctx context.Context, account string, p *params.Params) (listing.Page[*models.Charge], error) {
	customer := p.String("customer")
	intent := p.String("payment_intent")
	return list(s.repos.Charges, account, "charge", p, func(c *models.Charge) bool {
		if customer.IsSet() && models.StringValue(c.Customer) != customer.Value {
			return false
		}
		return !intent.IsSet() || models.StringValue(c.PaymentIntent) == intent.Value
	})
}

// CaptureCharge captures an authorized charge, fully or in part.
func (s *Service) CaptureCharge(ctx context.Context, account, id string, p *params.Params) (*models.Charge, error) {
	amount, err := p.Int64("amount")
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := get(s.repos.Charges, account, id, "charge", "charge")
	if err != nil {
		return nil, err
	}
	return s.captureCharge(account, current, amount, "amount")
}

// captureCharge captures amount of ch. Capturing less than the authorized
// amount refunds the difference. Callers hold s.mu.
func (s *Service) captureCharge(account string, ch *models.Charge, amount params.Field[int64], param string) (*models.Charge, error) {
	switch {
	case ch.Status == models.ChargeStatusFailed:
		return nil, apierror.InvalidRequest(fmt.Sprintf("Charge %s has failed and cannot be captured.", ch.ID), "charge")
	case ch.Captured:
		return nil, apierror.InvalidRequestCode(apierror.CodeChargeAlreadyCaptured,
			fmt.Sprintf("Charge %s has already been captured.", ch.ID), "charge")
	case ch.Refunded:
		return nil, apierror.InvalidRequestCode(apierror.CodeChargeAlreadyRefunded,
			fmt.Sprintf("Charge %s has already been refunded.", ch.ID), "charge")
	}

	captured := ch.Amount
	if amount.IsSet() {
		captured = amount.Value
		if err := validation.Amount(captured, param); err != nil {
			return nil, err
		}
		if captured > ch.Amount {
			return nil, apierror.InvalidRequestCode(apierror.CodeAmountTooLarge,
				fmt.Sprintf("You cannot capture more than the authorized amount of %s.", validation.FormatAmount(ch.Amount, ch.Currency)), param)
		}
		if err := validation.MinimumAmount(captured, ch.Currency, param); err != nil {
			return nil, err
		}
	}

	bt, err := s.recordBalance(account, balanceTypeCharge, ch.ID, ch.Currency, captured, processingFee(captured), "")
	if err != nil {
		return nil, err
	}
	updated := *ch
	updated.Captured = true
	updated.AmountCaptured = captured
	updated.BalanceTransaction = models.String(bt.ID)
	if err := replace(s.repos.Charges, account, &updated, "charge"); err != nil {
		return nil, err
	}
	if captured == ch.Amount {
		return &updated, nil
	}

	_, refunded, err := s.recordRefund(account, &updated, ch.Amount-captured, nil, map[string]string{}, false)
	if err != nil {
		return nil, err
	}
	return refunded, nil
}

func refundsURL(chargeID string) string {
	return fmt.Sprintf("/v1/charges/%s/refunds", chargeID)
}

// newRefundID is used for refunds the service creates on its own.
func newRefundID() string {
	return idgen.New("re")
}
