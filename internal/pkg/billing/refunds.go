package billing

import (
	"context"
	"fmt"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
	"github.com/ManuelReschke/PayFox/internal/pkg/validation"
)

var refundReasons = []string{"duplicate", "fraudulent", "requested_by_customer"}

// CreateRefund refunds all or part of a charge.
func (s *Service) CreateRefund(ctx context.Context, account string, p *params.Params) (*models.Refund, error) {
	if err := validation.RequiredParams(p, "charge"); err != nil {
		return nil, err
	}
	amount, err := p.Int64("amount")
	if err != nil {
		return nil, err
	}
	if amount.IsSet() {
		if err := validation.Amount(amount.Value, "amount"); err != nil {
			return nil, err
		}
	}
	reason := p.String("reason")
	if reason.IsSet() {
		if err := validation.OneOf(reason.Value, "reason", refundReasons...); err != nil {
			return nil, err
		}
	}
	metadata, err := createMetadata(p)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkFreeID(s.repos.Refunds, account, p, "refund"); err != nil {
		return nil, err
	}
	ch, err := get(s.repos.Charges, account, p.String("charge").Value, "charge", "charge")
	if err != nil {
		return nil, err
	}
	if err := s.checkRefundable(account, ch, amount); err != nil {
		return nil, err
	}

	refundAmount := amount.Or(ch.Refundable())
	refund, _, err := s.recordRefundWithID(account, newID(p, "re"), ch, refundAmount, optionalString(reason, nil), metadata, ch.Captured)
	if err != nil {
		return nil, err
	}
	return refund, nil
}

// checkRefundable rejects refunds the charge cannot take.
func (s *Service) checkRefundable(account string, ch *models.Charge, amount params.Field[int64]) error {
	if ch.Status == models.ChargeStatusFailed {
		return apierror.InvalidRequest(fmt.Sprintf("Charge %s has failed and cannot be refunded.", ch.ID), "charge")
	}
	if ch.Refunded {
		return apierror.InvalidRequestCode(apierror.CodeChargeAlreadyRefunded,
			fmt.Sprintf("Charge %s has already been refunded.", ch.ID), "charge")
	}
	if ch.Dispute != nil {
		if d, ok := s.repos.Disputes.Get(account, *ch.Dispute); ok && !d.IsChargeRefundable {
			return apierror.InvalidRequestCode(apierror.CodeChargeDisputed,
				fmt.Sprintf("Charge %s has been charged back; cannot issue a refund.", ch.ID), "charge")
		}
	}
	if !amount.IsSet() {
		return nil
	}
	if amount.Value > ch.Refundable() {
		return apierror.InvalidRequest(fmt.Sprintf("Refund amount (%s) is greater than unrefunded amount on charge (%s)",
			validation.FormatAmount(amount.Value, ch.Currency), validation.FormatAmount(ch.Refundable(), ch.Currency)), "amount")
	}
	if !ch.Captured && amount.Value != ch.Refundable() {
		return apierror.InvalidRequest("You cannot partially refund an uncaptured charge. Instead, capture the charge for an amount less than the original amount", "amount")
	}
	return nil
}

// recordRefund stores a refund against ch and the updated charge. Funds only
// leave the balance when the refunded part had been captured. Callers hold
// s.mu.
func (s *Service) recordRefund(account string, ch *models.Charge, amount int64, reason *string, metadata map[string]string, withBalance bool) (*models.Refund, *models.Charge, error) {
	return s.recordRefundWithID(account, newRefundID(), ch, amount, reason, metadata, withBalance)
}

func (s *Service) recordRefundWithID(account, id string, ch *models.Charge, amount int64, reason *string, metadata map[string]string, withBalance bool) (*models.Refund, *models.Charge, error) {
	r := &models.Refund{
		ID:            id,
		Object:        models.ObjectRefund,
		Amount:        amount,
		Charge:        ch.ID,
		Created:       s.now().Unix(),
		Currency:      ch.Currency,
		Metadata:      metadata,
		PaymentIntent: ch.PaymentIntent,
		Reason:        reason,
		Status:        "succeeded",
	}
	if withBalance {
		bt, err := s.recordBalance(account, balanceTypeRefund, r.ID, ch.Currency, -amount, 0, "REFUND FOR CHARGE")
		if err != nil {
			return nil, nil, err
		}
		r.BalanceTransaction = models.String(bt.ID)
	}
	if err := put(s.repos.Refunds, account, r, "refund"); err != nil {
		return nil, nil, err
	}

	updated := *ch
	updated.AmountRefunded += amount
	updated.Refunded = updated.AmountRefunded == updated.Amount
	refunds := []*models.Refund{r}
	if ch.Refunds != nil {
		refunds = append(refunds, ch.Refunds.Data...)
	}
	updated.Refunds = models.NewList(refundsURL(ch.ID), refunds, false)
	if err := replace(s.repos.Charges, account, &updated, "charge"); err != nil {
		return nil, nil, err
	}
	return r, &updated, nil
}

// RetrieveRefund returns a refund.
func (s *Service) RetrieveRefund(ctx context.Context, account, id string) (*models.Refund, error) {
	return get(s.repos.Refunds, account, id, "refund", "id")
}

// UpdateRefund changes a refund's metadata.
func (s *Service) UpdateRefund(ctx context.Context, account, id string, p *params.Params) (*models.Refund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := get(s.repos.Refunds, account, id, "refund", "id")
	if err != nil {
		return nil, err
	}
	metadata, err := updateMetadata(p, current.Metadata)
	if err != nil {
		return nil, err
	}
	r := *current
	r.Metadata = metadata
	if err := replace(s.repos.Refunds, account, &r, "refund"); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRefunds lists refunds, optionally of one charge.
func (s *Service) ListRefunds(ctx context.Context, account string, p *params.Params) (listing.Page[*models.Refund], error) {
	charge := p.String("charge")
	return list(s.repos.Refunds, account, "refund", p, func(r *models.Refund) bool {
		return !charge.IsSet() || r.Charge == charge.Value
	})
}
