package billing

import (
	"context"
	"time"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/idgen"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
)

const (
	balanceTypeCharge     = "charge"
	balanceTypeRefund     = "refund"
	balanceTypeAdjustment = "adjustment"

	// processing fee: 2.9% + 30
	feePercentMille = 29
	feeFixed        = 30

	disputeFee         = 1500
	fundsAvailableDays = 2
	evidenceDueDays    = 7
)

// addBusinessDays moves t forward by n weekdays. Holidays are ignored.
func addBusinessDays(t time.Time, n int) time.Time {
	for n > 0 {
		t = t.AddDate(0, 0, 1)
		if wd := t.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n--
		}
	}
	return t
}

func processingFee(amount int64) int64 {
	return amount*feePercentMille/1000 + feeFixed
}

// recordBalance stores a balance transaction moving amount for source.
// Callers hold s.mu.
func (s *Service) recordBalance(account, typ, source, currency string, amount, fee int64, description string) (*models.BalanceTransaction, error) {
	now := s.now()
	bt := &models.BalanceTransaction{
		ID:          idgen.New("txn"),
		Object:      models.ObjectBalanceTransaction,
		Amount:      amount,
		AvailableOn: addBusinessDays(now, fundsAvailableDays).Unix(),
		Created:     now.Unix(),
		Currency:    currency,
		Fee:         fee,
		FeeDetails:  []models.FeeDetail{},
		Net:         amount - fee,
		Source:      source,
		Status:      "pending",
		Type:        typ,
	}
	if description != "" {
		bt.Description = models.String(description)
	}
	if fee != 0 {
		feeDescription := "Stripe processing fees"
		if typ == balanceTypeAdjustment {
			feeDescription = "Dispute fee"
		}
		bt.FeeDetails = append(bt.FeeDetails, models.FeeDetail{
			Amount:      fee,
			Currency:    currency,
			Description: feeDescription,
			Type:        "stripe_fee",
		})
	}
	if err := put(s.repos.BalanceTransactions, account, bt, "balance_transaction"); err != nil {
		return nil, err
	}
	return bt, nil
}

// RetrieveBalanceTransaction returns one balance transaction.
func (s *Service) RetrieveBalanceTransaction(ctx context.Context, account, id string) (*models.BalanceTransaction, error) {
	return get(s.repos.BalanceTransactions, account, id, "balance_transaction", "id")
}

// ListBalanceTransactions lists balance transactions, filtered by type and
// source when given.
func (s *Service) ListBalanceTransactions(ctx context.Context, account string, p *params.Params) (listing.Page[*models.BalanceTransaction], error) {
	typ := p.String("type")
	source := p.String("source")
	return list(s.repos.BalanceTransactions, account, "balance_transaction", p, func(bt *models.BalanceTransaction) bool {
		if typ.IsSet() && bt.Type != typ.Value {
			return false
		}
		return !source.IsSet() || bt.Source == source.Value
	})
}
