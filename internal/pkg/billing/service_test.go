package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/app/repository"
	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/jobqueue"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
	"github.com/ManuelReschke/PayFox/internal/pkg/tokens"
)

const acct = models.DefaultAccountID

func newTestService(t *testing.T) *Service {
	t.Helper()
	queue := jobqueue.NewQueue(1)
	svc := NewService(repository.NewRepositories(), tokens.NewInterpreter(), queue, Options{
		DisputeDelay: 10 * time.Millisecond,
	})
	queue.Start()
	t.Cleanup(queue.Stop)
	return svc
}

func form(t *testing.T, raw string) *params.Params {
	t.Helper()
	p, err := params.Parse(raw)
	require.NoError(t, err)
	return p
}

func requireCode(t *testing.T, err error, status int, code string) *apierror.Error {
	t.Helper()
	require.Error(t, err)
	apiErr := apierror.From(err)
	assert.Equal(t, status, apiErr.Status)
	assert.Equal(t, code, apiErr.Code)
	return apiErr
}

func mustCharge(t *testing.T, svc *Service, raw string) *models.Charge {
	t.Helper()
	ch, err := svc.CreateCharge(context.Background(), acct, form(t, raw))
	require.NoError(t, err)
	return ch
}

func TestCreateCharge_Visa(t *testing.T) {
	svc := newTestService(t)

	ch := mustCharge(t, svc, "amount=2000&currency=usd&source=tok_visa")

	assert.Equal(t, models.ChargeStatusSucceeded, ch.Status)
	assert.True(t, ch.Captured)
	assert.True(t, ch.Paid)
	assert.Equal(t, int64(2000), ch.Amount)
	assert.Equal(t, int64(2000), ch.AmountCaptured)
	require.NotNil(t, ch.Source)
	assert.Equal(t, "Visa", ch.Source.Brand)
	assert.Equal(t, "4242", ch.Source.Last4)
	assert.Nil(t, ch.Dispute)
	require.NotNil(t, ch.BalanceTransaction)

	bt, err := svc.RetrieveBalanceTransaction(context.Background(), acct, *ch.BalanceTransaction)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), bt.Amount)
	assert.Equal(t, int64(88), bt.Fee)
	assert.Equal(t, int64(1912), bt.Net)
}

func TestCreateCharge_AmountTooSmall(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateCharge(context.Background(), acct, form(t, "amount=5&currency=usd&source=tok_visa"))
	apiErr := requireCode(t, err, 400, apierror.CodeAmountTooSmall)
	assert.Equal(t, "amount", apiErr.Param)
	assert.Empty(t, svc.repos.Charges.GetAll(acct))
}

func TestCreateCharge_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		code  string
		param string
	}{
		{"missing amount", "currency=usd&source=tok_visa", apierror.CodeParameterMissing, "amount"},
		{"missing currency", "amount=2000&source=tok_visa", apierror.CodeParameterMissing, "currency"},
		{"bad currency", "amount=2000&currency=xxx&source=tok_visa", "", "currency"},
		{"negative amount", "amount=-1&currency=usd&source=tok_visa", "", "amount"},
		{"no source", "amount=2000&currency=usd", apierror.CodeMissingPaymentSource, ""},
		{"unknown token", "amount=2000&currency=usd&source=tok_nope", apierror.CodeResourceMissing, "source"},
		{"long descriptor", "amount=2000&currency=usd&source=tok_visa&statement_descriptor=abcdefghijklmnopqrstuvwxyz", "", "statement_descriptor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t)
			_, err := svc.CreateCharge(context.Background(), acct, form(t, tt.body))
			require.Error(t, err)
			apiErr := apierror.From(err)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.param, apiErr.Param)
			assert.Empty(t, svc.repos.Charges.GetAll(acct))
		})
	}
}

func TestCreateCharge_Declines(t *testing.T) {
	tests := []struct {
		token       string
		declineCode string
	}{
		{"tok_chargeDeclined", "generic_decline"},
		{"tok_chargeDeclinedInsufficientFunds", "insufficient_funds"},
		{"tok_chargeDeclinedFraudulent", "fraudulent"},
		{"tok_chargeDeclinedIncorrectCvc", "incorrect_cvc"},
		{"tok_chargeDeclinedExpiredCard", "expired_card"},
		{"tok_chargeDeclinedProcessingError", "processing_error"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			svc := newTestService(t)

			_, err := svc.CreateCharge(context.Background(), acct, form(t, "amount=2000&currency=usd&source="+tt.token))
			require.Error(t, err)
			apiErr := apierror.From(err)
			assert.Equal(t, 402, apiErr.Status)
			assert.Equal(t, apierror.TypeCard, apiErr.Type)
			assert.Equal(t, tt.declineCode, apiErr.DeclineCode)
			require.NotEmpty(t, apiErr.Charge)

			ch, err := svc.RetrieveCharge(context.Background(), acct, apiErr.Charge, "id")
			require.NoError(t, err)
			assert.Equal(t, models.ChargeStatusFailed, ch.Status)
			assert.False(t, ch.Paid)
			assert.False(t, ch.Captured)
			assert.NotNil(t, ch.FailureCode)
			assert.NotNil(t, ch.FailureMessage)
			require.NotNil(t, ch.Outcome)
		})
	}
}

func TestCreateCharge_PreChargeTokens(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateCharge(context.Background(), acct, form(t, "amount=2000&currency=usd&source=tok_tooManyRequests"))
	require.Error(t, err)
	assert.Equal(t, 429, apierror.From(err).Status)

	_, err = svc.CreateCharge(context.Background(), acct, form(t, "amount=2000&currency=usd&source=tok_serverError"))
	require.Error(t, err)
	assert.Equal(t, 500, apierror.From(err).Status)

	assert.Empty(t, svc.repos.Charges.GetAll(acct))
	assert.Empty(t, svc.repos.BalanceTransactions.GetAll(acct))
}

func TestCreateCharge_ElevatedRisk(t *testing.T) {
	svc := newTestService(t)

	ch := mustCharge(t, svc, "amount=2000&currency=usd&source=tok_riskLevelElevated")
	assert.Equal(t, models.ChargeStatusSucceeded, ch.Status)
	require.NotNil(t, ch.Outcome)
	assert.Equal(t, "manual_review", ch.Outcome.Type)
	assert.Equal(t, "elevated", ch.Outcome.RiskLevel)
}

func TestCreateCharge_Uniqueness(t *testing.T) {
	svc := newTestService(t)

	mustCharge(t, svc, "id=ch_fixed&amount=2000&currency=usd&source=tok_visa")
	_, err := svc.CreateCharge(context.Background(), acct, form(t, "id=ch_fixed&amount=2000&currency=usd&source=tok_visa"))
	requireCode(t, err, 400, apierror.CodeResourceAlreadyExists)

	// another account may use the same id
	_, err = svc.CreateCharge(context.Background(), "acct_other", form(t, "id=ch_fixed&amount=2000&currency=usd&source=tok_visa"))
	require.NoError(t, err)
}

func TestPartitionIsolation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ch := mustCharge(t, svc, "amount=2000&currency=usd&source=tok_visa")
	cus, err := svc.CreateCustomer(ctx, acct, form(t, "email=a@example.com"))
	require.NoError(t, err)

	_, err = svc.RetrieveCharge(ctx, "acct_other", ch.ID, "id")
	requireCode(t, err, 404, apierror.CodeResourceMissing)
	_, err = svc.RetrieveCustomer(ctx, "acct_other", cus.ID, "id")
	requireCode(t, err, 404, apierror.CodeResourceMissing)

	page, err := svc.ListCharges(ctx, "acct_other", form(t, ""))
	require.NoError(t, err)
	assert.Empty(t, page.Data)
}

func TestChainToken(t *testing.T) {
	svc := newTestService(t)
	body := "amount=2000&currency=usd&source=tok_chargeDeclinedInsufficientFunds|tok_visa"

	_, err := svc.CreateCharge(context.Background(), acct, form(t, body))
	require.Error(t, err)
	assert.Equal(t, "insufficient_funds", apierror.From(err).DeclineCode)

	ch, err := svc.CreateCharge(context.Background(), acct, form(t, body))
	require.NoError(t, err)
	assert.Equal(t, "Visa", ch.Source.Brand)

	_, err = svc.CreateCharge(context.Background(), acct, form(t, body))
	requireCode(t, err, 400, apierror.CodeTokenAlreadyUsed)
}

func TestCaptureCharge(t *testing.T) {
	ctx := context.Background()

	t.Run("full capture only once", func(t *testing.T) {
		svc := newTestService(t)
		ch := mustCharge(t, svc, "amount=2000&currency=usd&source=tok_visa&capture=false")
		assert.False(t, ch.Captured)
		assert.Nil(t, ch.BalanceTransaction)

		captured, err := svc.CaptureCharge(ctx, acct, ch.ID, form(t, ""))
		require.NoError(t, err)
		assert.True(t, captured.Captured)
		assert.Equal(t, int64(2000), captured.AmountCaptured)
		assert.Zero(t, captured.AmountRefunded)

		for _, body := range []string{"", "amount=1000", "amount=999999"} {
			_, err = svc.CaptureCharge(ctx, acct, ch.ID, form(t, body))
			requireCode(t, err, 400, apierror.CodeChargeAlreadyCaptured)
		}
	})

	t.Run("partial capture refunds the rest", func(t *testing.T) {
		svc := newTestService(t)
		ch := mustCharge(t, svc, "amount=2000&currency=usd&source=tok_visa&capture=false")

		captured, err := svc.CaptureCharge(ctx, acct, ch.ID, form(t, "amount=1500"))
		require.NoError(t, err)
		assert.True(t, captured.Captured)
		assert.Equal(t, int64(1500), captured.AmountCaptured)
		assert.Equal(t, int64(500), captured.AmountRefunded)
		assert.False(t, captured.Refunded)

		refunds, err := svc.ListRefunds(ctx, acct, form(t, "charge="+ch.ID))
		require.NoError(t, err)
		require.Len(t, refunds.Data, 1)
		assert.Equal(t, int64(500), refunds.Data[0].Amount)
		assert.Len(t, captured.Refunds.Data, 1)
	})

	t.Run("capture above the authorization", func(t *testing.T) {
		svc := newTestService(t)
		ch := mustCharge(t, svc, "amount=2000&currency=usd&source=tok_visa&capture=false")

		_, err := svc.CaptureCharge(ctx, acct, ch.ID, form(t, "amount=2001"))
		requireCode(t, err, 400, apierror.CodeAmountTooLarge)

		_, err = svc.CaptureCharge(ctx, acct, ch.ID, form(t, "amount=10"))
		requireCode(t, err, 400, apierror.CodeAmountTooSmall)

		stored, err := svc.RetrieveCharge(ctx, acct, ch.ID, "id")
		require.NoError(t, err)
		assert.False(t, stored.Captured)
	})
}

func TestRefunds(t *testing.T) {
	ctx := context.Background()

	t.Run("conservation", func(t *testing.T) {
		svc := newTestService(t)
		ch := mustCharge(t, svc, "amount=2000&currency=usd&source=tok_visa")

		var sum int64
		for _, amount := range []string{"300", "700", "1000"} {
			r, err := svc.CreateRefund(ctx, acct, form(t, "charge="+ch.ID+"&amount="+amount))
			require.NoError(t, err)
			sum += r.Amount

			stored, err := svc.RetrieveCharge(ctx, acct, ch.ID, "id")
			require.NoError(t, err)
			assert.Equal(t, sum, stored.AmountRefunded)
			assert.LessOrEqual(t, stored.AmountRefunded, stored.Amount)
			assert.Equal(t, stored.AmountRefunded == stored.Amount, stored.Refunded)
		}

		_, err := svc.CreateRefund(ctx, acct, form(t, "charge="+ch.ID+"&amount=1"))
		requireCode(t, err, 400, apierror.CodeChargeAlreadyRefunded)
	})

	t.Run("exceeding the remainder", func(t *testing.T) {
		svc := newTestService(t)
		ch := mustCharge(t, svc, "amount=2000&currency=usd&source=tok_visa")

		_, err := svc.CreateRefund(ctx, acct, form(t, "charge="+ch.ID+"&amount=1500"))
		require.NoError(t, err)

		_, err = svc.CreateRefund(ctx, acct, form(t, "charge="+ch.ID+"&amount=600"))
		require.Error(t, err)
		apiErr := apierror.From(err)
		assert.Equal(t, 400, apiErr.Status)
		assert.Equal(t, "amount", apiErr.Param)
		assert.Contains(t, apiErr.Message, "$6.00")
		assert.Contains(t, apiErr.Message, "$5.00")
	})

	t.Run("uncaptured charges are refunded in full", func(t *testing.T) {
		svc := newTestService(t)
		ch := mustCharge(t, svc, "amount=2000&currency=usd&source=tok_visa&capture=false")

		_, err := svc.CreateRefund(ctx, acct, form(t, "charge="+ch.ID+"&amount=500"))
		require.Error(t, err)
		assert.Equal(t, "amount", apierror.From(err).Param)

		r, err := svc.CreateRefund(ctx, acct, form(t, "charge="+ch.ID))
		require.NoError(t, err)
		assert.Equal(t, int64(2000), r.Amount)
		assert.Nil(t, r.BalanceTransaction)
	})

	t.Run("bad reason", func(t *testing.T) {
		svc := newTestService(t)
		ch := mustCharge(t, svc, "amount=2000&currency=usd&source=tok_visa")

		_, err := svc.CreateRefund(ctx, acct, form(t, "charge="+ch.ID+"&reason=because"))
		require.Error(t, err)
		assert.Equal(t, "reason", apierror.From(err).Param)
	})
}

func waitForDispute(t *testing.T, svc *Service, chargeID string) *models.Charge {
	t.Helper()
	var ch *models.Charge
	require.Eventually(t, func() bool {
		var err error
		ch, err = svc.RetrieveCharge(context.Background(), acct, chargeID, "id")
		return err == nil && ch.Dispute != nil
	}, 2*time.Second, 5*time.Millisecond)
	return ch
}

func TestDisputes(t *testing.T) {
	ctx := context.Background()

	t.Run("fraudulent", func(t *testing.T) {
		svc := newTestService(t)
		ch := mustCharge(t, svc, "amount=2000&currency=usd&source=tok_createDispute")
		assert.Nil(t, ch.Dispute)

		disputed := waitForDispute(t, svc, ch.ID)
		assert.True(t, disputed.Disputed)

		d, err := svc.RetrieveDispute(ctx, acct, *disputed.Dispute)
		require.NoError(t, err)
		assert.Equal(t, models.DisputeStatusNeedsResponse, d.Status)
		assert.Equal(t, "fraudulent", d.Reason)
		assert.False(t, d.IsChargeRefundable)
		require.Len(t, d.BalanceTransactions, 1)
		assert.Equal(t, int64(-2000), d.BalanceTransactions[0].Amount)
		assert.Equal(t, int64(1500), d.BalanceTransactions[0].Fee)
		assert.Equal(t, int64(-3500), d.BalanceTransactions[0].Net)
		assert.Greater(t, d.EvidenceDetails.DueBy, d.Created)

		_, err = svc.CreateRefund(ctx, acct, form(t, "charge="+ch.ID))
		requireCode(t, err, 400, apierror.CodeChargeDisputed)

		closed, err := svc.CloseDispute(ctx, acct, d.ID)
		require.NoError(t, err)
		assert.Equal(t, models.DisputeStatusLost, closed.Status)

		_, err = svc.UpdateDispute(ctx, acct, d.ID, form(t, "evidence[customer_name]=x"))
		require.Error(t, err)
	})

	t.Run("inquiry", func(t *testing.T) {
		svc := newTestService(t)
		ch := mustCharge(t, svc, "amount=2000&currency=usd&source=tok_createDisputeInquiry")

		disputed := waitForDispute(t, svc, ch.ID)
		d, err := svc.RetrieveDispute(ctx, acct, *disputed.Dispute)
		require.NoError(t, err)
		assert.Equal(t, models.DisputeStatusWarningNeedsResponse, d.Status)
		assert.True(t, d.IsChargeRefundable)
		assert.Empty(t, d.BalanceTransactions)

		updated, err := svc.UpdateDispute(ctx, acct, d.ID, form(t, "evidence[customer_name]=Jane&submit=true"))
		require.NoError(t, err)
		assert.Equal(t, models.DisputeStatusWarningUnderReview, updated.Status)
		assert.True(t, updated.EvidenceDetails.HasEvidence)
		assert.Equal(t, "Jane", updated.Evidence["customer_name"])

		_, err = svc.CreateRefund(ctx, acct, form(t, "charge="+ch.ID))
		require.NoError(t, err)
	})

	t.Run("missing charge is dropped", func(t *testing.T) {
		svc := newTestService(t)
		_, err := svc.openDispute(&jobqueue.DisputeJobPayload{Account: acct, ChargeID: "ch_missing", Token: "tok_createDispute"})
		assert.Error(t, err)
		_, err = svc.openDispute(&jobqueue.DisputeJobPayload{Account: acct, ChargeID: "ch_missing", Token: "tok_visa"})
		assert.Error(t, err)
	})
}

func TestAddBusinessDays(t *testing.T) {
	friday := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Monday, addBusinessDays(friday, 1).Weekday())
	assert.Equal(t, time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC), addBusinessDays(friday, 2))
	assert.Equal(t, time.Date(2024, time.March, 12, 12, 0, 0, 0, time.UTC), addBusinessDays(friday, 7))
}

func TestListCharges_PaginationRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mustCharge(t, svc, "amount=2000&currency=usd&source=tok_visa")
	}

	all, err := svc.ListCharges(ctx, acct, form(t, ""))
	require.NoError(t, err)
	require.Len(t, all.Data, 5)

	var walked []string
	cursor := ""
	for {
		body := "limit=1"
		if cursor != "" {
			body += "&starting_after=" + cursor
		}
		page, err := svc.ListCharges(ctx, acct, form(t, body))
		require.NoError(t, err)
		for _, ch := range page.Data {
			walked = append(walked, ch.ID)
		}
		if !page.HasMore {
			break
		}
		cursor = page.Data[len(page.Data)-1].ID
	}

	var expected []string
	for _, ch := range all.Data {
		expected = append(expected, ch.ID)
	}
	assert.Equal(t, expected, walked)

	_, err = svc.ListCharges(ctx, acct, form(t, "starting_after=ch_nope"))
	apiErr := requireCode(t, err, 404, apierror.CodeResourceMissing)
	assert.Equal(t, "starting_after", apiErr.Param)
}

func TestUpdateCharge(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	ch := mustCharge(t, svc, "amount=2000&currency=usd&source=tok_visa&metadata[a]=1&metadata[b]=2")

	updated, err := svc.UpdateCharge(ctx, acct, ch.ID, form(t, "description=hello&metadata[a]=&metadata[c]=3"))
	require.NoError(t, err)
	assert.Equal(t, "hello", *updated.Description)
	assert.Equal(t, map[string]string{"b": "2", "c": "3"}, updated.Metadata)

	// the earlier value is untouched
	assert.Nil(t, ch.Description)

	_, err = svc.UpdateCharge(ctx, acct, ch.ID, form(t, "receipt_email=nope&description=other"))
	require.Error(t, err)
	stored, err := svc.RetrieveCharge(ctx, acct, ch.ID, "id")
	require.NoError(t, err)
	assert.Equal(t, "hello", *stored.Description)
}
