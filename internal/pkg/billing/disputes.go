package billing

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/idgen"
	"github.com/ManuelReschke/PayFox/internal/pkg/jobqueue"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
	"github.com/ManuelReschke/PayFox/internal/pkg/tokens"
)

// handleDisputeJob opens the dispute a charge token asked for. Failures are
// logged here; the charge's caller has long had its response.
func (s *Service) handleDisputeJob(ctx context.Context, job *jobqueue.Job) error {
	payload, err := jobqueue.DisputeJobPayloadFromMap(job.Payload)
	if err != nil {
		log.Errorf("[Billing] Invalid dispute job %s: %v", job.ID, err)
		return fmt.Errorf("%w: %v", jobqueue.ErrDiscard, err)
	}

	d, err := s.openDispute(payload)
	if err != nil {
		log.Errorf("[Billing] Dispute for charge %s not created: %v", payload.ChargeID, err)
		return fmt.Errorf("%w: %v", jobqueue.ErrDiscard, err)
	}
	log.Infof("[Billing] Dispute %s opened against charge %s", d.ID, d.Charge)
	return nil
}

func (s *Service) openDispute(payload *jobqueue.DisputeJobPayload) (*models.Dispute, error) {
	def, ok := tokens.Lookup(payload.Token)
	if !ok || !def.SchedulesDispute() {
		return nil, fmt.Errorf("unrecognized dispute token %q", payload.Token)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account := payload.Account
	ch, ok := s.repos.Charges.Get(account, payload.ChargeID)
	if !ok {
		return nil, fmt.Errorf("no such charge %s in %s", payload.ChargeID, account)
	}
	if ch.Dispute != nil {
		return nil, fmt.Errorf("charge %s is already disputed", ch.ID)
	}

	now := s.now()
	d := &models.Dispute{
		ID:                  idgen.New("dp"),
		Object:              models.ObjectDispute,
		Amount:              ch.Amount,
		BalanceTransactions: []*models.BalanceTransaction{},
		Charge:              ch.ID,
		Created:             now.Unix(),
		Currency:            ch.Currency,
		Evidence:            map[string]string{},
		EvidenceDetails: models.EvidenceDetails{
			DueBy: addBusinessDays(now, evidenceDueDays).Unix(),
		},
		Metadata:      map[string]string{},
		PaymentIntent: ch.PaymentIntent,
	}
	if def.Effect == tokens.EffectDisputeInquiry {
		d.Reason = "general"
		d.Status = models.DisputeStatusWarningNeedsResponse
		d.IsChargeRefundable = true
	} else {
		d.Reason = "fraudulent"
		d.Status = models.DisputeStatusNeedsResponse
		bt, err := s.recordBalance(account, balanceTypeAdjustment, d.ID, ch.Currency, -ch.Amount, disputeFee,
			"Chargeback withdrawal for "+ch.ID)
		if err != nil {
			return nil, err
		}
		d.BalanceTransactions = append(d.BalanceTransactions, bt)
	}
	if err := put(s.repos.Disputes, account, d, "dispute"); err != nil {
		return nil, err
	}

	disputed := *ch
	disputed.Dispute = models.String(d.ID)
	disputed.Disputed = true
	if err := replace(s.repos.Charges, account, &disputed, "charge"); err != nil {
		return nil, err
	}
	return d, nil
}

// RetrieveDispute returns a dispute.
func (s *Service) RetrieveDispute(ctx context.Context, account, id string) (*models.Dispute, error) {
	return get(s.repos.Disputes, account, id, "dispute", "dispute")
}

// ListDisputes lists disputes, optionally of one charge.
func (s *Service) ListDisputes(ctx context.Context, account string, p *params.Params) (listing.Page[*models.Dispute], error) {
	charge := p.String("charge")
	return list(s.repos.Disputes, account, "dispute", p, func(d *models.Dispute) bool {
		return !charge.IsSet() || d.Charge == charge.Value
	})
}

// UpdateDispute adds evidence and metadata. submit=true hands the evidence
// over for review.
func (s *Service) UpdateDispute(ctx context.Context, account, id string, p *params.Params) (*models.Dispute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := get(s.repos.Disputes, account, id, "dispute", "dispute")
	if err != nil {
		return nil, err
	}
	if current.Closed() {
		return nil, apierror.InvalidRequest(fmt.Sprintf("This dispute is already closed: %s.", id), "dispute")
	}
	evidence, err := p.StringMap("evidence")
	if err != nil {
		return nil, err
	}
	submit, err := p.Bool("submit")
	if err != nil {
		return nil, err
	}
	metadata, err := updateMetadata(p, current.Metadata)
	if err != nil {
		return nil, err
	}

	d := *current
	d.Metadata = metadata
	if evidence.Present() {
		d.Evidence = models.ApplyMetadata(current.Evidence, evidence.Value)
		d.EvidenceDetails.HasEvidence = len(d.Evidence) > 0
	}
	if submit.Or(false) {
		d.EvidenceDetails.SubmissionCount++
		if d.Status == models.DisputeStatusWarningNeedsResponse {
			d.Status = models.DisputeStatusWarningUnderReview
		} else {
			d.Status = models.DisputeStatusUnderReview
		}
	}
	if err := replace(s.repos.Disputes, account, &d, "dispute"); err != nil {
		return nil, err
	}
	return &d, nil
}

// CloseDispute accepts the dispute as lost.
func (s *Service) CloseDispute(ctx context.Context, account, id string) (*models.Dispute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := get(s.repos.Disputes, account, id, "dispute", "dispute")
	if err != nil {
		return nil, err
	}
	if current.Closed() {
		return nil, apierror.InvalidRequest(fmt.Sprintf("This dispute is already closed: %s.", id), "dispute")
	}
	d := *current
	if d.Status == models.DisputeStatusWarningNeedsResponse || d.Status == models.DisputeStatusWarningUnderReview {
		d.Status = models.DisputeStatusWarningClosed
	} else {
		d.Status = models.DisputeStatusLost
	}
	if err := replace(s.repos.Disputes, account, &d, "dispute"); err != nil {
		return nil, err
	}
	return &d, nil
}
