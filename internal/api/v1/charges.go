package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
)

// PostCharges handles POST /v1/charges.
func (s *APIServer) PostCharges(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Charge, error) {
		return s.svc.CreateCharge(c.UserContext(), account(c), p)
	})
}

// GetCharges handles GET /v1/charges.
func (s *APIServer) GetCharges(c *fiber.Ctx) error {
	return page(c, func(p *params.Params) (listing.Page[*models.Charge], error) {
		return s.svc.ListCharges(c.UserContext(), account(c), p)
	})
}

// GetCharge handles GET /v1/charges/:id.
func (s *APIServer) GetCharge(c *fiber.Ctx) error {
	ch, err := s.svc.RetrieveCharge(c.UserContext(), account(c), c.Params("id"), "id")
	return respond(c, ch, err)
}

// PostCharge handles POST /v1/charges/:id.
func (s *APIServer) PostCharge(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Charge, error) {
		return s.svc.UpdateCharge(c.UserContext(), account(c), c.Params("id"), p)
	})
}

// PostChargeCapture handles POST /v1/charges/:id/capture.
func (s *APIServer) PostChargeCapture(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Charge, error) {
		return s.svc.CaptureCharge(c.UserContext(), account(c), c.Params("id"), p)
	})
}

// PostChargeRefunds handles POST /v1/charges/:id/refunds, a refund of the
// charge taken from the path.
func (s *APIServer) PostChargeRefunds(c *fiber.Ctx) error {
	p, err := withParam(c, "charge", c.Params("id"))
	if err != nil {
		return err
	}
	r, err := s.svc.CreateRefund(c.UserContext(), account(c), p)
	return respond(c, r, err)
}

// GetChargeRefunds handles GET /v1/charges/:id/refunds.
func (s *APIServer) GetChargeRefunds(c *fiber.Ctx) error {
	if _, err := s.svc.RetrieveCharge(c.UserContext(), account(c), c.Params("id"), "charge"); err != nil {
		return err
	}
	p, err := withParam(c, "charge", c.Params("id"))
	if err != nil {
		return err
	}
	result, err := s.svc.ListRefunds(c.UserContext(), account(c), p)
	return respondList(c, result, err)
}

// GetChargeRefund handles GET /v1/charges/:id/refunds/:refund.
func (s *APIServer) GetChargeRefund(c *fiber.Ctx) error {
	r, err := s.svc.RetrieveRefund(c.UserContext(), account(c), c.Params("refund"))
	if err == nil && r.Charge != c.Params("id") {
		return apierror.ResourceMissing("refund", c.Params("refund"), "id")
	}
	return respond(c, r, err)
}

// PostRefunds handles POST /v1/refunds.
func (s *APIServer) PostRefunds(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Refund, error) {
		return s.svc.CreateRefund(c.UserContext(), account(c), p)
	})
}

// GetRefunds handles GET /v1/refunds.
func (s *APIServer) GetRefunds(c *fiber.Ctx) error {
	return page(c, func(p *params.Params) (listing.Page[*models.Refund], error) {
		return s.svc.ListRefunds(c.UserContext(), account(c), p)
	})
}

// GetRefund handles GET /v1/refunds/:id.
func (s *APIServer) GetRefund(c *fiber.Ctx) error {
	r, err := s.svc.RetrieveRefund(c.UserContext(), account(c), c.Params("id"))
	return respond(c, r, err)
}

// PostRefund handles POST /v1/refunds/:id.
func (s *APIServer) PostRefund(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Refund, error) {
		return s.svc.UpdateRefund(c.UserContext(), account(c), c.Params("id"), p)
	})
}

// GetDisputes handles GET /v1/disputes.
func (s *APIServer) GetDisputes(c *fiber.Ctx) error {
	return page(c, func(p *params.Params) (listing.Page[*models.Dispute], error) {
		return s.svc.ListDisputes(c.UserContext(), account(c), p)
	})
}

// GetDispute handles GET /v1/disputes/:id.
func (s *APIServer) GetDispute(c *fiber.Ctx) error {
	d, err := s.svc.RetrieveDispute(c.UserContext(), account(c), c.Params("id"))
	return respond(c, d, err)
}

// PostDispute handles POST /v1/disputes/:id.
func (s *APIServer) PostDispute(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Dispute, error) {
		return s.svc.UpdateDispute(c.UserContext(), account(c), c.Params("id"), p)
	})
}

// PostDisputeClose handles POST /v1/disputes/:id/close.
func (s *APIServer) PostDisputeClose(c *fiber.Ctx) error {
	d, err := s.svc.CloseDispute(c.UserContext(), account(c), c.Params("id"))
	return respond(c, d, err)
}

// GetBalanceTransactions handles GET /v1/balance_transactions and its
// GET /v1/balance/history alias.
func (s *APIServer) GetBalanceTransactions(c *fiber.Ctx) error {
	return page(c, func(p *params.Params) (listing.Page[*models.BalanceTransaction], error) {
		return s.svc.ListBalanceTransactions(c.UserContext(), account(c), p)
	})
}

// GetBalanceTransaction handles GET /v1/balance_transactions/:id and its
// GET /v1/balance/history/:id alias.
func (s *APIServer) GetBalanceTransaction(c *fiber.Ctx) error {
	bt, err := s.svc.RetrieveBalanceTransaction(c.UserContext(), account(c), c.Params("id"))
	return respond(c, bt, err)
}
