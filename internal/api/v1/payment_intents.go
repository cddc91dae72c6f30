package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
)

// PostPaymentIntents handles POST /v1/payment_intents.
func (s *APIServer) PostPaymentIntents(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.PaymentIntent, error) {
		return s.svc.CreatePaymentIntent(c.UserContext(), account(c), p)
	})
}

// GetPaymentIntents handles GET /v1/payment_intents.
func (s *APIServer) GetPaymentIntents(c *fiber.Ctx) error {
	return page(c, func(p *params.Params) (listing.Page[*models.PaymentIntent], error) {
		return s.svc.ListPaymentIntents(c.UserContext(), account(c), p)
	})
}

// GetPaymentIntent handles GET /v1/payment_intents/:id.
func (s *APIServer) GetPaymentIntent(c *fiber.Ctx) error {
	pi, err := s.svc.RetrievePaymentIntent(c.UserContext(), account(c), c.Params("id"))
	return respond(c, pi, err)
}

// PostPaymentIntent handles POST /v1/payment_intents/:id.
func (s *APIServer) PostPaymentIntent(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.PaymentIntent, error) {
		return s.svc.UpdatePaymentIntent(c.UserContext(), account(c), c.Params("id"), p)
	})
}

// PostPaymentIntentConfirm handles POST /v1/payment_intents/:id/confirm.
func (s *APIServer) PostPaymentIntentConfirm(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.PaymentIntent, error) {
		return s.svc.ConfirmPaymentIntent(c.UserContext(), account(c), c.Params("id"), p)
	})
}

// PostPaymentIntentCapture handles POST /v1/payment_intents/:id/capture.
func (s *APIServer) PostPaymentIntentCapture(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.PaymentIntent, error) {
		return s.svc.CapturePaymentIntent(c.UserContext(), account(c), c.Params("id"), p)
	})
}

// PostPaymentIntentCancel handles POST /v1/payment_intents/:id/cancel.
func (s *APIServer) PostPaymentIntentCancel(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.PaymentIntent, error) {
		return s.svc.CancelPaymentIntent(c.UserContext(), account(c), c.Params("id"), p)
	})
}
