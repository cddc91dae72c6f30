package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
)

// PostSubscriptions handles POST /v1/subscriptions.
func (s *APIServer) PostSubscriptions(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Subscription, error) {
		return s.svc.CreateSubscription(c.UserContext(), account(c), p)
	})
}

// GetSubscriptions handles GET /v1/subscriptions.
func (s *APIServer) GetSubscriptions(c *fiber.Ctx) error {
	return page(c, func(p *params.Params) (listing.Page[*models.Subscription], error) {
		return s.svc.ListSubscriptions(c.UserContext(), account(c), p)
	})
}

// GetSubscription handles GET /v1/subscriptions/:id.
func (s *APIServer) GetSubscription(c *fiber.Ctx) error {
	sub, err := s.svc.RetrieveSubscription(c.UserContext(), account(c), c.Params("id"), "id")
	return respond(c, sub, err)
}

// PostSubscription handles POST /v1/subscriptions/:id.
func (s *APIServer) PostSubscription(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Subscription, error) {
		return s.svc.UpdateSubscription(c.UserContext(), account(c), c.Params("id"), p)
	})
}

// DeleteSubscription handles DELETE /v1/subscriptions/:id. The canceled
// subscription stays retrievable.
func (s *APIServer) DeleteSubscription(c *fiber.Ctx) error {
	sub, err := s.svc.CancelSubscription(c.UserContext(), account(c), c.Params("id"))
	return respond(c, sub, err)
}

// PostSubscriptionItems handles POST /v1/subscription_items.
func (s *APIServer) PostSubscriptionItems(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.SubscriptionItem, error) {
		return s.svc.CreateSubscriptionItem(c.UserContext(), account(c), p)
	})
}

// GetSubscriptionItems handles GET /v1/subscription_items.
func (s *APIServer) GetSubscriptionItems(c *fiber.Ctx) error {
	return page(c, func(p *params.Params) (listing.Page[*models.SubscriptionItem], error) {
		return s.svc.ListSubscriptionItems(c.UserContext(), account(c), p)
	})
}

// GetSubscriptionItem handles GET /v1/subscription_items/:id.
func (s *APIServer) GetSubscriptionItem(c *fiber.Ctx) error {
	item, err := s.svc.RetrieveSubscriptionItem(c.UserContext(), account(c), c.Params("id"))
	return respond(c, item, err)
}

// PostSubscriptionItem handles POST /v1/subscription_items/:id.
func (s *APIServer) PostSubscriptionItem(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.SubscriptionItem, error) {
		return s.svc.UpdateSubscriptionItem(c.UserContext(), account(c), c.Params("id"), p)
	})
}

// DeleteSubscriptionItem handles DELETE /v1/subscription_items/:id.
func (s *APIServer) DeleteSubscriptionItem(c *fiber.Ctx) error {
	d, err := s.svc.DeleteSubscriptionItem(c.UserContext(), account(c), c.Params("id"))
	return respond(c, d, err)
}

// PostCheckoutSessions handles POST /v1/checkout/sessions.
func (s *APIServer) PostCheckoutSessions(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.CheckoutSession, error) {
		return s.svc.CreateCheckoutSession(c.UserContext(), account(c), p)
	})
}

// GetCheckoutSessions handles GET /v1/checkout/sessions.
func (s *APIServer) GetCheckoutSessions(c *fiber.Ctx) error {
	return page(c, func(p *params.Params) (listing.Page[*models.CheckoutSession], error) {
		return s.svc.ListCheckoutSessions(c.UserContext(), account(c), p)
	})
}

// GetCheckoutSession handles GET /v1/checkout/sessions/:id.
func (s *APIServer) GetCheckoutSession(c *fiber.Ctx) error {
	cs, err := s.svc.RetrieveCheckoutSession(c.UserContext(), account(c), c.Params("id"))
	return respond(c, cs, err)
}
