package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
)

// PostTokens handles POST /v1/tokens.
func (s *APIServer) PostTokens(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Token, error) {
		return s.svc.CreateToken(c.UserContext(), account(c), p)
	})
}

// GetToken handles GET /v1/tokens/:id.
func (s *APIServer) GetToken(c *fiber.Ctx) error {
	t, err := s.svc.RetrieveToken(c.UserContext(), account(c), c.Params("id"))
	return respond(c, t, err)
}

// PostCustomers handles POST /v1/customers.
func (s *APIServer) PostCustomers(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Customer, error) {
		return s.svc.CreateCustomer(c.UserContext(), account(c), p)
	})
}

// GetCustomers handles GET /v1/customers.
func (s *APIServer) GetCustomers(c *fiber.Ctx) error {
	return page(c, func(p *params.Params) (listing.Page[*models.Customer], error) {
		return s.svc.ListCustomers(c.UserContext(), account(c), p)
	})
}

// GetCustomer handles GET /v1/customers/:id.
func (s *APIServer) GetCustomer(c *fiber.Ctx) error {
	cus, err := s.svc.RetrieveCustomer(c.UserContext(), account(c), c.Params("id"), "id")
	return respond(c, cus, err)
}

// PostCustomer handles POST /v1/customers/:id.
func (s *APIServer) PostCustomer(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Customer, error) {
		return s.svc.UpdateCustomer(c.UserContext(), account(c), c.Params("id"), p)
	})
}

// DeleteCustomer handles DELETE /v1/customers/:id.
func (s *APIServer) DeleteCustomer(c *fiber.Ctx) error {
	d, err := s.svc.DeleteCustomer(c.UserContext(), account(c), c.Params("id"))
	return respond(c, d, err)
}

// PostCustomerSources handles POST /v1/customers/:id/sources, attaching a
// card from a token.
func (s *APIServer) PostCustomerSources(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Card, error) {
		return s.svc.CreateCard(c.UserContext(), account(c), c.Params("id"), p)
	})
}

// GetCustomerSources handles GET /v1/customers/:id/sources.
func (s *APIServer) GetCustomerSources(c *fiber.Ctx) error {
	return page(c, func(p *params.Params) (listing.Page[*models.Card], error) {
		return s.svc.ListCards(c.UserContext(), account(c), c.Params("id"), p)
	})
}

// GetCustomerSource handles GET /v1/customers/:id/sources/:source.
func (s *APIServer) GetCustomerSource(c *fiber.Ctx) error {
	card, err := s.svc.RetrieveCard(c.UserContext(), account(c), c.Params("id"), c.Params("source"))
	return respond(c, card, err)
}

// DeleteCustomerSource handles DELETE /v1/customers/:id/sources/:source.
func (s *APIServer) DeleteCustomerSource(c *fiber.Ctx) error {
	d, err := s.svc.DeleteCard(c.UserContext(), account(c), c.Params("id"), c.Params("source"))
	return respond(c, d, err)
}
