package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
)

// GetAccount handles GET /v1/account, the account the request acts on.
func (s *APIServer) GetAccount(c *fiber.Ctx) error {
	a, err := s.svc.RetrieveAccount(c.UserContext(), account(c), "")
	return respond(c, a, err)
}

// PostAccounts handles POST /v1/accounts.
func (s *APIServer) PostAccounts(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Account, error) {
		return s.svc.CreateAccount(c.UserContext(), account(c), p)
	})
}

// GetAccounts handles GET /v1/accounts.
func (s *APIServer) GetAccounts(c *fiber.Ctx) error {
	return page(c, func(p *params.Params) (listing.Page[*models.Account], error) {
		return s.svc.ListAccounts(c.UserContext(), account(c), p)
	})
}

// GetAccountByID handles GET /v1/accounts/:id.
func (s *APIServer) GetAccountByID(c *fiber.Ctx) error {
	a, err := s.svc.RetrieveAccount(c.UserContext(), account(c), c.Params("id"))
	return respond(c, a, err)
}

// PostAccountByID handles POST /v1/accounts/:id.
func (s *APIServer) PostAccountByID(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Account, error) {
		return s.svc.UpdateAccount(c.UserContext(), account(c), c.Params("id"), p)
	})
}

// DeleteAccountByID handles DELETE /v1/accounts/:id.
func (s *APIServer) DeleteAccountByID(c *fiber.Ctx) error {
	d, err := s.svc.DeleteAccount(c.UserContext(), account(c), c.Params("id"))
	return respond(c, d, err)
}
