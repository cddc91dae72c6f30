package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
)

// PostProducts handles POST /v1/products.
func (s *APIServer) PostProducts(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Product, error) {
		return s.svc.CreateProduct(c.UserContext(), account(c), p)
	})
}

// GetProducts handles GET /v1/products.
func (s *APIServer) GetProducts(c *fiber.Ctx) error {
	return page(c, func(p *params.Params) (listing.Page[*models.Product], error) {
		return s.svc.ListProducts(c.UserContext(), account(c), p)
	})
}

// GetProduct handles GET /v1/products/:id.
func (s *APIServer) GetProduct(c *fiber.Ctx) error {
	prod, err := s.svc.RetrieveProduct(c.UserContext(), account(c), c.Params("id"), "id")
	return respond(c, prod, err)
}

// PostProduct handles POST /v1/products/:id.
func (s *APIServer) PostProduct(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Product, error) {
		return s.svc.UpdateProduct(c.UserContext(), account(c), c.Params("id"), p)
	})
}

// DeleteProduct handles DELETE /v1/products/:id.
func (s *APIServer) DeleteProduct(c *fiber.Ctx) error {
	d, err := s.svc.DeleteProduct(c.UserContext(), account(c), c.Params("id"))
	return respond(c, d, err)
}

// PostPlans handles POST /v1/plans.
func (s *APIServer) PostPlans(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Plan, error) {
		return s.svc.CreatePlan(c.UserContext(), account(c), p)
	})
}

// GetPlans handles GET /v1/plans.
func (s *APIServer) GetPlans(c *fiber.Ctx) error {
	return page(c, func(p *params.Params) (listing.Page[*models.Plan], error) {
		return s.svc.ListPlans(c.UserContext(), account(c), p)
	})
}

// GetPlan handles GET /v1/plans/:id.
func (s *APIServer) GetPlan(c *fiber.Ctx) error {
	plan, err := s.svc.RetrievePlan(c.UserContext(), account(c), c.Params("id"), "id")
	return respond(c, plan, err)
}

// PostPlan handles POST /v1/plans/:id.
func (s *APIServer) PostPlan(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Plan, error) {
		return s.svc.UpdatePlan(c.UserContext(), account(c), c.Params("id"), p)
	})
}

// DeletePlan handles DELETE /v1/plans/:id.
func (s *APIServer) DeletePlan(c *fiber.Ctx) error {
	d, err := s.svc.DeletePlan(c.UserContext(), account(c), c.Params("id"))
	return respond(c, d, err)
}

// PostPrices handles POST /v1/prices.
func (s *APIServer) PostPrices(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Price, error) {
		return s.svc.CreatePrice(c.UserContext(), account(c), p)
	})
}

// GetPrices handles GET /v1/prices.
func (s *APIServer) GetPrices(c *fiber.Ctx) error {
	return page(c, func(p *params.Params) (listing.Page[*models.Price], error) {
		return s.svc.ListPrices(c.UserContext(), account(c), p)
	})
}

// GetPrice handles GET /v1/prices/:id.
func (s *APIServer) GetPrice(c *fiber.Ctx) error {
	price, err := s.svc.RetrievePrice(c.UserContext(), account(c), c.Params("id"), "id")
	return respond(c, price, err)
}

// PostPrice handles POST /v1/prices/:id.
func (s *APIServer) PostPrice(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Price, error) {
		return s.svc.UpdatePrice(c.UserContext(), account(c), c.Params("id"), p)
	})
}

// PostSkus handles POST /v1/skus.
func (s *APIServer) PostSkus(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Sku, error) {
		return s.svc.CreateSku(c.UserContext(), account(c), p)
	})
}

// GetSkus handles GET /v1/skus.
func (s *APIServer) GetSkus(c *fiber.Ctx) error {
	return page(c, func(p *params.Params) (listing.Page[*models.Sku], error) {
		return s.svc.ListSkus(c.UserContext(), account(c), p)
	})
}

// GetSku handles GET /v1/skus/:id.
func (s *APIServer) GetSku(c *fiber.Ctx) error {
	sku, err := s.svc.RetrieveSku(c.UserContext(), account(c), c.Params("id"))
	return respond(c, sku, err)
}

// PostSku handles POST /v1/skus/:id.
func (s *APIServer) PostSku(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.Sku, error) {
		return s.svc.UpdateSku(c.UserContext(), account(c), c.Params("id"), p)
	})
}

// DeleteSku handles DELETE /v1/skus/:id.
func (s *APIServer) DeleteSku(c *fiber.Ctx) error {
	d, err := s.svc.DeleteSku(c.UserContext(), account(c), c.Params("id"))
	return respond(c, d, err)
}

// PostTaxRates handles POST /v1/tax_rates.
func (s *APIServer) PostTaxRates(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.TaxRate, error) {
		return s.svc.CreateTaxRate(c.UserContext(), account(c), p)
	})
}

// GetTaxRates handles GET /v1/tax_rates.
func (s *APIServer) GetTaxRates(c *fiber.Ctx) error {
	return page(c, func(p *params.Params) (listing.Page[*models.TaxRate], error) {
		return s.svc.ListTaxRates(c.UserContext(), account(c), p)
	})
}

// GetTaxRate handles GET /v1/tax_rates/:id.
func (s *APIServer) GetTaxRate(c *fiber.Ctx) error {
	tr, err := s.svc.RetrieveTaxRate(c.UserContext(), account(c), c.Params("id"), "id")
	return respond(c, tr, err)
}

// PostTaxRate handles POST /v1/tax_rates/:id.
func (s *APIServer) PostTaxRate(c *fiber.Ctx) error {
	return create(c, func(p *params.Params) (*models.TaxRate, error) {
		return s.svc.UpdateTaxRate(c.UserContext(), account(c), c.Params("id"), p)
	})
}
