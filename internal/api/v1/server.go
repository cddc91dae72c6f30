// Package apiv1 exposes the billing service over Stripe's REST routes.
package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/billing"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
	"github.com/ManuelReschke/PayFox/internal/pkg/requestcontext"
)

// APIServer translates HTTP requests into billing.Service calls.
type APIServer struct {
	svc *billing.Service
}

// NewAPIServer creates a new API server instance
func NewAPIServer(svc *billing.Service) *APIServer {
	return &APIServer{svc: svc}
}

// requestParams merges the query string and the form body of c.
func requestParams(c *fiber.Ctx) (*params.Params, error) {
	p, err := params.Parse(string(c.Request().URI().QueryString()))
	if err != nil {
		return nil, err
	}
	if len(c.Body()) == 0 {
		return p, nil
	}
	body, err := params.Parse(string(c.Body()))
	if err != nil {
		return nil, err
	}
	return p.Merge(body), nil
}

// withParam adds a path parameter to the request parameters, as the
// nested routes do for the parent id.
func withParam(c *fiber.Ctx, name, value string) (*params.Params, error) {
	p, err := requestParams(c)
	if err != nil {
		return nil, err
	}
	return p.Merge(params.New(map[string]any{name: value})), nil
}

func account(c *fiber.Ctx) string {
	return requestcontext.Account(c)
}

func respond[T any](c *fiber.Ctx, v T, err error) error {
	if err != nil {
		return err
	}
	return c.JSON(v)
}

func respondList[T any](c *fiber.Ctx, page listing.Page[T], err error) error {
	if err != nil {
		return err
	}
	return c.JSON(models.NewList(c.Path(), page.Data, page.HasMore))
}

// create runs a call taking the request parameters.
func create[T any](c *fiber.Ctx, call func(*params.Params) (T, error)) error {
	p, err := requestParams(c)
	if err != nil {
		return err
	}
	v, err := call(p)
	return respond(c, v, err)
}

// page runs a list call taking the request parameters.
func page[T any](c *fiber.Ctx, call func(*params.Params) (listing.Page[T], error)) error {
	p, err := requestParams(c)
	if err != nil {
		return err
	}
	result, err := call(p)
	return respondList(c, result, err)
}
