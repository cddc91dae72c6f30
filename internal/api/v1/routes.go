package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/internal/pkg/middleware"
)

// RegisterHandlers mounts every route of s on router, which is expected to
// be the authenticated /v1 group.
func RegisterHandlers(router fiber.Router, s *APIServer) {
	// publishable keys may only tokenize cards
	router.Post("/tokens", s.PostTokens)

	secret := router.Group("", middleware.RequireSecretKey)

	secret.Get("/tokens/:id", s.GetToken)

	secret.Get("/account", s.GetAccount)
	secret.Post("/accounts", s.PostAccounts)
	secret.Get("/accounts", s.GetAccounts)
	secret.Get("/accounts/:id", s.GetAccountByID)
	secret.Post("/accounts/:id", s.PostAccountByID)
	secret.Delete("/accounts/:id", middleware.RequirePlatform, s.DeleteAccountByID)

	secret.Post("/customers", s.PostCustomers)
	secret.Get("/customers", s.GetCustomers)
	secret.Get("/customers/:id", s.GetCustomer)
	secret.Post("/customers/:id", s.PostCustomer)
	secret.Delete("/customers/:id", s.DeleteCustomer)
	secret.Post("/customers/:id/sources", s.PostCustomerSources)
	secret.Get("/customers/:id/sources", s.GetCustomerSources)
	secret.Get("/customers/:id/sources/:source", s.GetCustomerSource)
	secret.Delete("/customers/:id/sources/:source", s.DeleteCustomerSource)

	secret.Post("/charges", s.PostCharges)
	secret.Get("/charges", s.GetCharges)
	secret.Get("/charges/:id", s.GetCharge)
	secret.Post("/charges/:id", s.PostCharge)
	secret.Post("/charges/:id/capture", s.PostChargeCapture)
	secret.Post("/charges/:id/refunds", s.PostChargeRefunds)
	secret.Get("/charges/:id/refunds", s.GetChargeRefunds)
	secret.Get("/charges/:id/refunds/:refund", s.GetChargeRefund)

	secret.Post("/refunds", s.PostRefunds)
	secret.Get("/refunds", s.GetRefunds)
	secret.Get("/refunds/:id", s.GetRefund)
	secret.Post("/refunds/:id", s.PostRefund)

	secret.Get("/disputes", s.GetDisputes)
	secret.Get("/disputes/:id", s.GetDispute)
	secret.Post("/disputes/:id", s.PostDispute)
	secret.Post("/disputes/:id/close", s.PostDisputeClose)

	secret.Get("/balance_transactions", s.GetBalanceTransactions)
	secret.Get("/balance_transactions/:id", s.GetBalanceTransaction)
	secret.Get("/balance/history", s.GetBalanceTransactions)
	secret.Get("/balance/history/:id", s.GetBalanceTransaction)

	secret.Post("/products", s.PostProducts)
	secret.Get("/products", s.GetProducts)
	secret.Get("/products/:id", s.GetProduct)
	secret.Post("/products/:id", s.PostProduct)
	secret.Delete("/products/:id", s.DeleteProduct)

	secret.Post("/plans", s.PostPlans)
	secret.Get("/plans", s.GetPlans)
	secret.Get("/plans/:id", s.GetPlan)
	secret.Post("/plans/:id", s.PostPlan)
	secret.Delete("/plans/:id", s.DeletePlan)

	secret.Post("/prices", s.PostPrices)
	secret.Get("/prices", s.GetPrices)
	secret.Get("/prices/:id", s.GetPrice)
	secret.Post("/prices/:id", s.PostPrice)

	secret.Post("/skus", s.PostSkus)
	secret.Get("/skus", s.GetSkus)
	secret.Get("/skus/:id", s.GetSku)
	secret.Post("/skus/:id", s.PostSku)
	secret.Delete("/skus/:id", s.DeleteSku)

	secret.Post("/tax_rates", s.PostTaxRates)
	secret.Get("/tax_rates", s.GetTaxRates)
	secret.Get("/tax_rates/:id", s.GetTaxRate)
	secret.Post("/tax_rates/:id", s.PostTaxRate)

	secret.Post("/checkout/sessions", s.PostCheckoutSessions)
	secret.Get("/checkout/sessions", s.GetCheckoutSessions)
	secret.Get("/checkout/sessions/:id", s.GetCheckoutSession)

	secret.Post("/subscriptions", s.PostSubscriptions)
	secret.Get("/subscriptions", s.GetSubscriptions)
	secret.Get("/subscriptions/:id", s.GetSubscription)
	secret.Post("/subscriptions/:id", s.PostSubscription)
	secret.Delete("/subscriptions/:id", s.DeleteSubscription)

	secret.Post("/subscription_items", s.PostSubscriptionItems)
	secret.Get("/subscription_items", s.GetSubscriptionItems)
	secret.Get("/subscription_items/:id", s.GetSubscriptionItem)
	secret.Post("/subscription_items/:id", s.PostSubscriptionItem)
	secret.Delete("/subscription_items/:id", s.DeleteSubscriptionItem)

	secret.Post("/payment_intents", s.PostPaymentIntents)
	secret.Get("/payment_intents", s.GetPaymentIntents)
	secret.Get("/payment_intents/:id", s.GetPaymentIntent)
	secret.Post("/payment_intents/:id", s.PostPaymentIntent)
	secret.Post("/payment_intents/:id/confirm", s.PostPaymentIntentConfirm)
	secret.Post("/payment_intents/:id/capture", s.PostPaymentIntentCapture)
	secret.Post("/payment_intents/:id/cancel", s.PostPaymentIntentCancel)
}
