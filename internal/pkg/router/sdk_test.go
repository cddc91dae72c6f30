package router

import (
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/customer"
	"github.com/stripe/stripe-go/v83/paymentintent"
)

// startSDKServer serves the app on a loopback port and points the stripe-go
// package clients at it.
func startSDKServer(t *testing.T) {
	t.Helper()
	app := newTestApp(t, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	stripe.Key = testKey
	stripe.SetBackend(stripe.APIBackend, stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String("http://" + ln.Addr().String()),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}))
	t.Cleanup(func() { stripe.SetBackend(stripe.APIBackend, nil) })
}

func TestSDKCustomerAndPaymentIntent(t *testing.T) {
	startSDKServer(t)

	cus, err := customer.New(&stripe.CustomerParams{
		Email:  stripe.String("jenny@example.com"),
		Source: stripe.String("tok_visa"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cus.ID, "cus_"), cus.ID)
	assert.Equal(t, "jenny@example.com", cus.Email)

	pi, err := paymentintent.New(&stripe.PaymentIntentParams{
		Amount:        stripe.Int64(2000),
		Currency:      stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethod: stripe.String("pm_card_visa"),
		Confirm:       stripe.Bool(true),
	})
	require.NoError(t, err)
	assert.Equal(t, stripe.PaymentIntentStatusSucceeded, pi.Status)
	assert.Equal(t, int64(2000), pi.AmountReceived)
	require.NotNil(t, pi.LatestCharge)
	assert.True(t, strings.HasPrefix(pi.LatestCharge.ID, "ch_"))

	got, err := paymentintent.Get(pi.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, pi.ID, got.ID)
}

func TestSDKErrors(t *testing.T) {
	startSDKServer(t)

	_, err := paymentintent.New(&stripe.PaymentIntentParams{
		Amount:        stripe.Int64(2000),
		Currency:      stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethod: stripe.String("pm_card_chargeDeclined"),
		Confirm:       stripe.Bool(true),
	})
	var stripeErr *stripe.Error
	require.True(t, errors.As(err, &stripeErr), "unexpected error %v", err)
	assert.Equal(t, 402, stripeErr.HTTPStatusCode)
	assert.Equal(t, stripe.ErrorTypeCard, stripeErr.Type)
	assert.Equal(t, stripe.ErrorCodeCardDeclined, stripeErr.Code)
	assert.Equal(t, stripe.DeclineCodeGenericDecline, stripeErr.DeclineCode)

	_, err = paymentintent.Get("pi_missing", nil)
	require.True(t, errors.As(err, &stripeErr), "unexpected error %v", err)
	assert.Equal(t, stripe.ErrorCodeResourceMissing, stripeErr.Code)
	assert.Equal(t, 404, stripeErr.HTTPStatusCode)
}

func TestSDKListIteration(t *testing.T) {
	startSDKServer(t)

	created := map[string]bool{}
	for i := 0; i < 5; i++ {
		cus, err := customer.New(&stripe.CustomerParams{Email: stripe.String("paged@example.com")})
		require.NoError(t, err)
		created[cus.ID] = true
	}
	_, err := customer.New(&stripe.CustomerParams{Email: stripe.String("other@example.com")})
	require.NoError(t, err)

	params := &stripe.CustomerListParams{Email: stripe.String("paged@example.com")}
	params.Limit = stripe.Int64(2)

	// the iterator follows starting_after across pages
	seen := map[string]bool{}
	iter := customer.List(params)
	for iter.Next() {
		seen[iter.Customer().ID] = true
	}
	require.NoError(t, iter.Err())
	assert.Equal(t, created, seen)
}
