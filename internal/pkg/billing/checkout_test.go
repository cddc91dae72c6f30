package billing

import (
	"context"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
)

const checkoutURLs = "success_url=https://example.com/ok&cancel_url=https://example.com/cancel&payment_method_types[0]=card"

func TestCreateCheckoutSession_InlineItems(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cs, err := svc.CreateCheckoutSession(ctx, acct, form(t, checkoutURLs+
		"&line_items[0][name]=T-shirt&line_items[0][amount]=2000&line_items[0][currency]=USD&line_items[0][quantity]=2"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cs.ID, "cs_"), cs.ID)
	assert.Equal(t, checkoutBaseURL+cs.ID, cs.URL)
	assert.Equal(t, checkoutModePayment, cs.Mode)
	assert.Equal(t, "unpaid", cs.PaymentStatus)
	require.Len(t, cs.LineItems, 1)
	assert.Equal(t, int64(2), cs.LineItems[0].Quantity)
	assert.Equal(t, "usd", *cs.LineItems[0].Currency)

	got, err := svc.RetrieveCheckoutSession(ctx, acct, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, cs.ID, got.ID)
}

func TestCreateCheckoutSession_PriceItems(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	price, err := svc.CreatePrice(ctx, acct, form(t, "currency=eur&unit_amount=1500&product_data[name]=Gold"))
	require.NoError(t, err)

	cs, err := svc.CreateCheckoutSession(ctx, acct, form(t, checkoutURLs+"&line_items[0][price]="+price.ID))
	require.NoError(t, err)
	require.Len(t, cs.LineItems, 1)
	assert.Equal(t, int64(1500), *cs.LineItems[0].Amount)
	assert.Equal(t, "eur", *cs.LineItems[0].Currency)

	_, err = svc.CreateCheckoutSession(ctx, acct, form(t, checkoutURLs+"&line_items[0][price]=price_missing"))
	e := requireCode(t, err, fiber.StatusNotFound, apierror.CodeResourceMissing)
	assert.Equal(t, "line_items[0][price]", e.Param)
}

func TestCreateCheckoutSession_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		body  string
		param string
	}{
		{"no urls", "payment_method_types[0]=card&line_items[0][price]=p", "success_url"},
		{"no items", checkoutURLs, "line_items"},
		{"bad method", "success_url=a&cancel_url=b&payment_method_types[0]=cash&mode=setup", "payment_method_types"},
		{"bad mode", checkoutURLs + "&mode=donation", "mode"},
		{"unknown customer", checkoutURLs + "&mode=setup&customer=cus_missing", "customer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCheckoutSession(ctx, acct, form(t, tt.body))
			require.Error(t, err)
			assert.Equal(t, tt.param, apierror.From(err).Param)
		})
	}
}

func TestCheckoutSession_SetupModeAndList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	c := newCustomer(t, svc, "email=jenny@example.com")

	setup, err := svc.CreateCheckoutSession(ctx, acct, form(t, checkoutURLs+"&mode=setup&customer="+c.ID))
	require.NoError(t, err)
	assert.Equal(t, "no_payment_required", setup.PaymentStatus)
	assert.Empty(t, setup.LineItems)

	_, err = svc.CreateCheckoutSession(ctx, acct, form(t, checkoutURLs+"&mode=setup"))
	require.NoError(t, err)

	page, err := svc.ListCheckoutSessions(ctx, acct, form(t, "customer="+c.ID))
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, setup.ID, page.Data[0].ID)
}
