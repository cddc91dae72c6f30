package tokens

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
)

func TestLookup_FixedTable(t *testing.T) {
	tests := []struct {
		token, brand, last4, country, funding string
	}{
		{"tok_visa", "Visa", "4242", "US", "credit"},
		{"tok_visa_debit", "Visa", "5556", "US", "debit"},
		{"tok_mastercard", "MasterCard", "4444", "US", "credit"},
		{"tok_mastercard_prepaid", "MasterCard", "5100", "US", "prepaid"},
		{"tok_amex", "American Express", "8431", "US", "credit"},
		{"tok_jcb", "JCB", "0505", "JP", "credit"},
		{"tok_unionpay", "UnionPay", "0005", "CN", "credit"},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			d, ok := Lookup(tt.token)
			require.True(t, ok)
			assert.Equal(t, tt.brand, d.Brand)
			assert.Equal(t, tt.last4, d.Last4)
			assert.Equal(t, tt.country, d.Country)
			assert.Equal(t, tt.funding, d.Funding)
			assert.Equal(t, EffectNone, d.Effect)
		})
	}

	_, ok := Lookup("tok_nope")
	assert.False(t, ok)
}

func TestFingerprint_SharedBetweenTokenAndNumber(t *testing.T) {
	tok, _ := Lookup("tok_visa")
	num, ok := LookupNumber("4242 4242 4242 4242")
	require.True(t, ok)
	assert.Equal(t, tok.Fingerprint(), num.Fingerprint())

	mc, _ := Lookup("tok_mastercard")
	assert.NotEqual(t, tok.Fingerprint(), mc.Fingerprint())
}

func TestLookupNumber(t *testing.T) {
	d, ok := LookupNumber("4000000000009995")
	require.True(t, ok)
	assert.Equal(t, EffectDecline, d.Effect)
	assert.Equal(t, "insufficient_funds", d.Decline.DeclineCode)

	// plain Luhn-valid number outside the table
	d, ok = LookupNumber("4111111111111111")
	require.True(t, ok)
	assert.Equal(t, "Visa", d.Brand)
	assert.Equal(t, "1111", d.Last4)
	assert.Equal(t, EffectNone, d.Effect)

	_, ok = LookupNumber("4242424242424241")
	assert.False(t, ok)
}

func TestPreChargeError(t *testing.T) {
	d, _ := Lookup("tok_tooManyRequests")
	err := apierror.From(d.PreChargeError())
	require.NotNil(t, err)
	assert.Equal(t, 429, err.Status)
	assert.Equal(t, apierror.TypeRateLimit, err.Type)

	d, _ = Lookup("tok_serverError")
	err = apierror.From(d.PreChargeError())
	require.NotNil(t, err)
	assert.Equal(t, 500, err.Status)

	d, _ = Lookup("tok_visa")
	assert.NoError(t, d.PreChargeError())
}

func TestDeclineError(t *testing.T) {
	cases := map[string]string{
		"tok_chargeDeclined":                  "generic_decline",
		"tok_chargeDeclinedInsufficientFunds": "insufficient_funds",
		"tok_chargeDeclinedFraudulent":        "fraudulent",
		"tok_chargeDeclinedIncorrectCvc":      "incorrect_cvc",
		"tok_chargeDeclinedExpiredCard":       "expired_card",
		"tok_chargeDeclinedProcessingError":   "processing_error",
	}
	for token, decline := range cases {
		d, ok := Lookup(token)
		require.True(t, ok, token)
		err := d.DeclineError("ch_123")
		require.NotNil(t, err, token)
		assert.Equal(t, 402, err.Status)
		assert.Equal(t, apierror.TypeCard, err.Type)
		assert.Equal(t, decline, err.DeclineCode)
		assert.Equal(t, "ch_123", err.Charge)
		assert.NotEqual(t, "authorized", d.Outcome().Type)
	}

	d, _ := Lookup("tok_riskLevelElevated")
	assert.Nil(t, d.DeclineError("ch_123"))
	assert.Equal(t, "manual_review", d.Outcome().Type)
	assert.Equal(t, "elevated", d.Outcome().RiskLevel)
}

func TestSchedulesDispute(t *testing.T) {
	d, _ := Lookup("tok_createDispute")
	assert.True(t, d.SchedulesDispute())
	d, _ = Lookup("tok_createDisputeInquiry")
	assert.True(t, d.SchedulesDispute())
	d, _ = Lookup("tok_visa")
	assert.False(t, d.SchedulesDispute())
}

func TestResolve_Chain(t *testing.T) {
	in := NewInterpreter()
	chain := "tok_chargeDeclinedInsufficientFunds|tok_visa"

	first, err := in.Resolve(chain, "source")
	require.NoError(t, err)
	assert.Equal(t, "tok_chargeDeclinedInsufficientFunds", first.Token)

	second, err := in.Resolve(chain, "source")
	require.NoError(t, err)
	assert.Equal(t, "tok_visa", second.Token)

	_, err = in.Resolve(chain, "source")
	require.Error(t, err)
	apiErr := apierror.From(err)
	assert.Equal(t, apierror.CodeTokenAlreadyUsed, apiErr.Code)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "source", apiErr.Param)

	// a fresh interpreter starts over
	other, err := NewInterpreter().Resolve(chain, "source")
	require.NoError(t, err)
	assert.Equal(t, "tok_chargeDeclinedInsufficientFunds", other.Token)
}

func TestResolve_ChainConcurrent(t *testing.T) {
	in := NewInterpreter()
	chain := "tok_visa|tok_visa|tok_visa|tok_visa"

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, failed := 0, 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := in.Resolve(chain, "source")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
			} else {
				ok++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 4, ok)
	assert.Equal(t, 6, failed)
}

func TestResolve_Unknown(t *testing.T) {
	_, err := NewInterpreter().Resolve("tok_unknown", "source")
	require.Error(t, err)
	apiErr := apierror.From(err)
	assert.Equal(t, apierror.CodeResourceMissing, apiErr.Code)
	assert.Equal(t, "source", apiErr.Param)
}

func TestLuhnAndBrand(t *testing.T) {
	assert.True(t, Luhn("4242424242424242"))
	assert.True(t, Luhn("378282246310005"))
	assert.False(t, Luhn("1234"))
	assert.False(t, Luhn("42424242424242a2"))

	assert.Equal(t, "American Express", Brand("378282246310005"))
	assert.Equal(t, "Discover", Brand("6011111111111117"))
	assert.Equal(t, "MasterCard", Brand("2223003122003222"))
}
