package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
)

func TestRequiredParams(t *testing.T) {
	p, err := params.Parse("amount=100&card[number]=4242424242424242&currency=")
	require.NoError(t, err)

	assert.NoError(t, RequiredParams(p, "amount", "card[number]"))

	err = RequiredParams(p, "amount", "card[exp_month]")
	require.Error(t, err)
	apiErr := apierror.From(err)
	assert.Equal(t, apierror.CodeParameterMissing, apiErr.Code)
	assert.Equal(t, "card[exp_month]", apiErr.Param)
	assert.Equal(t, 400, apiErr.Status)

	err = RequiredParams(p, "currency")
	require.Error(t, err)
	assert.Equal(t, "currency", apierror.From(err).Param)
}

func TestCurrency(t *testing.T) {
	assert.NoError(t, Currency("usd", "currency"))
	assert.NoError(t, Currency("jpy", "currency"))

	for _, code := range []string{"USD", "xyz", ""} {
		err := Currency(code, "currency")
		require.Error(t, err, code)
		assert.Equal(t, apierror.TypeInvalidRequest, apierror.From(err).Type)
	}
}

func TestAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		wantErr bool
	}{
		{"one cent", 1, false},
		{"max", MaxAmount, false},
		{"zero", 0, true},
		{"negative", -5, true},
		{"too large", MaxAmount + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Amount(tt.amount, "amount")
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, "amount", apierror.From(err).Param)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMinimumAmount(t *testing.T) {
	err := MinimumAmount(5, "usd", "amount")
	require.Error(t, err)
	apiErr := apierror.From(err)
	assert.Equal(t, apierror.CodeAmountTooSmall, apiErr.Code)
	assert.Equal(t, "Amount must be at least $0.50 usd", apiErr.Message)

	assert.NoError(t, MinimumAmount(50, "usd", "amount"))
	assert.NoError(t, MinimumAmount(30, "gbp", "amount"))
	assert.Error(t, MinimumAmount(49, "jpy", "amount"))
	// no known floor
	assert.NoError(t, MinimumAmount(1, "isk", "amount"))
}

func TestLimit(t *testing.T) {
	assert.NoError(t, Limit(1))
	assert.NoError(t, Limit(100))
	assert.Error(t, Limit(0))
	assert.Error(t, Limit(101))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$12.05", FormatAmount(1205, "usd"))
	assert.Equal(t, "¥50", FormatAmount(50, "jpy"))
}
