package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
)

func TestParseNestedFields(t *testing.T) {
	p, err := Parse("amount=2000&metadata[order]=42&items[1][plan]=silver&items[0][plan]=gold&items[0][quantity]=3&expand[]=customer&expand[]=invoice")
	require.NoError(t, err)

	amount, err := p.Int64("amount")
	require.NoError(t, err)
	assert.True(t, amount.IsSet())
	assert.Equal(t, int64(2000), amount.Value)

	meta, err := p.StringMap("metadata")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"order": "42"}, meta.Value)

	items, err := p.List("items")
	require.NoError(t, err)
	require.Len(t, items.Value, 2)
	assert.Equal(t, "gold", items.Value[0].String("plan").Value)
	assert.Equal(t, "silver", items.Value[1].String("plan").Value)
	assert.Equal(t, "items[0][quantity]", items.Value[0].Name("quantity"))

	expand, err := p.Strings("expand")
	require.NoError(t, err)
	assert.Equal(t, []string{"customer", "invoice"}, expand.Value)

	assert.Equal(t, "3", p.String("items[0][quantity]").Value)
}

func TestTriState(t *testing.T) {
	p, err := Parse("description=&name=Jenny")
	require.NoError(t, err)

	assert.Equal(t, Null, p.String("description").State)
	assert.Equal(t, Set, p.String("name").State)
	assert.Equal(t, Absent, p.String("email").State)
	assert.True(t, p.Has("description"))
	assert.False(t, p.Has("email"))
	assert.Equal(t, "fallback", p.String("email").Or("fallback"))
}

func TestInvalidScalars(t *testing.T) {
	p, err := Parse("amount=abc&capture=maybe&metadata[a][b]=c")
	require.NoError(t, err)

	_, err = p.Int64("amount")
	require.Error(t, err)
	assert.Equal(t, "amount", apierror.From(err).Param)

	_, err = p.Bool("capture")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid boolean")

	_, err = p.StringMap("metadata")
	require.Error(t, err)
}

func TestHashClearedThenSet(t *testing.T) {
	p, err := Parse("metadata=&metadata[k]=v")
	require.NoError(t, err)

	meta, err := p.StringMap("metadata")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"k": "v"}, meta.Value)
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"amount", []string{"amount"}},
		{"card[number]", []string{"card", "number"}},
		{"items[0][price_data][currency]", []string{"items", "0", "price_data", "currency"}},
		{"expand[]", []string{"expand", ""}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitName(tt.in), tt.in)
	}
}
