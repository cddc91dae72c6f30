package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuelReschke/PayFox/internal/pkg/requestcontext"
)

func TestParseAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		kind string
		ok   bool
	}{
		{"sk_test_123", requestcontext.KeySecret, true},
		{"sk_live_123", requestcontext.KeySecret, true},
		{"rk_test_123", requestcontext.KeyRestricted, true},
		{"pk_test_123", requestcontext.KeyPublishable, true},
		{"sk_test_", "", false},
		{"sk_live_", "", false},
		{"sk_prod_123", "", false},
		{"xk_test_123", "", false},
		{"sk", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			kind, ok := parseAPIKey(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestRedactKey(t *testing.T) {
	assert.Equal(t, "sk_test_", redactKey("sk_test_")[:8])
	assert.Equal(t, "sk_test_****p7dc", redactKey("sk_test_4eC3p7dc"))
	assert.Equal(t, "short", redactKey("short"))
}
