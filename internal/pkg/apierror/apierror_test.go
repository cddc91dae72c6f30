package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrom(t *testing.T) {
	missing := ResourceMissing("charge", "ch_1", "id")

	tests := []struct {
		name   string
		err    error
		status int
		typ    string
		code   string
	}{
		{"api error", missing, fiber.StatusNotFound, TypeInvalidRequest, CodeResourceMissing},
		{"wrapped api error", fmt.Errorf("lookup: %w", missing), fiber.StatusNotFound, TypeInvalidRequest, CodeResourceMissing},
		{"unknown route", fiber.ErrNotFound, fiber.StatusNotFound, TypeInvalidRequest, CodeInvalidRequestURL},
		{"wrong method", fiber.ErrMethodNotAllowed, fiber.StatusNotFound, TypeInvalidRequest, CodeInvalidRequestURL},
		{"body too large", fiber.ErrRequestEntityTooLarge, fiber.StatusRequestEntityTooLarge, TypeInvalidRequest, ""},
		{"anything else", errors.New("boom"), fiber.StatusInternalServerError, TypeAPI, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := From(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.typ, got.Type)
			assert.Equal(t, tt.code, got.Code)
		})
	}

	assert.Nil(t, From(nil))
}

func TestBody(t *testing.T) {
	e := CardError(CodeCardDeclined, "insufficient_funds", "Your card has insufficient funds.", "").WithCharge("ch_1")

	raw, err := json.Marshal(e.Body())
	require.NoError(t, err)

	var body struct {
		Error map[string]any `json:"error"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, TypeCard, body.Error["type"])
	assert.Equal(t, "insufficient_funds", body.Error["decline_code"])
	assert.Equal(t, "ch_1", body.Error["charge"])
	assert.Equal(t, docURLBase+CodeCardDeclined, body.Error["doc_url"])
	assert.NotContains(t, body.Error, "param")
	assert.NotContains(t, body.Error, "status")
	assert.Equal(t, fiber.StatusPaymentRequired, e.Status)
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("capture: %w", InvalidRequestCode(CodeChargeAlreadyCaptured, "done", "charge"))
	assert.True(t, Is(err, CodeChargeAlreadyCaptured))
	assert.False(t, Is(err, CodeChargeAlreadyRefunded))
	assert.False(t, Is(errors.New("plain"), CodeChargeAlreadyCaptured))
}
