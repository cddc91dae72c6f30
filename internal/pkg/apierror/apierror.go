// Package apierror defines the error contract returned by every API route.
//
// Errors are plain values: they are created where a problem is detected and
// returned unchanged up to the HTTP boundary, which renders them as
// {"error": {...}} with the carried status code.
package apierror

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error types understood by client SDKs.
const (
	TypeInvalidRequest = "invalid_request_error"
	TypeCard           = "card_error"
	TypeAPI            = "api_error"
	TypeIdempotency    = "idempotency_error"
	TypeRateLimit      = "rate_limit_error"
)

// Machine-readable error codes.
const (
	CodeParameterMissing      = "parameter_missing"
	CodeParameterInvalid      = "parameter_invalid"
	CodeResourceMissing       = "resource_missing"
	CodeResourceAlreadyExists = "resource_already_exists"
	CodeAmountTooSmall        = "amount_too_small"
	CodeAmountTooLarge        = "amount_too_large"
	CodeChargeAlreadyCaptured = "charge_already_captured"
	CodeChargeAlreadyRefunded = "charge_already_refunded"
	CodeChargeDisputed        = "charge_disputed"
	CodeCardDeclined          = "card_declined"
	CodeIncorrectNumber       = "incorrect_number"
	CodeInvalidExpiryMonth    = "invalid_expiry_month"
	CodeInvalidExpiryYear     = "invalid_expiry_year"
	CodeTokenAlreadyUsed      = "token_already_used"
	CodeAccountInvalid        = "account_invalid"
	CodeRateLimit             = "rate_limit"
	CodeIdempotencyKeyInUse   = "idempotency_key_in_use"
	CodePaymentIntentState    = "payment_intent_unexpected_state"
	CodeMissingPaymentSource  = "missing"
	CodeInvalidRequestURL     = "url_invalid"
)

const docURLBase = "https://stripe.com/docs/error-codes/"

// Error is a structured API error. The zero value is not useful; use the
// constructors below.
type Error struct {
	Status      int    `json:"-"`
	Type        string `json:"type"`
	Code        string `json:"code,omitempty"`
	DeclineCode string `json:"decline_code,omitempty"`
	Param       string `json:"param,omitempty"`
	Message     string `json:"message"`
	DocURL      string `json:"doc_url,omitempty"`
	Charge      string `json:"charge,omitempty"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Body is the JSON document written for an error response.
func (e *Error) Body() fiber.Map {
	return fiber.Map{"error": e}
}

// WithCharge attaches the id of the charge a card error belongs to.
func (e *Error) WithCharge(chargeID string) *Error {
	e.Charge = chargeID
	return e
}

func newError(status int, typ, code, param, message string) *Error {
	e := &Error{
		Status:  status,
		Type:    typ,
		Code:    code,
		Param:   param,
		Message: message,
	}
	if code != "" {
		e.DocURL = docURLBase + code
	}
	return e
}

// InvalidRequest reports a malformed or out-of-range parameter.
func InvalidRequest(message, param string) *Error {
	return newError(fiber.StatusBadRequest, TypeInvalidRequest, "", param, message)
}

// InvalidRequestCode is InvalidRequest with a machine code.
func InvalidRequestCode(code, message, param string) *Error {
	return newError(fiber.StatusBadRequest, TypeInvalidRequest, code, param, message)
}

// ParameterMissing reports an absent required parameter.
func ParameterMissing(param string) *Error {
	return newError(fiber.StatusBadRequest, TypeInvalidRequest, CodeParameterMissing, param,
		fmt.Sprintf("Missing required param: %s.", param))
}

// ResourceMissing reports an id that does not exist in the caller's account.
func ResourceMissing(kind, id, param string) *Error {
	return newError(fiber.StatusNotFound, TypeInvalidRequest, CodeResourceMissing, param,
		fmt.Sprintf("No such %s: '%s'", kind, id))
}

// ResourceAlreadyExists reports a caller-supplied id that is already taken.
func ResourceAlreadyExists(kind, id string) *Error {
	return newError(fiber.StatusBadRequest, TypeInvalidRequest, CodeResourceAlreadyExists, "id",
		fmt.Sprintf("%s already exists with id '%s'.", kind, id))
}

// CardError reports a simulated payment-method failure.
func CardError(code, declineCode, message, param string) *Error {
	e := newError(fiber.StatusPaymentRequired, TypeCard, code, param, message)
	e.DeclineCode = declineCode
	return e
}

// APIError reports a simulated internal failure.
func APIError(message string) *Error {
	return newError(fiber.StatusInternalServerError, TypeAPI, "", "", message)
}

// RateLimit reports simulated throttling.
func RateLimit(message string) *Error {
	return newError(fiber.StatusTooManyRequests, TypeRateLimit, CodeRateLimit, "", message)
}

// Idempotency reports an idempotency key reused with different parameters.
func Idempotency(message string) *Error {
	return newError(fiber.StatusBadRequest, TypeIdempotency, "", "", message)
}

// IdempotencyConflict reports an idempotency key whose first request is still running.
func IdempotencyConflict(message string) *Error {
	return newError(fiber.StatusConflict, TypeIdempotency, CodeIdempotencyKeyInUse, "", message)
}

// Unauthorized reports a missing or malformed API key.
func Unauthorized(message string) *Error {
	return newError(fiber.StatusUnauthorized, TypeInvalidRequest, "", "", message)
}

// Forbidden reports an account the key cannot act on.
func Forbidden(code, message string) *Error {
	return newError(fiber.StatusForbidden, TypeInvalidRequest, code, "", message)
}

// From converts any error into an *Error. Errors that are not API errors
// become a generic api_error.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch fiberErr.Code {
		case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
			return newError(fiber.StatusNotFound, TypeInvalidRequest, CodeInvalidRequestURL, "",
				"Unrecognized request URL. Please see https://stripe.com/docs or we can help at https://support.stripe.com/.")
		case fiber.StatusRequestEntityTooLarge, fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
			return newError(fiberErr.Code, TypeInvalidRequest, "", "", fiberErr.Message)
		}
	}
	return APIError("An unknown error occurred")
}

// Is reports whether err is an API error carrying the given code.
func Is(err error, code string) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}
