// Package validation holds the parameter guards run before any record is
// touched, so a rejected request never leaves partial state behind.
package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
)

// MaxAmount is the largest amount accepted for a charge or refund, in the
// currency's smallest unit.
const MaxAmount = 99999999

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var currencyTag = "oneof=" + strings.Join(Currencies, " ")

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Struct validates a tagged struct.
func Struct(s any) error {
	return Validator().Struct(s)
}

// RequiredParams fails with parameter_missing for the first name that was not
// sent with a value. Names are either "field" or "field[sub]".
func RequiredParams(p *params.Params, names ...string) error {
	for _, name := range names {
		if _, st := p.Lookup(name); st != params.Set {
			return apierror.ParameterMissing(p.Name(name))
		}
	}
	return nil
}

// Currency checks a lowercase ISO code against the supported list.
func Currency(code, param string) error {
	if err := Validator().Var(code, currencyTag); err != nil {
		return apierror.InvalidRequest(fmt.Sprintf("Invalid currency: %s. Stripe currently supports these currencies: %s", code, strings.Join(Currencies, ", ")), param)
	}
	return nil
}

// Amount checks that amount is a positive integer no larger than MaxAmount.
func Amount(amount int64, param string) error {
	if err := Validator().Var(amount, "gt=0"); err != nil {
		return apierror.InvalidRequest("Invalid positive integer", param)
	}
	if err := Validator().Var(amount, fmt.Sprintf("lte=%d", MaxAmount)); err != nil {
		return apierror.InvalidRequestCode(apierror.CodeAmountTooLarge, "Amount must be no more than $999,999.99", param)
	}
	return nil
}

// NonNegative checks integer fields such as unit_amount where zero is valid.
func NonNegative(n int64, param string) error {
	if err := Validator().Var(n, "gte=0"); err != nil {
		return apierror.InvalidRequest("This value must be greater than or equal to 0.", param)
	}
	return nil
}

// MinimumAmount enforces the per-currency floor. Currencies without a known
// floor are not checked.
func MinimumAmount(amount int64, currency, param string) error {
	floor, ok := minimumAmounts[currency]
	if !ok || amount >= floor {
		return nil
	}
	return apierror.InvalidRequestCode(apierror.CodeAmountTooSmall,
		fmt.Sprintf("Amount must be at least %s %s", FormatAmount(floor, currency), currency), param)
}

// Limit checks a list page size.
func Limit(limit int64) error {
	if err := Validator().Var(limit, "min=1,max=100"); err != nil {
		return apierror.InvalidRequest("Invalid limit: must be between 1 and 100", "limit")
	}
	return nil
}

// OneOf checks an enumerated string parameter.
func OneOf(value, param string, allowed ...string) error {
	if err := Validator().Var(value, "oneof="+strings.Join(allowed, " ")); err != nil {
		return apierror.InvalidRequest(fmt.Sprintf("Invalid %s: must be one of %s", param, strings.Join(allowed, ", ")), param)
	}
	return nil
}

// Email checks an email address.
func Email(addr, param string) error {
	if err := Validator().Var(addr, "email"); err != nil {
		return apierror.InvalidRequest(fmt.Sprintf("Invalid email address: %s", addr), param)
	}
	return nil
}

// MaxLength checks the length of a free-text parameter.
func MaxLength(value string, n int, param string) error {
	if err := Validator().Var(value, fmt.Sprintf("max=%d", n)); err != nil {
		return apierror.InvalidRequest(fmt.Sprintf("Invalid %s: must be at most %d characters", param, n), param)
	}
	return nil
}

// IsZeroDecimal reports whether the currency has no minor unit.
func IsZeroDecimal(currency string) bool {
	_, ok := zeroDecimal[currency]
	return ok
}

// FormatAmount renders an amount in the currency's major unit, e.g. $0.50.
func FormatAmount(amount int64, currency string) string {
	symbol := "$"
	switch currency {
	case "eur":
		symbol = "€"
	case "gbp":
		symbol = "£"
	case "jpy":
		symbol = "¥"
	}
	if IsZeroDecimal(currency) {
		return fmt.Sprintf("%s%d", symbol, amount)
	}
	return fmt.Sprintf("%s%d.%02d", symbol, amount/100, amount%100)
}
