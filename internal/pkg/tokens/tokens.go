// Package tokens turns source tokens into synthetic cards and the side
// effects they trigger on the charge being created.
package tokens

import (
	"fmt"
	"strings"

	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/idgen"
)

// ChainSeparator splits a chain token into its elements.
const ChainSeparator = "|"

// Interpreter resolves source tokens. It owns the chain cursors, so two
// interpreters never share chain progress.
type Interpreter struct {
	chains *chainCursors
}

// NewInterpreter creates an interpreter with empty chain state.
func NewInterpreter() *Interpreter {
	return &Interpreter{chains: newChainCursors()}
}

// IsChain reports whether raw encodes a sequence of tokens.
func IsChain(raw string) bool {
	return strings.Contains(raw, ChainSeparator)
}

// Next consumes one use of raw. A chain yields its next element and an
// exhausted chain fails with token_already_used; anything else is returned
// unchanged.
func (in *Interpreter) Next(raw, param string) (string, error) {
	if !IsChain(raw) {
		return raw, nil
	}
	tok, ok := in.chains.next(raw)
	if !ok {
		return "", apierror.InvalidRequestCode(apierror.CodeTokenAlreadyUsed,
			fmt.Sprintf("You cannot use a Stripe token more than once: %s.", raw), param)
	}
	return tok, nil
}

// Resolve consumes one use of raw and looks the resulting token up in the
// fixed table.
func (in *Interpreter) Resolve(raw, param string) (Definition, error) {
	tok, err := in.Next(raw, param)
	if err != nil {
		return Definition{}, err
	}
	d, ok := Lookup(tok)
	if !ok {
		return Definition{}, apierror.ResourceMissing("token", tok, param)
	}
	return d, nil
}

// Reset forgets all chain progress.
func (in *Interpreter) Reset() {
	in.chains.reset()
}

// Lookup finds a fixed-table token.
func Lookup(token string) (Definition, bool) {
	d, ok := byToken[token]
	return d, ok
}

// LookupNumber finds the behavior attached to a test card number. Numbers
// that are not in the table but pass the Luhn check behave like a plain card.
func LookupNumber(number string) (Definition, bool) {
	number = strings.ReplaceAll(number, " ", "")
	if d, ok := byNumber[number]; ok {
		return d, true
	}
	if !Luhn(number) {
		return Definition{}, false
	}
	return Definition{
		Number:  number,
		Brand:   Brand(number),
		Last4:   number[len(number)-4:],
		Country: "US",
		Funding: "credit",
	}, true
}

// PreChargeError is the failure raised before any record exists, or nil.
func (d Definition) PreChargeError() error {
	switch d.Effect {
	case EffectRateLimit:
		return apierror.RateLimit("Request rate limit exceeded. You can learn more about rate limits here https://stripe.com/docs/rate-limits.")
	case EffectServerError:
		return apierror.APIError("An unknown error occurred")
	}
	return nil
}

// DeclineError is the card error for a declining token, carrying the id of
// the failed charge. It is nil for tokens that do not decline.
func (d Definition) DeclineError(chargeID string) *apierror.Error {
	if d.Effect != EffectDecline || d.Decline == nil {
		return nil
	}
	return apierror.CardError(d.Decline.Code, d.Decline.DeclineCode, d.Decline.Message, d.Decline.Param).
		WithCharge(chargeID)
}

// Brand guesses the card network from the leading digits.
func Brand(number string) string {
	switch {
	case strings.HasPrefix(number, "4"):
		return "Visa"
	case strings.HasPrefix(number, "34"), strings.HasPrefix(number, "37"):
		return "American Express"
	case strings.HasPrefix(number, "5"), strings.HasPrefix(number, "2"):
		return "MasterCard"
	case strings.HasPrefix(number, "6011"), strings.HasPrefix(number, "65"):
		return "Discover"
	case strings.HasPrefix(number, "62"):
		return "UnionPay"
	case strings.HasPrefix(number, "35"):
		return "JCB"
	case strings.HasPrefix(number, "30"), strings.HasPrefix(number, "36"), strings.HasPrefix(number, "38"):
		return "Diners Club"
	}
	return "Unknown"
}

// Luhn validates the check digit of a card number.
func Luhn(number string) bool {
	if len(number) < 12 || len(number) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		n := int(c - '0')
		if double {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		double = !double
	}
	return sum%10 == 0
}

func fingerprint(number string) string {
	return idgen.Fingerprint("card:" + number)
}

// FingerprintNumber returns the fingerprint for an arbitrary card number.
func FingerprintNumber(number string) string {
	return fingerprint(number)
}
