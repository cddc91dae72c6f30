package tokens

import "github.com/ManuelReschke/PayFox/app/models"

// Effect is the side effect a token has on the charge it pays for.
type Effect int

const (
	EffectNone Effect = iota
	// EffectRateLimit fails the operation with 429 before anything is created.
	EffectRateLimit
	// EffectServerError fails the operation with 500 before anything is created.
	EffectServerError
	// EffectDecline stores a failed charge and fails the call with a card error.
	EffectDecline
	// EffectElevatedRisk succeeds but places the charge in manual review.
	EffectElevatedRisk
	// EffectDispute schedules a fraudulent dispute after the charge returns.
	EffectDispute
	// EffectDisputeInquiry schedules an inquiry after the charge returns.
	EffectDisputeInquiry
	// EffectForget makes customer creation skip persistence.
	EffectForget
)

// Decline describes a simulated card failure.
type Decline struct {
	Code        string
	DeclineCode string
	Message     string
	Param       string
	Outcome     models.Outcome
}

// Definition is what a recognized token stands for.
type Definition struct {
	Token   string
	Number  string
	Brand   string
	Last4   string
	Country string
	Funding string
	Effect  Effect
	Decline *Decline
}

// Fingerprint is stable per card number.
func (d Definition) Fingerprint() string {
	return fingerprint(d.Number)
}

// SchedulesDispute reports whether a charge paid with this token is disputed later.
func (d Definition) SchedulesDispute() bool {
	return d.Effect == EffectDispute || d.Effect == EffectDisputeInquiry
}

// Outcome is the charge outcome the token produces.
func (d Definition) Outcome() models.Outcome {
	switch d.Effect {
	case EffectDecline:
		return d.Decline.Outcome
	case EffectElevatedRisk:
		return models.Outcome{
			NetworkStatus: "approved_by_network",
			Reason:        "elevated_risk_level",
			RiskLevel:     "elevated",
			RiskScore:     74,
			SellerMessage: "Stripe evaluated this payment as having elevated risk, and placed it in your manual review queue.",
			Type:          "manual_review",
		}
	}
	return models.Outcome{
		NetworkStatus: "approved_by_network",
		RiskLevel:     "normal",
		RiskScore:     20,
		SellerMessage: "Payment complete.",
		Type:          "authorized",
	}
}

const bankDeclined = "The bank did not return any further details with this decline."

func issuerDeclined(reason string) models.Outcome {
	return models.Outcome{
		NetworkStatus: "declined_by_network",
		Reason:        reason,
		RiskLevel:     "normal",
		RiskScore:     30,
		SellerMessage: bankDeclined,
		Type:          "issuer_declined",
	}
}

func visa(token, number string, effect Effect, decline *Decline) Definition {
	return Definition{
		Token:   token,
		Number:  number,
		Brand:   "Visa",
		Last4:   number[len(number)-4:],
		Country: "US",
		Funding: "credit",
		Effect:  effect,
		Decline: decline,
	}
}

func card(token, number, brand, country, funding string) Definition {
	return Definition{
		Token:   token,
		Number:  number,
		Brand:   brand,
		Last4:   number[len(number)-4:],
		Country: country,
		Funding: funding,
	}
}

var definitions = []Definition{
	card("tok_visa", "4242424242424242", "Visa", "US", "credit"),
	card("tok_visa_debit", "4000056655665556", "Visa", "US", "debit"),
	card("tok_mastercard", "5555555555554444", "MasterCard", "US", "credit"),
	card("tok_mastercard_debit", "5200828282828210", "MasterCard", "US", "debit"),
	card("tok_mastercard_prepaid", "5105105105105100", "MasterCard", "US", "prepaid"),
	card("tok_amex", "371449635398431", "American Express", "US", "credit"),
	card("tok_discover", "6011111111111117", "Discover", "US", "credit"),
	card("tok_diners", "3056930009020004", "Diners Club", "US", "credit"),
	card("tok_jcb", "3566002020360505", "JCB", "JP", "credit"),
	card("tok_unionpay", "6200000000000005", "UnionPay", "CN", "credit"),
	card("tok_br", "4000000760000002", "Visa", "BR", "credit"),
	card("tok_ca", "4000001240000000", "Visa", "CA", "credit"),
	card("tok_gb", "4000008260000000", "Visa", "GB", "credit"),

	visa("tok_chargeDeclined", "4000000000000002", EffectDecline, &Decline{
		Code:        "card_declined",
		DeclineCode: "generic_decline",
		Message:     "Your card was declined.",
		Outcome:     issuerDeclined("generic_decline"),
	}),
	visa("tok_chargeDeclinedInsufficientFunds", "4000000000009995", EffectDecline, &Decline{
		Code:        "card_declined",
		DeclineCode: "insufficient_funds",
		Message:     "Your card has insufficient funds.",
		Outcome:     issuerDeclined("insufficient_funds"),
	}),
	visa("tok_chargeDeclinedFraudulent", "4100000000000019", EffectDecline, &Decline{
		Code:        "card_declined",
		DeclineCode: "fraudulent",
		Message:     "Your card was declined.",
		Outcome: models.Outcome{
			NetworkStatus: "not_sent_to_network",
			Reason:        "highest_risk_level",
			RiskLevel:     "highest",
			RiskScore:     95,
			SellerMessage: "Stripe blocked this payment as too risky.",
			Type:          "blocked",
		},
	}),
	visa("tok_chargeDeclinedIncorrectCvc", "4000000000000127", EffectDecline, &Decline{
		Code:        "incorrect_cvc",
		DeclineCode: "incorrect_cvc",
		Message:     "Your card's security code is incorrect.",
		Param:       "cvc",
		Outcome:     issuerDeclined("incorrect_cvc"),
	}),
	visa("tok_chargeDeclinedExpiredCard", "4000000000000069", EffectDecline, &Decline{
		Code:        "expired_card",
		DeclineCode: "expired_card",
		Message:     "Your card has expired.",
		Param:       "exp_month",
		Outcome:     issuerDeclined("expired_card"),
	}),
	visa("tok_chargeDeclinedProcessingError", "4000000000000119", EffectDecline, &Decline{
		Code:        "processing_error",
		DeclineCode: "processing_error",
		Message:     "An error occurred while processing your card. Try again in a little bit.",
		Outcome:     issuerDeclined("processing_error"),
	}),
	visa("tok_riskLevelElevated", "4000000000009235", EffectElevatedRisk, nil),
	visa("tok_createDispute", "4000000000000259", EffectDispute, nil),
	visa("tok_createDisputeInquiry", "4000000000001976", EffectDisputeInquiry, nil),

	visa("tok_tooManyRequests", "4242424242424242", EffectRateLimit, nil),
	visa("tok_serverError", "4242424242424242", EffectServerError, nil),
	visa("tok_forget", "4242424242424242", EffectForget, nil),
}

var (
	byToken  = map[string]Definition{}
	byNumber = map[string]Definition{}
)

func init() {
	for _, d := range definitions {
		byToken[d.Token] = d
		// the first definition for a number wins, so plain cards are not
		// shadowed by the pre-charge tokens sharing 4242...
		if _, ok := byNumber[d.Number]; !ok {
			byNumber[d.Number] = d
		}
	}
}
