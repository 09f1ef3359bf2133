package enums

// PaymentOutcome is the terminal state reported by the payment processor
// for an authorization. Values originate from typed processor events, so
// there is no string-parsing entry point.
type PaymentOutcome string

const (
	PaymentOutcomeSucceeded PaymentOutcome = "succeeded"
	PaymentOutcomeFailed    PaymentOutcome = "failed"
	PaymentOutcomeExpired   PaymentOutcome = "expired"
)
