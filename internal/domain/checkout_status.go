package domain

type CheckoutStatus string

const (
	CheckoutStatusIdle       CheckoutStatus = "IDLE"
	CheckoutStatusValidating CheckoutStatus = "VALIDATING"
	CheckoutStatusSubmitting CheckoutStatus = "SUBMITTING"
	CheckoutStatusSettled    CheckoutStatus = "SETTLED"
	CheckoutStatusDegraded   CheckoutStatus = "DEGRADED"
	CheckoutStatusFailed     CheckoutStatus = "FAILED"
)

var checkoutTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusIdle:       {CheckoutStatusValidating},
	CheckoutStatusValidating: {CheckoutStatusIdle, CheckoutStatusSubmitting},
	CheckoutStatusSubmitting: {CheckoutStatusSettled, CheckoutStatusDegraded, CheckoutStatusFailed},
}

func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusSettled || s == CheckoutStatusDegraded || s == CheckoutStatusFailed
}

// IsSuccess reports whether the purchase counts as completed.
func (s CheckoutStatus) IsSuccess() bool {
	return s == CheckoutStatusSettled || s == CheckoutStatusDegraded
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}
