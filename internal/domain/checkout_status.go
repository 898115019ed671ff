package domain

type CheckoutStatus string

const (
	CheckoutStatusEditing    CheckoutStatus = "EDITING"
	CheckoutStatusConfirming CheckoutStatus = "CONFIRMING"
	CheckoutStatusSubmitting CheckoutStatus = "SUBMITTING"
	CheckoutStatusSucceeded  CheckoutStatus = "SUCCEEDED"
	CheckoutStatusFailed     CheckoutStatus = "FAILED"
)

var checkoutTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusEditing:    {CheckoutStatusConfirming, CheckoutStatusSubmitting},
	CheckoutStatusConfirming: {CheckoutStatusSubmitting, CheckoutStatusEditing},
	CheckoutStatusSubmitting: {CheckoutStatusSucceeded, CheckoutStatusFailed},
	CheckoutStatusFailed:     {CheckoutStatusEditing},
}

// CanTransitionTo reports whether a session in status from may move to to.
func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusSucceeded
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}
