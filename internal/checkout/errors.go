package checkout

import "errors"

var (
	ErrSubmissionInProgress = errors.New("checkout submission already in progress")
	ErrIllegalTransition    = errors.New("illegal transition of checkout status")
	ErrNoSession            = errors.New("no active checkout session")
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
)
