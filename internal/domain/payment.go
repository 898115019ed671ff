package domain

import "strings"

type PaymentMethod string

const (
	PaymentABAPay         PaymentMethod = "ABA PAY"
	PaymentKHQR           PaymentMethod = "KHQR"
	PaymentCashOnDelivery PaymentMethod = "Cash On Delivery"
	PaymentCard           PaymentMethod = "Credit/Debit Card"
)

// DefaultPaymentMethod is preselected for every new checkout.
const DefaultPaymentMethod = PaymentABAPay

var knownPaymentMethods = []PaymentMethod{PaymentABAPay, PaymentKHQR, PaymentCashOnDelivery, PaymentCard}

// ParsePaymentMethod matches s case-insensitively against the known methods.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	s = strings.TrimSpace(s)
	for _, m := range knownPaymentMethods {
		if strings.EqualFold(string(m), s) {
			return m, true
		}
	}
	return "", false
}

// IsImmediate reports whether the method is submitted without an
// out-of-band confirmation step. Scan-to-pay methods need the shopper to
// confirm the payment first.
func (m PaymentMethod) IsImmediate() bool {
	return m == PaymentCashOnDelivery || m == PaymentCard
}
