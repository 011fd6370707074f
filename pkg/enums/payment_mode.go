package enums

import "fmt"

// PaymentMode maps to the payment_mode_enum enum in Postgres.
type PaymentMode string

const (
	PaymentModePrepaid PaymentMode = "prepaid"
	PaymentModeCOD     PaymentMode = "cod"
)

var validPaymentModes = []PaymentMode{
	PaymentModePrepaid,
	PaymentModeCOD,
}

// IsValid reports whether the value is known.
func (m PaymentMode) IsValid() bool {
	for _, candidate := range validPaymentModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParsePaymentMode converts raw input into a PaymentMode.
func ParsePaymentMode(value string) (PaymentMode, error) {
	for _, candidate := range validPaymentModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment mode %q", value)
}
