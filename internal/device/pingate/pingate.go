// Package pingate classifies an entered unlock code against the stored
// normal and duress PINs. It performs no I/O.
package pingate

import (
	"crypto/subtle"

	"RapidSafe/internal/models"
)

type Outcome int

const (
	Invalid Outcome = iota
	Normal
	Duress
)

func (o Outcome) String() string {
	switch o {
	case Normal:
		return "NORMAL"
	case Duress:
		return "DURESS"
	default:
		return "INVALID"
	}
}

// PinLength is the number of digits of every PIN.
const PinLength = 4

// ValidFormat reports whether code is exactly four ASCII digits.
func ValidFormat(code string) bool {
	if len(code) != PinLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// Evaluate returns Duress when entered matches the duress PIN, Normal when
// it matches the normal PIN and Invalid otherwise. Both comparisons always
// run so the work done does not depend on which PIN matched.
func Evaluate(entered string, creds models.Credentials) Outcome {
	if !creds.IsPinSet {
		return Invalid
	}
	isDuress := subtle.ConstantTimeCompare([]byte(entered), []byte(creds.DuressPin))
	isNormal := subtle.ConstantTimeCompare([]byte(entered), []byte(creds.NormalPin))

	// duress 优先
	switch {
	case isDuress == 1:
		return Duress
	case isNormal == 1:
		return Normal
	default:
		return Invalid
	}
}
