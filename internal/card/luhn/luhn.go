// Package luhn implements the mod-10 checksum used by the major card networks.
package luhn

import (
	dErrors "cardforge/pkg/domain-errors"
)

// Valid reports whether a digit string passes the Luhn checksum:
// double every second digit from the right, sum digit-of-digits,
// valid iff the total is divisible by 10.
func Valid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}

// Solve appends the single check digit that completes partial into a valid
// number. Exactly one of the ten candidates satisfies the checksum; finding
// none indicates a programming bug, reported as CodeInvariantViolation and
// never silently defaulted.
func Solve(partial string) (string, error) {
	for d := byte('0'); d <= '9'; d++ {
		candidate := partial + string(d)
		if Valid(candidate) {
			return candidate, nil
		}
	}
	return "", dErrors.New(dErrors.CodeInvariantViolation, "no check digit satisfies checksum")
}
