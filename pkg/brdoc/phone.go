package brdoc

import "fmt"

// CleanPhone strips everything but digits from a phone string.
func CleanPhone(phone string) string {
	return onlyDigits(phone)
}

// ValidPhone reports whether phone cleans to a valid Brazilian phone
// number: two-digit area code plus an 8-digit landline or 9-digit mobile
// number (10 or 11 digits total).
func ValidPhone(phone string) bool {
	n := len(onlyDigits(phone))
	return n == 10 || n == 11
}

// FormatPhone renders a phone number as (DD) NNNN-NNNN for landlines or
// (DD) NNNNN-NNNN for mobiles. Invalid inputs are returned unchanged.
func FormatPhone(phone string) string {
	digits := onlyDigits(phone)
	switch len(digits) {
	case 10:
		return fmt.Sprintf("(%s) %s-%s", digits[0:2], digits[2:6], digits[6:10])
	case 11:
		return fmt.Sprintf("(%s) %s-%s", digits[0:2], digits[2:7], digits[7:11])
	default:
		return phone
	}
}
