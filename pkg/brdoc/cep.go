package brdoc

import "strings"

// CleanCEP strips everything but digits from a CEP string.
func CleanCEP(cep string) string {
	return onlyDigits(cep)
}

// ValidCEP reports whether cep cleans to a plausible 8-digit postal code.
// Single-repeated-digit sequences are rejected; 00000000 and 99999999 are
// covered by that rule but kept explicit because upstream address services
// treat them as reserved.
func ValidCEP(cep string) bool {
	digits := onlyDigits(cep)
	if len(digits) != 8 {
		return false
	}
	if allSameDigit(digits) {
		return false
	}
	if digits == "00000000" || digits == "99999999" {
		return false
	}
	return true
}

// FormatCEP renders an 8-digit CEP as 12345-678. Inputs that do not clean
// to 8 digits are returned unchanged.
func FormatCEP(cep string) string {
	digits := onlyDigits(cep)
	if len(digits) != 8 {
		return cep
	}
	var b strings.Builder
	b.WriteString(digits[0:5])
	b.WriteByte('-')
	b.WriteString(digits[5:8])
	return b.String()
}
