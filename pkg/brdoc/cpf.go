// Package brdoc validates and formats Brazilian identity and contact
// formats used on patient and staff records: CPF numbers, phone numbers
// and CEP postal codes.
package brdoc

import "strings"

// CleanCPF strips everything but digits from a CPF string.
func CleanCPF(cpf string) string {
	return onlyDigits(cpf)
}

// ValidCPF reports whether cpf is a well-formed CPF number. The input may
// be formatted (123.456.789-09) or bare digits. Both check digits are
// verified with the weighted mod-11 algorithm; sequences of a single
// repeated digit are rejected even though their checksum is valid.
func ValidCPF(cpf string) bool {
	digits := onlyDigits(cpf)
	if len(digits) != 11 {
		return false
	}
	if allSameDigit(digits) {
		return false
	}

	if checkDigit(digits, 9, 10) != int(digits[9]-'0') {
		return false
	}
	if checkDigit(digits, 10, 11) != int(digits[10]-'0') {
		return false
	}
	return true
}

// checkDigit computes the verification digit over digits[0:n] with the
// initial weight w (w, w-1, ..., 2).
func checkDigit(digits string, n, w int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += int(digits[i]-'0') * (w - i)
	}
	d := 11 - (sum % 11)
	if d > 9 {
		return 0
	}
	return d
}

// FormatCPF renders an 11-digit CPF as 123.456.789-09. Inputs that do not
// clean to 11 digits are returned unchanged.
func FormatCPF(cpf string) string {
	digits := onlyDigits(cpf)
	if len(digits) != 11 {
		return cpf
	}
	var b strings.Builder
	b.WriteString(digits[0:3])
	b.WriteByte('.')
	b.WriteString(digits[3:6])
	b.WriteByte('.')
	b.WriteString(digits[6:9])
	b.WriteByte('-')
	b.WriteString(digits[9:11])
	return b.String()
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allSameDigit(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return len(digits) > 0
}
