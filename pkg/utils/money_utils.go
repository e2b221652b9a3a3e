package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// Monetary values travel as fixed-point decimal strings ("45.00") and
// are stored in NUMERIC columns. Floats never touch an amount.

var moneyRegex = regexp.MustCompile(`^\d{1,8}(\.\d{1,2})?$`)

// IsValidMoney reports whether s is a non-negative fixed-point amount.
func IsValidMoney(s string) bool {
	return moneyRegex.MatchString(s)
}

// NormalizeMoney canonicalizes an amount to two decimal places.
func NormalizeMoney(s string) (string, error) {
	if !IsValidMoney(s) {
		return "", fmt.Errorf("invalid monetary amount %q", s)
	}
	whole, frac, found := strings.Cut(s, ".")
	if !found {
		return whole + ".00", nil
	}
	for len(frac) < 2 {
		frac += "0"
	}
	return whole + "." + frac, nil
}

// MoneyIsZero reports whether the amount equals zero.
func MoneyIsZero(s string) bool {
	n, err := NormalizeMoney(s)
	if err != nil {
		return false
	}
	return strings.Trim(strings.ReplaceAll(n, ".", ""), "0") == ""
}
