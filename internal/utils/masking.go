package utils

import "strings"

// MaskVPA hides the local part of a payment address in logs, keeping the
// first character and the institution suffix.
func MaskVPA(vpa string) string {
	if vpa == "" {
		return ""
	}
	at := strings.Index(vpa, "@")
	if at <= 1 {
		return "***"
	}
	return vpa[:1] + strings.Repeat("*", at-1) + vpa[at:]
}

// MaskAccount keeps only the last four digits of an account number.
func MaskAccount(account string) string {
	if len(account) <= 4 {
		return "****"
	}
	return "****" + account[len(account)-4:]
}
