package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	controlChars  = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	monthLayout   = "2006-01"
	poNumberRegex = regexp.MustCompile(`^\d{8}_\d{4}$`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateAmount validates a submission amount
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive: %s", amount.StringFixed(2))
	}
	return nil
}

// ValidateMonth parses a YYYY-MM month string
func ValidateMonth(month string) (time.Time, error) {
	t, err := time.Parse(monthLayout, strings.TrimSpace(month))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q, expected YYYY-MM", month)
	}
	return t, nil
}

// IsGeneratedPONumber reports whether po follows the YYYYMMDD_hhmm layout
func IsGeneratedPONumber(po string) bool {
	return poNumberRegex.MatchString(po)
}

// GeneratePONumber builds the default PO number for t
func GeneratePONumber(t time.Time) string {
	return t.Format("20060102_1504")
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}
