package utils

import (
	"flightstatus-oracle/internal/domain/entity"
)

// ValidateDate checks s against the fixed NNNN-NN-NN pattern.
// Calendar validity is not checked, "2025-13-45" passes.
func ValidateDate(s string) error {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return entity.NewInvalidDateFormat(s)
	}
	for i := 0; i < len(s); i++ {
		if i == 4 || i == 7 {
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return entity.NewInvalidDateFormat(s)
		}
	}
	return nil
}

// IsDateLessThanOrEqual reports a <= b for two YYYY-MM-DD dates. The fixed width
// zero padded format makes byte order equal to calendar order.
func IsDateLessThanOrEqual(a, b string) (bool, error) {
	if err := ValidateDate(a); err != nil {
		return false, err
	}
	if err := ValidateDate(b); err != nil {
		return false, err
	}
	return a <= b, nil
}

// InDateRange reports from <= d <= to
func InDateRange(d, from, to string) (bool, error) {
	afterFrom, err := IsDateLessThanOrEqual(from, d)
	if err != nil {
		return false, err
	}
	if !afterFrom {
		return false, nil
	}
	return IsDateLessThanOrEqual(d, to)
}
