package api

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// checkLength requires value, after trimming, to be between min and max
// characters. A min of 0 makes the field optional.
func checkLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	switch {
	case n == 0 && min > 0:
		return fmt.Errorf("%s is required", field)
	case n < min:
		return fmt.Errorf("%s must be at least %d characters", field, min)
	case n > max:
		return fmt.Errorf("%s must be at most %d characters", field, max)
	}
	return nil
}

// checkEmail accepts an empty value when the field is optional.
func checkEmail(field, value string, required bool) error {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
	if err := checkLength(field, value, 3, 100); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return fmt.Errorf("%s is not a valid email address", field)
	}
	return nil
}

// firstError returns the first non-nil error.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
