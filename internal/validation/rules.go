// Package validation provides input validation and document schema enforcement.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateUsername validates display-name format.
func ValidateUsername(name string) error {
	if len(name) < 3 || len(name) > 30 {
		return fmt.Errorf("username must be between 3 and 30 characters")
	}
	if !usernameRegex.MatchString(name) {
		return fmt.Errorf("username can only contain letters, numbers, underscores, and hyphens")
	}
	return nil
}

// ValidateEmailSuffix checks the address against the configured allow-list of
// domain suffixes. The list is enforced at signup only.
func ValidateEmailSuffix(email string, allowedSuffixes []string) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("a valid email address is required")
	}
	if len(allowedSuffixes) == 0 {
		return nil
	}
	for _, suffix := range allowedSuffixes {
		if suffix != "" && strings.HasSuffix(email, suffix) {
			return nil
		}
	}
	return fmt.Errorf("email domain is not allowed")
}

// ValidatePassword checks basic password requirements.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters long")
	}
	if len(password) > 128 {
		return fmt.Errorf("password must not exceed 128 characters")
	}
	return nil
}
