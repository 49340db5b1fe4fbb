package validation

import (
	"fmt"

	"forum/internal/models"
)

// ValidateUser enforces the user document schema. It is the throwing
// validator, used at creation and decode boundaries where a malformed
// document is truly exceptional.
func ValidateUser(u *models.StoredUser) error {
	if u == nil {
		return fmt.Errorf("user document is nil")
	}
	if u.Name == "" {
		return fmt.Errorf("user name is required")
	}
	if u.Email == "" {
		return fmt.Errorf("user email is required")
	}
	if u.Credentials.Hash == "" || u.Credentials.Salt == "" {
		return fmt.Errorf("user credentials are incomplete")
	}
	if u.CreatedAt.IsZero() || u.UpdatedAt.IsZero() {
		return fmt.Errorf("user timestamps are missing")
	}
	return nil
}

// ValidateUserSafe is the non-throwing validator for untrusted or
// possibly-stale query results. Absence is an expected, handled outcome:
// callers drop the document rather than propagate it.
func ValidateUserSafe(u *models.StoredUser) (*models.StoredUser, bool) {
	if err := ValidateUser(u); err != nil {
		return nil, false
	}
	return u, true
}
