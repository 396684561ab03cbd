package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks if an email address is valid.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateRole checks that role is admin or user.
func ValidateRole(role string) error {
	if role != RoleAdmin && role != RoleUser {
		return fmt.Errorf("invalid role: %s", role)
	}
	return nil
}

// ValidatePassword enforces the minimum credential length.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	return nil
}

// ParseID parses a required uuid field, naming the field in the error.
func ParseID(field, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, ErrValidation(field + " is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrValidation("invalid " + field)
	}
	return id, nil
}

// ParseOptionalID parses an optional uuid field; empty input yields nil.
func ParseOptionalID(field string, raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := ParseID(field, *raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
