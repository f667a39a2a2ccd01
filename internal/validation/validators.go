package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the minimum accepted password length for the demo
// sign-in flow.
const MinPasswordLength = 6

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	// emailPattern is deliberately liberal: anything with an @ and a dot in
	// the domain part passes. Deliverability is not checked.
	emailPattern = regexp.MustCompile(`^.+@.+\..+$`)
)

func init() {
	Validate = validator.New()

	// Register custom validators
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("demo_email", validateDemoEmail); err != nil {
		panic(fmt.Sprintf("failed to register demo_email validator: %v", err))
	}
}

// validateDemoEmail validates that a string looks like an email address
// under the liberal demo pattern.
func validateDemoEmail(fl validator.FieldLevel) bool {
	return emailPattern.MatchString(fl.Field().String())
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateEmail validates an email address against the demo pattern.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("invalid email address: %s", email)
	}
	return nil
}

// ValidatePassword validates that a password meets the minimum length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
