package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/benvon/selfspeak/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("entry_date", validateEntryDate); err != nil {
		panic(fmt.Sprintf("failed to register entry_date validator: %v", err))
	}
	if err := Validate.RegisterValidation("time_horizon", validateTimeHorizon); err != nil {
		panic(fmt.Sprintf("failed to register time_horizon validator: %v", err))
	}
}

// validateEntryDate accepts an empty string or a YYYY-MM-DD calendar date
func validateEntryDate(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := time.Parse(models.DateLayout, value)
	return err == nil
}

// validateTimeHorizon validates that a string is a valid TimeHorizon enum value
func validateTimeHorizon(fl validator.FieldLevel) bool {
	return ValidateTimeHorizon(fl.Field().String()) == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
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

// ParseDate parses a YYYY-MM-DD date in the given location
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(models.DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", value)
	}
	return t, nil
}

// ValidateTimeHorizon validates a TimeHorizon string value
func ValidateTimeHorizon(value string) error {
	switch models.TimeHorizon(value) {
	case models.TimeHorizonShort, models.TimeHorizonLong, models.TimeHorizonVague:
		return nil
	default:
		return fmt.Errorf("invalid time_horizon: %s (must be 'short', 'long', or 'vague')", value)
	}
}
