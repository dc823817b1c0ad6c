package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/tidwall/gjson"
)

var (
	// ErrMalformedResponse indicates the engine did not return a JSON object
	ErrMalformedResponse = errors.New("malformed engine response")
	// ErrMissingKeys indicates the engine omitted required keys
	ErrMissingKeys = errors.New("engine response missing required keys")
	// ErrNoChoices is returned when the API response has no choices
	ErrNoChoices = errors.New("no choices in response")
)

// APIError represents an error from the AI provider API
type APIError struct {
	Message     string
	Type        string
	Code        string
	StatusCode  int
	IsPermanent bool // true for quota exhaustion and client errors other than 429
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

// ExtractAPIError converts an SDK error into an APIError, or returns nil
// when err did not come from the API.
func ExtractAPIError(err error) *APIError {
	var sdkErr *openai.Error
	if !errors.As(err, &sdkErr) {
		return nil
	}
	apiErr := &APIError{
		Message:    sdkErr.Message,
		Type:       sdkErr.Type,
		Code:       sdkErr.Code,
		StatusCode: sdkErr.StatusCode,
	}
	switch {
	case apiErr.Code == "insufficient_quota":
		apiErr.IsPermanent = true
	case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != 429:
		apiErr.IsPermanent = true
	}
	if apiErr.Message == "" {
		apiErr.Message = err.Error()
	}
	return apiErr
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 && !apiErr.IsPermanent
	}
	return false
}

// IsQuotaError checks if an error is a quota exhaustion error
func IsQuotaError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == "insufficient_quota"
	}
	return false
}

// isPermanent reports whether retrying cannot help.
func isPermanent(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsPermanent
}

// checkResponse verifies content is a JSON object holding one spelling of
// every required key.
func checkResponse(content string, required [][]string) error {
	if !gjson.Valid(content) {
		return fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}
	root := gjson.Parse(content)
	if !root.IsObject() {
		return fmt.Errorf("%w: not an object", ErrMalformedResponse)
	}

	var missing []string
	for _, spellings := range required {
		found := false
		for _, key := range spellings {
			if root.Get(key).Exists() {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, spellings[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingKeys, strings.Join(missing, ", "))
	}
	return nil
}
