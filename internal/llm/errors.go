package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// ErrMissingAPIKey is returned when no Gemini API key was configured.
var ErrMissingAPIKey = errors.New("gemini API key is required. Set GEMINI_API_KEY environment variable or ai.gemini.api_key in config file")

// ErrorKind classifies generation failures so callers can branch on a type
// instead of matching error text.
type ErrorKind int

const (
	// KindGeneric covers network, quota, server and content failures.
	KindGeneric ErrorKind = iota
	// KindConfiguration means credentials are missing or rejected. Nothing can
	// succeed until the configuration is fixed.
	KindConfiguration
	// KindEmptyResponse means the provider answered without usable content.
	KindEmptyResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindEmptyResponse:
		return "empty_response"
	default:
		return "generic"
	}
}

// Error is a classified generation error.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or KindGeneric.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindGeneric
}

// IsConfiguration reports whether err is a credential or configuration failure.
func IsConfiguration(err error) bool {
	return err != nil && KindOf(err) == KindConfiguration
}

// NewConfigurationError wraps err as a configuration failure.
func NewConfigurationError(op string, err error) error {
	return &Error{Kind: KindConfiguration, Op: op, Err: err}
}

// classify maps an SDK error onto an ErrorKind.
func classify(op string, err error) error {
	kind := KindGeneric

	var apiErr genai.APIError
	if errors.As(err, &apiErr) && isCredentialFailure(apiErr) {
		kind = KindConfiguration
	}

	return &Error{Kind: kind, Op: op, Err: err}
}

func isCredentialFailure(apiErr genai.APIError) bool {
	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	}

	switch strings.ToUpper(apiErr.Status) {
	case "UNAUTHENTICATED", "PERMISSION_DENIED":
		return true
	}

	msg := strings.ToLower(apiErr.Message)
	if apiErr.Code == http.StatusBadRequest && (strings.Contains(msg, "api key") || strings.Contains(msg, "api_key_invalid")) {
		return true
	}

	for _, detail := range apiErr.Details {
		if reason, ok := detail["reason"].(string); ok && reason == "API_KEY_INVALID" {
			return true
		}
	}
	return false
}
