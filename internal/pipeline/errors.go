package pipeline

import (
	"casaideal/internal/llm"
	"casaideal/internal/parser"
	"context"
	"errors"
)

// User-facing messages for failed searches.
const (
	DefaultErrorMessage       = "Não foi possível gerar as recomendações. Por favor, tente novamente."
	ConfigurationErrorMessage = "A chave de API do Gemini não está configurada ou é inválida. Defina GEMINI_API_KEY e tente novamente."
	MalformedErrorMessage     = "A resposta da IA veio em um formato inesperado. Por favor, tente novamente."
	TimeoutErrorMessage       = "A busca demorou mais do que o esperado. Por favor, tente novamente."
)

// SearchError is a failed primary search. Message is safe to show to the user.
type SearchError struct {
	Message string
	Err     error
}

func (e *SearchError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// newSearchError picks the user message that matches err
func newSearchError(err error) *SearchError {
	message := DefaultErrorMessage
	switch {
	case llm.IsConfiguration(err):
		message = ConfigurationErrorMessage
	case errors.Is(err, parser.ErrMalformedResponse):
		message = MalformedErrorMessage
	case errors.Is(err, context.DeadlineExceeded):
		message = TimeoutErrorMessage
	}
	return &SearchError{Message: message, Err: err}
}

// UserMessage returns the message to show for err
func UserMessage(err error) string {
	var searchErr *SearchError
	if errors.As(err, &searchErr) && searchErr.Message != "" {
		return searchErr.Message
	}
	return DefaultErrorMessage
}
