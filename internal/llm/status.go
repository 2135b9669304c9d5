package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Veraticus/business-anzsic-locator/internal/common"
)

// StatusError is a non-200 response from a provider.
type StatusError struct {
	Provider   string
	Body       string
	StatusCode int
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("%s API error (status %d)", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, strings.TrimSpace(e.Body))
}

// markRetryable wraps transient provider failures so the resilience executor retries them.
func markRetryable(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		retry := statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
		return &common.RetryableError{Err: err, Retryable: retry}
	}

	return &common.RetryableError{Err: err, Retryable: true}
}
