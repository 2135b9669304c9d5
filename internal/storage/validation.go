package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrInvalidLimit  = errors.New("limit must be positive")
	ErrInvalidStatus = errors.New("invalid lookup status")
	ErrNotFound      = errors.New("lookup not found")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateStatus(status string) error {
	switch status {
	case "", StatusError, string(model.StatusSingle), string(model.StatusMultiple):
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
}
