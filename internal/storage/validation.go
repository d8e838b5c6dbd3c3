package storage

import (
	"context"
	"fmt"
	"strings"
)

// validateContext ensures the context is valid and not already done.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// validateString ensures a required string parameter is non-empty.
func validateString(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}
