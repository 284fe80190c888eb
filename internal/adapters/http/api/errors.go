package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

func badRequest(op, reason string) error {
	return fmt.Errorf("%s: %w: %s", op, ErrBadRequest, reason)
}
