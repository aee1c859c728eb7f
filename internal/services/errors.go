package services

import (
	"errors"
	"fmt"
)

// ErrInvalid wraps every validation failure returned by the services.
var ErrInvalid = errors.New("invalid input")

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalid, err)
}
