package service

import (
	"errors"
	"fmt"

	"github.com/linemk/storefront/internal/payment"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden for you")
	ErrInvalidCredentials = errors.New("authentication failed")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrValidation         = errors.New("validation error")
	ErrCartBusy           = errors.New("cart is being checked out")

	// ErrEmptyCart - частный случай ErrNotFound
	ErrEmptyCart = fmt.Errorf("cart is empty: %w", ErrNotFound)

	ErrGateway          = payment.ErrGateway
	ErrInvalidSignature = payment.ErrInvalidSignature
)

// ValidationError - ошибка входных данных с привязкой к полю
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
