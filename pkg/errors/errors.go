package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeTimeout represents a fetch that exceeded its deadline
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeNetwork represents network-level fetch failures
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeBlocked represents non-2xx or bot-challenge responses
	ErrorTypeBlocked ErrorType = "blocked"
	// ErrorTypeSelectorNotFound represents a selector matching no element
	ErrorTypeSelectorNotFound ErrorType = "selector_not_found"
	// ErrorTypePriceNotParsable represents element text with no numeric token
	ErrorTypePriceNotParsable ErrorType = "price_not_parsable"
	// ErrorTypeStore represents history store read/write failures
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeNotify represents notification delivery failures
	ErrorTypeNotify ErrorType = "notify"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// TrackerError represents a typed error raised while checking a product
type TrackerError struct {
	Type    ErrorType
	Product string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *TrackerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Product, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Product, e.Message)
}

// Unwrap returns the underlying error
func (e *TrackerError) Unwrap() error {
	return e.Err
}

// New creates a new TrackerError
func New(errType ErrorType, product, message string, err error) *TrackerError {
	return &TrackerError{
		Type:    errType,
		Product: product,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewTimeout creates a new fetch timeout error
func NewTimeout(product, message string, err error) *TrackerError {
	return New(ErrorTypeTimeout, product, message, err)
}

// NewNetwork creates a new network error
func NewNetwork(product, message string, err error) *TrackerError {
	return New(ErrorTypeNetwork, product, message, err)
}

// NewBlocked creates a new blocked-response error
func NewBlocked(product, message string, err error) *TrackerError {
	return New(ErrorTypeBlocked, product, message, err)
}

// NewSelectorNotFound creates a new selector-not-found error
func NewSelectorNotFound(product, selector string) *TrackerError {
	return New(ErrorTypeSelectorNotFound, product, fmt.Sprintf("no element matches selector %q", selector), nil)
}

// NewPriceNotParsable creates a new price-not-parsable error
func NewPriceNotParsable(product, text string) *TrackerError {
	return New(ErrorTypePriceNotParsable, product, fmt.Sprintf("no numeric token in %q", text), nil)
}

// NewStore creates a new store error
func NewStore(product, message string, err error) *TrackerError {
	return New(ErrorTypeStore, product, message, err)
}

// NewNotify creates a new notification error
func NewNotify(product, message string, err error) *TrackerError {
	return New(ErrorTypeNotify, product, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *TrackerError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf returns the error type of err, or "" if err is not a TrackerError
func TypeOf(err error) ErrorType {
	var te *TrackerError
	if errors.As(err, &te) {
		return te.Type
	}
	return ""
}

// IsBlocked reports whether err is a blocked-response error
func IsBlocked(err error) bool {
	return TypeOf(err) == ErrorTypeBlocked
}

// IsStore reports whether err is a history store error
func IsStore(err error) bool {
	return TypeOf(err) == ErrorTypeStore
}
