// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	// ErrNotConnected means the session is not live and the operation was
	// not attempted. Callers must run EnsureConnected first.
	ErrNotConnected = errors.New("not connected to gateway")

	// ErrConnectFailed is a transport-level failure during connect or
	// reconnect. Recoverable; retried up to the session's bound.
	ErrConnectFailed = errors.New("gateway connection failed")

	// ErrNoAccountsFound means the gateway reported zero managed accounts.
	// Fatal for that connect attempt.
	ErrNoAccountsFound = errors.New("no managed accounts found")

	// ErrContractNotFound means qualification and the fallback contract
	// search both failed for the requested instrument.
	ErrContractNotFound = errors.New("contract not found")

	// ErrNoChainFound means the gateway returned no option chain parameter
	// set for the symbol.
	ErrNoChainFound = errors.New("no option chain found")
)

// GatewayError represents an error returned by the gateway transport.
type GatewayError struct {
	Endpoint string
	Message  string
	Err      error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway error [%s]: %s: %v", e.Endpoint, e.Message, e.Err)
	}
	return fmt.Sprintf("gateway error [%s]: %s", e.Endpoint, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewGatewayError creates a new GatewayError.
func NewGatewayError(endpoint, message string, err error) *GatewayError {
	return &GatewayError{
		Endpoint: endpoint,
		Message:  message,
		Err:      err,
	}
}

// ContractError represents a failure to resolve or quote an instrument.
type ContractError struct {
	Symbol  string
	Kind    string
	Message string
	Err     error
}

func (e *ContractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("contract error [%s %s]: %s: %v", e.Kind, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("contract error [%s %s]: %s", e.Kind, e.Symbol, e.Message)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

// NewContractError creates a new ContractError.
func NewContractError(symbol, kind, message string, err error) *ContractError {
	return &ContractError{
		Symbol:  symbol,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
