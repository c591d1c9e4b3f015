package service

import (
	"fmt"
	"strings"

	"github.com/matrixise/tokenscan/internal/validation"
)

// ValidationError reports every malformed input field of a request
type ValidationError struct {
	Fields []validation.FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Param, f.Msg))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// ChainCallError wraps a failed JSON-RPC call
type ChainCallError struct {
	Op  string
	Err error
}

func (e *ChainCallError) Error() string {
	return fmt.Sprintf("chain call %s failed: %v", e.Op, e.Err)
}

func (e *ChainCallError) Unwrap() error { return e.Err }

// UpstreamError is a failure reported by, or while reading from, the block explorer
type UpstreamError struct {
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	return e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// BalanceFetchError means a balance record could not be assembled
type BalanceFetchError struct {
	Err error
}

func (e *BalanceFetchError) Error() string {
	return fmt.Sprintf("failed to fetch token data: %v", e.Err)
}

func (e *BalanceFetchError) Unwrap() error { return e.Err }

// PersistenceError wraps a store failure
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
