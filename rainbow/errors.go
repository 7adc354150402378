package rainbow

import (
	"errors"
	"fmt"
)

// ConfigurationError signals an invalid attack configuration.
// It is returned before any table is built or searched.
type ConfigurationError struct {
	Field string
	Msg   string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Msg, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configErrorf(field string, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// ConfigMismatchError signals that a stored table set was built for
// different parameters than the ones requested.
type ConfigMismatchError struct {
	Requested Params
	Stored    Params
}

func (e *ConfigMismatchError) Error() string {
	return fmt.Sprintf("invalid table dimensions: requested %s, stored %s", e.Requested, e.Stored)
}

// IsFatal reports whether err must abort the whole run.
// Per-target outcomes are never errors, so only configuration problems are.
func IsFatal(err error) bool {
	var cfgErr *ConfigurationError
	var mismatch *ConfigMismatchError
	return errors.As(err, &cfgErr) || errors.As(err, &mismatch)
}
