// Package errtypes - Fehler-Taxonomie fuer den Aufbau der Embedding-Stufe
// Enthaelt: Sentinel-Fehler, ConfigError und Hilfsfunktionen
package errtypes

import (
	"errors"
	"fmt"
	"strings"
)

// Errors
//
// They are not returned bare; every error raised while building a table
// wraps one of them in a [ConfigError] so callers can match with errors.Is
// and still read the offending table and field.
var (
	ErrInvalidConfiguration   = errors.New("invalid configuration")
	ErrMissingInput           = errors.New("cannot find input source")
	ErrUnsupportedCombination = errors.New("unsupported combination")
	ErrInternalDispatch       = errors.New("internal dispatch error")
)

// ConfigError names the table and field an error was raised for.
type ConfigError struct {
	Table string
	Field string
	Msg   string
	Err   error
}

func (e *ConfigError) Error() string {
	var sb strings.Builder
	if e.Table != "" {
		fmt.Fprintf(&sb, "embedding %q: ", e.Table)
	}
	if e.Field != "" {
		fmt.Fprintf(&sb, "%s: ", e.Field)
	}
	sb.WriteString(e.Err.Error())
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	return sb.String()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Invalid reports an InvalidConfiguration error for field.
func Invalid(field, format string, args ...any) error {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...), Err: ErrInvalidConfiguration}
}

// Missing reports a required key that is absent.
func Missing(field string) error {
	return &ConfigError{Field: field, Msg: "missing required key", Err: ErrInvalidConfiguration}
}

// Unsupported reports an UnsupportedCombination error.
func Unsupported(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...), Err: ErrUnsupportedCombination}
}

// NoInput reports a bottom name without a matching sparse input.
func NoInput(bottom string) error {
	return &ConfigError{Field: "bottom", Msg: bottom, Err: ErrMissingInput}
}

// Dispatch reports a kind that reached no backend constructor.
func Dispatch(kind string) error {
	return &ConfigError{Field: "type", Msg: "no backend for " + kind, Err: ErrInternalDispatch}
}

// WithTable attaches the table name to err if it does not carry one yet.
// Errors outside the taxonomy (allocation failures) keep their cause.
func WithTable(err error, table string) error {
	if err == nil {
		return nil
	}

	var ce *ConfigError
	if errors.As(err, &ce) {
		if ce.Table == "" {
			cp := *ce
			cp.Table = table
			return &cp
		}
		return err
	}

	return &ConfigError{Table: table, Err: err}
}

// Field returns the field named by err, or "" if err is not a ConfigError.
func Field(err error) string {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Field
	}
	return ""
}
