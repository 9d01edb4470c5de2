package schema

import (
	"errors"
	"fmt"
)

// ConfigError reports one invalid configuration field. Validate joins
// every ConfigError it finds with errors.Join, so callers can use
// errors.As to reach the first one or walk them all with ConfigErrors.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func configErr(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ConfigErrors flattens a (possibly joined) error into its ConfigErrors.
func ConfigErrors(err error) []*ConfigError {
	var out []*ConfigError
	var walk func(error)
	walk = func(e error) {
		switch v := e.(type) {
		case nil:
		case *ConfigError:
			out = append(out, v)
		case interface{ Unwrap() []error }:
			for _, inner := range v.Unwrap() {
				walk(inner)
			}
		default:
			var ce *ConfigError
			if errors.As(e, &ce) {
				out = append(out, ce)
			}
		}
	}
	walk(err)
	return out
}
