package valuation

import "fmt"

// ValidationError reports an input the engine refuses to value
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// DomainError reports a valuation that is mathematically undefined for
// otherwise valid input, e.g. a theoretical total value of zero.
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return "valuation undefined: " + e.Message
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
