package display

import "fmt"

// EnumerationError reports a failed or malformed OS display query. Callers
// must treat it as fatal to the in-progress save/apply action.
type EnumerationError struct {
	Err error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("display enumeration failed: %v", e.Err)
}

func (e *EnumerationError) Unwrap() error {
	return e.Err
}
