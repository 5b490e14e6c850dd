package rules

import (
	"strings"
)

// ValidationError carries every finding reported for one entity.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// Join returns a *ValidationError for a non-empty finding list, nil otherwise.
func Join(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

// Check runs v.Validate and converts the result with Join.
func Check(v Validator) error {
	return Join(v.Validate())
}
