package kb

import (
	"errors"
	"fmt"
)

// ErrUnknownDrug is matched by every UnknownDrugError.
var ErrUnknownDrug = errors.New("unknown drug")

type UnknownDrugError struct {
	ID string
}

func (e *UnknownDrugError) Error() string {
	return fmt.Sprintf("unknown drug %q", e.ID)
}

func (e *UnknownDrugError) Is(target error) bool {
	return target == ErrUnknownDrug
}

// LoadError reports a missing or malformed fact file. Line is zero when the
// failure is not tied to a single statement.
type LoadError struct {
	Path string
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("load knowledge base %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("load knowledge base %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
