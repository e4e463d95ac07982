package filter

import (
	"errors"
	"fmt"
)

// ErrMissingElement is wrapped by every MissingElementError.
var ErrMissingElement = errors.New("missing required element")

// MissingElementError names the absent element. Row and Col are -1 when
// they do not apply.
type MissingElementError struct {
	Element string
	Row     int
	Col     int
}

func (e *MissingElementError) Error() string {
	switch {
	case e.Row >= 0 && e.Col >= 0:
		return fmt.Sprintf("%s: %s (row %d, column %d)", ErrMissingElement, e.Element, e.Row, e.Col)
	case e.Row >= 0:
		return fmt.Sprintf("%s: %s (row %d)", ErrMissingElement, e.Element, e.Row)
	default:
		return fmt.Sprintf("%s: %s", ErrMissingElement, e.Element)
	}
}

func (e *MissingElementError) Unwrap() error {
	return ErrMissingElement
}
