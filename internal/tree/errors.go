package tree

import (
	"errors"
	"fmt"
)

// ErrDuplicateLabel is matched by every *DuplicateLabelError.
var ErrDuplicateLabel = errors.New("duplicate label")

// DuplicateLabelError is returned by AddItem when the label is already taken.
type DuplicateLabelError struct {
	Label    string
	Existing ID // id of an item that already carries Label
}

func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("duplicate label: item %q already uses label %q", e.Existing, e.Label)
}

// Is lets errors.Is(err, ErrDuplicateLabel) succeed.
func (e *DuplicateLabelError) Is(target error) bool {
	return target == ErrDuplicateLabel
}
