package batch

import (
	"errors"
	"fmt"
)

// PathError marks a target whose destination directory could not be
// created. The target is abandoned; the batch moves on.
type PathError struct {
	Target string
	Path   string
	Err    error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("cannot prepare directory %q for %s: %v", e.Path, e.Target, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// IsPathError reports whether err is a PathError anywhere in its chain.
func IsPathError(err error) bool {
	var pe *PathError
	return errors.As(err, &pe)
}

// TargetError scopes any pipeline error to the target it occurred in.
type TargetError struct {
	Target string
	Err    error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("%s: %v", e.Target, e.Err)
}

func (e *TargetError) Unwrap() error {
	return e.Err
}
