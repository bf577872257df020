package catalog

import (
	"errors"
	"fmt"
)

// ResolutionError reports a failed catalog lookup: the service was
// unreachable, answered with a non-success status, or returned an
// unparsable payload. Fatal to the target it belongs to, never to the
// batch.
type ResolutionError struct {
	Reference string
	Status    int
	Err       error
}

func (e *ResolutionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("catalog lookup for %s returned status %d", e.Reference, e.Status)
	}
	return fmt.Sprintf("catalog lookup for %s failed: %v", e.Reference, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// IsResolutionError reports whether err is a ResolutionError.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}
