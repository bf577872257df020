package plan

import (
	"errors"
	"fmt"
)

// MetadataError marks a candidate that had to be dropped from the plan
// because its probe failed or its true filename could not be determined.
type MetadataError struct {
	URL  string
	Name string // display name from the catalog listing, may be empty
	Err  error
}

func (e *MetadataError) Error() string {
	label := e.Name
	if label == "" {
		label = e.URL
	}
	return fmt.Sprintf("metadata probe for %q failed: %v", label, e.Err)
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}

// IsMetadataError reports whether err is a MetadataError anywhere in its
// chain.
func IsMetadataError(err error) bool {
	var me *MetadataError
	return errors.As(err, &me)
}
