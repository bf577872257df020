package fetch

import (
	"errors"
	"fmt"
	"path/filepath"
)

// TransferError marks a single failed download. One file failing never
// aborts the rest of the plan.
type TransferError struct {
	URL  string
	Path string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("download of %q failed: %v", filepath.Base(e.Path), e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// IsTransferError reports whether err is a TransferError anywhere in its
// chain.
func IsTransferError(err error) bool {
	var te *TransferError
	return errors.As(err, &te)
}
