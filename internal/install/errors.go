package install

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrUnsupportedPlatform is returned when package installation is
// attempted anywhere but Windows.
var ErrUnsupportedPlatform = errors.New("package installation requires Windows")

// InstallError marks a single package that failed to install. One bad
// package never stops the rest of the directory.
type InstallError struct {
	Path string
	Err  error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install of %q failed: %v", filepath.Base(e.Path), e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

// IsInstallError reports whether err is an InstallError anywhere in its
// chain.
func IsInstallError(err error) bool {
	var ie *InstallError
	return errors.As(err, &ie)
}
