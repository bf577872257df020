package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Exit codes. Partial failure is distinct from total failure so scripts
// can tell "retry everything" from "retry what broke".
const (
	exitOK        = 0
	exitFailed    = 1
	exitUsage     = 2
	exitCancelled = 3
	exitPartial   = 4
)

// exitCodeError carries a process exit code through cobra's error path.
// An empty message means the command already printed its own diagnostics.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

func usagef(format string, args ...interface{}) *exitCodeError {
	return &exitCodeError{code: exitUsage, msg: fmt.Sprintf(format, args...)}
}

func main() {
	err := newRootCmd().Execute()
	if err == nil {
		return
	}
	code := exitFailed
	var coded *exitCodeError
	if errors.As(err, &coded) {
		code = coded.code
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintln(os.Stderr, color.RedString("error: %s", msg))
	}
	os.Exit(code)
}
