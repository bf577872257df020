package install

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/schrebra/storeappx/internal/infrastructure/logging"
)

// Primitive applies one package file to the system. The production
// implementation shells out to PowerShell; tests substitute fakes.
type Primitive interface {
	Install(ctx context.Context, path string) error
}

// PowerShell installs packages through Add-AppxPackage.
type PowerShell struct {
	binary string
	log    *logging.Logger
}

// NewPowerShell wraps the given PowerShell binary ("powershell" or "pwsh").
func NewPowerShell(binary string, log *logging.Logger) *PowerShell {
	if binary == "" {
		binary = "powershell"
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &PowerShell{binary: binary, log: log}
}

func (p *PowerShell) Install(ctx context.Context, path string) error {
	if runtime.GOOS != "windows" {
		return ErrUnsupportedPlatform
	}
	cmd := exec.CommandContext(ctx, p.binary,
		"-NoProfile", "-NonInteractive",
		"-Command", "Add-AppxPackage -Path "+psQuote(path))
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("%s: %w", msg, err)
		}
		return err
	}
	p.log.Debug("package applied", zap.String("path", path))
	return nil
}

// psQuote single-quotes a value for a PowerShell command line. Embedded
// single quotes are doubled, which is PowerShell's escape inside literal
// strings.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
