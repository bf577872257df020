// Package install applies downloaded packages to the system, one
// directory or one downloaded tree at a time. Plain packages go first and
// bundles second, since a bundle typically depends on the framework
// packages that ship beside it.
package install

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/schrebra/storeappx/internal/infrastructure/logging"
	"github.com/schrebra/storeappx/internal/shared/fsx"
)

// Package file patterns in install order.
var installPhases = []string{
	"*.{appx,msix}",
	"*.{appxbundle,msixbundle}",
}

// Result reports the outcome of installing one directory.
type Result struct {
	Dir       string
	Installed int
	Failed    int
	Errors    []error // one *InstallError per failed package
}

// Installer walks package files and feeds them to the install primitive.
type Installer struct {
	primitive Primitive
	log       *logging.Logger
}

func New(primitive Primitive, log *logging.Logger) *Installer {
	if log == nil {
		log = logging.NewNop()
	}
	return &Installer{primitive: primitive, log: log}
}

// InstallDirectory installs every package file directly inside dir, plain
// packages before bundles, each failure isolated. The returned error is
// non-nil only when ctx ends the pass early.
func (i *Installer) InstallDirectory(ctx context.Context, dir string) (Result, error) {
	res := Result{Dir: dir}
	for _, phase := range installPhases {
		matches, err := doublestar.FilepathGlob(filepath.Join(dir, phase))
		if err != nil {
			return res, err
		}
		sort.Strings(matches)
		for _, path := range matches {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			i.log.Info("installing", zap.String("file", filepath.Base(path)))
			if err := i.primitive.Install(ctx, path); err != nil {
				res.Failed++
				res.Errors = append(res.Errors, &InstallError{Path: path, Err: err})
				i.log.Warn("install failed",
					zap.String("file", filepath.Base(path)),
					zap.Error(err))
				continue
			}
			res.Installed++
		}
	}
	return res, nil
}

// InstallTree installs a whole downloaded tree: loose packages in base
// first, then each immediate subdirectory in name order. Every
// subdirectory yields a Result even when it holds no packages.
func (i *Installer) InstallTree(ctx context.Context, base string) ([]Result, error) {
	var results []Result

	baseRes, err := i.InstallDirectory(ctx, base)
	if err != nil {
		return append(results, baseRes), err
	}
	if baseRes.Installed > 0 || baseRes.Failed > 0 {
		results = append(results, baseRes)
	}

	subdirs, err := fsx.Subdirectories(base)
	if err != nil {
		return results, err
	}
	for _, dir := range subdirs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := i.InstallDirectory(ctx, dir)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
