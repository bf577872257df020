// Package batch coordinates whole download runs: resolve each target's
// catalog reference, filter by architecture, plan non-clobbering writes,
// and stream the files, publishing progress along the way. A run executes
// off the caller's goroutine and is controlled through its Run handle.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/schrebra/storeappx/internal/arch"
	"github.com/schrebra/storeappx/internal/catalog"
	"github.com/schrebra/storeappx/internal/fetch"
	"github.com/schrebra/storeappx/internal/infrastructure/logging"
	"github.com/schrebra/storeappx/internal/plan"
)

// Target is one unit of work: a display name and the catalog reference to
// resolve for it.
type Target struct {
	Name      string
	Reference string
}

// Request describes a batch. With Flat set (single custom reference), files
// land directly in Destination; otherwise each target gets its own
// directory under it.
type Request struct {
	Targets      []Target
	Destination  string
	Architecture arch.Token
	Flat         bool
}

// Coordinator runs batches through the resolve / filter / plan / fetch
// pipeline.
type Coordinator struct {
	resolver *catalog.Resolver
	planner  *plan.Planner
	executor *fetch.Executor
	log      *logging.Logger
}

func NewCoordinator(resolver *catalog.Resolver, planner *plan.Planner, executor *fetch.Executor, log *logging.Logger) *Coordinator {
	if log == nil {
		log = logging.NewNop()
	}
	return &Coordinator{resolver: resolver, planner: planner, executor: executor, log: log}
}

// Start validates the request and launches the batch on its own goroutine.
// Progress flows on the returned Run's event channel; cancel via the Run
// or by ending ctx.
func (c *Coordinator) Start(ctx context.Context, req Request) (*Run, error) {
	if len(req.Targets) == 0 {
		return nil, errors.New("no targets requested")
	}
	if req.Destination == "" {
		return nil, errors.New("destination directory required")
	}
	if req.Flat && len(req.Targets) != 1 {
		return nil, errors.New("flat layout requires exactly one target")
	}
	runCtx, cancel := context.WithCancel(ctx)
	r := newRun(cancel)
	go c.run(runCtx, req, r)
	return r, nil
}

func (c *Coordinator) run(ctx context.Context, req Request, r *Run) {
	var res Result
	host := arch.Detect()
	log := c.log.With(zap.String("run", r.ID()))
	log.Info("batch started",
		zap.Int("targets", len(req.Targets)),
		zap.String("architecture", string(arch.Normalize(req.Architecture, host))))

	for _, target := range req.Targets {
		if ctx.Err() != nil {
			break
		}
		res.TargetsAttempted++
		c.processTarget(ctx, req, target, host, r, &res)
	}

	switch {
	case ctx.Err() != nil:
		res.State = StateCancelled
	case len(res.Errors) == 0:
		res.State = StateCompleted
	default:
		res.State = StateFailed
	}
	log.Info("batch finished",
		zap.String("state", string(res.State)),
		zap.Int("downloaded", res.FilesDownloaded),
		zap.Int("skipped", res.FilesSkipped),
		zap.Int("errors", len(res.Errors)))
	r.finish(res)
}

func (c *Coordinator) processTarget(ctx context.Context, req Request, target Target, host arch.Token, r *Run, res *Result) {
	log := c.log.With(zap.String("target", target.Name))

	dir := req.Destination
	if !req.Flat {
		dir = filepath.Join(req.Destination, targetDirName(target.Name))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		perr := &PathError{Target: target.Name, Path: dir, Err: err}
		res.Errors = append(res.Errors, &TargetError{Target: target.Name, Err: perr})
		log.Error("cannot prepare target directory", zap.String("path", dir), zap.Error(err))
		return
	}

	r.emit(ProgressEvent{Kind: EventStatus, Target: target.Name, Message: "resolving download links"})
	links, err := c.resolver.Resolve(ctx, target.Reference)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		res.Errors = append(res.Errors, &TargetError{Target: target.Name, Err: err})
		log.Error("resolution failed", zap.Error(err))
		return
	}
	matched := catalog.SelectArchitecture(links, req.Architecture, host)
	log.Info("resolved", zap.Int("links", len(links)), zap.Int("matched", len(matched)))
	if len(matched) == 0 {
		r.emit(ProgressEvent{Kind: EventStatus, Target: target.Name, Message: "no packages listed for this reference"})
		return
	}

	r.emit(ProgressEvent{Kind: EventStatus, Target: target.Name, Message: "planning downloads"})
	planned, err := c.planner.Plan(ctx, matched, dir)
	if err != nil {
		return
	}
	res.FilesSkipped += planned.Skipped
	for _, perr := range planned.Errors {
		res.Errors = append(res.Errors, &TargetError{Target: target.Name, Err: perr})
	}
	if len(planned.Items) == 0 {
		r.emit(ProgressEvent{Kind: EventStatus, Target: target.Name, Message: "everything already downloaded"})
		return
	}

	r.emit(ProgressEvent{
		Kind:    EventStatus,
		Target:  target.Name,
		Message: fmt.Sprintf("downloading %d file(s)", len(planned.Items)),
		Total:   len(planned.Items),
	})
	finished := 0
	sum, err := c.executor.Execute(ctx, planned.Items, func(fr fetch.FileResult) {
		finished++
		ev := ProgressEvent{
			Kind:      EventFileProgress,
			Target:    target.Name,
			File:      fr.Item.DisplayName,
			Path:      fr.Item.DestinationPath,
			Bytes:     fr.Bytes,
			Completed: finished,
			Total:     len(planned.Items),
		}
		if fr.Err != nil {
			ev.Error = fr.Err.Error()
		}
		r.emit(ev)
	})
	res.FilesDownloaded += sum.Completed
	if sum.Completed > 0 {
		res.TargetsWithWork++
	}
	for _, terr := range sum.Errors {
		res.Errors = append(res.Errors, &TargetError{Target: target.Name, Err: terr})
	}
	_ = err // cancellation; the run loop notices via ctx
}

// targetDirName makes a target's display name safe to use as a directory
// component.
func targetDirName(name string) string {
	replacer := strings.NewReplacer(
		"<", "_", ">", "_", ":", "_", `"`, "_",
		"/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
	)
	cleaned := strings.TrimSpace(replacer.Replace(name))
	if cleaned == "" {
		return "package"
	}
	return cleaned
}
