package plan

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/schrebra/storeappx/internal/catalog"
	"github.com/schrebra/storeappx/internal/client"
	"github.com/schrebra/storeappx/internal/infrastructure/logging"
)

// Item is one planned download: a remote package and the local path it
// will be written to.
type Item struct {
	URL             string
	DestinationPath string
	DisplayName     string // final base name, after any collision rename
	RemoteSize      int64  // 0 when the service did not report one
}

// Result is the outcome of planning one target directory.
type Result struct {
	Items   []Item
	Skipped int     // candidates whose exact file already exists locally
	Errors  []error // one MetadataError per dropped candidate
}

// Planner turns filtered candidate links into a non-clobbering download
// plan. Each candidate is probed for its true remote filename; candidates
// whose files are already present are skipped, and name collisions inside
// the target directory are renamed rather than overwritten.
type Planner struct {
	client *client.Client
	log    *logging.Logger
}

func NewPlanner(c *client.Client, log *logging.Logger) *Planner {
	if log == nil {
		log = logging.NewNop()
	}
	return &Planner{client: c, log: log}
}

// Plan probes every candidate and decides its destination under destDir.
// Per-candidate probe failures are recorded in Result.Errors and do not
// stop planning; the returned error is non-nil only when ctx ends the
// pass early, in which case Result holds the work planned so far.
func (p *Planner) Plan(ctx context.Context, candidates []catalog.CandidateLink, destDir string) (Result, error) {
	var res Result
	reserved := make(map[string]bool)
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		meta, err := probe(ctx, p.client, cand.URL)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Errors = append(res.Errors, &MetadataError{URL: cand.URL, Name: cand.Name, Err: err})
			p.log.Warn("dropping candidate, metadata probe failed",
				zap.String("name", cand.Name),
				zap.String("url", cand.URL),
				zap.Error(err))
			continue
		}
		dest := filepath.Join(destDir, meta.FileName)
		if exists(dest) {
			res.Skipped++
			p.log.Info("already downloaded, skipping",
				zap.String("file", meta.FileName))
			continue
		}
		final := resolveWithReserved(dest, reserved)
		reserved[final] = true
		if final != dest {
			p.log.Info("name collision, renaming",
				zap.String("from", meta.FileName),
				zap.String("to", filepath.Base(final)))
		}
		res.Items = append(res.Items, Item{
			URL:             cand.URL,
			DestinationPath: final,
			DisplayName:     filepath.Base(final),
			RemoteSize:      meta.Size,
		})
	}
	return res, nil
}
