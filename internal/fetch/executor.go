// Package fetch streams planned packages to disk. Failures are isolated
// per file; cancellation is honored between files and aborts the transfer
// in flight.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/schrebra/storeappx/internal/client"
	"github.com/schrebra/storeappx/internal/infrastructure/logging"
	"github.com/schrebra/storeappx/internal/plan"
)

// sniffLen is how much of the payload is inspected before the destination
// file is created. Expired catalog links tend to answer 200 with an HTML
// error page; writing that to an .appx would poison later existence checks.
const sniffLen = 3072

// FileResult reports the outcome of one transfer.
type FileResult struct {
	Item  plan.Item
	Bytes int64
	Err   error
}

// Summary aggregates the per-file outcomes of one plan execution.
type Summary struct {
	Completed int
	Failed    int
	Errors    []error
}

// Executor downloads planned items sequentially.
type Executor struct {
	client *client.Client
	log    *logging.Logger
}

func NewExecutor(c *client.Client, log *logging.Logger) *Executor {
	if log == nil {
		log = logging.NewNop()
	}
	return &Executor{client: c, log: log}
}

// Execute downloads every item in order. Each failed transfer is recorded
// and the loop moves on; report, when non-nil, is invoked after every
// finished file (success or failure). The returned error is non-nil only
// when ctx ends the run, in which case Summary covers the files finished
// before cancellation and any partial file is left in place.
func (e *Executor) Execute(ctx context.Context, items []plan.Item, report func(FileResult)) (Summary, error) {
	var sum Summary
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		bytes, err := e.Fetch(ctx, item)
		if err != nil && ctx.Err() != nil {
			return sum, ctx.Err()
		}
		if err != nil {
			sum.Failed++
			sum.Errors = append(sum.Errors, err)
			e.log.Warn("transfer failed",
				zap.String("file", item.DisplayName),
				zap.Error(err))
		} else {
			sum.Completed++
			e.log.Info("transfer complete",
				zap.String("file", item.DisplayName),
				zap.Int64("bytes", bytes))
		}
		if report != nil {
			report(FileResult{Item: item, Bytes: bytes, Err: err})
		}
	}
	return sum, nil
}

// Fetch streams one item to its destination path, creating parent
// directories as needed. On failure the partial file is removed so a later
// run's existence check cannot mistake it for a complete download; a
// cancelled transfer keeps its partial.
func (e *Executor) Fetch(ctx context.Context, item plan.Item) (int64, error) {
	e.log.Info("downloading",
		zap.String("file", item.DisplayName),
		zap.Int64("size", item.RemoteSize))

	req, err := e.client.Transfer(ctx)
	if err != nil {
		return 0, &TransferError{URL: item.URL, Path: item.DestinationPath, Err: err}
	}
	resp, err := req.SetDoNotParseResponse(true).Get(item.URL)
	if err != nil {
		return 0, &TransferError{URL: item.URL, Path: item.DestinationPath, Err: err}
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return 0, &TransferError{
			URL:  item.URL,
			Path: item.DestinationPath,
			Err:  fmt.Errorf("server returned status %d", resp.StatusCode()),
		}
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, &TransferError{URL: item.URL, Path: item.DestinationPath, Err: err}
	}
	head = head[:n]
	if n > 0 && mimetype.Detect(head).Is("text/html") {
		return 0, &TransferError{
			URL:  item.URL,
			Path: item.DestinationPath,
			Err:  errors.New("server sent an HTML page instead of a package"),
		}
	}

	if err := os.MkdirAll(filepath.Dir(item.DestinationPath), 0o755); err != nil {
		return 0, &TransferError{URL: item.URL, Path: item.DestinationPath, Err: err}
	}
	out, err := os.Create(item.DestinationPath)
	if err != nil {
		return 0, &TransferError{URL: item.URL, Path: item.DestinationPath, Err: err}
	}

	written := int64(0)
	hn, err := out.Write(head)
	written += int64(hn)
	if err == nil {
		var copied int64
		copied, err = io.Copy(out, body)
		written += copied
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		e.discardPartial(ctx, item.DestinationPath)
		return written, &TransferError{URL: item.URL, Path: item.DestinationPath, Err: err}
	}

	if expected := resp.RawResponse.ContentLength; expected >= 0 && written != expected {
		e.discardPartial(ctx, item.DestinationPath)
		return written, &TransferError{
			URL:  item.URL,
			Path: item.DestinationPath,
			Err:  fmt.Errorf("truncated transfer: got %d of %d bytes", written, expected),
		}
	}
	return written, nil
}

// discardPartial removes a failed download unless the failure came from
// cancellation. Partials from a cancelled run stay on disk.
func (e *Executor) discardPartial(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		e.log.Warn("could not remove partial file",
			zap.String("path", path),
			zap.Error(err))
	}
}
