package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/salmonumbrella/openai-cli/internal/iocontext"
)

// DefaultConcurrency is the default number of concurrent workers
const DefaultConcurrency = 5

// BulkResult represents the outcome of a single bulk operation
type BulkResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   error  `json:"-"`
	Data    any    `json:"result,omitempty"`
}

// runBulkOperation executes operations concurrently with bounded
// parallelism. Results keep the order of ids; operations that never ran
// because ctx ended carry the context error.
func runBulkOperation[T any](
	ctx context.Context,
	ids []string,
	concurrency int64,
	progress bool,
	errOut io.Writer,
	operation func(ctx context.Context, id string) (T, error),
) []BulkResult {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if errOut == nil {
		errOut = io.Discard
	}

	sem := semaphore.NewWeighted(concurrency)
	var mu sync.Mutex
	results := make([]BulkResult, len(ids))
	total := len(ids)
	var done int64

	g, ctx := errgroup.WithContext(ctx)

	for i, id := range ids {
		results[i] = BulkResult{ID: id}
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i].Error = err
				return nil
			}
			defer sem.Release(1)

			if err := ctx.Err(); err != nil {
				results[i].Error = err
				return nil
			}

			data, err := operation(ctx, id)
			if err != nil {
				results[i].Error = err
			} else {
				results[i].Success = true
				results[i].Data = data
			}

			if progress && total > 0 {
				current := atomic.AddInt64(&done, 1)
				mu.Lock()
				_, _ = fmt.Fprintf(errOut, "\rProcessed %d/%d", current, total)
				mu.Unlock()
			}

			// Individual failures never cancel the rest.
			return nil
		})
	}

	_ = g.Wait()

	if progress && total > 0 {
		_, _ = fmt.Fprintf(errOut, "\rProcessed %d/%d\n", atomic.LoadInt64(&done), total)
	}

	return results
}

// countResults returns success and failure counts from bulk results
func countResults(results []BulkResult) (success, failure int) {
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failure++
		}
	}
	return
}

type bulkItem struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Result  any    `json:"result,omitempty"`
}

// reportBulk prints bulk results and returns an error when any item failed.
// JSON output lists every item; text output prints one line per item, with
// failures on stderr.
func reportBulk(cmd *cobra.Command, action, resource string, results []BulkResult) error {
	if err := soleFailure(results); err != nil {
		return err
	}
	if isJSON(cmd) {
		items := make([]bulkItem, 0, len(results))
		for _, r := range results {
			item := bulkItem{ID: r.ID, Success: r.Success, Result: r.Data}
			if r.Error != nil {
				item.Error = r.Error.Error()
			}
			items = append(items, item)
		}
		if err := printJSON(cmd, items); err != nil {
			return err
		}
	} else {
		ioStreams := iocontext.GetIO(cmd.Context())
		for _, r := range results {
			if r.Success {
				printAction(cmd, action, resource, r.ID, "")
				continue
			}
			_, _ = fmt.Fprintf(ioStreams.ErrOut, "Failed %s %s: %v\n", resource, r.ID, r.Error)
		}
	}
	return bulkError(resource, results)
}

// soleFailure returns the error of a single failed item. It is reported
// like any other command error, without a results listing.
func soleFailure(results []BulkResult) error {
	if len(results) == 1 && !results[0].Success {
		return results[0].Error
	}
	return nil
}

// bulkError summarizes failed items, or returns nil when all succeeded.
func bulkError(resource string, results []BulkResult) error {
	success, failure := countResults(results)
	if failure == 0 {
		return nil
	}
	// A single item keeps its own error so the exit code reflects it.
	if len(results) == 1 {
		return results[0].Error
	}
	return fmt.Errorf("%d of %d %s operations failed", failure, success+failure, resource)
}
