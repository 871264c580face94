package checker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/linkguard/models"
)

// deadlineMargin is reserved at the end of the total budget for
// finalizing and returning the report.
const deadlineMargin = 500 * time.Millisecond

// Checker is the bounded-time link verification engine. It is safe for
// concurrent use; each run gets its own browsing context from the driver.
type Checker struct {
	driver Driver
	store  ArtifactStore
}

// New creates a Checker. store may be nil, in which case screenshots
// are never captured regardless of policy.
func New(driver Driver, store ArtifactStore) *Checker {
	return &Checker{driver: driver, store: store}
}

// run carries the per-run state: the exclusive page, the effective
// options, and the artifact naming sequence.
type run struct {
	checker *Checker
	page    Page
	opts    *models.LinkCheckOptions
	runID   string
	shots   int
}

// RunLinkCheck executes one verification run.
//
// It rejects the call only for configuration errors detected before any
// network activity. Past that point it always returns a structurally
// complete report: deadline exhaustion, failing links and even a
// mid-run browser crash all become data in the report, never an error.
//
// Lifecycle:
//
//	1. Validate options      – the only hard-failure path
//	2. Arm the run deadline  – total budget minus the finalize margin
//	3. Open a page           – failure becomes a run-level error
//	4. Check the origin      – always checked, always counted
//	5. Resolve + select      – only if the origin page actually loaded
//	6. Batch-check followed  – sequential, raced against the deadline
//	7. Aggregate             – counts, buckets, timestamps
func (c *Checker) RunLinkCheck(ctx context.Context, opts *models.LinkCheckOptions) (*models.AggregateReport, error) {
	opts.Defaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	runID := uuid.NewString()

	slog.Info("link check starting",
		"run_id", runID,
		"origin", opts.OriginURI,
		"link_limit", opts.LinkLimit,
		"total_timeout_ms", opts.TotalTimeoutMs,
	)

	runCtx, cancel := context.WithDeadline(ctx, startTime.Add(opts.TotalTimeout()-deadlineMargin))
	defer cancel()

	var (
		origin    *models.LinkResult
		followed  []models.LinkResult
		runErrors []models.RunError
	)

	storagePath := ""
	if c.store != nil && opts.Screenshot != models.ScreenshotNone {
		storagePath = c.store.BasePath(runID)
	}

	page, err := c.driver.NewPage(ctx)
	if err != nil {
		runErrors = append(runErrors, models.RunError{
			ErrorType:    models.ErrCodeBrowserCrash,
			ErrorMessage: fmt.Sprintf("failed to open browsing context: %v", err),
		})
		return aggregate(runID, nil, nil, opts, storagePath, runErrors, startTime), nil
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			slog.Warn("failed to close browsing context", "run_id", runID, "error", closeErr)
		}
	}()

	r := &run{checker: c, page: page, opts: opts, runID: runID}

	originRes, err := r.checkLink(runCtx, models.LinkCandidate{
		TargetURI:   opts.OriginURI,
		HTMLElement: "a",
	}, true)
	if err != nil {
		runErrors = append(runErrors, models.RunError{
			ErrorType:    models.ErrCodeBrowserCrash,
			ErrorMessage: fmt.Sprintf("browsing context became unusable while checking origin %s: %v", opts.OriginURI, err),
		})
		return aggregate(runID, nil, nil, opts, storagePath, runErrors, startTime), nil
	}
	origin = &originRes

	// Links can only be discovered from a page that produced a response;
	// after a pure transport failure there is no DOM to scrape.
	if origin.StatusCode != nil {
		candidates, resolveErr := page.ResolveLinks(runCtx, opts.LinkSelector, opts.LinkAttributes)
		if resolveErr != nil {
			runErrors = append(runErrors, models.RunError{
				ErrorType:    models.ErrCodeLinkResolve,
				ErrorMessage: fmt.Sprintf("failed to resolve links on %s: %v", opts.OriginURI, resolveErr),
			})
		} else {
			selected := SelectLinks(candidates, opts.LinkLimit, opts.LinkOrder)
			slog.Info("links selected",
				"run_id", runID,
				"discovered", len(candidates),
				"selected", len(selected),
				"order", opts.LinkOrder,
			)

			var batchErr *models.RunError
			followed, batchErr = r.runBatch(runCtx, selected)
			if batchErr != nil {
				runErrors = append(runErrors, *batchErr)
			}
		}
	} else {
		runErrors = append(runErrors, models.RunError{
			ErrorType:    models.ErrCodeNavigation,
			ErrorMessage: fmt.Sprintf("origin %s did not load, no links followed", opts.OriginURI),
		})
	}

	report := aggregate(runID, origin, followed, opts, storagePath, runErrors, startTime)

	slog.Info("link check finished",
		"run_id", runID,
		"link_count", report.LinkCount,
		"passing", report.PassingLinkCount,
		"failing", report.FailingLinkCount,
		"unreachable", report.UnreachableCount,
		"duration_ms", report.EndTime.Sub(report.StartTime).Milliseconds(),
	)
	return report, nil
}
