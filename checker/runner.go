package checker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/use-agent/linkguard/models"
)

// runBatch drives the followed links sequentially through the retrying
// fetcher, racing the whole batch against the run context's deadline.
//
// The race has two sides: a worker goroutine that walks the link list
// on the single browsing context, and the deadline carried by ctx.
// Whichever finishes first wins; the loser is cleaned up exactly once
// (the worker stops at the next attempt boundary because the same
// context bounds its in-flight navigation).
//
// Deadline expiry is not an error: the results gathered so far are
// returned and links never attempted simply have no outcome. Only an
// unusable browsing context aborts the batch with a run-level error,
// and even then the collected results are preserved.
func (r *run) runBatch(ctx context.Context, links []models.LinkCandidate) ([]models.LinkResult, *models.RunError) {
	var (
		mu      sync.Mutex
		results []models.LinkResult
		runErr  *models.RunError
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, cand := range links {
			if ctx.Err() != nil {
				return
			}

			r.page.Reset()

			res, err := r.checkLink(ctx, cand, false)
			if err != nil {
				mu.Lock()
				runErr = &models.RunError{
					ErrorType: models.ErrCodeBrowserCrash,
					ErrorMessage: fmt.Sprintf(
						"browsing context became unusable while checking %s: %v",
						cand.TargetURI, err),
				}
				mu.Unlock()
				return
			}

			// The deadline may have cut this attempt short. A link that
			// still passed keeps its verdict; anything else is dropped so
			// the report only contains fully processed links.
			if ctx.Err() != nil && !res.Passed {
				return
			}

			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
		slog.Info("link check deadline reached, returning partial results",
			"run_id", r.runID,
		)
		// The worker notices the expired context at the attempt boundary.
		<-done
	}

	mu.Lock()
	defer mu.Unlock()
	return results, runErr
}

// checkLink produces the LinkResult for one candidate: fetch with
// retries, judge the terminal outcome, and capture a screenshot while
// the page is still on the target if the policy selects it.
func (r *run) checkLink(ctx context.Context, cand models.LinkCandidate, isOrigin bool) (models.LinkResult, error) {
	expected := r.opts.ExpectationFor(cand.TargetURI)
	timeout := r.opts.TimeoutFor(cand.TargetURI)

	outcome, passed, err := fetchWithRetry(ctx, r.page, cand.TargetURI, expected, r.opts.MaxRetries, timeout)
	if err != nil {
		return models.LinkResult{}, err
	}

	res := models.LinkResult{
		Passed:         passed,
		ExpectedStatus: expected,
		SourceURI:      r.opts.OriginURI,
		TargetURI:      cand.TargetURI,
		AnchorText:     cand.AnchorText,
		HTMLElement:    cand.HTMLElement,
		ErrorType:      outcome.errType,
		ErrorMessage:   outcome.errMsg,
		StartTime:      outcome.startTime,
		EndTime:        outcome.endTime,
		IsOrigin:       isOrigin,
	}
	if outcome.resp != nil {
		code := outcome.resp.StatusCode
		res.StatusCode = &code
	}

	slog.Debug("link checked",
		"run_id", r.runID,
		"target", cand.TargetURI,
		"passed", passed,
		"expected", expected.String(),
	)

	if ShouldCapture(r.opts.Screenshot, passed) {
		res.Screenshot = r.capture(ctx)
	}
	return res, nil
}

// capture takes a screenshot of the current page and stores it. Capture
// failures are recorded in the result, never escalated.
func (r *run) capture(ctx context.Context) *models.ScreenshotOutput {
	if r.checker.store == nil {
		return nil
	}

	data, err := r.page.Screenshot(ctx)
	if err != nil {
		return &models.ScreenshotOutput{
			ScreenshotError: &models.ErrorDetail{
				Code:    models.ErrCodeScreenshot,
				Message: err.Error(),
			},
		}
	}

	r.shots++
	name := fmt.Sprintf("screenshot_%d.png", r.shots)
	path, err := r.checker.store.Save(r.runID, name, data)
	if err != nil {
		return &models.ScreenshotOutput{
			ScreenshotError: &models.ErrorDetail{
				Code:    models.ErrCodeScreenshot,
				Message: err.Error(),
			},
		}
	}
	return &models.ScreenshotOutput{ScreenshotFile: path}
}
