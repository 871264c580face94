package checker

import (
	"context"
	"errors"
	"time"

	"github.com/use-agent/linkguard/models"
)

// fetchOutcome is the raw result of the terminal fetch attempt for one
// link, before verdict evaluation.
type fetchOutcome struct {
	resp      *Response
	errType   string
	errMsg    string
	startTime time.Time
	endTime   time.Time
}

// fetchWithRetry fetches one target up to maxRetries+1 times, stopping
// at the first attempt whose response satisfies expected. Each attempt
// is bounded by timeout, and the page is reset between attempts so a
// hung in-flight request cannot bleed into the next one.
//
// A response with a non-matching status consumes a retry the same way a
// transport error does. When every attempt fails, the last attempt's
// outcome is returned as-is: a real response is never replaced by a
// synthesized error.
//
// The returned error is non-nil only when the browsing context itself
// became unusable; ordinary fetch failures are captured in the outcome.
func fetchWithRetry(ctx context.Context, page Page, targetURI string, expected models.ExpectedStatus, maxRetries int, timeout time.Duration) (fetchOutcome, bool, error) {
	var outcome fetchOutcome

	attempts := maxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			page.Reset()
		}

		outcome = fetchOutcome{startTime: time.Now()}
		resp, navErr := page.Navigate(ctx, targetURI, timeout)
		outcome.endTime = time.Now()

		if navErr != nil {
			if errors.Is(navErr, ErrContextUnusable) {
				return outcome, false, navErr
			}
			outcome.errType, outcome.errMsg = classifyNavError(navErr)
			continue
		}

		outcome.resp = resp
		if expected.Matches(resp.StatusCode) {
			return outcome, true, nil
		}
	}

	return outcome, false, nil
}

// classifyNavError maps a transport failure to the report's error taxonomy.
func classifyNavError(err error) (errType, errMsg string) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.ErrCodeTimeout, err.Error()
	}
	return models.ErrCodeNavigation, err.Error()
}
