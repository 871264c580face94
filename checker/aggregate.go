package checker

import (
	"time"

	"github.com/use-agent/linkguard/models"
)

// aggregate folds the per-link results into the final report. Every
// result lands in exactly one verdict counter and exactly one status
// bucket; results without a status in 1xx-5xx count as unreachable.
func aggregate(runID string, origin *models.LinkResult, followed []models.LinkResult, opts *models.LinkCheckOptions, storagePath string, runErrors []models.RunError, startTime time.Time) *models.AggregateReport {
	report := &models.AggregateReport{
		RunID:               runID,
		OriginLinkResult:    origin,
		FollowedLinkResults: followed,
		Options:             *opts,
		StoragePath:         storagePath,
		Errors:              runErrors,
		StartTime:           startTime,
	}

	tally := func(r *models.LinkResult) {
		if r == nil {
			return
		}
		report.LinkCount++
		if r.Passed {
			report.PassingLinkCount++
		} else {
			report.FailingLinkCount++
		}

		switch r.StatusClass() {
		case 2:
			report.Status2xxCount++
		case 3:
			report.Status3xxCount++
		case 4:
			report.Status4xxCount++
		case 5:
			report.Status5xxCount++
		default:
			report.UnreachableCount++
		}
	}

	tally(origin)
	for i := range followed {
		tally(&followed[i])
	}

	// A well-defined duration matters downstream; guard against clock
	// resolution collapsing the interval.
	end := time.Now()
	if !end.After(startTime) {
		end = startTime.Add(time.Nanosecond)
	}
	report.EndTime = end

	return report
}
