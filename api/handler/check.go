package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/linkguard/config"
	"github.com/use-agent/linkguard/models"
	"github.com/use-agent/linkguard/webhook"
)

// Runner executes one link verification run. Implemented by
// checker.Checker; abstracted so handlers are testable without a browser.
type Runner interface {
	RunLinkCheck(ctx context.Context, opts *models.LinkCheckOptions) (*models.AggregateReport, error)
}

// Check returns a handler for POST /api/v1/check. The run executes
// synchronously; the response carries the full aggregate report.
func Check(runner Runner, cfg config.CheckerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CheckRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.CheckResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		applyCaps(&req.LinkCheckOptions, cfg)

		report, err := runner.RunLinkCheck(c.Request.Context(), &req.LinkCheckOptions)
		if err != nil {
			status := http.StatusInternalServerError
			detail := &models.ErrorDetail{
				Code:    models.ErrCodeInternal,
				Message: "link check failed",
			}
			var checkErr *models.CheckError
			if errors.As(err, &checkErr) {
				detail = checkErr.ToDetail()
				if checkErr.Code == models.ErrCodeInvalidInput {
					status = http.StatusBadRequest
				}
			}
			c.JSON(status, models.CheckResponse{Success: false, Error: detail})
			return
		}

		if req.WebhookURL != "" {
			webhook.DeliverAsync(req.WebhookURL, req.WebhookSecret, &webhook.Event{
				Type:      "check.completed",
				RunID:     report.RunID,
				Timestamp: time.Now().Unix(),
				Data:      report,
			})
		}

		slog.Info("check request served",
			"run_id", report.RunID,
			"origin", report.Options.OriginURI,
			"link_count", report.LinkCount,
			"failing", report.FailingLinkCount,
		)
		c.JSON(http.StatusOK, models.CheckResponse{Success: true, Report: report})
	}
}

// applyCaps clamps client-supplied options to the server's limits.
func applyCaps(opts *models.LinkCheckOptions, cfg config.CheckerConfig) {
	if cfg.MaxLinkLimit > 0 && opts.LinkLimit > cfg.MaxLinkLimit {
		opts.LinkLimit = cfg.MaxLinkLimit
	}
	if cfg.MaxRetries > 0 && opts.MaxRetries > cfg.MaxRetries {
		opts.MaxRetries = cfg.MaxRetries
	}
	if maxMs := int(cfg.MaxTotalTimeout / time.Millisecond); maxMs > 0 && opts.TotalTimeoutMs > maxMs {
		opts.TotalTimeoutMs = maxMs
	}
	if maxMs := int(cfg.MaxLinkTimeout / time.Millisecond); maxMs > 0 && opts.LinkTimeoutMs > maxMs {
		opts.LinkTimeoutMs = maxMs
	}
}
