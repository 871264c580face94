package models

import "time"

// LinkCandidate is one link discovered on the origin page by the page
// driver. Target URIs are already absolute and filtered to supported
// schemes before they reach the checker.
type LinkCandidate struct {
	// TargetURI is the absolute link destination.
	TargetURI string `json:"target_uri"`

	// AnchorText is the visible text of the link element, if any.
	AnchorText string `json:"anchor_text,omitempty"`

	// HTMLElement is the tag name of the element the link came from.
	HTMLElement string `json:"html_element,omitempty"`
}

// ScreenshotOutput records the artifact produced for one checked link.
// Exactly one of ScreenshotFile or ScreenshotError is meaningful.
type ScreenshotOutput struct {
	// ScreenshotFile is the storage path of the captured image.
	ScreenshotFile string `json:"screenshot_file,omitempty"`

	// ScreenshotError describes why capture or upload failed.
	ScreenshotError *ErrorDetail `json:"screenshot_error,omitempty"`
}

// LinkResult is the verdict for one checked link. It is created once by
// the checker and never mutated afterwards.
type LinkResult struct {
	// Passed is true when a fetch attempt produced a response whose
	// status satisfied the expectation.
	Passed bool `json:"passed"`

	// ExpectedStatus echoes the expectation the link was judged against.
	ExpectedStatus ExpectedStatus `json:"expected_status"`

	// SourceURI is the page the link was discovered on (the origin).
	SourceURI string `json:"source_uri"`

	// TargetURI is the link destination that was fetched.
	TargetURI string `json:"target_uri"`

	AnchorText  string `json:"anchor_text,omitempty"`
	HTMLElement string `json:"html_element,omitempty"`

	// StatusCode is the observed status of the terminal attempt.
	// Nil when no response was received at all (pure transport failure).
	StatusCode *int `json:"status_code,omitempty"`

	// ErrorType and ErrorMessage describe the terminal failure, if any.
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	// StartTime and EndTime bound the terminal fetch attempt.
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// IsOrigin marks the origin link's own result.
	IsOrigin bool `json:"is_origin"`

	// Screenshot is set when the screenshot policy selected this link.
	Screenshot *ScreenshotOutput `json:"screenshot_output,omitempty"`
}

// StatusClass returns the leading digit of the observed status, or 0
// when no status was observed or the code falls outside 1xx-5xx.
func (r *LinkResult) StatusClass() int {
	if r.StatusCode == nil {
		return 0
	}
	class := *r.StatusCode / 100
	if class < 1 || class > 5 {
		return 0
	}
	return class
}

// RunError is a run-level failure recorded in the report, distinct from
// per-link failures (e.g. the page driver failing to open, or the
// browsing context becoming unusable mid-run).
type RunError struct {
	ErrorType    string `json:"error_type"`
	ErrorMessage string `json:"error_message"`
}

// AggregateReport is the single output of a verification run. Field
// names form the wire contract with the monitoring pipeline and must
// not be renamed.
type AggregateReport struct {
	// RunID uniquely identifies this run; screenshot artifacts are
	// stored under it.
	RunID string `json:"run_id"`

	// LinkCount counts every link that received a verdict, origin included.
	LinkCount        int `json:"link_count"`
	PassingLinkCount int `json:"passing_link_count"`
	FailingLinkCount int `json:"failing_link_count"`

	// UnreachableCount counts results with no status in 1xx-5xx
	// (transport failures and out-of-band codes).
	UnreachableCount int `json:"unreachable_count"`

	Status2xxCount int `json:"status_2xx_count"`
	Status3xxCount int `json:"status_3xx_count"`
	Status4xxCount int `json:"status_4xx_count"`
	Status5xxCount int `json:"status_5xx_count"`

	// OriginLinkResult is the origin's own verdict, kept out of the
	// followed-links list.
	OriginLinkResult *LinkResult `json:"origin_link_result"`

	// FollowedLinkResults holds followed links in the order they were
	// checked. Links never attempted before the deadline are absent.
	FollowedLinkResults []LinkResult `json:"followed_link_results"`

	// Options echoes the effective options the run executed with.
	Options LinkCheckOptions `json:"options"`

	// StoragePath is where screenshot artifacts for this run live.
	StoragePath string `json:"storage_path,omitempty"`

	// Errors lists run-level failures. A deadline-truncated run is not
	// an error and adds nothing here.
	Errors []RunError `json:"errors,omitempty"`

	// StartTime is the caller-supplied run start; EndTime is captured
	// at aggregation and is strictly after StartTime.
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}
