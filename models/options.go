package models

import (
	"fmt"
	"net/url"
	"time"

	"github.com/andybalholm/cascadia"
)

// LinkOrder controls how discovered links are selected for checking.
type LinkOrder string

const (
	// OrderFirstN checks links in the order the page driver discovered them.
	OrderFirstN LinkOrder = "first_n"

	// OrderRandom checks a uniformly shuffled sample of the discovered links.
	OrderRandom LinkOrder = "random"
)

// ScreenshotPolicy controls which checked links get a screenshot artifact.
type ScreenshotPolicy string

const (
	ScreenshotAll     ScreenshotPolicy = "all"
	ScreenshotFailing ScreenshotPolicy = "failing"
	ScreenshotNone    ScreenshotPolicy = "none"
)

// ExpectedStatus describes the status a checked link must return.
// Exactly one of StatusCode or StatusClass may be set: StatusCode expects
// that exact code, StatusClass expects any code in the 100*N..100*N+99 band.
// The zero value matches nothing.
type ExpectedStatus struct {
	// StatusCode is an exact status expectation (e.g. 304).
	StatusCode int `json:"status_code,omitempty" binding:"omitempty,min=100,max=599"`

	// StatusClass is a status class band: 1 for 1xx through 5 for 5xx.
	StatusClass int `json:"status_class,omitempty" binding:"omitempty,min=1,max=5"`
}

// Matches reports whether an observed status code satisfies the expectation.
func (e ExpectedStatus) Matches(code int) bool {
	switch {
	case e.StatusClass >= 1 && e.StatusClass <= 5:
		lower := e.StatusClass * 100
		return code >= lower && code <= lower+99
	case e.StatusCode != 0:
		return code == e.StatusCode
	default:
		return false
	}
}

// IsZero reports whether no expectation has been set.
func (e ExpectedStatus) IsZero() bool {
	return e.StatusCode == 0 && e.StatusClass == 0
}

// String renders the expectation for logs and error messages.
func (e ExpectedStatus) String() string {
	switch {
	case e.StatusClass >= 1 && e.StatusClass <= 5:
		return fmt.Sprintf("%dxx", e.StatusClass)
	case e.StatusCode != 0:
		return fmt.Sprintf("%d", e.StatusCode)
	default:
		return "unset"
	}
}

// PerLinkOption overrides the run defaults for one target URI.
// Overrides apply only by exact target-URI match.
type PerLinkOption struct {
	// ExpectedStatus replaces the run-level expectation when set.
	ExpectedStatus ExpectedStatus `json:"expected_status,omitempty"`

	// LinkTimeoutMs replaces the run-level per-link timeout when > 0.
	LinkTimeoutMs int `json:"link_timeout_ms,omitempty" binding:"omitempty,min=1"`
}

// LinkCheckOptions is the full configuration for one verification run.
type LinkCheckOptions struct {
	// OriginURI is the starting page. Required. Schemes: http, https, file.
	OriginURI string `json:"origin_uri" binding:"required"`

	// LinkSelector is the CSS selector used to discover link elements
	// on the origin page. Default: "a".
	LinkSelector string `json:"link_selector,omitempty"`

	// LinkAttributes lists the element attributes read as link targets.
	// Default: ["href"].
	LinkAttributes []string `json:"link_attributes,omitempty"`

	// LinkOrder selects first-N or random sampling. Default: "first_n".
	LinkOrder LinkOrder `json:"link_order,omitempty" binding:"omitempty,oneof=first_n random"`

	// LinkLimit is the total number of links checked, origin included,
	// so the origin always consumes one slot. Default: 10.
	LinkLimit int `json:"link_limit,omitempty" binding:"omitempty,min=1"`

	// ExpectedStatus is the default expectation for every link.
	// Default: 2xx class.
	ExpectedStatus ExpectedStatus `json:"expected_status,omitempty"`

	// LinkTimeoutMs bounds each fetch attempt. Default: 30000.
	LinkTimeoutMs int `json:"link_timeout_ms,omitempty" binding:"omitempty,min=1"`

	// MaxRetries is the number of extra attempts after a failed one
	// (N retries = N+1 attempts). Default: 0.
	MaxRetries int `json:"max_retries,omitempty" binding:"omitempty,min=0"`

	// TotalTimeoutMs is the global budget for the whole run. When it is
	// exhausted the run stops checking new links and reports what it has.
	// Default: 60000.
	TotalTimeoutMs int `json:"total_timeout_ms,omitempty" binding:"omitempty,min=1"`

	// PerLinkOptions overrides defaults per target URI (exact match).
	PerLinkOptions map[string]PerLinkOption `json:"per_link_options,omitempty"`

	// Screenshot controls artifact capture. Default: "failing".
	Screenshot ScreenshotPolicy `json:"screenshot,omitempty" binding:"omitempty,oneof=all failing none"`

	// StorageLocation names the artifact store target for screenshots.
	// Empty selects the server's configured default location.
	StorageLocation string `json:"storage_location,omitempty"`
}

// Defaults applies default values to unset fields.
func (o *LinkCheckOptions) Defaults() {
	if o.LinkSelector == "" {
		o.LinkSelector = "a"
	}
	if len(o.LinkAttributes) == 0 {
		o.LinkAttributes = []string{"href"}
	}
	if o.LinkOrder == "" {
		o.LinkOrder = OrderFirstN
	}
	if o.LinkLimit == 0 {
		o.LinkLimit = 10
	}
	if o.ExpectedStatus.IsZero() {
		o.ExpectedStatus = ExpectedStatus{StatusClass: 2}
	}
	if o.LinkTimeoutMs == 0 {
		o.LinkTimeoutMs = 30_000
	}
	if o.TotalTimeoutMs == 0 {
		o.TotalTimeoutMs = 60_000
	}
	if o.Screenshot == "" {
		o.Screenshot = ScreenshotFailing
	}
}

// Validate rejects option combinations before any network activity.
// It is the only hard-failure path of a run.
func (o *LinkCheckOptions) Validate() error {
	u, err := url.Parse(o.OriginURI)
	if err != nil {
		return NewCheckError(ErrCodeInvalidInput,
			fmt.Sprintf("origin_uri %q is not a valid URI", o.OriginURI), err)
	}
	switch u.Scheme {
	case "http", "https", "file":
	default:
		return NewCheckError(ErrCodeInvalidInput,
			fmt.Sprintf("origin_uri scheme %q not supported (http, https, file)", u.Scheme), nil)
	}

	if o.LinkLimit < 1 {
		return NewCheckError(ErrCodeInvalidInput, "link_limit must be at least 1", nil)
	}
	if o.MaxRetries < 0 {
		return NewCheckError(ErrCodeInvalidInput, "max_retries must not be negative", nil)
	}
	if o.LinkTimeoutMs <= 0 || o.TotalTimeoutMs <= 0 {
		return NewCheckError(ErrCodeInvalidInput, "timeouts must be positive", nil)
	}

	if _, err := cascadia.Compile(o.LinkSelector); err != nil {
		return NewCheckError(ErrCodeInvalidInput,
			fmt.Sprintf("link_selector %q is not a valid CSS selector", o.LinkSelector), err)
	}

	if err := validateExpectation(o.ExpectedStatus, "expected_status"); err != nil {
		return err
	}
	for uri, override := range o.PerLinkOptions {
		if _, err := url.Parse(uri); err != nil {
			return NewCheckError(ErrCodeInvalidInput,
				fmt.Sprintf("per_link_options key %q is not a valid URI", uri), err)
		}
		if err := validateExpectation(override.ExpectedStatus,
			fmt.Sprintf("per_link_options[%q].expected_status", uri)); err != nil {
			return err
		}
		if override.LinkTimeoutMs < 0 {
			return NewCheckError(ErrCodeInvalidInput,
				fmt.Sprintf("per_link_options[%q].link_timeout_ms must not be negative", uri), nil)
		}
	}
	return nil
}

// LinkTimeout returns the per-attempt timeout as a duration.
func (o *LinkCheckOptions) LinkTimeout() time.Duration {
	return time.Duration(o.LinkTimeoutMs) * time.Millisecond
}

// TotalTimeout returns the global run budget as a duration.
func (o *LinkCheckOptions) TotalTimeout() time.Duration {
	return time.Duration(o.TotalTimeoutMs) * time.Millisecond
}

// ExpectationFor resolves the expectation for a target, honoring overrides.
func (o *LinkCheckOptions) ExpectationFor(targetURI string) ExpectedStatus {
	if override, ok := o.PerLinkOptions[targetURI]; ok && !override.ExpectedStatus.IsZero() {
		return override.ExpectedStatus
	}
	return o.ExpectedStatus
}

// TimeoutFor resolves the per-attempt timeout for a target, honoring overrides.
func (o *LinkCheckOptions) TimeoutFor(targetURI string) time.Duration {
	if override, ok := o.PerLinkOptions[targetURI]; ok && override.LinkTimeoutMs > 0 {
		return time.Duration(override.LinkTimeoutMs) * time.Millisecond
	}
	return o.LinkTimeout()
}

func validateExpectation(e ExpectedStatus, field string) error {
	if e.StatusCode != 0 && e.StatusClass != 0 {
		return NewCheckError(ErrCodeInvalidInput,
			fmt.Sprintf("%s: status_code and status_class are mutually exclusive", field), nil)
	}
	if e.StatusCode != 0 && (e.StatusCode < 100 || e.StatusCode > 599) {
		return NewCheckError(ErrCodeInvalidInput,
			fmt.Sprintf("%s: status_code %d out of range", field, e.StatusCode), nil)
	}
	if e.StatusClass != 0 && (e.StatusClass < 1 || e.StatusClass > 5) {
		return NewCheckError(ErrCodeInvalidInput,
			fmt.Sprintf("%s: status_class %d out of range", field, e.StatusClass), nil)
	}
	return nil
}
