package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedStatusMatches(t *testing.T) {
	tests := []struct {
		name     string
		expected ExpectedStatus
		code     int
		want     bool
	}{
		{"exact match", ExpectedStatus{StatusCode: 304}, 304, true},
		{"exact mismatch", ExpectedStatus{StatusCode: 304}, 305, false},
		{"exact mismatch same class", ExpectedStatus{StatusCode: 200}, 204, false},
		{"class 2xx lower bound", ExpectedStatus{StatusClass: 2}, 200, true},
		{"class 2xx upper bound", ExpectedStatus{StatusClass: 2}, 299, true},
		{"class 2xx below", ExpectedStatus{StatusClass: 2}, 199, false},
		{"class 2xx above", ExpectedStatus{StatusClass: 2}, 300, false},
		{"class 1xx", ExpectedStatus{StatusClass: 1}, 101, true},
		{"class 3xx", ExpectedStatus{StatusClass: 3}, 301, true},
		{"class 4xx", ExpectedStatus{StatusClass: 4}, 404, true},
		{"class 5xx", ExpectedStatus{StatusClass: 5}, 503, true},
		{"class 5xx rejects 4xx", ExpectedStatus{StatusClass: 5}, 404, false},
		{"zero value matches nothing", ExpectedStatus{}, 200, false},
		{"zero value matches nothing even 0", ExpectedStatus{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.expected.Matches(tt.code))
		})
	}
}

func TestExpectedStatusString(t *testing.T) {
	assert.Equal(t, "2xx", ExpectedStatus{StatusClass: 2}.String())
	assert.Equal(t, "304", ExpectedStatus{StatusCode: 304}.String())
	assert.Equal(t, "unset", ExpectedStatus{}.String())
}

func TestLinkCheckOptionsDefaults(t *testing.T) {
	opts := &LinkCheckOptions{OriginURI: "https://example.com"}
	opts.Defaults()

	assert.Equal(t, "a", opts.LinkSelector)
	assert.Equal(t, []string{"href"}, opts.LinkAttributes)
	assert.Equal(t, OrderFirstN, opts.LinkOrder)
	assert.Equal(t, 10, opts.LinkLimit)
	assert.Equal(t, ExpectedStatus{StatusClass: 2}, opts.ExpectedStatus)
	assert.Equal(t, 30*time.Second, opts.LinkTimeout())
	assert.Equal(t, 60*time.Second, opts.TotalTimeout())
	assert.Equal(t, ScreenshotFailing, opts.Screenshot)
}

func TestLinkCheckOptionsDefaultsKeepsExplicitValues(t *testing.T) {
	opts := &LinkCheckOptions{
		OriginURI:      "https://example.com",
		LinkSelector:   "nav a",
		LinkOrder:      OrderRandom,
		LinkLimit:      3,
		ExpectedStatus: ExpectedStatus{StatusCode: 204},
		Screenshot:     ScreenshotNone,
	}
	opts.Defaults()

	assert.Equal(t, "nav a", opts.LinkSelector)
	assert.Equal(t, OrderRandom, opts.LinkOrder)
	assert.Equal(t, 3, opts.LinkLimit)
	assert.Equal(t, ExpectedStatus{StatusCode: 204}, opts.ExpectedStatus)
	assert.Equal(t, ScreenshotNone, opts.Screenshot)
}

func TestLinkCheckOptionsValidate(t *testing.T) {
	valid := func() *LinkCheckOptions {
		opts := &LinkCheckOptions{OriginURI: "https://example.com"}
		opts.Defaults()
		return opts
	}

	t.Run("valid options pass", func(t *testing.T) {
		require.NoError(t, valid().Validate())
	})

	t.Run("file scheme accepted", func(t *testing.T) {
		opts := valid()
		opts.OriginURI = "file:///tmp/index.html"
		require.NoError(t, opts.Validate())
	})

	t.Run("unsupported scheme rejected", func(t *testing.T) {
		opts := valid()
		opts.OriginURI = "ftp://example.com"
		err := opts.Validate()
		require.Error(t, err)
		checkErr := requireCheckError(t, err)
		assert.Equal(t, ErrCodeInvalidInput, checkErr.Code)
	})

	t.Run("invalid selector rejected", func(t *testing.T) {
		opts := valid()
		opts.LinkSelector = "a[href="
		err := opts.Validate()
		require.Error(t, err)
		assert.Equal(t, ErrCodeInvalidInput, requireCheckError(t, err).Code)
	})

	t.Run("link limit below one rejected", func(t *testing.T) {
		opts := valid()
		opts.LinkLimit = -1
		require.Error(t, opts.Validate())
	})

	t.Run("code and class together rejected", func(t *testing.T) {
		opts := valid()
		opts.ExpectedStatus = ExpectedStatus{StatusCode: 200, StatusClass: 2}
		require.Error(t, opts.Validate())
	})

	t.Run("out of range status code rejected", func(t *testing.T) {
		opts := valid()
		opts.ExpectedStatus = ExpectedStatus{StatusCode: 42}
		require.Error(t, opts.Validate())
	})

	t.Run("override with both code and class rejected", func(t *testing.T) {
		opts := valid()
		opts.PerLinkOptions = map[string]PerLinkOption{
			"https://example.com/a": {ExpectedStatus: ExpectedStatus{StatusCode: 301, StatusClass: 3}},
		}
		require.Error(t, opts.Validate())
	})

	t.Run("negative override timeout rejected", func(t *testing.T) {
		opts := valid()
		opts.PerLinkOptions = map[string]PerLinkOption{
			"https://example.com/a": {LinkTimeoutMs: -5},
		}
		require.Error(t, opts.Validate())
	})
}

func TestExpectationFor(t *testing.T) {
	opts := &LinkCheckOptions{
		OriginURI:      "https://example.com",
		ExpectedStatus: ExpectedStatus{StatusClass: 2},
		PerLinkOptions: map[string]PerLinkOption{
			"https://example.com/old": {ExpectedStatus: ExpectedStatus{StatusCode: 301}},
			"https://example.com/slow": {LinkTimeoutMs: 5000},
		},
	}

	assert.Equal(t, ExpectedStatus{StatusCode: 301}, opts.ExpectationFor("https://example.com/old"))
	assert.Equal(t, ExpectedStatus{StatusClass: 2}, opts.ExpectationFor("https://example.com/other"))

	// An override that only sets a timeout keeps the run-level expectation.
	assert.Equal(t, ExpectedStatus{StatusClass: 2}, opts.ExpectationFor("https://example.com/slow"))
}

func TestTimeoutFor(t *testing.T) {
	opts := &LinkCheckOptions{
		OriginURI:     "https://example.com",
		LinkTimeoutMs: 30_000,
		PerLinkOptions: map[string]PerLinkOption{
			"https://example.com/slow": {LinkTimeoutMs: 90_000},
		},
	}

	assert.Equal(t, 90*time.Second, opts.TimeoutFor("https://example.com/slow"))
	assert.Equal(t, 30*time.Second, opts.TimeoutFor("https://example.com/other"))
}

func TestLinkResultStatusClass(t *testing.T) {
	code := func(c int) *int { return &c }

	tests := []struct {
		name string
		res  LinkResult
		want int
	}{
		{"no response", LinkResult{}, 0},
		{"200", LinkResult{StatusCode: code(200)}, 2},
		{"101", LinkResult{StatusCode: code(101)}, 1},
		{"302", LinkResult{StatusCode: code(302)}, 3},
		{"404", LinkResult{StatusCode: code(404)}, 4},
		{"500", LinkResult{StatusCode: code(500)}, 5},
		{"out of band high", LinkResult{StatusCode: code(999)}, 0},
		{"out of band low", LinkResult{StatusCode: code(42)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.res.StatusClass())
		})
	}
}

func requireCheckError(t *testing.T, err error) *CheckError {
	t.Helper()
	checkErr, ok := err.(*CheckError)
	require.True(t, ok, "expected *CheckError, got %T", err)
	return checkErr
}
