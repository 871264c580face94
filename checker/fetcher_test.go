package checker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/linkguard/models"
)

const testTarget = "https://example.com/page"

func TestFetchWithRetryPassesFirstAttempt(t *testing.T) {
	page := newFakePage()

	outcome, passed, err := fetchWithRetry(context.Background(), page, testTarget,
		models.ExpectedStatus{StatusClass: 2}, 5, time.Second)

	require.NoError(t, err)
	assert.True(t, passed)
	require.NotNil(t, outcome.resp)
	assert.Equal(t, 200, outcome.resp.StatusCode)
	assert.Equal(t, 1, page.attemptCount(testTarget), "must stop at the first passing attempt")
	assert.Equal(t, 0, page.resets)
}

func TestFetchWithRetryRecoversFromTransportFailures(t *testing.T) {
	page := newFakePage()
	page.respond = func(uri string, attempt int) (*Response, error) {
		if attempt < 3 {
			return nil, errors.New("net::ERR_CONNECTION_RESET")
		}
		return &Response{StatusCode: 200, FinalURL: uri}, nil
	}

	outcome, passed, err := fetchWithRetry(context.Background(), page, testTarget,
		models.ExpectedStatus{StatusClass: 2}, 2, time.Second)

	require.NoError(t, err)
	assert.True(t, passed)
	require.NotNil(t, outcome.resp)
	assert.Empty(t, outcome.errType)
	assert.Equal(t, 3, page.attemptCount(testTarget))
	assert.Equal(t, 2, page.resets, "page is reset before each retry")
}

func TestFetchWithRetryAttemptBudget(t *testing.T) {
	page := newFakePage()
	page.respond = func(string, int) (*Response, error) {
		return nil, errors.New("connection refused")
	}

	outcome, passed, err := fetchWithRetry(context.Background(), page, testTarget,
		models.ExpectedStatus{StatusClass: 2}, 2, time.Second)

	require.NoError(t, err)
	assert.False(t, passed)
	assert.Equal(t, 3, page.attemptCount(testTarget), "maxRetries=2 means exactly 3 attempts")
	assert.Nil(t, outcome.resp)
	assert.Equal(t, models.ErrCodeNavigation, outcome.errType)
	assert.Contains(t, outcome.errMsg, "connection refused")
}

func TestFetchWithRetryWrongStatusConsumesRetries(t *testing.T) {
	page := newFakePage()
	page.respond = statusResponder(map[string]int{testTarget: 404})

	outcome, passed, err := fetchWithRetry(context.Background(), page, testTarget,
		models.ExpectedStatus{StatusClass: 2}, 2, time.Second)

	require.NoError(t, err)
	assert.False(t, passed)
	assert.Equal(t, 3, page.attemptCount(testTarget), "a non-matching status retries like a failure")

	// The real response survives; no error is synthesized over it.
	require.NotNil(t, outcome.resp)
	assert.Equal(t, 404, outcome.resp.StatusCode)
	assert.Empty(t, outcome.errType)
	assert.Empty(t, outcome.errMsg)
}

func TestFetchWithRetryLateWrongStatusReplacesEarlierError(t *testing.T) {
	page := newFakePage()
	page.respond = func(uri string, attempt int) (*Response, error) {
		if attempt == 1 {
			return nil, errors.New("net::ERR_TIMED_OUT")
		}
		return &Response{StatusCode: 500, FinalURL: uri}, nil
	}

	outcome, passed, err := fetchWithRetry(context.Background(), page, testTarget,
		models.ExpectedStatus{StatusClass: 2}, 1, time.Second)

	require.NoError(t, err)
	assert.False(t, passed)
	require.NotNil(t, outcome.resp, "the terminal attempt's response is what gets reported")
	assert.Equal(t, 500, outcome.resp.StatusCode)
	assert.Empty(t, outcome.errType)
}

func TestFetchWithRetryClassifiesTimeouts(t *testing.T) {
	page := newFakePage()
	page.respond = func(string, int) (*Response, error) {
		return nil, context.DeadlineExceeded
	}

	outcome, passed, err := fetchWithRetry(context.Background(), page, testTarget,
		models.ExpectedStatus{StatusClass: 2}, 0, time.Second)

	require.NoError(t, err)
	assert.False(t, passed)
	assert.Equal(t, models.ErrCodeTimeout, outcome.errType)
}

func TestFetchWithRetryPropagatesUnusableContext(t *testing.T) {
	page := newFakePage()
	page.respond = func(string, int) (*Response, error) {
		return nil, ErrContextUnusable
	}

	_, passed, err := fetchWithRetry(context.Background(), page, testTarget,
		models.ExpectedStatus{StatusClass: 2}, 3, time.Second)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContextUnusable)
	assert.False(t, passed)
	assert.Equal(t, 1, page.attemptCount(testTarget), "an unusable context is never retried")
}

func TestFetchWithRetryExactExpectation(t *testing.T) {
	page := newFakePage()
	page.respond = statusResponder(map[string]int{testTarget: 304})

	_, passed, err := fetchWithRetry(context.Background(), page, testTarget,
		models.ExpectedStatus{StatusCode: 304}, 0, time.Second)

	require.NoError(t, err)
	assert.True(t, passed)
}
