package checker

import (
	"context"
	"sync"
	"time"

	"github.com/use-agent/linkguard/models"
)

// fakePage is an in-memory checker.Page for engine tests. Navigation
// outcomes are scripted per target via respond.
type fakePage struct {
	mu          sync.Mutex
	attempts    map[string]int
	navigations []string
	resets      int

	// respond decides each navigation's outcome given the target and
	// the 1-based attempt number for that target. Nil means 200.
	respond func(uri string, attempt int) (*Response, error)

	// delay simulates navigation latency, honoring the context.
	delay time.Duration

	links         []models.LinkCandidate
	resolveErr    error
	screenshot    []byte
	screenshotErr error
	closed        bool
}

func newFakePage() *fakePage {
	return &fakePage{attempts: map[string]int{}}
}

func (p *fakePage) Navigate(ctx context.Context, uri string, timeout time.Duration) (*Response, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	p.mu.Lock()
	p.attempts[uri]++
	attempt := p.attempts[uri]
	p.navigations = append(p.navigations, uri)
	p.mu.Unlock()

	if p.respond != nil {
		return p.respond(uri, attempt)
	}
	return &Response{StatusCode: 200, FinalURL: uri}, nil
}

func (p *fakePage) ResolveLinks(ctx context.Context, selector string, attributes []string) ([]models.LinkCandidate, error) {
	if p.resolveErr != nil {
		return nil, p.resolveErr
	}
	return p.links, nil
}

func (p *fakePage) Reset() {
	p.mu.Lock()
	p.resets++
	p.mu.Unlock()
}

func (p *fakePage) Screenshot(ctx context.Context) ([]byte, error) {
	if p.screenshotErr != nil {
		return nil, p.screenshotErr
	}
	if p.screenshot != nil {
		return p.screenshot, nil
	}
	return []byte("png"), nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

func (p *fakePage) attemptCount(uri string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts[uri]
}

// fakeDriver hands out a single scripted page.
type fakeDriver struct {
	page    *fakePage
	pageErr error
}

func (d *fakeDriver) NewPage(ctx context.Context) (Page, error) {
	if d.pageErr != nil {
		return nil, d.pageErr
	}
	return d.page, nil
}

// fakeStore records saved artifacts.
type fakeStore struct {
	mu     sync.Mutex
	saves  []string
	failed bool
}

func (s *fakeStore) Save(runID, name string, data []byte) (string, error) {
	if s.failed {
		return "", context.DeadlineExceeded
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	path := runID + "/" + name
	s.saves = append(s.saves, path)
	return path, nil
}

func (s *fakeStore) BasePath(runID string) string {
	return runID
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

// statusResponder scripts a fixed status per target.
func statusResponder(statuses map[string]int) func(string, int) (*Response, error) {
	return func(uri string, _ int) (*Response, error) {
		if code, ok := statuses[uri]; ok {
			return &Response{StatusCode: code, FinalURL: uri}, nil
		}
		return &Response{StatusCode: 200, FinalURL: uri}, nil
	}
}

func candidates(uris ...string) []models.LinkCandidate {
	out := make([]models.LinkCandidate, len(uris))
	for i, u := range uris {
		out[i] = models.LinkCandidate{TargetURI: u, AnchorText: "link", HTMLElement: "a"}
	}
	return out
}
