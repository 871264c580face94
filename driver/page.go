package driver

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/linkguard/checker"
	"github.com/use-agent/linkguard/models"
)

// probeTimeout bounds the liveness probe used to distinguish a dead
// browsing context from an ordinary navigation failure.
const probeTimeout = 3 * time.Second

// identHeaders identify the checker to the sites it probes, the way
// synthetic monitors are expected to.
var identHeaders = map[string]string{
	"X-Linkguard-Probe": "1",
}

// rodPage is one borrowed browser tab implementing checker.Page.
type rodPage struct {
	owner   *Browser
	page    *rod.Page
	stealth bool
	closed  bool
}

// init prepares the tab before first use: stealth injection and the
// probe identification headers. Both must happen before any navigation.
func (p *rodPage) init() {
	if p.stealth {
		if _, err := p.page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", err,
			)
		}
	}
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(identHeaders),
	}.Call(p.page)
}

// Navigate performs one navigation attempt bounded by timeout. Any
// received response is returned with its status; transport failures
// come back as errors, wrapped in checker.ErrContextUnusable when the
// tab itself is no longer responsive.
func (p *rodPage) Navigate(ctx context.Context, uri string, timeout time.Duration) (*checker.Response, error) {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pg := p.page.Context(navCtx)

	if err := pg.Navigate(uri); err != nil {
		if !p.alive() {
			return nil, fmt.Errorf("%w: %v", checker.ErrContextUnusable, err)
		}
		return nil, err
	}

	if err := pg.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", err,
		)
	}

	// The Performance API exposes the navigation status without any CDP
	// event listeners, which keeps this compatible with Chromium 145+.
	statusCode := 0
	if res, err := pg.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); err == nil {
		statusCode = res.Value.Int()
	}

	finalURL := uri
	if res, err := pg.Eval(`() => window.location.href`); err == nil && res.Value.Str() != "" {
		finalURL = res.Value.Str()
	}

	// file: navigations carry no HTTP status; a loaded document stands
	// in for 200 so expectations behave uniformly across schemes.
	if statusCode == 0 && strings.HasPrefix(uri, "file:") {
		statusCode = 200
	}

	return &checker.Response{StatusCode: statusCode, FinalURL: finalURL}, nil
}

// ResolveLinks extracts link candidates from the current page. Relative
// values are resolved against the document base; only http, https and
// file targets are kept.
func (p *rodPage) ResolveLinks(ctx context.Context, selector string, attributes []string) ([]models.LinkCandidate, error) {
	pg := p.page.Context(ctx)

	els, err := pg.Elements(selector)
	if err != nil {
		return nil, models.NewCheckError(
			models.ErrCodeLinkResolve,
			fmt.Sprintf("selector %q matched no resolvable elements", selector),
			err,
		)
	}

	var candidates []models.LinkCandidate
	for _, el := range els {
		tag := "a"
		if res, evalErr := el.Eval(`() => this.tagName.toLowerCase()`); evalErr == nil {
			tag = res.Value.Str()
		}

		text := ""
		if res, evalErr := el.Eval(`() => (this.textContent || "").trim()`); evalErr == nil {
			text = res.Value.Str()
		}

		for _, attr := range attributes {
			res, evalErr := el.Eval(`(a) => {
				const v = this.getAttribute(a);
				if (!v) return "";
				try { return new URL(v, document.baseURI).href } catch(e) { return "" }
			}`, attr)
			if evalErr != nil {
				continue
			}
			target := res.Value.Str()
			if !supportedScheme(target) {
				continue
			}
			candidates = append(candidates, models.LinkCandidate{
				TargetURI:   target,
				AnchorText:  text,
				HTMLElement: tag,
			})
		}
	}
	return candidates, nil
}

// Reset returns the tab to a neutral blank page so stale in-flight
// requests cannot bleed into the next navigation. Best-effort.
func (p *rodPage) Reset() {
	if err := p.page.Navigate("about:blank"); err != nil {
		slog.Debug("reset to about:blank failed", "error", err)
	}
}

// Screenshot captures the current viewport as PNG.
func (p *rodPage) Screenshot(ctx context.Context) ([]byte, error) {
	format := proto.PageCaptureScreenshotFormatPng
	return p.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: format,
	})
}

// Close resets the tab and returns it to the pool.
func (p *rodPage) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	p.Reset()
	p.owner.pagePool.Put(p.page)
	p.owner.activePages.Add(-1)
	return nil
}

// alive probes the tab with a trivial eval to tell a dead context apart
// from a failed navigation.
func (p *rodPage) alive() bool {
	probeCtx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	_, err := p.page.Context(probeCtx).Eval(`() => 1`)
	return err == nil
}

func supportedScheme(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https", "file":
		return true
	default:
		return false
	}
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders
// type (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
