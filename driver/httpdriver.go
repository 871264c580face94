package driver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	tls2 "github.com/refraction-networking/utls"
	"golang.org/x/net/html"

	"github.com/use-agent/linkguard/checker"
	"github.com/use-agent/linkguard/models"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBodyBytes caps how much of a checked page is read for link
// extraction.
const maxBodyBytes = 10 * 1024 * 1024

// HTTPDriver is a browserless checker.Driver for environments without
// Chrome. It fetches with a Chrome TLS fingerprint (utls) and parses
// links out of the returned HTML. Screenshots are not supported.
type HTTPDriver struct{}

// NewHTTPDriver creates an HTTPDriver.
func NewHTTPDriver() *HTTPDriver {
	return &HTTPDriver{}
}

// NewPage returns a fresh browsing context backed by an HTTP client.
func (d *HTTPDriver) NewPage(ctx context.Context) (checker.Page, error) {
	transport := &http.Transport{
		DialTLSContext: dialTLSChrome,
	}
	return &httpPage{
		client: &http.Client{Transport: transport},
	}, nil
}

// httpPage holds the last fetched document, standing in for a browser
// tab. It is owned by one run at a time, like its Rod counterpart.
type httpPage struct {
	client  *http.Client
	doc     *goquery.Document
	baseURL *url.URL
}

func (p *httpPage) Navigate(ctx context.Context, uri string, timeout time.Duration) (*checker.Response, error) {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(navCtx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("httpdriver: build request: %w", err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("X-Linkguard-Probe", "1")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("httpdriver: read body: %w", err)
	}

	finalURL := uri
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	// Any received response counts, whatever its status; parsing is
	// best-effort so non-HTML targets still get a verdict.
	p.doc = nil
	p.baseURL, _ = url.Parse(finalURL)
	if doc, parseErr := goquery.NewDocumentFromReader(bytes.NewReader(body)); parseErr == nil {
		p.doc = doc
	}

	return &checker.Response{StatusCode: resp.StatusCode, FinalURL: finalURL}, nil
}

func (p *httpPage) ResolveLinks(ctx context.Context, selector string, attributes []string) ([]models.LinkCandidate, error) {
	if p.doc == nil {
		return nil, models.NewCheckError(
			models.ErrCodeLinkResolve,
			"no parsed document to resolve links from",
			nil,
		)
	}

	var candidates []models.LinkCandidate
	p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		tag := ""
		if len(s.Nodes) > 0 && s.Nodes[0].Type == html.ElementNode {
			tag = s.Nodes[0].Data
		}
		text := strings.TrimSpace(s.Text())

		for _, attr := range attributes {
			val, ok := s.Attr(attr)
			if !ok || val == "" {
				continue
			}
			target := p.resolve(val)
			if !supportedScheme(target) {
				continue
			}
			candidates = append(candidates, models.LinkCandidate{
				TargetURI:   target,
				AnchorText:  text,
				HTMLElement: tag,
			})
		}
	})
	return candidates, nil
}

func (p *httpPage) Reset() {
	p.doc = nil
	p.baseURL = nil
}

func (p *httpPage) Screenshot(ctx context.Context) ([]byte, error) {
	return nil, models.NewCheckError(
		models.ErrCodeScreenshot,
		"screenshots require the browser driver",
		nil,
	)
}

func (p *httpPage) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// resolve turns an attribute value into an absolute URI against the
// last navigation's final URL.
func (p *httpPage) resolve(val string) string {
	if p.baseURL == nil {
		return val
	}
	ref, err := url.Parse(strings.TrimSpace(val))
	if err != nil {
		return ""
	}
	return p.baseURL.ResolveReference(ref).String()
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint
// via utls.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{
		ServerName: host,
	}, tls2.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
