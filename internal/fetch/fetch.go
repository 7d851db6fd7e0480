// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves the raw page or API document for one identifier.
// Every outcome, including network failures, is reported as a
// types.FetchResult so that callers never handle Go errors per record.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/litharvest/internal/httputil"
	"github.com/pdiddy/litharvest/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "litharvest/0.1"

	// DefaultMaxBody caps how much of a response body is kept in memory.
	DefaultMaxBody = 8 << 20

	placeholder = "{id}"
)

// Base URLs for the fetch presets. Declared as vars so tests can
// substitute httptest servers.
var (
	doiBase             = "https://doi.org/"
	crossrefAPIBase     = "https://api.crossref.org/works/"
	openAlexAPIBase     = "https://api.openalex.org/works/doi:"
	semanticScholarBase = "https://api.semanticscholar.org/graph/v1/paper/DOI:"
)

// Template returns the URL template for a preset source.
func Template(src types.FetchSource) (string, error) {
	switch src {
	case types.SourceDOI, "":
		return doiBase + placeholder, nil
	case types.SourceCrossRef:
		return crossrefAPIBase + placeholder, nil
	case types.SourceOpenAlex:
		return openAlexAPIBase + placeholder, nil
	case types.SourceSemanticScholar:
		return semanticScholarBase + placeholder + "?fields=title,abstract", nil
	default:
		return "", fmt.Errorf("unknown fetch source %q", src)
	}
}

func acceptFor(src types.FetchSource) string {
	switch src {
	case types.SourceCrossRef, types.SourceOpenAlex, types.SourceSemanticScholar:
		return "application/json"
	default:
		return "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8"
	}
}

// Client fetches one identifier at a time. It holds only immutable
// configuration and is safe for concurrent use.
type Client struct {
	http            *http.Client
	template        string
	userAgent       string
	accept          string
	headers         map[string]string
	throttleRetries int
	maxBody         int64
}

// New builds a Client for cfg. When hc is nil a client with cfg.Timeout is
// created; net/http follows up to ten redirects by default.
func New(cfg types.HarvestConfig, hc *http.Client) (*Client, error) {
	tmpl := cfg.URLTemplate
	if tmpl == "" {
		var err error
		tmpl, err = Template(cfg.Source)
		if err != nil {
			return nil, err
		}
	}
	if !strings.Contains(tmpl, placeholder) {
		return nil, fmt.Errorf("url template %q has no %s placeholder", tmpl, placeholder)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &Client{
		http:            hc,
		template:        tmpl,
		userAgent:       ua,
		accept:          acceptFor(cfg.Source),
		headers:         maps.Clone(cfg.Headers),
		throttleRetries: cfg.ThrottleRetries,
		maxBody:         DefaultMaxBody,
	}, nil
}

// URL interpolates the normalized identifier into the template. Each path
// segment of the identifier is escaped; the slashes of a DOI are kept.
func (c *Client) URL(identifier string) string {
	segs := strings.Split(NormalizeIdentifier(identifier), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Replace(c.template, placeholder, strings.Join(segs, "/"), 1)
}

// Fetch requests the document for identifier. It never returns an error:
// transport failures, timeouts and non-2xx statuses are mapped onto the
// corresponding FetchResult variants.
func (c *Client) Fetch(ctx context.Context, identifier string) types.FetchResult {
	if NormalizeIdentifier(identifier) == "" {
		return types.FetchResult{Kind: types.FetchNetworkError, Err: errors.New("empty identifier")}
	}
	target := c.URL(identifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return types.FetchResult{Kind: types.FetchNetworkError, URL: target, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", c.accept)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.throttleRetries)
	if err != nil {
		return failure(target, err)
	}
	defer resp.Body.Close()

	final := target
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return types.FetchResult{Kind: types.FetchHTTPError, URL: final, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return failure(final, fmt.Errorf("reading body: %w", err))
	}

	return types.FetchResult{
		Kind:        types.FetchSuccess,
		URL:         final,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}
}

func failure(target string, err error) types.FetchResult {
	if isTimeout(err) {
		return types.FetchResult{Kind: types.FetchTimeout, URL: target, Err: err}
	}
	return types.FetchResult{Kind: types.FetchNetworkError, URL: target, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
