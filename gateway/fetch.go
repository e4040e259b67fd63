package gateway

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	campaigner "github.com/spetersoncode/campaigner"
)

const defaultMaxFetchBytes = 2 << 20

// HTTPFetcher implements Fetcher over plain HTTP with guards against
// fetching internal addresses. URLs must be http or https, resolve to a
// public address, and responses are capped in size.
type HTTPFetcher struct {
	httpClient *http.Client
	maxBytes   int64
	lookupIP   func(host string) ([]net.IP, error)
}

// FetchOption configures an HTTPFetcher.
type FetchOption func(*HTTPFetcher)

// WithFetchHTTPClient overrides the HTTP client used for requests.
func WithFetchHTTPClient(hc *http.Client) FetchOption {
	return func(f *HTTPFetcher) { f.httpClient = hc }
}

// WithFetchMaxBytes caps the number of response bytes read.
func WithFetchMaxBytes(n int64) FetchOption {
	return func(f *HTTPFetcher) { f.maxBytes = n }
}

// NewHTTPFetcher creates a fetcher with sane defaults.
func NewHTTPFetcher(opts ...FetchOption) *HTTPFetcher {
	f := &HTTPFetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxBytes:   defaultMaxFetchBytes,
		lookupIP:   net.LookupIP,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves a page and returns its visible text content.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := f.validateURL(rawURL); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", campaigner.NewInputError("fetch: building request", err)
	}
	req.Header.Set("User-Agent", "campaigner/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", campaigner.NewTransientError("fetch: request failed", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", categorizeHTTPStatus("fetch", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", campaigner.NewTransientError("fetch: reading body", 0, err)
	}

	ct := resp.Header.Get("Content-Type")
	if strings.Contains(ct, "text/html") {
		return extractText(string(body)), nil
	}
	return string(body), nil
}

func (f *HTTPFetcher) validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return campaigner.NewInputError(fmt.Sprintf("fetch: invalid url %q", rawURL), err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return campaigner.NewInputError(fmt.Sprintf("fetch: unsupported scheme %q", u.Scheme), nil)
	}
	if u.User != nil {
		return campaigner.NewInputError("fetch: userinfo not allowed in url", nil)
	}

	host := u.Hostname()
	if host == "" {
		return campaigner.NewInputError("fetch: url has no host", nil)
	}

	ips, err := f.lookupIP(host)
	if err != nil {
		return campaigner.NewTransientError(fmt.Sprintf("fetch: resolving %q", host), 0, err)
	}
	for _, ip := range ips {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return campaigner.NewInputError(fmt.Sprintf("fetch: %q resolves to a non-public address", host), nil)
		}
	}
	return nil
}

// extractText strips markup from an HTML document, skipping script and
// style content, and collapses whitespace.
func extractText(doc string) string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return doc
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
				sb.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return strings.TrimSpace(sb.String())
}

var _ Fetcher = (*HTTPFetcher)(nil)
