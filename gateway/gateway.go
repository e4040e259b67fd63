// Package gateway wraps every outbound call the pipeline makes (LLM
// completion, search, page fetch) with per-category token-bucket throttling
// and retry with exponential backoff.
//
// Throttled calls block until a token is available, up to a configurable max
// wait, after which they fail with a transient error wrapping
// campaigner.ErrRateLimitExceeded. Transient transport failures are retried;
// permanent failures (authentication, malformed input) surface immediately.
package gateway

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	campaigner "github.com/spetersoncode/campaigner"
	"github.com/spetersoncode/campaigner/llm"
	"github.com/spetersoncode/campaigner/retry"
)

// Category identifies a class of outbound call with its own token bucket.
type Category string

const (
	CategoryLLM    Category = "llm"
	CategorySearch Category = "search"
	CategoryFetch  Category = "fetch"
)

// SearchResult is one ranked hit from the search collaborator.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher is the external search collaborator.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// Fetcher is the external page-fetch collaborator. It returns sanitized text
// content for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// limiter pairs a token bucket with the maximum time a caller may block
// waiting for a token.
type limiter struct {
	bucket  *rate.Limiter
	maxWait time.Duration
}

func newLimiter(s campaigner.BucketSettings) *limiter {
	if s.Capacity <= 0 {
		return nil // unlimited
	}
	refill := s.RefillPerSec
	if refill <= 0 {
		refill = 1
	}
	return &limiter{
		bucket:  rate.NewLimiter(rate.Limit(refill), s.Capacity),
		maxWait: s.MaxWait,
	}
}

// wait blocks until a token is available or the max wait elapses. The
// throttle failure only fires after the caller has actually waited the full
// max wait, never preemptively.
func (l *limiter) wait(ctx context.Context, cat Category) error {
	if l == nil {
		return nil
	}

	res := l.bucket.Reserve()
	if !res.OK() {
		return campaigner.NewTransientError(
			"gateway: "+string(cat)+" bucket cannot satisfy request", 0,
			campaigner.ErrRateLimitExceeded,
		)
	}
	delay := res.Delay()
	if delay == 0 {
		return nil
	}

	token := time.NewTimer(delay)
	defer token.Stop()

	var expired <-chan time.Time
	if l.maxWait > 0 && delay > l.maxWait {
		maxTimer := time.NewTimer(l.maxWait)
		defer maxTimer.Stop()
		expired = maxTimer.C
	}

	select {
	case <-token.C:
		return nil
	case <-expired:
		res.Cancel()
		return campaigner.NewTransientError(
			"gateway: "+string(cat)+" throttled past max wait", 0,
			campaigner.ErrRateLimitExceeded,
		)
	case <-ctx.Done():
		res.Cancel()
		return ctx.Err()
	}
}

// Gateway throttles and retries outbound calls on behalf of the stages.
// The token buckets are the only state shared across concurrent workers.
type Gateway struct {
	llm      llm.Client
	searcher Searcher
	fetcher  Fetcher
	limiters map[Category]*limiter
	retry    retry.Config
	log      *zap.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithSearcher sets the search collaborator.
func WithSearcher(s Searcher) Option {
	return func(g *Gateway) { g.searcher = s }
}

// WithFetcher sets the page-fetch collaborator.
func WithFetcher(f Fetcher) Option {
	return func(g *Gateway) { g.fetcher = f }
}

// WithLimits configures the per-category token buckets.
func WithLimits(s campaigner.GatewaySettings) Option {
	return func(g *Gateway) {
		g.limiters = map[Category]*limiter{
			CategoryLLM:    newLimiter(s.LLM),
			CategorySearch: newLimiter(s.Search),
			CategoryFetch:  newLimiter(s.Fetch),
		}
	}
}

// WithRetry overrides the backoff configuration for transient failures.
func WithRetry(cfg retry.Config) Option {
	return func(g *Gateway) { g.retry = cfg }
}

// WithLogger sets the structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(g *Gateway) { g.log = log }
}

// New creates a Gateway around an LLM client. Without WithLimits the gateway
// applies the default bucket settings.
func New(client llm.Client, opts ...Option) *Gateway {
	g := &Gateway{
		llm:   client,
		retry: retry.DefaultConfig(),
		log:   zap.NewNop(),
	}
	WithLimits(campaigner.DefaultConfig().Gateway)(g)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Complete sends a throttled, retried LLM completion request.
func (g *Gateway) Complete(ctx context.Context, messages []llm.Message, opts ...llm.Option) (*llm.Response, error) {
	if err := g.limiters[CategoryLLM].wait(ctx, CategoryLLM); err != nil {
		return nil, err
	}

	resp, err := retry.Do(ctx, g.retry, func() (*llm.Response, error) {
		return g.llm.Complete(ctx, messages, opts...)
	})
	if err != nil {
		g.log.Warn("llm call failed",
			zap.Error(err),
			zap.Bool("transient", campaigner.IsTransient(err)))
		return nil, err
	}
	g.log.Debug("llm call completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens))
	return resp, nil
}

// SearchEnabled reports whether a search collaborator is configured.
func (g *Gateway) SearchEnabled() bool {
	return g.searcher != nil
}

// Search runs a throttled, retried search query.
func (g *Gateway) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if g.searcher == nil {
		return nil, campaigner.NewPermanentError("gateway: no search collaborator configured", 0, nil)
	}
	if err := g.limiters[CategorySearch].wait(ctx, CategorySearch); err != nil {
		return nil, err
	}

	return retry.Do(ctx, g.retry, func() ([]SearchResult, error) {
		return g.searcher.Search(ctx, query, maxResults)
	})
}

// Fetch retrieves sanitized text content for a URL, throttled and retried.
func (g *Gateway) Fetch(ctx context.Context, url string) (string, error) {
	if g.fetcher == nil {
		return "", campaigner.NewPermanentError("gateway: no fetch collaborator configured", 0, nil)
	}
	if err := g.limiters[CategoryFetch].wait(ctx, CategoryFetch); err != nil {
		return "", err
	}

	return retry.Do(ctx, g.retry, func() (string, error) {
		return g.fetcher.Fetch(ctx, url)
	})
}
