package llm

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	campaigner "github.com/spetersoncode/campaigner"
)

// statusCoder is an interface for errors that carry an HTTP status code.
// Both the Anthropic and OpenAI SDK errors implement it.
type statusCoder interface {
	StatusCode() int
}

// WrapError categorizes a provider SDK error into the campaigner taxonomy.
// Already-categorized errors pass through unchanged. Status codes 429/5xx
// and network-level failures become transient; 401/403 become permanent;
// 400/404/422 become input errors; anything else defaults to permanent.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}

	var ce campaigner.CategorizedError
	if errors.As(err, &ce) {
		return err
	}

	if code := statusCodeOf(err); code > 0 {
		return CategorizeHTTP(provider, code, 0, err)
	}

	msg := provider + ": " + err.Error()
	if isTransientNetworkError(err) {
		return campaigner.NewTransientError(msg, 0, err)
	}

	return campaigner.NewPermanentError(msg, 0, err)
}

// CategorizeHTTP maps a provider HTTP status into the campaigner taxonomy.
// Adapters whose SDK errors expose the status as a struct field call this
// directly instead of going through WrapError's interface probing.
func CategorizeHTTP(provider string, code int, retryAfter time.Duration, err error) error {
	msg := provider + ": " + err.Error()
	switch {
	case code == 429 || (code >= 500 && code < 600):
		if retryAfter > 0 {
			return campaigner.NewTransientErrorWithRetry(msg, code, retryAfter, err)
		}
		return campaigner.NewTransientError(msg, code, err)
	case code == 401 || code == 403:
		return campaigner.NewPermanentError(msg, code, err)
	case code == 400 || code == 404 || code == 422:
		return campaigner.NewInputError(msg, err)
	default:
		return campaigner.NewPermanentError(msg, code, err)
	}
}

// RetryAfterFromResponse extracts the Retry-After duration from an HTTP
// response, or 0 if absent or unparseable.
func RetryAfterFromResponse(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if delay := time.Until(t); delay > 0 {
			return delay
		}
	}
	return 0
}

// statusCodeOf extracts an HTTP status code from an SDK error, or 0.
func statusCodeOf(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}

	// The Google GenAI SDK surfaces codes in the message, not a method.
	errStr := err.Error()
	if strings.Contains(errStr, "googleapi:") || strings.Contains(errStr, "genai:") {
		for _, code := range []struct {
			needle string
			code   int
		}{
			{"429", 429}, {"500", 500}, {"502", 502}, {"503", 503}, {"504", 504},
			{"401", 401}, {"403", 403}, {"400", 400}, {"404", 404},
		} {
			if strings.Contains(errStr, "Error "+code.needle) || strings.Contains(errStr, "code "+code.needle) {
				return code.code
			}
		}
	}
	return 0
}

// isTransientNetworkError checks for network-level transient errors.
func isTransientNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && isTransientNetworkError(urlErr.Err) {
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary()
	}

	var syscallErr syscall.Errno
	if errors.As(err, &syscallErr) {
		switch syscallErr {
		case syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ETIMEDOUT:
			return true
		}
	}

	return false
}
