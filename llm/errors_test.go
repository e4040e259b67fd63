package llm

import (
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	campaigner "github.com/spetersoncode/campaigner"
)

type statusErr struct{ code int }

func (e *statusErr) Error() string   { return "api error" }
func (e *statusErr) StatusCode() int { return e.code }

func TestWrapError(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, WrapError("test", nil))
	})

	t.Run("categorized passes through unchanged", func(t *testing.T) {
		orig := campaigner.NewTransientError("already tagged", 429, nil)
		assert.Equal(t, error(orig), WrapError("test", orig))
	})

	t.Run("status codes", func(t *testing.T) {
		tests := []struct {
			code      int
			transient bool
		}{
			{429, true},
			{500, true},
			{529, true},
			{401, false},
			{400, false},
			{418, false},
		}
		for _, tt := range tests {
			err := WrapError("test", &statusErr{code: tt.code})
			assert.Equal(t, tt.transient, campaigner.IsTransient(err), "code %d", tt.code)
		}
	})

	t.Run("network timeout is transient", func(t *testing.T) {
		err := WrapError("test", &net.DNSError{IsTemporary: true})
		assert.True(t, campaigner.IsTransient(err))
	})

	t.Run("plain error is permanent", func(t *testing.T) {
		err := WrapError("test", errors.New("something else"))
		assert.True(t, campaigner.IsFatal(err))
	})
}

func TestCategorizeHTTPRetryAfter(t *testing.T) {
	err := CategorizeHTTP("test", 429, 30*time.Second, errors.New("rate limited"))
	assert.True(t, campaigner.IsTransient(err))
	assert.Equal(t, 30*time.Second, campaigner.RetryAfterOf(err))
	assert.Equal(t, 429, campaigner.StatusCodeOf(err))
}

func TestRetryAfterFromResponse(t *testing.T) {
	t.Run("seconds header", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{"Retry-After": []string{"15"}}}
		assert.Equal(t, 15*time.Second, RetryAfterFromResponse(resp))
	})

	t.Run("missing header", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{}}
		assert.Zero(t, RetryAfterFromResponse(resp))
	})

	t.Run("nil response", func(t *testing.T) {
		assert.Zero(t, RetryAfterFromResponse(nil))
	})
}
