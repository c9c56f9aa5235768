package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestClassifyAPIErrors(t *testing.T) {
	tests := []struct {
		status int
		want   Cause
	}{
		{401, CauseAuth},
		{403, CauseAuth},
		{429, CauseRateLimit},
		{500, CauseServer},
		{503, CauseServer},
		{418, CauseUnknown},
	}
	for _, tt := range tests {
		err := fmt.Errorf("upstream: %w", &openai.APIError{HTTPStatusCode: tt.status})
		assert.Equal(t, tt.want, Classify(err), "status %d", tt.status)
	}
}

func TestClassifyRequestError(t *testing.T) {
	err := &openai.RequestError{HTTPStatusCode: 429, Err: errors.New("too many requests")}
	assert.Equal(t, CauseRateLimit, Classify(err))
}

func TestClassifyTimeouts(t *testing.T) {
	assert.Equal(t, CauseTimeout, Classify(context.DeadlineExceeded))
	assert.Equal(t, CauseTimeout, Classify(fmt.Errorf("recv: %w", context.DeadlineExceeded)))
}

func TestClassifyNetworkErrors(t *testing.T) {
	assert.Equal(t, CauseNetwork, Classify(&url.Error{Op: "Post", URL: "https://api.deepseek.com", Err: errors.New("connection reset")}))
	assert.Equal(t, CauseNetwork, Classify(&net.DNSError{Err: "no such host", Name: "api.deepseek.com"}))
	assert.Equal(t, CauseNetwork, Classify(&net.OpError{Op: "dial", Err: errors.New("refused")}))
}

func TestClassifyMessageFallback(t *testing.T) {
	assert.Equal(t, CauseTimeout, Classify(errors.New("client timeout exceeded")))
	assert.Equal(t, CauseNetwork, Classify(errors.New("dial tcp: connection refused")))
	assert.Equal(t, CauseAuth, Classify(errors.New("invalid api key provided")))
	assert.Equal(t, CauseUnknown, Classify(errors.New("something odd")))
	assert.Equal(t, CauseUnknown, Classify(nil))
}

func TestCauseCode(t *testing.T) {
	assert.Equal(t, "DEEPSEEK_TIMEOUT", CauseTimeout.Code("DEEPSEEK"))
	assert.Equal(t, "SPRITE_AUTH_FAIL", CauseAuth.Code("SPRITE"))
	// Unclassified failures do not carry the endpoint prefix.
	assert.Equal(t, "UNKNOWN_ERROR", CauseUnknown.Code("DEEPSEEK"))
}

func TestCauseMessageNeverEmpty(t *testing.T) {
	for _, c := range []Cause{CauseNetwork, CauseTimeout, CauseAuth, CauseRateLimit, CauseServer, CauseUnknown} {
		assert.NotEmpty(t, c.Message())
	}
}
