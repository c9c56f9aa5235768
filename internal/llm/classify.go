package llm

import (
	"context"
	"errors"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Cause is the classified reason an upstream request failed. Combined with a
// per-endpoint prefix it yields the machine-readable code the UI receives.
type Cause string

const (
	CauseNetwork   Cause = "NETWORK_ERROR"
	CauseTimeout   Cause = "TIMEOUT"
	CauseAuth      Cause = "AUTH_FAIL"
	CauseRateLimit Cause = "RATE_LIMIT"
	CauseServer    Cause = "SERVER_ERROR"
	CauseUnknown   Cause = "UNKNOWN"
)

// Code renders the cause as an application error code with the endpoint
// family's prefix. Unclassified failures map to the unprefixed UNKNOWN_ERROR.
func (c Cause) Code(prefix string) string {
	if c == CauseUnknown {
		return "UNKNOWN_ERROR"
	}
	return prefix + "_" + string(c)
}

// Message returns the user-facing description for the cause.
func (c Cause) Message() string {
	switch c {
	case CauseNetwork:
		return "could not reach the model service, check the network connection"
	case CauseTimeout:
		return "the model took too long to respond, try again later"
	case CauseAuth:
		return "model authentication failed, contact the administrator"
	case CauseRateLimit:
		return "too many requests, try again later"
	case CauseServer:
		return "the model service is temporarily unavailable, try again later"
	default:
		return "internal server error"
	}
}

// Classify maps an upstream failure to its cause by inspecting the API error
// status, timeout state, and transport error kind.
func Classify(err error) Cause {
	if err == nil {
		return CauseUnknown
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return CauseTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CauseTimeout
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return CauseNetwork
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return CauseNetwork
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CauseNetwork
	}

	// The upstream SDK and proxies do not always surface structured errors;
	// fall back to matching on the message text.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return CauseTimeout
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"), strings.Contains(msg, "network"):
		return CauseNetwork
	case strings.Contains(msg, "api key"), strings.Contains(msg, "unauthorized"), strings.Contains(msg, "auth"):
		return CauseAuth
	}
	return CauseUnknown
}

func classifyStatus(status int) Cause {
	switch {
	case status == 401 || status == 403:
		return CauseAuth
	case status == 429:
		return CauseRateLimit
	case status >= 500:
		return CauseServer
	default:
		return CauseUnknown
	}
}
