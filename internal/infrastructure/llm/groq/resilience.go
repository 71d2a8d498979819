package groq

import (
	"context"
	"errors"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/abelyaev/cv-match/internal/infrastructure/resilience"
)

func classifyGroqError(err error) resilience.Verdict {
	if err == nil {
		return resilience.Verdict{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Verdict{}
	}
	if resilience.BreakerOpen(err) {
		return resilience.Verdict{Retry: true}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if retryableHTTPStatus(apiErr.HTTPStatusCode) {
			return resilience.Verdict{Retry: true, Trip: true}
		}
		return resilience.Verdict{}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == 0 || retryableHTTPStatus(reqErr.HTTPStatusCode) {
			return resilience.Verdict{Retry: true, Trip: true}
		}
		return resilience.Verdict{}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.Verdict{Retry: true, Trip: true}
	}

	return resilience.Verdict{Trip: true}
}

func retryableHTTPStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
