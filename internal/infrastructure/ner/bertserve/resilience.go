package bertserve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/abelyaev/cv-match/internal/infrastructure/resilience"
)

// HTTPStatusError is a non-2xx reply from the inference server. A cold
// model answers 503 while it loads, which stays retryable.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "ner status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("ner %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ner %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func classifyBertError(err error) resilience.Verdict {
	if err == nil {
		return resilience.Verdict{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Verdict{}
	}
	if resilience.BreakerOpen(err) {
		return resilience.Verdict{Retry: true}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
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

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
