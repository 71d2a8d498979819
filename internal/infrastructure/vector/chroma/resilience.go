package chroma

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/abelyaev/cv-match/internal/core/domain"
	"github.com/abelyaev/cv-match/internal/infrastructure/resilience"
)

// HTTPStatusError is a non-2xx reply from the Chroma server.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "chroma status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("chroma %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("chroma %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func classifyChromaError(err error) resilience.Verdict {
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

// wrapUnavailableIfNeeded marks transport-level failures as ErrUnavailable
// so the request can fail with a retry-later status.
func wrapUnavailableIfNeeded(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrUnavailable) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if classifyChromaError(err).Retry || resilience.BreakerOpen(err) {
		return domain.WrapError(domain.ErrUnavailable, operation, err)
	}
	return err
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
