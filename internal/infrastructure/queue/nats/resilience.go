package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/abelyaev/cv-match/internal/core/domain"
	"github.com/abelyaev/cv-match/internal/infrastructure/resilience"
)

func classifyNATSError(err error) resilience.Verdict {
	if err == nil {
		return resilience.Verdict{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Verdict{}
	}
	if resilience.BreakerOpen(err) {
		return resilience.Verdict{Retry: true}
	}
	if errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrDisconnected) {
		return resilience.Verdict{Retry: true, Trip: true}
	}

	return resilience.Verdict{Trip: true}
}

func wrapUnavailableIfNeeded(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrUnavailable) {
		return err
	}
	if classifyNATSError(err).Retry || resilience.BreakerOpen(err) {
		return domain.WrapError(domain.ErrUnavailable, "nats publish", err)
	}
	return err
}
