package embedding

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/urbansearch/internal/domain"
)

// Unavailability reasons reported in QueryEmbedding.Reason.
const (
	ReasonNotConfigured = "not_configured"
	ReasonRateLimited   = "rate_limited"
	ReasonTimeout       = "timeout"
	ReasonProviderError = "provider_error"
	ReasonEmptyVector   = "empty_vector"
	ReasonInvalidVector = "invalid_vector"
)

// Provider turns a query into a QueryEmbedding. Every failure is reported as
// an unavailable embedding, never as an error.
type Provider struct {
	embedder domain.Embedder
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   *zap.Logger
}

// NewProvider creates a query embedding provider. embedder may be nil when no
// provider is configured. ratePerSec <= 0 disables rate limiting; timeout <= 0
// relies on the caller's deadline.
func NewProvider(
	embedder domain.Embedder, ratePerSec float64, burst int, timeout time.Duration, logger *zap.Logger,
) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Provider{embedder: embedder, timeout: timeout, logger: logger}
	if ratePerSec > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(ratePerSec), max(burst, 1))
	}
	return p
}

// Enabled reports whether an embedder is configured.
func (p *Provider) Enabled() bool { return p.embedder != nil }

// Embed returns the query vector or the reason it is unavailable.
func (p *Provider) Embed(ctx context.Context, text string) domain.QueryEmbedding {
	if p.embedder == nil {
		return domain.Unavailable(ReasonNotConfigured)
	}
	if p.limiter != nil && !p.limiter.Allow() {
		p.logger.Debug("Embedding skipped by rate limiter")
		return domain.Unavailable(ReasonRateLimited)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	res, err := p.embedder.Embed(ctx, text)
	if err != nil {
		reason := ReasonProviderError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = ReasonTimeout
		}
		p.logger.Warn("Query embedding unavailable", zap.String("reason", reason), zap.Error(err))
		return domain.Unavailable(reason)
	}

	if len(res.Embedding) == 0 {
		return domain.Unavailable(ReasonEmptyVector)
	}
	for _, v := range res.Embedding {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return domain.Unavailable(ReasonInvalidVector)
		}
	}

	return domain.QueryEmbedding{Vector: res.Embedding, Available: true}
}

// HealthCheck delegates to the embedder when it supports it.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if p.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}
	if hc, ok := p.embedder.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
