// Package analyzer turns a raw query into an Intent, preferring structured
// extraction and falling back to a local parser.
package analyzer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/urbansearch/internal/domain/search/intent"
	"github.com/kailas-cloud/urbansearch/internal/metrics"
)

// Extractor performs structured intent extraction (e.g. an LLM in JSON mode).
type Extractor interface {
	Extract(ctx context.Context, query string) (intent.Intent, error)
}

// Fallback reasons recorded in metrics and logs.
const (
	reasonOK            = "ok"
	reasonNotConfigured = "not_configured"
	reasonRateLimited   = "rate_limited"
	reasonTimeout       = "timeout"
	reasonError         = "error"
)

// Analyzer never fails: every extraction problem ends in the local parser.
type Analyzer struct {
	extractor Extractor
	limiter   *rate.Limiter
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates an Analyzer. extractor may be nil; ratePerSec <= 0 disables
// rate limiting.
func New(extractor Extractor, ratePerSec float64, burst int, timeout time.Duration, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Analyzer{extractor: extractor, timeout: timeout, logger: logger}
	if ratePerSec > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(ratePerSec), max(burst, 1))
	}
	return a
}

// Analyze returns the structured reading of query.
func (a *Analyzer) Analyze(ctx context.Context, query string) intent.Intent {
	if a.extractor == nil {
		return a.fallback(query, reasonNotConfigured, nil)
	}
	if a.limiter != nil && !a.limiter.Allow() {
		return a.fallback(query, reasonRateLimited, nil)
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	in, err := a.extractor.Extract(ctx, query)
	if err != nil {
		reason := reasonError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = reasonTimeout
		}
		return a.fallback(query, reason, err)
	}

	metrics.AnalyzerSourceTotal.WithLabelValues(string(intent.SourceAI), reasonOK).Inc()
	return in
}

func (a *Analyzer) fallback(query, reason string, err error) intent.Intent {
	metrics.AnalyzerSourceTotal.WithLabelValues(string(intent.SourceFallback), reason).Inc()
	if err != nil {
		a.logger.Warn("Intent extraction failed, using local parser",
			zap.String("reason", reason), zap.Error(err))
	} else if reason != reasonNotConfigured {
		a.logger.Debug("Intent extraction skipped", zap.String("reason", reason))
	}
	return ParseFallback(query)
}

// HealthCheck reports extractor availability when it supports it.
func (a *Analyzer) HealthCheck(ctx context.Context) error {
	if a.extractor == nil {
		return nil
	}
	if hc, ok := a.extractor.(interface{ HealthCheck(context.Context) error }); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

// Enabled reports whether structured extraction is configured.
func (a *Analyzer) Enabled() bool { return a.extractor != nil }
