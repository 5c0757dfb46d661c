package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure; search still answers.
	Degraded Status = "degraded"
	// Unhealthy indicates search cannot answer.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckDisabled indicates an unconfigured optional provider.
	CheckDisabled CheckResult = "disabled"
)

// Component names.
const (
	ComponentCorpus     = "corpus"
	ComponentEmbedding  = "embedding"
	ComponentExtraction = "extraction"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	corpus     Pinger
	snapshots  SnapshotState
	embedding  Checker
	extraction Checker
}

// New creates a Service. snapshots, embedding and extraction can be nil.
func New(corpus Pinger, snapshots SnapshotState, embedding, extraction Checker) *Service {
	return &Service{corpus: corpus, snapshots: snapshots, embedding: embedding, extraction: extraction}
}

// Check runs health checks against all components. A corpus store failure is
// only fatal when no snapshot has been loaded; provider failures degrade.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 3)
	status := Healthy

	if err := s.corpus.Ping(ctx); err != nil {
		checks[ComponentCorpus] = CheckError
		if s.snapshots != nil && s.snapshots.Loaded() {
			status = Degraded
		} else {
			status = Unhealthy
		}
	} else {
		checks[ComponentCorpus] = CheckOK
	}

	for name, c := range map[string]Checker{ComponentEmbedding: s.embedding, ComponentExtraction: s.extraction} {
		switch {
		case c == nil:
			checks[name] = CheckDisabled
		case c.HealthCheck(ctx) != nil:
			checks[name] = CheckError
			if status == Healthy {
				status = Degraded
			}
		default:
			checks[name] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
