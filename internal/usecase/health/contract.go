package health

import "context"

// Pinger checks corpus store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker checks an upstream provider (embedding, extraction).
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// SnapshotState reports whether a corpus snapshot has been loaded.
type SnapshotState interface {
	Loaded() bool
}
