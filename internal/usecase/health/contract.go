package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// GroupsChecker reports whether every catalog group's latest load succeeded.
type GroupsChecker interface {
	HealthCheck(ctx context.Context) error
}
