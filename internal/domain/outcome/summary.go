package outcome

import "time"

// Status is the load state of a catalog group.
type Status string

// Group load states.
const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusReady     Status = "ready"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Summary describes one load cycle of a group.
type Summary struct {
	LoadID     string             `json:"load_id"`
	Group      string             `json:"group"`
	Kind       string             `json:"kind"`
	Status     Status             `json:"status"`
	Records    int                `json:"records"`
	Items      int                `json:"items"`
	Skipped    map[SkipReason]int `json:"skipped,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at,omitzero"`
	Error      string             `json:"error,omitempty"`
}

// Add counts one record outcome.
func (s *Summary) Add(r Result) {
	s.Records++
	if !r.Skipped() {
		s.Items++
		return
	}
	if s.Skipped == nil {
		s.Skipped = make(map[SkipReason]int)
	}
	s.Skipped[r.Reason()]++
}

// SkippedTotal returns the number of skipped records.
func (s *Summary) SkippedTotal() int {
	n := 0
	for _, c := range s.Skipped {
		n += c
	}
	return n
}

// Duration returns the load duration, zero while the load is running.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Finish stamps the end of the load and derives its final status from err.
func (s *Summary) Finish(now time.Time, err error, cancelled bool) {
	s.FinishedAt = now
	switch {
	case cancelled:
		s.Status = StatusCancelled
	case err != nil:
		s.Status = StatusFailed
	default:
		s.Status = StatusReady
	}
	if err != nil && !cancelled {
		s.Error = err.Error()
	}
}

// Terminal reports whether the status ends a load.
func (st Status) Terminal() bool {
	return st == StatusReady || st == StatusFailed || st == StatusCancelled
}
