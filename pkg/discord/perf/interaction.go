package perf

import (
	"log/slog"
	"strings"
	"time"
)

// DefaultSlowThreshold leaves headroom under Discord's three second window
// for the initial interaction response.
const DefaultSlowThreshold = 2 * time.Second

// Tracker logs interaction handlers that run longer than Threshold.
// A zero or negative threshold disables tracking.
type Tracker struct {
	Threshold time.Duration

	now func() time.Time
}

// NewTracker returns a tracker with the given threshold.
func NewTracker(threshold time.Duration) *Tracker {
	return &Tracker{Threshold: threshold, now: time.Now}
}

// Start tracks how long a handler takes and logs only when slow. Call the
// returned function when the handler returns.
func (t *Tracker) Start(logger *slog.Logger, event string, attrs ...slog.Attr) func() {
	if t == nil || t.Threshold <= 0 {
		return func() {}
	}
	if logger == nil {
		logger = slog.Default()
	}
	now := t.now
	if now == nil {
		now = time.Now
	}

	start := now()
	return func() {
		duration := now().Sub(start)
		if duration < t.Threshold {
			return
		}
		name := strings.TrimSpace(event)
		if name == "" {
			name = "unknown"
		}
		args := make([]any, 0, len(attrs)+3)
		args = append(args,
			slog.String("event", name),
			slog.Duration("duration", duration),
			slog.Int64("duration_ms", duration.Milliseconds()),
		)
		for _, attr := range attrs {
			args = append(args, attr)
		}
		logger.Warn("Slow interaction handler", args...)
	}
}
