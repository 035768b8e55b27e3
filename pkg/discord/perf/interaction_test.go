package perf

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fakeClock(steps ...time.Duration) func() time.Time {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	i := 0
	return func() time.Time {
		t := base
		if i < len(steps) {
			t = base.Add(steps[i])
		}
		i++
		return t
	}
}

func TestTrackerLogsOnlySlowHandlers(t *testing.T) {
	cases := []struct {
		name    string
		elapsed time.Duration
		logged  bool
	}{
		{"fast", 100 * time.Millisecond, false},
		{"at threshold", time.Second, true},
		{"slow", 2500 * time.Millisecond, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			tr := &Tracker{Threshold: time.Second, now: fakeClock(0, tc.elapsed)}

			done := tr.Start(logger, "/nick", slog.String("guild_id", "1"))
			done()

			if !tc.logged {
				assert.Empty(t, buf.String())
				return
			}
			out := buf.String()
			assert.Contains(t, out, `"msg":"Slow interaction handler"`)
			assert.Contains(t, out, `"event":"/nick"`)
			assert.Contains(t, out, `"guild_id":"1"`)
		})
	}
}

func TestTrackerDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var nilTracker *Tracker
	nilTracker.Start(logger, "x")()

	tr := &Tracker{Threshold: 0, now: fakeClock(0, time.Hour)}
	tr.Start(logger, "x")()

	assert.Empty(t, buf.String())
}

func TestTrackerBlankEventName(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	tr := &Tracker{Threshold: time.Millisecond, now: fakeClock(0, time.Second)}

	tr.Start(logger, "  ")()

	assert.Contains(t, buf.String(), `"event":"unknown"`)
}
