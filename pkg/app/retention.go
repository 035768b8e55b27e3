package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/small-frappuccino/nicknamebot/pkg/task"
)

const pruneAuditTask = "audit.prune"

type auditPruner interface {
	PruneNicknameChanges(ctx context.Context, cutoff time.Time) (int64, error)
}

// startAuditRetention deletes audit rows older than retention, once at
// startup and then every interval. The caller closes the returned router.
func startAuditRetention(store auditPruner, retention, interval time.Duration, logger *slog.Logger) *task.TaskRouter {
	router := task.NewRouter(task.RouterConfig{Logger: logger})
	router.RegisterHandler(pruneAuditTask, func(ctx context.Context, _ any) error {
		cutoff := time.Now().Add(-retention)
		n, err := store.PruneNicknameChanges(ctx, cutoff)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("Pruned audit entries",
				slog.Int64("deleted", n),
				slog.Time("cutoff", cutoff))
		}
		return nil
	})
	router.ScheduleEvery(interval, task.Task{Type: pruneAuditTask})
	return router
}
