package task

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

var (
	ErrRouterClosed    = errors.New("task router closed")
	ErrUnknownTaskType = errors.New("unknown task type")
)

// TaskHandler is a function that processes a task payload.
type TaskHandler func(ctx context.Context, payload any) error

// Task encapsulates the work to be executed by the router.
type Task struct {
	Type    string
	Payload any
}

// RouterConfig configures the TaskRouter behavior.
type RouterConfig struct {
	// MaxAttempts is how many times a failing task runs before it is dropped.
	MaxAttempts int

	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// QueueSize bounds tasks waiting for the worker.
	QueueSize int

	Logger *slog.Logger
}

// Defaults returns the configuration used for zero-valued fields.
func Defaults() RouterConfig {
	return RouterConfig{
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     time.Minute,
		QueueSize:      16,
	}
}

// TaskRouter runs background tasks one at a time, retrying failures with
// exponential backoff. Handlers receive a context that is cancelled by Close.
type TaskRouter struct {
	mu       sync.RWMutex
	handlers map[string]TaskHandler
	closed   bool

	cfg    RouterConfig
	logger *slog.Logger
	queue  chan enqueuedTask

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once

	randMutex sync.Mutex
	rnd       *rand.Rand
}

type enqueuedTask struct {
	task    Task
	attempt int
}

// NewRouter creates a new TaskRouter with the provided configuration.
func NewRouter(cfg RouterConfig) *TaskRouter {
	def := Defaults()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	tr := &TaskRouter{
		handlers: make(map[string]TaskHandler),
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "tasks")),
		queue:    make(chan enqueuedTask, cfg.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	tr.wg.Add(1)
	go tr.loop()
	return tr
}

// RegisterHandler registers a handler for the given task type.
func (tr *TaskRouter) RegisterHandler(taskType string, handler TaskHandler) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.handlers[taskType] = handler
}

// Dispatch enqueues a task. It blocks while the queue is full until ctx is
// done or the router closes.
func (tr *TaskRouter) Dispatch(ctx context.Context, t Task) error {
	tr.mu.RLock()
	closed := tr.closed
	_, ok := tr.handlers[t.Type]
	tr.mu.RUnlock()

	if closed {
		return ErrRouterClosed
	}
	if !ok {
		return ErrUnknownTaskType
	}
	return tr.enqueue(ctx, enqueuedTask{task: t, attempt: 1})
}

func (tr *TaskRouter) enqueue(ctx context.Context, et enqueuedTask) error {
	select {
	case tr.queue <- et:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-tr.ctx.Done():
		return ErrRouterClosed
	}
}

// ScheduleEvery dispatches t immediately and then every interval until the
// returned cancel function is called or the router closes.
func (tr *TaskRouter) ScheduleEvery(interval time.Duration, t Task) func() {
	ctx, cancel := context.WithCancel(tr.ctx)
	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if err := tr.Dispatch(ctx, t); err != nil && ctx.Err() == nil {
				tr.logger.Warn("Scheduled task not dispatched", slog.String("type", t.Type), slog.Any("error", err))
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return cancel
}

// Close cancels running handlers and waits for background goroutines to
// exit. Queued tasks are dropped.
func (tr *TaskRouter) Close() {
	tr.stopOnce.Do(func() {
		tr.mu.Lock()
		tr.closed = true
		tr.mu.Unlock()
		tr.cancel()
		tr.wg.Wait()
	})
}

func (tr *TaskRouter) loop() {
	defer tr.wg.Done()
	for {
		select {
		case <-tr.ctx.Done():
			return
		case et := <-tr.queue:
			tr.execute(et)
		}
	}
}

func (tr *TaskRouter) execute(et enqueuedTask) {
	tr.mu.RLock()
	handler := tr.handlers[et.task.Type]
	tr.mu.RUnlock()
	if handler == nil {
		tr.logger.Warn("Task dropped (handler not registered)", slog.String("type", et.task.Type))
		return
	}

	err := handler(tr.ctx, et.task.Payload)
	if err == nil || tr.ctx.Err() != nil {
		return
	}

	if et.attempt >= tr.cfg.MaxAttempts {
		tr.logger.Error("Task failed; max attempts reached",
			slog.String("type", et.task.Type),
			slog.Int("attempts", et.attempt),
			slog.Any("error", err))
		return
	}

	delay := tr.computeBackoff(et.attempt)
	tr.logger.Warn("Task failed, scheduling retry",
		slog.String("type", et.task.Type),
		slog.Int("attempt", et.attempt+1),
		slog.Int("max_attempts", tr.cfg.MaxAttempts),
		slog.Duration("backoff", delay),
		slog.Any("error", err))

	et.attempt++
	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			_ = tr.enqueue(tr.ctx, et)
		case <-tr.ctx.Done():
		}
	}()
}

// computeBackoff returns initial * 2^(attempt-1) with 10% jitter, clamped to
// [InitialBackoff, MaxBackoff].
func (tr *TaskRouter) computeBackoff(attempt int) time.Duration {
	backoff := tr.cfg.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff >= tr.cfg.MaxBackoff {
			backoff = tr.cfg.MaxBackoff
			break
		}
	}
	return clampDuration(backoff+tr.jitter(backoff, 0.1), tr.cfg.InitialBackoff, tr.cfg.MaxBackoff)
}

func (tr *TaskRouter) jitter(d time.Duration, ratio float64) time.Duration {
	delta := int64(float64(d) * ratio)
	if delta <= 0 {
		return 0
	}
	tr.randMutex.Lock()
	defer tr.randMutex.Unlock()
	return time.Duration(tr.rnd.Int63n(2*delta+1) - delta)
}

func clampDuration(v, lo, hi time.Duration) time.Duration {
	return max(min(v, hi), lo)
}
