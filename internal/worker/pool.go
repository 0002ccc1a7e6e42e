package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Task is one unit of pool work, keyed by content ID
type Task struct {
	ContentID string
}

// Result is the outcome of one task
type Result struct {
	ContentID string
	Err       error
}

// Runner executes one content ID; the pipeline orchestrator satisfies it
type Runner interface {
	Run(ctx context.Context, contentID string) error
}

// Pool fans content IDs out over a fixed set of workers. Results preserve
// no ordering; callers that care collect and sort.
type Pool struct {
	runner  Runner
	workers int
	logger  *zap.Logger
}

// NewPool creates a worker pool with the given parallelism
func NewPool(runner Runner, workers int, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{runner: runner, workers: workers, logger: logger}
}

// Process runs all tasks and returns one result per task. Individual task
// failures are reported in their result, never aborting the batch;
// context cancellation drains the remaining tasks as canceled.
func (p *Pool) Process(ctx context.Context, tasks []Task) []Result {
	taskCh := make(chan Task)
	resultCh := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for task := range taskCh {
				if err := ctx.Err(); err != nil {
					resultCh <- Result{ContentID: task.ContentID, Err: err}
					continue
				}
				err := p.runner.Run(ctx, task.ContentID)
				if err != nil {
					p.logger.Warn("task failed",
						zap.Int("worker", worker),
						zap.String("content_id", task.ContentID),
						zap.Error(err))
				}
				resultCh <- Result{ContentID: task.ContentID, Err: err}
			}
		}(i)
	}

	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				// Push remaining tasks through so every task gets a result
				resultCh <- Result{ContentID: task.ContentID, Err: ctx.Err()}
			}
		}
	}()

	results := make([]Result, 0, len(tasks))
	for i := 0; i < len(tasks); i++ {
		results = append(results, <-resultCh)
	}
	wg.Wait()
	return results
}
