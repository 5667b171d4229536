package async

import (
	"context"
	"sync"
)

// Task is one named unit of work executed by a Pool.
type Task struct {
	Name string
	Run  func() (interface{}, error)
}

// Result carries one task's outcome, keyed by the task name.
type Result struct {
	Name string
	Data interface{}
	Err  error
}

// Pool fans tasks out over a fixed number of workers.
type Pool struct {
	workers int
}

func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Execute runs all tasks and returns their results keyed by task name. When
// ctx is cancelled it returns early with whatever results were collected,
// which callers can detect by comparing the map size against len(tasks).
func (p *Pool) Execute(ctx context.Context, tasks []Task) map[string]Result {
	taskCh := make(chan Task)
	resultCh := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskCh {
				data, err := task.Run()
				resultCh <- Result{Name: task.Name, Data: data, Err: err}
			}
		}()
	}

	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make(map[string]Result, len(tasks))
	for {
		select {
		case result, ok := <-resultCh:
			if !ok {
				return results
			}
			results[result.Name] = result
		case <-ctx.Done():
			return results
		}
	}
}
