package reagent

import (
	"context"
	"errors"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultConcurrency is the number of tasks an orchestrator runs at once
// when not configured otherwise.
const DefaultConcurrency = 4

// Orchestrator runs many tasks concurrently, each on its own agent so that
// no executor state is shared between runs. A shared memory store, if the
// factory wires one in, is the only cross-run resource.
type Orchestrator struct {
	factory     func() (*Agent, error)
	concurrency int
}

// OrchestratorOption is the type for options of NewOrchestrator.
type OrchestratorOption func(*Orchestrator)

// WithConcurrency bounds how many tasks run at the same time.
func WithConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.concurrency = n
	}
}

// NewOrchestrator creates an orchestrator. The factory is called once per
// task to build a fresh agent.
func NewOrchestrator(factory func() (*Agent, error), options ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		factory:     factory,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range options {
		opt(o)
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	return o
}

// ExecuteMany runs the tasks with bounded concurrency and returns results in
// task order. A failed task does not cancel its siblings; per-task errors
// are joined into the returned error, and the result slice has a nil slot
// for each failed task.
func (o *Orchestrator) ExecuteMany(ctx context.Context, tasks []Task) ([]*AgentResult, error) {
	results := make([]*AgentResult, len(tasks))
	taskErrs := make([]error, len(tasks))

	sem := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				taskErrs[i] = ctx.Err()
				return
			}

			agent, err := o.factory()
			if err != nil {
				taskErrs[i] = goerr.Wrap(err, "failed to build agent", goerr.V("task_index", i))
				return
			}

			result, err := agent.Execute(ctx, task)
			if err != nil {
				taskErrs[i] = goerr.Wrap(err, "task execution rejected", goerr.V("task_index", i))
				return
			}
			results[i] = result
		}(i, task)
	}

	wg.Wait()
	return results, errors.Join(taskErrs...)
}
