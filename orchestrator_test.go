package reagent_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reagent"
)

func TestOrchestratorExecuteMany(t *testing.T) {
	client := &promptDrivenClient{}
	store := reagent.NewInMemoryStore()

	factory := func() (*reagent.Agent, error) {
		return reagent.New(client,
			reagent.WithTools(&echoTool{}),
			reagent.WithMemory(store),
		)
	}

	tasks := make([]reagent.Task, 5)
	for i := range tasks {
		tasks[i] = reagent.Task{Description: fmt.Sprintf("task number %d", i)}
	}

	orchestrator := reagent.NewOrchestrator(factory, reagent.WithConcurrency(2))
	results, err := orchestrator.ExecuteMany(context.Background(), tasks)

	gt.NoError(t, err)
	gt.A(t, results).Length(5)
	for _, result := range results {
		gt.True(t, result != nil)
		gt.True(t, result.Succeeded())
	}

	// Every run landed in the shared memory store.
	gt.Equal(t, 5, store.Len())
}

func TestOrchestratorConcurrencyBound(t *testing.T) {
	client := &promptDrivenClient{}

	factory := func() (*reagent.Agent, error) {
		return reagent.New(client)
	}

	tasks := make([]reagent.Task, 8)
	for i := range tasks {
		tasks[i] = reagent.Task{Description: fmt.Sprintf("bounded task %d", i)}
	}

	orchestrator := reagent.NewOrchestrator(factory, reagent.WithConcurrency(1))
	results, err := orchestrator.ExecuteMany(context.Background(), tasks)

	gt.NoError(t, err)
	gt.A(t, results).Length(8)
	gt.Equal(t, 1, client.maxSeen)
}

func TestOrchestratorPartialFailure(t *testing.T) {
	client := &promptDrivenClient{}

	factory := func() (*reagent.Agent, error) {
		return reagent.New(client)
	}

	tasks := []reagent.Task{
		{Description: "valid task"},
		{}, // invalid: no description
		{Description: "another valid task"},
	}

	orchestrator := reagent.NewOrchestrator(factory)
	results, err := orchestrator.ExecuteMany(context.Background(), tasks)

	gt.Error(t, err)
	gt.True(t, errors.Is(err, reagent.ErrInvalidTask))

	gt.A(t, results).Length(3)
	gt.True(t, results[0] != nil)
	gt.True(t, results[1] == nil)
	gt.True(t, results[2] != nil)
}
