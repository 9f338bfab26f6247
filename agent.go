package reagent

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/reagent/llm"
)

const memoryStoreTimeout = 1 * time.Second

// Agent runs tasks autonomously: it plans a strategy, executes the ReAct
// loop against its tool registry and records the outcome in memory. One
// Agent is safe for sequential reuse; for concurrent runs use an
// Orchestrator with an agent factory.
type Agent struct {
	llm      llm.Client
	registry *Registry
	planner  *Planner
	executor *Executor
	memory   Memory
	logger   *slog.Logger
}

type agentConfig struct {
	tools           []Tool
	memory          Memory
	logger          *slog.Logger
	retryPolicy     llm.RetryPolicy
	plannerOptions  []PlannerOption
	executorOptions []ExecutorOption
}

// Option is the type for options of New.
type Option func(*agentConfig)

// WithTools registers the tools available to the agent. Tool names must be
// unique.
func WithTools(tools ...Tool) Option {
	return func(c *agentConfig) {
		c.tools = append(c.tools, tools...)
	}
}

// WithMemory attaches a memory store. Recalled entries inform planning and
// every run's outcome is stored, failures included.
func WithMemory(memory Memory) Option {
	return func(c *agentConfig) {
		c.memory = memory
	}
}

// WithLogger sets the logger for the agent. Logs are discarded by default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *agentConfig) {
		c.logger = logger
	}
}

// WithRetryPolicy overrides how transient completion-service failures are
// retried.
func WithRetryPolicy(policy llm.RetryPolicy) Option {
	return func(c *agentConfig) {
		c.retryPolicy = policy
	}
}

// WithPlannerOptions forwards options to the agent's planner.
func WithPlannerOptions(options ...PlannerOption) Option {
	return func(c *agentConfig) {
		c.plannerOptions = append(c.plannerOptions, options...)
	}
}

// WithExecutorOptions forwards options to the agent's executor.
func WithExecutorOptions(options ...ExecutorOption) Option {
	return func(c *agentConfig) {
		c.executorOptions = append(c.executorOptions, options...)
	}
}

// New creates an agent over the given completion client. It fails when the
// tool set is invalid, for example on a tool name conflict.
func New(client llm.Client, options ...Option) (*Agent, error) {
	cfg := agentConfig{
		logger:      defaultLogger,
		retryPolicy: llm.DefaultRetryPolicy(),
	}
	for _, opt := range options {
		opt(&cfg)
	}

	registry, err := NewRegistry(cfg.tools...)
	if err != nil {
		return nil, err
	}

	retryable := llm.WithRetry(client, cfg.retryPolicy)

	plannerOptions := cfg.plannerOptions
	if cfg.memory != nil {
		plannerOptions = append([]PlannerOption{WithPlannerMemory(cfg.memory)}, plannerOptions...)
	}

	return &Agent{
		llm:      retryable,
		registry: registry,
		planner:  NewPlanner(retryable, registry.Specs(), plannerOptions...),
		executor: NewExecutor(retryable, registry, cfg.executorOptions...),
		memory:   cfg.memory,
		logger:   cfg.logger,
	}, nil
}

// Execute runs the task to completion. An error is returned only for an
// invalid task; every execution outcome, including failed and budget-
// exhausted runs, is reported through the result and its trace.
func (a *Agent) Execute(ctx context.Context, task Task) (*AgentResult, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}
	constraints := task.Constraints.withDefaults()

	logger := a.logger.With("run_id", uuid.New().String())
	ctx = ctxWithLogger(ctx, logger)
	logger.Info("task started",
		"description", task.Description,
		"max_iterations", constraints.MaxIterations,
		"timeout", constraints.Timeout,
	)

	runCtx, cancel := context.WithTimeout(ctx, constraints.Timeout)
	defer cancel()

	startedAt := time.Now()
	strategy := a.planner.Plan(runCtx, task)
	trace, confidence := a.executor.Run(runCtx, task, strategy)

	result := &AgentResult{
		Answer:     trace.FinalAnswer,
		Confidence: confidence,
		Trace:      trace,
		ToolsUsed:  trace.ToolsUsed(),
		Elapsed:    time.Since(startedAt),
	}

	a.store(ctx, task, result)

	logger.Info("task finished",
		"terminal", trace.Terminal.String(),
		"confidence", confidence,
		"iterations", len(trace.Steps),
		"elapsed", result.Elapsed,
	)
	return result, nil
}

// store records the run in memory. It runs even when the task deadline has
// expired, with its own short budget, and failures are only logged: memory
// is an optimization, never a reason to fail a finished run.
func (a *Agent) store(ctx context.Context, task Task, result *AgentResult) {
	if a.memory == nil {
		return
	}

	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), memoryStoreTimeout)
	defer cancel()

	if err := a.memory.Store(storeCtx, task, result); err != nil {
		LoggerFromContext(ctx).Warn("failed to store run in memory", "error", err)
	}
}

// Registry exposes the agent's tool registry, mainly for inspection.
func (a *Agent) Registry() *Registry {
	return a.registry
}
