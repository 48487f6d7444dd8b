package task

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/cel-go/cel"
)

const defaultCELCostLimit = 1000

// CELEvaluator compiles and runs CEL expressions against run data, caching
// compiled programs across evaluations.
type CELEvaluator struct {
	env          *cel.Env
	costLimit    uint64
	programCache *ristretto.Cache[string, cel.Program]
}

type CELOption func(*CELEvaluator)

// WithCostLimit caps the evaluation cost of a single expression.
func WithCostLimit(limit uint64) CELOption {
	return func(e *CELEvaluator) { e.costLimit = limit }
}

func NewCELEvaluator(opts ...CELOption) (*CELEvaluator, error) {
	celEnv, err := cel.NewEnv(
		cel.Variable("env", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("args", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, cel.Program]{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program cache: %w", err)
	}
	evaluator := &CELEvaluator{
		env:          celEnv,
		costLimit:    defaultCELCostLimit,
		programCache: cache,
	}
	for _, opt := range opts {
		opt(evaluator)
	}
	return evaluator, nil
}

// Evaluate runs one expression against the given data and returns its
// native value.
func (e *CELEvaluator) Evaluate(ctx context.Context, expression string, data map[string]any) (any, error) {
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	out, _, err := program.ContextEval(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate expression %q: %w", expression, err)
	}
	return out.Value(), nil
}

func (e *CELEvaluator) program(expression string) (cel.Program, error) {
	if cached, ok := e.programCache.Get(expression); ok {
		return cached, nil
	}
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile expression %q: %w", expression, issues.Err())
	}
	program, err := e.env.Program(ast,
		cel.EvalOptions(cel.OptOptimize, cel.OptTrackCost),
		cel.CostLimit(e.costLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build program for expression %q: %w", expression, err)
	}
	e.programCache.Set(expression, program, 1)
	return program, nil
}
