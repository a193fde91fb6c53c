package pipeline

import (
	"context"
	"fmt"
)

// Step is one named unit of a pipeline operating on a shared value.
type Step[T any] struct {
	Name    string
	Execute func(ctx context.Context, v T) error
}

func NewStep[T any](name string, execute func(ctx context.Context, v T) error) Step[T] {
	return Step[T]{
		Name:    name,
		Execute: execute,
	}
}

// StepError reports which step stopped the pipeline.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed, pipeline errored: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Run executes steps in order and stops at the first failure.
// A cancelled context stops the pipeline before the next step starts.
func Run[T any](ctx context.Context, v T, steps ...Step[T]) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Step: step.Name, Err: err}
		}
		if err := step.Execute(ctx, v); err != nil {
			return &StepError{Step: step.Name, Err: err}
		}
	}
	return nil
}
