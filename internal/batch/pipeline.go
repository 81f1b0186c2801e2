package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Step is one unit of the daily job
type Step interface {
	Name() string
	Run(ctx context.Context) error
}

// StepFunc adapts a function to the Step interface
type StepFunc struct {
	StepName string
	Fn       func(ctx context.Context) error
}

func (s StepFunc) Name() string { return s.StepName }

func (s StepFunc) Run(ctx context.Context) error { return s.Fn(ctx) }

// FailureNotifier is told when a pipeline step fails
type FailureNotifier interface {
	NotifyFailure(ctx context.Context, step string, err error)
}

// Pipeline runs batch steps in order, stopping at the first failure.
// The notifier fires once, for the step that failed.
type Pipeline struct {
	steps    []Step
	notifier FailureNotifier
}

// NewPipeline creates a pipeline over the given steps
func NewPipeline(notifier FailureNotifier, steps ...Step) *Pipeline {
	return &Pipeline{steps: steps, notifier: notifier}
}

// Run executes the pipeline
func (p *Pipeline) Run(ctx context.Context) error {
	started := time.Now()
	log.Info().Int("steps", len(p.steps)).Msg("Starting batch pipeline")

	for _, step := range p.steps {
		stepStart := time.Now()
		if err := step.Run(ctx); err != nil {
			log.Error().
				Err(err).
				Str("step", step.Name()).
				Dur("elapsed", time.Since(stepStart)).
				Msg("Batch step failed")

			if p.notifier != nil {
				p.notifier.NotifyFailure(ctx, step.Name(), err)
			}
			return fmt.Errorf("step %s failed: %w", step.Name(), err)
		}

		log.Info().
			Str("step", step.Name()).
			Dur("elapsed", time.Since(stepStart)).
			Msg("Batch step complete")
	}

	log.Info().Dur("elapsed", time.Since(started)).Msg("Batch pipeline complete")
	return nil
}
