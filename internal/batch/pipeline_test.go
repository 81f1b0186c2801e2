package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	steps []string
	errs  []error
}

func (n *recordingNotifier) NotifyFailure(_ context.Context, step string, err error) {
	n.steps = append(n.steps, step)
	n.errs = append(n.errs, err)
}

func namedStep(name string, ran *[]string, err error) Step {
	return StepFunc{
		StepName: name,
		Fn: func(_ context.Context) error {
			*ran = append(*ran, name)
			return err
		},
	}
}

func TestPipelineRunsStepsInOrder(t *testing.T) {
	var ran []string
	notifier := &recordingNotifier{}

	pipeline := NewPipeline(notifier,
		namedStep("connect", &ran, nil),
		namedStep("summaries", &ran, nil),
		namedStep("quality", &ran, nil),
	)

	require.NoError(t, pipeline.Run(context.Background()))
	assert.Equal(t, []string{"connect", "summaries", "quality"}, ran)
	assert.Empty(t, notifier.steps)
}

func TestPipelineStopsAtFirstFailure(t *testing.T) {
	var ran []string
	notifier := &recordingNotifier{}
	boom := errors.New("connection refused")

	pipeline := NewPipeline(notifier,
		namedStep("connect", &ran, nil),
		namedStep("summaries", &ran, boom),
		namedStep("quality", &ran, nil),
	)

	err := pipeline.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "summaries")

	assert.Equal(t, []string{"connect", "summaries"}, ran, "later steps are skipped")
	assert.Equal(t, []string{"summaries"}, notifier.steps, "notifier fires once for the failed step")
	require.Len(t, notifier.errs, 1)
	assert.ErrorIs(t, notifier.errs[0], boom)
}

func TestPipelineWithoutNotifier(t *testing.T) {
	var ran []string
	pipeline := NewPipeline(nil, namedStep("connect", &ran, errors.New("down")))

	assert.Error(t, pipeline.Run(context.Background()))
}

func TestPipelineEmpty(t *testing.T) {
	assert.NoError(t, NewPipeline(nil).Run(context.Background()))
}
