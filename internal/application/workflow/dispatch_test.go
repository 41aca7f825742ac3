package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-workshop-api/internal/application/generation"
	"book-workshop-api/internal/domain/entity"
)

func TestInlineDispatcher_RunsDetachedFromRequest(t *testing.T) {
	f := newFixture(generation.PolicyReject)
	d := NewInlineDispatcher(f.wf)

	ctx, cancel := context.WithCancel(context.Background())
	task, err := f.wf.Submit(ctx, f.cred, validDraft(), "")
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(ctx, f.cred, task))
	cancel()
	d.Wait()

	got, err := f.wf.Get(context.Background(), f.cred, task.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TaskStatusCompleted, got.Status)
	assert.Equal(t, "55", got.BookID)
}

func TestExecute_RunsPendingTaskOnce(t *testing.T) {
	f := newFixture(generation.PolicyReject)
	ctx := context.Background()

	task, err := f.wf.Submit(ctx, f.cred, validDraft(), "")
	require.NoError(t, err)

	require.NoError(t, f.wf.Execute(ctx, f.cred, task.ID))
	require.NoError(t, f.wf.Execute(ctx, f.cred, task.ID))
	assert.Equal(t, 1, f.committer.calls, "redelivered message must not regenerate")
	assert.Equal(t, 1, f.images.calls)
}

func TestExecute_GenerationFailureIsRecordedNotReturned(t *testing.T) {
	f := newFixture(generation.PolicyReject)
	f.text.err = errors.New("upstream down")
	ctx := context.Background()

	task, err := f.wf.Submit(ctx, f.cred, validDraft(), "")
	require.NoError(t, err)
	require.NoError(t, f.wf.Execute(ctx, f.cred, task.ID))

	got, err := f.wf.Get(ctx, f.cred, task.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TaskStatusFailed, got.Status)
	assert.Equal(t, entity.StageText, got.FailedStage)
}

func TestExecute_UnknownTask(t *testing.T) {
	f := newFixture(generation.PolicyReject)
	err := f.wf.Execute(context.Background(), f.cred, "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
