package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-workshop-api/internal/domain/entity"
)

func TestImageBatch_ZeroCountMakesNoCalls(t *testing.T) {
	client := newFakeIllustrationClient()
	gen := NewImageBatchGenerator(client)

	progressCalls := 0
	images, err := gen.Generate(context.Background(), entity.NewCredential("tok"), sampleDraft(0), func(int) { progressCalls++ })

	require.NoError(t, err)
	assert.NotNil(t, images)
	assert.Empty(t, images)
	assert.Zero(t, client.calls())
	assert.Zero(t, progressCalls)
}

func TestImageBatch_ProgressStrictlyIncreasing(t *testing.T) {
	client := newFakeIllustrationClient("u1", "u2", "u3", "u4")
	gen := NewImageBatchGenerator(client)

	var seen []int
	images, err := gen.Generate(context.Background(), entity.Credential{}, sampleDraft(4), func(n int) {
		// 回调发生在下一次请求之前
		assert.Equal(t, n, client.calls())
		seen = append(seen, n)
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, seen)
	assert.Equal(t, []string{"u1", "u2", "u3", "u4"}, images)
	require.Len(t, client.prompts, 4)
	assert.Contains(t, client.prompts[0], "illustration 1 of 4")
	assert.Contains(t, client.prompts[3], "illustration 4 of 4")
}

func TestImageBatch_FailureAbortsAtIndex(t *testing.T) {
	client := newFakeIllustrationClient("u1", "u2", "u3", "u4", "u5")
	client.failAt = 2
	client.err = &remoteErr{status: 500, body: `{"error":"quota"}`}
	gen := NewImageBatchGenerator(client)

	var seen []int
	images, err := gen.Generate(context.Background(), entity.Credential{}, sampleDraft(5), func(n int) { seen = append(seen, n) })

	assert.Nil(t, images)
	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, SourceImages, genErr.Source)
	assert.Equal(t, 2, genErr.Index)
	assert.Equal(t, 500, genErr.StatusCode)
	assert.Equal(t, `{"error":"quota"}`, genErr.Body)
	// 失败之后不再发起请求
	assert.Equal(t, 3, client.calls())
	assert.Equal(t, []int{1, 2}, seen)
}

func TestImageBatch_TransportErrorWrapped(t *testing.T) {
	client := newFakeIllustrationClient("u1")
	client.failAt = 0
	client.err = errTransport
	gen := NewImageBatchGenerator(client)

	_, err := gen.Generate(context.Background(), entity.Credential{}, sampleDraft(1), nil)

	assert.ErrorIs(t, err, errTransport)
	assert.Contains(t, err.Error(), "index 0")
}
