package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-workshop-api/internal/domain/entity"
)

func TestTextGenerator_StatusTwiceOnSuccess(t *testing.T) {
	client := &fakeChapterClient{chapters: []entity.Chapter{{Title: "Ch1", Text: "..."}, {Title: "Ch2", Text: "..."}}}
	gen := NewTextGenerator(client)

	var statuses []entity.TextStatus
	chapters, err := gen.Generate(context.Background(), entity.Credential{}, sampleDraft(0), func(s entity.TextStatus) {
		statuses = append(statuses, s)
	})

	require.NoError(t, err)
	assert.Len(t, chapters, 2)
	assert.Equal(t, []entity.TextStatus{
		{State: entity.TextPending},
		{State: entity.TextDone, Chapters: 2},
	}, statuses)
}

func TestTextGenerator_ErrorKeepsBody(t *testing.T) {
	client := &fakeChapterClient{err: &remoteErr{status: 502, body: "<html>bad gateway</html>"}}
	gen := NewTextGenerator(client)

	var statuses []entity.TextStatus
	_, err := gen.Generate(context.Background(), entity.Credential{}, sampleDraft(0), func(s entity.TextStatus) {
		statuses = append(statuses, s)
	})

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, SourceText, genErr.Source)
	assert.Equal(t, 502, genErr.StatusCode)
	assert.Equal(t, "<html>bad gateway</html>", genErr.Body)
	require.Len(t, statuses, 2)
	assert.Equal(t, entity.TextError, statuses[1].State)
}

func TestTextGenerator_MissingChaptersIsFailure(t *testing.T) {
	gen := NewTextGenerator(&fakeChapterClient{})

	_, err := gen.Generate(context.Background(), entity.Credential{}, sampleDraft(0), nil)

	assert.ErrorIs(t, err, ErrNoChapters)
}
