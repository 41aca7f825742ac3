package commit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-workshop-api/internal/application/generation"
	"book-workshop-api/internal/domain/entity"
	"book-workshop-api/pkg/logger"
)

type fakeBooksClient struct {
	creates []*entity.PersistedBook
	updates []*entity.PersistedBook
	deletes []string
	books   []*entity.PersistedBook
	err     error
}

func (f *fakeBooksClient) CreateBook(_ context.Context, _ entity.Credential, b *entity.PersistedBook) (string, error) {
	f.creates = append(f.creates, b)
	if f.err != nil {
		return "", f.err
	}
	return "101", nil
}

func (f *fakeBooksClient) UpdateBook(_ context.Context, _ entity.Credential, b *entity.PersistedBook) (string, error) {
	f.updates = append(f.updates, b)
	if f.err != nil {
		return "", f.err
	}
	return b.ID, nil
}

func (f *fakeBooksClient) ListBooks(context.Context, entity.Credential) ([]*entity.PersistedBook, error) {
	return f.books, f.err
}

func (f *fakeBooksClient) DeleteBook(_ context.Context, _ entity.Credential, id string) error {
	f.deletes = append(f.deletes, id)
	return f.err
}

type serverErr struct{}

func (serverErr) Error() string         { return "status 500" }
func (serverErr) HTTPStatus() int       { return 500 }
func (serverErr) ResponseBody() string  { return `{"error":"disk full"}` }
func (serverErr) ServerMessage() string { return "disk full" }

func draft() *entity.BookDraft {
	return &entity.BookDraft{
		Title:  "T",
		Genres: []string{"fantasy"},
		Idea:   "I",
		Illustrations: entity.IllustrationSettings{
			Count:       2,
			Style:       "watercolor",
			ColorScheme: "warm",
			Mood:        "calm",
		},
	}
}

func TestBuildPayload_OrdersIllustrationsFromOne(t *testing.T) {
	chapters := []entity.Chapter{{Title: "Ch1", Text: "..."}}
	p := BuildPayload(draft(), []string{"u1", "u2"}, chapters)

	assert.Equal(t, "T", p.Title)
	assert.Equal(t, []string{"fantasy"}, p.Genres)
	assert.Equal(t, chapters, p.Chapters)
	assert.Equal(t, []entity.Illustration{
		{ImageURL: "u1", Style: "watercolor", ColorScheme: "warm", Mood: "calm", Order: 1},
		{ImageURL: "u2", Style: "watercolor", ColorScheme: "warm", Mood: "calm", Order: 2},
	}, p.Illustrations)
	assert.Empty(t, p.ID)
}

func TestSave_CreateWithoutExistingID(t *testing.T) {
	client := &fakeBooksClient{}
	svc := NewService(client)

	id, err := svc.Save(context.Background(), entity.NewCredential("tok"), draft(), []string{"u1"}, nil, "")

	require.NoError(t, err)
	assert.Equal(t, "101", id)
	assert.Len(t, client.creates, 1)
	assert.Empty(t, client.updates)
}

func TestSave_UpdateTwiceIssuesTwoCalls(t *testing.T) {
	client := &fakeBooksClient{}
	svc := NewService(client)
	cred := entity.NewCredential("tok")
	images := []string{"u1", "u2"}
	chapters := []entity.Chapter{{Title: "Ch1"}}

	for i := 0; i < 2; i++ {
		id, err := svc.Save(context.Background(), cred, draft(), images, chapters, "7")
		require.NoError(t, err)
		assert.Equal(t, "7", id)
	}

	// 没有幂等去重
	require.Len(t, client.updates, 2)
	assert.Equal(t, client.updates[0], client.updates[1])
	assert.Equal(t, "7", client.updates[0].ID)
	assert.Empty(t, client.creates)
}

func TestSave_MissingCredentialMakesNoCall(t *testing.T) {
	client := &fakeBooksClient{}
	svc := NewService(client)

	_, err := svc.Save(context.Background(), entity.Credential{}, draft(), nil, nil, "")

	var perr *generation.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.ErrorIs(t, err, generation.ErrCredentialMissing)
	assert.Empty(t, client.creates)
}

func TestSave_ServerMessageSurfaced(t *testing.T) {
	client := &fakeBooksClient{err: serverErr{}}
	svc := NewService(client)

	_, err := svc.Save(context.Background(), entity.NewCredential("tok"), draft(), nil, nil, "")

	var perr *generation.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, OpCreate, perr.Op)
	assert.Equal(t, 500, perr.StatusCode)
	assert.Equal(t, "disk full", perr.Message)
	assert.Contains(t, err.Error(), "disk full")
	// 不重试
	assert.Len(t, client.creates, 1)
}

func TestGetAndDelete(t *testing.T) {
	client := &fakeBooksClient{books: []*entity.PersistedBook{{ID: "1", Title: "A"}, {ID: "2", Title: "B"}}}
	svc := NewService(client)
	cred := entity.NewCredential("tok")

	b, err := svc.Get(context.Background(), cred, "2")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "B", b.Title)

	b, err = svc.Get(context.Background(), cred, "9")
	require.NoError(t, err)
	assert.Nil(t, b)

	require.NoError(t, svc.Delete(context.Background(), cred, "1"))
	assert.Equal(t, []string{"1"}, client.deletes)

	err = svc.Delete(context.Background(), entity.Credential{}, "1")
	assert.ErrorIs(t, err, generation.ErrCredentialMissing)
}

func TestLogsCarryBookID(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, "debug", "json")
	t.Cleanup(func() { logger.InitWithWriter(io.Discard, "info", "json") })

	client := &fakeBooksClient{}
	svc := NewService(client)
	cred := entity.NewCredential("tok")

	_, err := svc.Save(context.Background(), cred, draft(), []string{"a"}, nil, "")
	require.NoError(t, err)
	client.err = serverErr{}
	_, err = svc.Save(context.Background(), cred, draft(), []string{"a"}, nil, "7")
	require.Error(t, err)
	require.Error(t, svc.Delete(context.Background(), cred, "8"))

	var got []string
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var line map[string]any
		require.NoError(t, json.Unmarshal([]byte(raw), &line))
		got = append(got, line["msg"].(string)+"="+line["book_id"].(string))
	}
	assert.Equal(t, []string{"book committed=101", "book commit failed=7", "book delete failed=8"}, got)
}
