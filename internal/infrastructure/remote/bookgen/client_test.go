package bookgen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-workshop-api/internal/config"
	"book-workshop-api/internal/domain/entity"
	"book-workshop-api/internal/infrastructure/remote"
)

func TestGenerateChapters_SendsFullDraft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		for _, k := range []string{"title", "genre", "description", "idea", "characters", "turningPoint", "uniqueFeatures", "pages", "writingStyle", "textTone"} {
			assert.Contains(t, body, k)
		}
		assert.Equal(t, "T", body["title"])
		assert.Equal(t, []any{}, body["textTone"])
		_, _ = w.Write([]byte(`{"chapters":[{"title":"Ch1","text":"..."}],"total_chapters":1}`))
	}))
	defer srv.Close()

	c := NewClient(config.RemoteServiceConfig{BaseURL: srv.URL})
	chapters, err := c.GenerateChapters(context.Background(), entity.Credential{}, &entity.BookDraft{
		Title:      "T",
		Genres:     []string{"fantasy"},
		Characters: []entity.Character{{ID: "c1", Name: "Ann", Role: entity.RoleMain}},
	})

	require.NoError(t, err)
	assert.Equal(t, []entity.Chapter{{Title: "Ch1", Text: "..."}}, chapters)
}

func TestGenerateChapters_MissingChapters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"total_chapters":0}`))
	}))
	defer srv.Close()

	c := NewClient(config.RemoteServiceConfig{BaseURL: srv.URL})
	_, err := c.GenerateChapters(context.Background(), entity.Credential{}, &entity.BookDraft{})

	assert.ErrorIs(t, err, remote.ErrMalformedResponse)
	var re *remote.ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, `{"total_chapters":0}`, re.Body)
	assert.Equal(t, http.StatusAccepted, re.StatusCode)
}

func TestGenerateChapters_EmptyListIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chapters":[]}`))
	}))
	defer srv.Close()

	c := NewClient(config.RemoteServiceConfig{BaseURL: srv.URL})
	chapters, err := c.GenerateChapters(context.Background(), entity.Credential{}, &entity.BookDraft{})

	require.NoError(t, err)
	assert.NotNil(t, chapters)
	assert.Empty(t, chapters)
}

func TestGenerateChapters_ErrorBodyPreserved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream timeout`))
	}))
	defer srv.Close()

	c := NewClient(config.RemoteServiceConfig{BaseURL: srv.URL})
	_, err := c.GenerateChapters(context.Background(), entity.Credential{}, &entity.BookDraft{})

	var re *remote.ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "upstream timeout", re.Body)
	assert.Equal(t, http.StatusBadGateway, re.StatusCode)
}
