package generation

import (
	"context"
	"errors"
	"sync"

	"book-workshop-api/internal/domain/entity"
)

// fakeIllustrationClient 按调用顺序返回预设结果
type fakeIllustrationClient struct {
	mu      sync.Mutex
	urls    []string
	failAt  int
	err     error
	prompts []string
	// gate 非空时每次调用前等待
	gate chan struct{}
}

func newFakeIllustrationClient(urls ...string) *fakeIllustrationClient {
	return &fakeIllustrationClient{urls: urls, failAt: -1}
}

func (f *fakeIllustrationClient) GenerateImage(_ context.Context, _ entity.Credential, prompt string) (string, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	if idx == f.failAt {
		return "", f.err
	}
	return f.urls[idx], nil
}

func (f *fakeIllustrationClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeChapterClient struct {
	mu       sync.Mutex
	chapters []entity.Chapter
	err      error
	called   int
	gate     chan struct{}
}

func (f *fakeChapterClient) GenerateChapters(_ context.Context, _ entity.Credential, _ *entity.BookDraft) ([]entity.Chapter, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called++
	if f.err != nil {
		return nil, f.err
	}
	return f.chapters, nil
}

// remoteErr 模拟远端客户端错误
type remoteErr struct {
	status int
	body   string
}

func (e *remoteErr) Error() string        { return "remote failure" }
func (e *remoteErr) HTTPStatus() int      { return e.status }
func (e *remoteErr) ResponseBody() string { return e.body }

var errTransport = errors.New("connection reset")

func sampleDraft(count int) *entity.BookDraft {
	return &entity.BookDraft{
		Title:       "T",
		Genres:      []string{"fantasy"},
		Idea:        "I",
		Description: "A swan learns to sing.",
		Illustrations: entity.IllustrationSettings{
			Count:       count,
			Style:       "watercolor",
			ColorScheme: "warm",
			Mood:        "dreamy",
		},
	}
}
