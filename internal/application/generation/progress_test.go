package generation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"book-workshop-api/internal/domain/entity"
)

func TestProgressTracker_ListenersSeeEveryUpdate(t *testing.T) {
	tracker := NewProgressTracker(3)
	var got []entity.Progress
	tracker.Subscribe(func(p entity.Progress) {
		// 回调中读取快照不会死锁
		_ = tracker.Snapshot()
		got = append(got, p)
	})

	tracker.SetText(entity.TextStatus{State: entity.TextPending})
	tracker.SetImagesCompleted(1)
	tracker.SetText(entity.TextStatus{State: entity.TextDone, Chapters: 4})

	assert.Len(t, got, 3)
	assert.Equal(t, 1, got[1].ImagesCompleted)
	assert.Equal(t, entity.TextPending, got[1].Text.State)
	assert.Equal(t, entity.Progress{
		ImagesCompleted: 1,
		ImagesTotal:     3,
		Text:            entity.TextStatus{State: entity.TextDone, Chapters: 4},
	}, got[2])
}

func TestProgressTracker_ConcurrentWriters(t *testing.T) {
	tracker := NewProgressTracker(100)
	var mu sync.Mutex
	var maxSeen int
	tracker.Subscribe(func(p entity.Progress) {
		mu.Lock()
		defer mu.Unlock()
		// 快照按更新顺序送达，完成数不会回退
		assert.GreaterOrEqual(t, p.ImagesCompleted, maxSeen)
		maxSeen = p.ImagesCompleted
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 1; i <= 100; i++ {
			tracker.SetImagesCompleted(i)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			tracker.SetText(entity.TextStatus{State: entity.TextPending})
		}
	}()
	wg.Wait()

	assert.Equal(t, 100, tracker.Snapshot().ImagesCompleted)
}
