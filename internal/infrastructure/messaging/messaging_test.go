package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-workshop-api/internal/domain/entity"
)

func newTestRedis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func newTestConsumer(t *testing.T, rdb *redis.Client, retryLimit int) *Consumer {
	c := NewConsumer(rdb, ConsumerConfig{
		Stream:       StreamBookGen,
		Group:        ConsumerGroupBookWorker,
		ConsumerName: "worker-1",
		RetryLimit:   retryLimit,
	})
	// 测试中使用非阻塞读取
	c.blockTimeout = -1
	require.NoError(t, c.ensureGroup(context.Background()))
	require.NoError(t, c.ensureGroup(context.Background()))
	return c
}

func TestBackoffConfig_CalculateBackoff(t *testing.T) {
	cfg := BackoffConfig{Initial: time.Second, Max: 5 * time.Second, Multiplier: 2}
	assert.Equal(t, time.Second, cfg.CalculateBackoff(0))
	assert.Equal(t, 4*time.Second, cfg.CalculateBackoff(2))
	assert.Equal(t, 5*time.Second, cfg.CalculateBackoff(10))
}

func TestStream_DLQStream(t *testing.T) {
	assert.Equal(t, "dlq:stream:book:gen", StreamBookGen.DLQStream())
}

func TestProducer_PublishBookGeneration(t *testing.T) {
	rdb := newTestRedis(t)
	p := NewProducer(rdb, 0)

	id, err := p.PublishBookGeneration(context.Background(), "owner-1", &BookGenerationMessage{TaskID: "task-1", Token: "tok"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	entries, err := rdb.XRange(context.Background(), string(StreamBookGen), "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var msg Message
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["data"].(string)), &msg))
	assert.Equal(t, "task-1", msg.ID)
	assert.Equal(t, TypeBookGeneration, msg.Type)
	assert.Equal(t, "owner-1", msg.Owner)

	var job BookGenerationMessage
	require.NoError(t, msg.UnmarshalPayload(&job))
	assert.Equal(t, "tok", job.Token)
}

func TestConsumer_HandlesAndAcks(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	c := newTestConsumer(t, rdb, 3)

	var got []string
	c.RegisterHandler(TypeBookGeneration, func(ctx context.Context, msg *Message) error {
		var job BookGenerationMessage
		if err := msg.UnmarshalPayload(&job); err != nil {
			return err
		}
		got = append(got, job.TaskID)
		return nil
	})

	p := NewProducer(rdb, 0)
	_, err := p.PublishBookGeneration(ctx, "owner", &BookGenerationMessage{TaskID: "t1", Token: "x"})
	require.NoError(t, err)
	unknown, err := NewMessage("t2", "audit", "owner", map[string]string{})
	require.NoError(t, err)
	_, err = p.Publish(ctx, StreamBookGen, unknown)
	require.NoError(t, err)

	require.NoError(t, c.readNew(ctx))
	assert.Equal(t, []string{"t1"}, got)

	pending, err := rdb.XPending(ctx, string(StreamBookGen), string(ConsumerGroupBookWorker)).Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count, "handled and unknown-type messages are both acked")
}

func TestConsumer_FailureMovesToDLQAfterRetryLimit(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	c := newTestConsumer(t, rdb, 1)

	c.RegisterHandler(TypeBookGeneration, func(ctx context.Context, msg *Message) error {
		return errors.New("boom")
	})

	p := NewProducer(rdb, 0)
	_, err := p.PublishBookGeneration(ctx, "owner", &BookGenerationMessage{TaskID: "t1", Token: "secret"})
	require.NoError(t, err)

	require.NoError(t, c.readNew(ctx))

	dlq, err := rdb.XRange(ctx, StreamBookGen.DLQStream(), "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, dlq, 1)
	raw := dlq[0].Values["data"].(string)
	assert.Contains(t, raw, "boom")
	assert.NotContains(t, raw, "secret")

	pending, err := rdb.XPending(ctx, string(StreamBookGen), string(ConsumerGroupBookWorker)).Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestConsumer_FailureBelowLimitStaysPending(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	c := newTestConsumer(t, rdb, 3)

	c.RegisterHandler(TypeBookGeneration, func(ctx context.Context, msg *Message) error {
		return errors.New("transient")
	})

	_, err := NewProducer(rdb, 0).PublishBookGeneration(ctx, "owner", &BookGenerationMessage{TaskID: "t1"})
	require.NoError(t, err)
	require.NoError(t, c.readNew(ctx))

	pending, err := rdb.XPending(ctx, string(StreamBookGen), string(ConsumerGroupBookWorker)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)

	n, err := rdb.XLen(ctx, StreamBookGen.DLQStream()).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConsumer_MalformedEntryDropped(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	c := newTestConsumer(t, rdb, 3)

	require.NoError(t, rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: string(StreamBookGen),
		Values: map[string]any{"data": "{not json"},
	}).Err())
	require.NoError(t, c.readNew(ctx))

	pending, err := rdb.XPending(ctx, string(StreamBookGen), string(ConsumerGroupBookWorker)).Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestStreamDispatcher_Dispatch(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	d := NewStreamDispatcher(NewProducer(rdb, 0))

	task := entity.NewGenerationTask("owner-9", &entity.BookDraft{Title: "T"}, "")
	require.NoError(t, d.Dispatch(ctx, entity.NewCredential("tok"), task))

	n, err := rdb.XLen(ctx, string(StreamBookGen)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestConsumer_StartShutdown(t *testing.T) {
	rdb := newTestRedis(t)
	c := NewConsumer(rdb, ConsumerConfig{
		Stream:       StreamBookGen,
		Group:        ConsumerGroupBookWorker,
		ConsumerName: "worker-1",
		BlockTimeout: 50 * time.Millisecond,
	})

	handled := make(chan string, 1)
	c.RegisterHandler(TypeBookGeneration, func(_ context.Context, msg *Message) error {
		handled <- msg.ID
		return nil
	})

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	assert.Error(t, c.Start(ctx), "second start is rejected")

	_, err := NewProducer(rdb, 0).PublishBookGeneration(ctx, "owner", &BookGenerationMessage{TaskID: "t1", Token: "x"})
	require.NoError(t, err)

	select {
	case id := <-handled:
		assert.Equal(t, "t1", id)
	case <-time.After(5 * time.Second):
		t.Fatal("message not consumed")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	assert.NoError(t, c.Shutdown(shutdownCtx))
}
