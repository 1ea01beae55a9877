package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader menyajikan pesan dari slice lalu blok sampai ctx selesai.
type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestConsumer_OrderPerKeyAndRetry(t *testing.T) {
	var msgs []kafka.Message
	for i := 0; i < 6; i++ {
		key := "o1"
		if i%2 == 1 {
			key = "o2"
		}
		msgs = append(msgs, kafka.Message{Key: []byte(key), Offset: int64(i)})
	}
	r := &fakeReader{msgs: msgs}
	c := newConsumer(r, ConsumerOptions{Workers: 3, MaxRetries: 2, Backoff: time.Millisecond}, quiet())

	var mu sync.Mutex
	seen := map[string][]int64{}
	failedOnce := false
	h := func(_ context.Context, m kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		if m.Offset == 2 && !failedOnce {
			failedOnce = true
			return errors.New("transient")
		}
		seen[string(m.Key)] = append(seen[string(m.Key)], m.Offset)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx, h) }()

	require.Eventually(t, func() bool { return r.commits() == 6 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{0, 2, 4}, seen["o1"], "retry keeps per-key order")
	assert.Equal(t, []int64{1, 3, 5}, seen["o2"])
	assert.True(t, r.closed)
}

func TestConsumer_GivesUpAndCommits(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{{Key: []byte("o1"), Offset: 7}}}
	c := newConsumer(r, ConsumerOptions{MaxRetries: 1, Backoff: time.Millisecond}, quiet())

	var calls int
	var mu sync.Mutex
	h := func(context.Context, kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("permanent")
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx, h) }()

	require.Eventually(t, func() bool { return r.commits() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	mu.Lock()
	assert.Equal(t, 2, calls)
	mu.Unlock()
}

func TestConsumer_WorkerIsStablePerKey(t *testing.T) {
	c := newConsumer(&fakeReader{}, ConsumerOptions{Workers: 4}, quiet())
	m := kafka.Message{Key: []byte("20260101u1-abcd1234")}
	w := c.worker(m)
	for i := 0; i < 10; i++ {
		assert.Equal(t, w, c.worker(m))
	}
	assert.Equal(t, 2, c.worker(kafka.Message{Partition: 6}))
}
