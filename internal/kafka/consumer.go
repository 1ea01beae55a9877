package kafka

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler harus return nil hanya jika proses sukses & boleh commit offset.
type Handler func(ctx context.Context, m kafka.Message) error

// reader is the part of *kafka.Reader the consumer needs.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ConsumerOptions struct {
	Workers    int
	MaxRetries int           // percobaan ulang handler sebelum pesan dilewati
	Backoff    time.Duration // jeda awal, dobel tiap retry
}

// Consumer membagi pesan ke worker berdasarkan key (order_id), jadi event
// satu order selalu diproses berurutan oleh worker yang sama.
type Consumer struct {
	r    reader
	opts ConsumerOptions
	log  *slog.Logger
}

func NewConsumer(brokers []string, group, topic string, opts ConsumerOptions) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	return newConsumer(r, opts, slog.Default().With("topic", topic, "group", group))
}

func newConsumer(r reader, opts ConsumerOptions, log *slog.Logger) *Consumer {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	return &Consumer{r: r, opts: opts, log: log}
}

func (c *Consumer) worker(m kafka.Message) int {
	if len(m.Key) == 0 {
		return m.Partition % c.opts.Workers
	}
	h := fnv.New32a()
	_, _ = h.Write(m.Key)
	return int(h.Sum32() % uint32(c.opts.Workers))
}

// Start blocking sampai ctx selesai atau fetch gagal.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	lanes := make([]chan kafka.Message, c.opts.Workers)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan kafka.Message, 64)
		wg.Add(1)
		go func(in <-chan kafka.Message) {
			defer wg.Done()
			for m := range in {
				c.process(ctx, h, m)
			}
		}(lanes[i])
	}
	stop := func() {
		for _, l := range lanes {
			close(l)
		}
		wg.Wait()
	}

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			stop()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case lanes[c.worker(m)] <- m:
		case <-ctx.Done():
			stop()
			return nil
		}
	}
}

// process: retry handler dengan backoff; setelah habis, pesan di-log lalu
// di-commit supaya partisi tidak macet.
func (c *Consumer) process(ctx context.Context, h Handler, m kafka.Message) {
	wait := c.opts.Backoff
	for attempt := 0; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			break
		}
		if attempt >= c.opts.MaxRetries {
			c.log.Error("handler gave up", "partition", m.Partition, "offset", m.Offset, "key", string(m.Key), "err", err)
			break
		}
		c.log.Warn("handler failed, retrying", "offset", m.Offset, "attempt", attempt+1, "err", err)
		select {
		case <-time.After(wait):
			wait *= 2
		case <-ctx.Done():
			return // belum di-commit, akan di-redeliver
		}
	}
	if err := c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
		c.log.Warn("commit offset", "offset", m.Offset, "err", err)
	}
}
