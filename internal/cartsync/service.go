package cartsync

import (
	"context"
	"fmt"
	"log/slog"

	kafkax "github.com/ariefcatur/dailyfresh-orders/internal/kafka"
	"github.com/ariefcatur/dailyfresh-orders/internal/orders"
	"github.com/ariefcatur/dailyfresh-orders/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

type CartDeleter interface {
	DeleteIfUnchanged(ctx context.Context, buyerID string, want map[string]int) (int, error)
}

// Service mengulang pembersihan cart yang gagal saat checkout. Hanya event
// dengan cart_cleanup_pending yang diproses, dan baris cart hanya dihapus
// kalau qty-nya masih sama dengan yang dibeli: item yang ditambah lagi oleh
// buyer setelah checkout tidak ikut terhapus.
type Service struct {
	Carts       CartDeleter
	Redis       redis.Cmdable
	ServiceName string
	Log         *slog.Logger
}

// HandleOrderCommitted: dipasang sebagai handler consumer.
func (s *Service) HandleOrderCommitted(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		s.logger().Warn("skip undecodable message", "offset", m.Offset, "err", err)
		return nil // poison message: commit offset, jangan loop
	}
	if env.EventType != orders.EventOrderCommitted {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderCommittedPayload](env.Payload)
	if err != nil {
		s.logger().Warn("skip bad payload", "event_id", env.EventID, "err", err)
		return nil
	}
	if !p.CartCleanupPending {
		return nil // checkout sudah membersihkan cart
	}
	want := make(map[string]int, len(p.Items))
	for _, it := range p.Items {
		want[it.SKUID] = it.Qty
	}
	n, err := s.Carts.DeleteIfUnchanged(ctx, p.BuyerID, want)
	if err != nil {
		return fmt.Errorf("cart cleanup order %s: %w", p.OrderID, err) // retry via redelivery
	}
	// dedup ditandai setelah sukses, supaya kegagalan di atas tetap di-retry.
	if _, err := redisx.MarkOnce(ctx, s.Redis, dkey, redisx.TTLDedup); err != nil {
		s.logger().Warn("dedup mark failed", "event_id", env.EventID, "err", err)
	}
	s.logger().Debug("cart cleaned", "order_id", p.OrderID, "buyer_id", p.BuyerID, "removed", n, "skus", len(want))
	return nil
}

func (s *Service) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}
