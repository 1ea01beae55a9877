package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ariefcatur/dailyfresh-orders/internal/orders"
)

var (
	ErrInvalidTransition = errors.New("order status does not allow this step")
	ErrEmptyTradeNo      = errors.New("payment trade number required")
	ErrUnknownLine       = errors.New("order has no line for sku")
)

type Store interface {
	GetOrder(ctx context.Context, orderID string) (orders.Order, error)
	// TransitionOrder hanya update kalau status sekarang == from.
	TransitionOrder(ctx context.Context, orderID string, from, to orders.Status, tradeNo *string) (bool, error)
	// ReviewOrder: AwaitingReview -> Completed sambil menyimpan komentar.
	ReviewOrder(ctx context.Context, orderID string, reviews map[string]string) (bool, error)
}

// Listener dipanggil setelah status berubah (mis. invalidasi cache, publish event).
type Listener interface {
	StatusChanged(ctx context.Context, orderID string, to orders.Status, tradeNo string)
}

type Service struct {
	Store    Store
	Listener Listener // optional
	Log      *slog.Logger
}

func (s *Service) ConfirmPayment(ctx context.Context, buyerID, orderID, tradeNo string) error {
	if tradeNo == "" {
		return ErrEmptyTradeNo
	}
	return s.advance(ctx, buyerID, orderID, orders.StatusAwaitingPayment, orders.StatusAwaitingShipment, &tradeNo)
}

func (s *Service) MarkShipped(ctx context.Context, orderID string) error {
	return s.advance(ctx, "", orderID, orders.StatusAwaitingShipment, orders.StatusAwaitingReceipt, nil)
}

func (s *Service) ConfirmReceipt(ctx context.Context, buyerID, orderID string) error {
	return s.advance(ctx, buyerID, orderID, orders.StatusAwaitingReceipt, orders.StatusAwaitingReview, nil)
}

// Review menyimpan komentar per sku dan menyelesaikan order.
func (s *Service) Review(ctx context.Context, buyerID, orderID string, reviews map[string]string) error {
	o, err := s.owned(ctx, buyerID, orderID)
	if err != nil {
		return err
	}
	if o.Status != orders.StatusAwaitingReview {
		return fmt.Errorf("%w: order is %s", ErrInvalidTransition, o.Status)
	}
	have := make(map[string]bool, len(o.Lines))
	for _, l := range o.Lines {
		have[l.SKUID] = true
	}
	for sku := range reviews {
		if !have[sku] {
			return fmt.Errorf("%w %s", ErrUnknownLine, sku)
		}
	}
	ok, err := s.Store.ReviewOrder(ctx, orderID, reviews)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: order changed concurrently", ErrInvalidTransition)
	}
	s.changed(ctx, orderID, orders.StatusCompleted, "")
	return nil
}

func (s *Service) advance(ctx context.Context, buyerID, orderID string, from, to orders.Status, tradeNo *string) error {
	if !orders.CanTransition(from, to) {
		return ErrInvalidTransition
	}
	o, err := s.owned(ctx, buyerID, orderID)
	if err != nil {
		return err
	}
	if o.Status != from {
		return fmt.Errorf("%w: order is %s", ErrInvalidTransition, o.Status)
	}
	ok, err := s.Store.TransitionOrder(ctx, orderID, from, to, tradeNo)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: order changed concurrently", ErrInvalidTransition)
	}
	tn := ""
	if tradeNo != nil {
		tn = *tradeNo
	}
	s.changed(ctx, orderID, to, tn)
	return nil
}

// owned: order milik buyer lain diperlakukan sebagai not found. buyerID kosong
// = panggilan internal (mis. gudang menandai kirim).
func (s *Service) owned(ctx context.Context, buyerID, orderID string) (orders.Order, error) {
	o, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return orders.Order{}, err
	}
	if buyerID != "" && o.BuyerID != buyerID {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	return o, nil
}

func (s *Service) changed(ctx context.Context, orderID string, to orders.Status, tradeNo string) {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("order status changed", "order_id", orderID, "status", to.String())
	if s.Listener != nil {
		s.Listener.StatusChanged(ctx, orderID, to, tradeNo)
	}
}
