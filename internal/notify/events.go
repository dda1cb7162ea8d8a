package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/copydesk/copydesk/internal/domain"
)

// busEvent is the envelope published on the signal bus by the service layer.
type busEvent struct {
	Event    string  `json:"event"`
	TradeID  string  `json:"trade_id"`
	TraderID string  `json:"trader_id"`
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	PoolID   string  `json:"pool_id"`
	PoolName string  `json:"pool_name"`
}

// EventListener subscribes to signal-bus channels and forwards selected
// platform events as operator notifications.
type EventListener struct {
	bus      domain.SignalBus
	notifier *Notifier
	logger   *slog.Logger
}

// NewEventListener creates an EventListener bridging bus events to the
// notifier.
func NewEventListener(bus domain.SignalBus, notifier *Notifier, logger *slog.Logger) *EventListener {
	return &EventListener{
		bus:      bus,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "notify_listener")),
	}
}

// Run subscribes to the trade and pool channels and blocks until the context
// is cancelled. Malformed payloads are logged and skipped.
func (l *EventListener) Run(ctx context.Context) error {
	tradeCh, err := l.bus.Subscribe(ctx, "trades")
	if err != nil {
		return fmt.Errorf("notify: subscribe trades: %w", err)
	}
	poolCh, err := l.bus.Subscribe(ctx, "pools")
	if err != nil {
		return fmt.Errorf("notify: subscribe pools: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data, ok := <-tradeCh:
			if !ok {
				return nil
			}
			l.handle(ctx, data)
		case data, ok := <-poolCh:
			if !ok {
				return nil
			}
			l.handle(ctx, data)
		}
	}
}

func (l *EventListener) handle(ctx context.Context, data []byte) {
	var ev busEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		l.logger.WarnContext(ctx, "malformed bus event",
			slog.String("error", err.Error()),
		)
		return
	}

	title, message := formatEvent(ev)
	if title == "" {
		return
	}

	if err := l.notifier.Notify(ctx, ev.Event, title, message); err != nil {
		l.logger.WarnContext(ctx, "notification delivery failed",
			slog.String("event", ev.Event),
			slog.String("error", err.Error()),
		)
	}
}

// formatEvent renders a bus event as a human-readable notification. Unknown
// event types return an empty title and are ignored.
func formatEvent(ev busEvent) (title, message string) {
	switch ev.Event {
	case "trade_executed":
		return "Trade executed",
			fmt.Sprintf("%s %.4f %s @ %.4f (trader %s)",
				ev.Side, ev.Quantity, ev.Symbol, ev.Price, ev.TraderID)
	case "pool_created":
		return "Pool created",
			fmt.Sprintf("%s (pool %s)", ev.PoolName, ev.PoolID)
	case "pool_followed":
		return "Pool followed",
			fmt.Sprintf("pool %s gained a follower", ev.PoolID)
	case "pool_unfollowed":
		return "Pool unfollowed",
			fmt.Sprintf("pool %s lost a follower", ev.PoolID)
	default:
		return "", ""
	}
}
