// Package messaging publishes trade events to Kafka for downstream
// consumers (reporting, reconciliation). Publishing is fire-and-forget
// relative to the trade transaction.
package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/quexa/spotmatch/internal/notification"
)

// TradePublisher writes match events to a Kafka topic, keyed by symbol
// so events for one market stay ordered. It implements
// notification.Notifier.
type TradePublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewTradePublisher creates a publisher for the given brokers and topic.
func NewTradePublisher(brokers []string, topic string, logger *zap.Logger) *TradePublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: time.Second,
		Compression:  kafka.Snappy,
	}
	return &TradePublisher{writer: writer, logger: logger}
}

// NotifyMatch publishes the event. Errors are logged, never surfaced;
// the trade is already committed by the time this runs.
func (p *TradePublisher) NotifyMatch(ctx context.Context, event notification.MatchEvent, buyerID, sellerID uuid.UUID) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to encode match event", zap.Error(err))
		return
	}
	msg := kafka.Message{
		Key:   []byte(event.SellOrder.Symbol),
		Value: payload,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish match event",
			zap.Error(err),
			zap.String("symbol", event.SellOrder.Symbol))
	}
}

// Close flushes and closes the underlying writer.
func (p *TradePublisher) Close() error {
	return p.writer.Close()
}
