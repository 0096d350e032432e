package eventService

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/STop211650/HyphynessTracker/models"
	"github.com/segmentio/kafka-go"
)

const TopicBetSettled = "bet_settled"

// BetSettled is the event emitted after a record leaves pending.
type BetSettled struct {
	models.SettlementSummary
	TsUnixMs int64 `json:"ts_unix_ms"`
}

type KafkaPublisher struct {
	Writer *kafka.Writer
	Topic  string
}

func NewWriter(brokers string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(strings.Split(brokers, ",")...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaPublisher(w *kafka.Writer, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topic: topic}
}

// PublishSettlement keys the message by bet id so events for one bet stay in
// order on a partition.
func (p *KafkaPublisher) PublishSettlement(ctx context.Context, summary models.SettlementSummary) error {
	b, err := Encode(summary, time.Now())
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{Key: []byte(summary.BetID), Value: b})
}

func (p *KafkaPublisher) Close() error {
	return p.Writer.Close()
}

func Encode(summary models.SettlementSummary, at time.Time) ([]byte, error) {
	return json.Marshal(BetSettled{SettlementSummary: summary, TsUnixMs: at.UnixMilli()})
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishSettlement(context.Context, models.SettlementSummary) error { return nil }
