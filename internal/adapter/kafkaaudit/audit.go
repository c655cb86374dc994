// Package kafkaaudit publishes settled batch outcomes to a Kafka audit topic.
// Publishing is best-effort bookkeeping after the batch settles; an audit
// failure never changes the dispatch outcome.
package kafkaaudit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kukua/saro-sms/internal/config"
	"github.com/kukua/saro-sms/internal/dispatch"
)

// Publisher produces one audit record per settled job.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured audit topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAuditTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// auditRecord is the wire form of one settled job.
type auditRecord struct {
	BatchID    string `json:"batch_id"`
	Mode       string `json:"mode"`
	Recipient  string `json:"recipient"`
	Location   string `json:"location"`
	Sender     string `json:"sender"`
	MessageID  string `json:"message_id,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	SettledAt  string `json:"settled_at"`
}

// PublishBatch serializes and publishes every settled outcome of a batch in a
// single WriteMessages call.
func (p *Publisher) PublishBatch(ctx context.Context, res *dispatch.BatchResult, settledAt time.Time) error {
	if len(res.Outcomes) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(res.Outcomes))
	for i, o := range res.Outcomes {
		msg, err := serializeOutcome(res, o, settledAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish audit batch %s: %w", res.ID, err)
	}
	p.logger.Info("audit batch published", "batch", res.ID, "records", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeOutcome marshals a settled job into a Kafka message keyed by its
// batch ID so one batch's records land on one partition.
func serializeOutcome(res *dispatch.BatchResult, o dispatch.JobOutcome, settledAt time.Time) (kafkago.Message, error) {
	rec := auditRecord{
		BatchID:    res.ID,
		Mode:       string(res.Mode),
		Recipient:  o.Recipient.Number,
		Location:   o.Recipient.Location,
		Sender:     o.Recipient.Sender,
		MessageID:  o.MessageID,
		DurationMS: o.Duration.Milliseconds(),
		SettledAt:  settledAt.Format(time.RFC3339),
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize audit record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(res.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "mode", Value: []byte(res.Mode)},
			{Key: "settled_at", Value: []byte(settledAt.Format(time.RFC3339))},
		},
	}, nil
}
