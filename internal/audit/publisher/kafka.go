// Package publisher fans audit entries out to Kafka for downstream
// compliance consumers. Delivery is strictly best-effort: a slow or absent
// broker drops events, it never delays an exchange.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"nadawallet/internal/audit"
	"nadawallet/internal/platform/config"
)

const inboxCapacity = 4096

// KafkaPublisher produces audit entries to a Kafka topic via a bounded
// inbox. Publish never blocks; when the inbox is full the entry is dropped
// and counted.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	inbox  chan audit.Entry
	logger *slog.Logger

	dropped atomic.Int64
}

// NewKafkaPublisher connects to the brokers and ensures the topic exists.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	if err := ensureTopic(client, cfg.Topic); err != nil {
		client.Close()
		return nil, err
	}

	return &KafkaPublisher{
		client: client,
		topic:  cfg.Topic,
		inbox:  make(chan audit.Entry, inboxCapacity),
		logger: logger,
	}, nil
}

func ensureTopic(client *kgo.Client, topic string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 3, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	for _, res := range resp {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create audit topic %s: %w", res.Topic, res.Err)
		}
	}
	return nil
}

// Publish enqueues an entry without blocking. Implements audit.Sink.
func (p *KafkaPublisher) Publish(entry audit.Entry) {
	select {
	case p.inbox <- entry:
	default:
		if p.dropped.Add(1)%1000 == 1 && p.logger != nil {
			p.logger.Warn("audit kafka inbox full, dropping events",
				"dropped_total", p.dropped.Load(),
			)
		}
	}
}

// Run drains the inbox until ctx is cancelled. Produce failures are logged
// and discarded; audit fan-out never retries into a dead broker.
func (p *KafkaPublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry := <-p.inbox:
			p.produce(ctx, entry)
		}
	}
}

func (p *KafkaPublisher) produce(ctx context.Context, entry audit.Entry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("audit entry marshal failed", "error", err)
		}
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(entry.UserID),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil && p.logger != nil {
			p.logger.Warn("audit kafka produce failed",
				"action", entry.Action,
				"error", err,
			)
		}
	})
}

// Dropped reports how many entries were discarded because the inbox was full.
func (p *KafkaPublisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close flushes in-flight records and releases the client.
func (p *KafkaPublisher) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}
