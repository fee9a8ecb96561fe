// Package events publishes agent run results to Kafka for downstream
// consumers. Publishing is synchronous and happens after the run has
// completed; the emitter starts no background work.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/agentctl/agentctl/pkg/models"
)

// Emitter publishes run events. A nil *KafkaEmitter is a valid no-op.
type Emitter interface {
	EmitRunResult(ctx context.Context, result models.AgentResult) error
	Close() error
}

// KafkaEmitter implements Emitter on a Kafka topic
type KafkaEmitter struct {
	writer *kafka.Writer
}

// EmitterConfig holds Kafka connection settings
type EmitterConfig struct {
	Brokers []string
	Topic   string
}

// NewKafkaEmitter creates a Kafka-backed run event emitter
func NewKafkaEmitter(config EmitterConfig) *KafkaEmitter {
	return &KafkaEmitter{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(config.Brokers...),
			Topic:        config.Topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			Async:        false, // synchronous writes, one event per run
		},
	}
}

// EmitRunResult publishes one run result keyed by agent ID
func (e *KafkaEmitter) EmitRunResult(ctx context.Context, result models.AgentResult) error {
	if e == nil {
		return nil
	}

	value, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize run result: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(result.AgentID),
		Value: value,
		Time:  result.Timestamp,
	}
	if err := e.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish run result: %w", err)
	}
	return nil
}

// Close releases the underlying writer
func (e *KafkaEmitter) Close() error {
	if e == nil {
		return nil
	}
	return e.writer.Close()
}
