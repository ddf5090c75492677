// Package kafka is the alternative job transport: the API publishes metadata
// jobs to a topic and the worker consumes them in a consumer group.
package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/dharsanguruparan/PixelDrop/internal/queue"
)

// Producer publishes metadata jobs keyed by hash, so every job for one image
// lands on the same partition.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer connects a sync producer to brokers.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	p, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return NewProducerWith(p, topic), nil
}

// NewProducerWith wraps an existing sarama producer.
func NewProducerWith(p sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: p, topic: topic}
}

// Enqueue publishes the job message for hash.
func (p *Producer) Enqueue(_ context.Context, hash string) error {
	data, err := queue.EncodePayload(hash)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(hash),
		Value: sarama.ByteEncoder(data),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("publish metadata job: %w", err)
	}
	return nil
}

// Close flushes and closes the producer.
func (p *Producer) Close() error {
	return p.producer.Close()
}
