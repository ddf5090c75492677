package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/PixelDrop/internal/queue"
)

// Runner processes one hash and records the outcome itself.
type Runner interface {
	Run(ctx context.Context, hash string)
}

// Consumer feeds metadata jobs from a topic to a Runner.
type Consumer struct {
	group sarama.ConsumerGroup
	topic string
	log   *zap.Logger
}

// NewConsumer joins groupID on brokers.
func NewConsumer(brokers []string, groupID, topic string, log *zap.Logger) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	g, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer group: %w", err)
	}
	return &Consumer{group: g, topic: topic, log: log}, nil
}

// Run consumes until ctx is cancelled. Consume returns on every rebalance, so
// it is called in a loop.
func (c *Consumer) Run(ctx context.Context, runner Runner) error {
	h := &handler{runner: runner, log: c.log}
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, h); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return fmt.Errorf("consume %s: %w", c.topic, err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Close leaves the group.
func (c *Consumer) Close() error {
	return c.group.Close()
}

type handler struct {
	runner Runner
	log    *zap.Logger
}

func (h *handler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *handler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim marks every message, malformed ones included, so a bad message
// is never redelivered.
func (h *handler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if hash, valid := queue.DecodePayload(msg.Value); valid {
				h.runner.Run(session.Context(), hash)
			} else {
				h.log.Warn("dropping malformed metadata job",
					zap.Int32("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
				)
			}
			session.MarkMessage(msg, "")
		}
	}
}
