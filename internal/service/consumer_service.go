package service

import (
	"context"
	"encoding/json"

	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/pkg/events"
	pktNats "ai-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains recorded-exchange events: bumps the owner's
// message counter, writes the audit log line, and mirrors the event to
// NATS when a bus is configured.
type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	natsPub    *pktNats.Publisher // nil when NATS is not configured
	log        logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	natsPub *pktNats.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		natsPub:    natsPub,
		log:        log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var event events.ChatExchangeRecorded
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		cs.log.Error("consumer", "Failed to unmarshal exchange event", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // invalid payloads would retry forever
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.UserRepository().IncrementMessageCount(ctx, event.UserId, 1); err != nil {
		cs.log.Error("consumer", "Failed to increment message count", map[string]interface{}{
			"user_id": event.UserId.String(),
			"error":   err.Error(),
		})
		msg.Nack()
		return
	}

	cs.log.Info("consumer", "Exchange recorded", map[string]interface{}{
		"user_id":    event.UserId.String(),
		"session_id": event.SessionId.String(),
		"blocked":    event.Blocked,
	})

	if cs.natsPub != nil {
		if err := cs.natsPub.Publish(ctx, event); err != nil {
			// Mirroring is best effort; the exchange is already durable.
			cs.log.Warn("consumer", "Failed to mirror event to NATS", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	msg.Ack()
}
