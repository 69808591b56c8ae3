package service

import (
	"context"
	"testing"
	"time"

	"ai-chat-be/internal/entity"
	"ai-chat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeEventRoundTrip(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	factory := newFakeFactory()
	userId := uuid.New()
	factory.seedUser(&entity.User{Id: userId, Email: "owner@example.com"})

	const topic = "CHAT_EXCHANGE_RECORDED"
	publisher := NewPublisherService(topic, pubSub)
	consumer := NewConsumerService(pubSub, topic, factory, nil, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	err := publisher.PublishExchangeRecorded(ctx, events.ChatExchangeRecorded{
		UserId:        userId,
		SessionId:     uuid.New(),
		UserMessageId: uuid.New(),
		ReplyId:       uuid.New(),
		OccurredAt:    time.Now(),
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return factory.uow.store.users[userId].MessageCount == 1
	}, 2*time.Second, 10*time.Millisecond, "consumer should bump the owner's message count")
}
