package bootstrap

import (
	"log"

	"ai-chat-be/internal/config"
	"ai-chat-be/internal/controller"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/repository/memory"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/internal/service"
	"ai-chat-be/pkg/genai/factory"

	pktNats "ai-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController controller.IAuthController
	ChatController controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS mirror is optional; the in-process bus carries the events either way.
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		pub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			natsPub = pub
		}
	}

	// 3. Generation Provider
	provider := factory.NewProvider(cfg.GenAi)

	// 4. Services
	shareCache := memory.NewShareCache()

	publisherService := service.NewPublisherService(cfg.Events.ExchangeTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Events.ExchangeTopic,
		uowFactory,
		natsPub,
		sysLogger,
	)

	authService := service.NewAuthService(uowFactory)
	sessionService := service.NewSessionService(uowFactory, shareCache, cfg.App.ClientURL)
	relayService := service.NewRelayService(uowFactory, provider, publisherService, sysLogger)

	// 5. Controllers
	return &Container{
		AuthController: controller.NewAuthController(authService),
		ChatController: controller.NewChatController(sessionService, relayService),

		ConsumerService: consumerService,
	}
}
