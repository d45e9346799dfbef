package bootstrap

import (
	"context"
	"log"

	"ai-landing-be/internal/config"
	"ai-landing-be/internal/constant"
	"ai-landing-be/internal/controller"
	"ai-landing-be/internal/handler"
	"ai-landing-be/internal/pkg/logger"
	"ai-landing-be/internal/pkg/mailer"
	"ai-landing-be/internal/repository/memory"
	"ai-landing-be/internal/repository/unitofwork"
	"ai-landing-be/internal/service"
	"ai-landing-be/internal/websocket"
	"ai-landing-be/pkg/llm/factory"

	pktNats "ai-landing-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController       controller.IAuthController
	OAuthController      controller.IOAuthController
	UserController       controller.IUserController
	ChatController       controller.IChatController
	CompletionController controller.ICompletionController

	// Background Services (Exposed for main.go to run)
	PreviewConsumerService service.IPreviewConsumerService

	// WebSockets & Realtime
	EventsHandler *handler.EventsHandler
	WebSocketHub  *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.App.ClientURL,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// LLM Provider
	llmProvider, err := factory.NewLLMProvider(factory.ProviderConfig{
		Provider:      cfg.Ai.Provider,
		Model:         cfg.Ai.Model,
		GeminiAPIKey:  cfg.Ai.GeminiAPIKey,
		OpenAIAPIKey:  cfg.Ai.OpenAIAPIKey,
		OpenAIBaseURL: cfg.Ai.OpenAIBaseURL,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.Provider, cfg.Ai.Model)

	// In-memory preview document cache
	previewCache := memory.NewPreviewCache()

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/events.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Services
	publisherService := service.NewPublisherService(constant.ExtractPreviewTopic, pubSub)
	previewConsumerService := service.NewPreviewConsumerService(
		pubSub,
		constant.ExtractPreviewTopic,
		uowFactory,
		previewCache,
	)

	authService := service.NewAuthService(uowFactory, emailService, natsPub)
	oauthService := service.NewOAuthService(uowFactory, cfg.OAuth)
	userService := service.NewUserService(uowFactory)
	chatService := service.NewChatService(uowFactory, previewCache, natsPub)
	completionService := service.NewCompletionService(
		uowFactory,
		llmProvider,
		publisherService,
		natsPub,
		sysLogger,
	)

	// 3.5 Realtime fanout
	if natsSub != nil {
		notifierService := service.NewNotifierService(natsSub, wsHub, wsLogger)
		go notifierService.Start()
	}

	eventsHandler := handler.NewEventsHandler(wsHub, wsLogger)

	// 4. Controllers
	return &Container{
		AuthController:       controller.NewAuthController(authService),
		OAuthController:      controller.NewOAuthController(oauthService, cfg.App.ClientURL),
		UserController:       controller.NewUserController(userService),
		ChatController:       controller.NewChatController(chatService),
		CompletionController: controller.NewCompletionController(completionService),

		PreviewConsumerService: previewConsumerService,

		EventsHandler: eventsHandler,
		WebSocketHub:  wsHub,
	}
}
