package bootstrap

import (
	"context"
	"time"

	"ai-chatbot-be/internal/config"
	"ai-chatbot-be/internal/controller"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/pkg/mailer"
	"ai-chatbot-be/internal/pkg/metrics"
	"ai-chatbot-be/internal/repository/memory"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/internal/service"
	"ai-chatbot-be/pkg/embedding"
	"ai-chatbot-be/pkg/events"
	"ai-chatbot-be/pkg/llm"
	"ai-chatbot-be/pkg/llm/ollama"
	pktNats "ai-chatbot-be/pkg/nats"
	"ai-chatbot-be/pkg/payment"
	"ai-chatbot-be/pkg/rag/access"
	"ai-chatbot-be/pkg/rag/indexer"
	"ai-chatbot-be/pkg/ratelimit"
	"ai-chatbot-be/pkg/usage"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	demoSessionTTL         = 30 * time.Minute
	demoSessionMaxMessages = 20
)

type Container struct {
	Logger  logger.ILogger
	Metrics *metrics.Metrics

	// Controllers
	AccountController   controller.IAccountController
	UsageController     controller.IUsageController
	KnowledgeController controller.IKnowledgeController
	ChatController      controller.IChatController
	PaymentController   controller.IPaymentController
	RecoveryController  controller.IRecoveryController

	TenantService service.ITenantService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	RecoveryService service.IRecoveryService

	closers []func()
}

// Dependencies are the collaborators that talk to the outside world.
// NewContainer builds them from config; tests pass fakes to Assemble.
type Dependencies struct {
	UowFactory unitofwork.RepositoryFactory
	Logger     logger.ILogger
	Embedder   embedding.EmbeddingProvider
	LLM        llm.LLMProvider
	Gateway    payment.Gateway
	Events     events.Publisher
	Redis      *redis.Client        // nil disables the burst limiter
	Mailer     mailer.IEmailService // nil disables recovery reports
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	deps := Dependencies{
		UowFactory: unitofwork.NewRepositoryFactory(db),
		Logger:     sysLogger,
		Embedder:   embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel),
		LLM:        ollama.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.LLMModel),
		Gateway: payment.NewMidtransGateway(
			cfg.Billing.MidtransServerKey,
			cfg.Billing.MidtransProduction,
			cfg.Billing.PaymentSignatureSecret,
		),
		Events: events.NopPublisher{},
	}
	var closers []func()

	// NATS
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS, events disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			deps.Events = natsPub
			closers = append(closers, natsPub.Close)
		}
	}

	// Redis
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{
				"error": err.Error(),
			})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to Redis", map[string]interface{}{
				"error": err.Error(),
			})
		}
		deps.Redis = rdb
		closers = append(closers, func() { _ = rdb.Close() })
	}

	if cfg.SMTP.Host != "" {
		deps.Mailer = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.Email,
			cfg.SMTP.SenderName,
			sysLogger,
		)
	}

	c := Assemble(cfg, deps)
	c.closers = append(closers, c.closers...)
	return c
}

// Assemble wires services and controllers on top of deps.
func Assemble(cfg *config.Config, deps Dependencies) *Container {
	sysLogger := deps.Logger
	appMetrics := metrics.New()
	uowFactory := deps.UowFactory

	// Job queue for document indexing
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NopLogger{},
	)

	var limiter *ratelimit.Limiter
	if deps.Redis != nil {
		limiter = ratelimit.New(deps.Redis, time.Minute).OnError(func(err error) {
			sysLogger.Warn("RATELIMIT", "Burst limiter unavailable, allowing request", map[string]interface{}{
				"error": err.Error(),
			})
		})
	}

	enforcer := usage.NewEnforcer(uowFactory, sysLogger)
	validator := access.NewValidator(uowFactory, sysLogger)
	ix := indexer.NewIndexer(uowFactory, deps.Embedder, sysLogger)
	sessions := memory.NewSessionRepository(demoSessionTTL, demoSessionMaxMessages)

	publisherService := service.NewPublisherService(pubSub, cfg.Ai.IndexTopic)
	consumerService := service.NewConsumerService(pubSub, cfg.Ai.IndexTopic, ix, deps.Events, sysLogger, appMetrics)

	tenantService := service.NewTenantService(uowFactory, sysLogger, appMetrics)
	accountService := service.NewAccountService(uowFactory, deps.Events, sysLogger, cfg.Billing.TrialDays)
	usageService := service.NewUsageService(uowFactory, enforcer)
	knowledgeService := service.NewKnowledgeService(
		uowFactory,
		enforcer,
		ix,
		deps.Embedder,
		publisherService,
		sysLogger,
		appMetrics,
		service.SearchOptions{
			DefaultLimit: cfg.Ai.SearchLimit,
			Threshold:    cfg.Ai.SimilarityThreshold,
		},
	)
	chatService := service.NewChatService(
		uowFactory,
		validator,
		limiter,
		enforcer,
		deps.Embedder,
		deps.LLM,
		sessions,
		sysLogger,
		appMetrics,
		service.ChatOptions{
			BurstPerMinute: cfg.Limits.BurstPerMinute,
			SearchLimit:    cfg.Ai.SearchLimit,
			Threshold:      cfg.Ai.SimilarityThreshold,
		},
	)

	activator := service.NewSubscriptionActivator(uowFactory, deps.Events, sysLogger)
	paymentService := service.NewPaymentService(uowFactory, deps.Gateway, activator, sysLogger, cfg.App.ClientURL)
	recoveryService := service.NewRecoveryService(
		uowFactory,
		activator,
		deps.Events,
		deps.Mailer,
		sysLogger,
		appMetrics,
		service.RecoveryOptions{
			Window:          cfg.Recovery.Window,
			ReportRecipient: cfg.Recovery.ReportRecipient,
		},
	)

	return &Container{
		Logger:  sysLogger,
		Metrics: appMetrics,

		AccountController:   controller.NewAccountController(accountService),
		UsageController:     controller.NewUsageController(usageService),
		KnowledgeController: controller.NewKnowledgeController(knowledgeService),
		ChatController:      controller.NewChatController(chatService),
		PaymentController:   controller.NewPaymentController(paymentService),
		RecoveryController:  controller.NewRecoveryController(recoveryService, cfg.Auth.AdminRecoveryKeyHash),

		TenantService: tenantService,

		ConsumerService: consumerService,
		RecoveryService: recoveryService,

		closers: []func(){func() { _ = pubSub.Close() }},
	}
}

// Close releases the queue and the broker connections.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
