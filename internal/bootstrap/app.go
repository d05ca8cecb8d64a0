package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"healthhub/internal/app"
	"healthhub/internal/cache"
	"healthhub/internal/config"
	"healthhub/internal/model"
	"healthhub/internal/platform/database"
	"healthhub/internal/platform/logger"
	rabbitmqClient "healthhub/internal/platform/rabbitmq"
	redisClient "healthhub/internal/platform/redis"
	"healthhub/internal/remote"
	"healthhub/internal/repository"
	"healthhub/internal/worker"
)

type Services struct {
	Chat          *app.ChatService
	Widget        *app.ChatService
	Community     *app.CommunityService
	Profiles      *app.ProfileService
	Onboarding    *app.OnboardingService
	Measurements  *app.MeasurementService
	Notifications *app.NotificationService

	// Conversations is shared by Chat and Widget.
	Conversations *app.Conversations
}

type App struct {
	Config             *config.Config
	Logger             *logrus.Logger
	DB                 *gorm.DB
	Redis              *redis.Client
	MQConn             *amqp.Connection
	NotificationWorker *worker.NotificationPersistWorker
	IdleSweeper        *worker.IdleStateSweeper
	Remote             *remote.Client
	Services           Services

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return NewWithConfig(ctx, cfg, logger.New(cfg.App.Env, cfg.App.LogLevel))
}

// NewWithConfig connects every dependency named by cfg and wires the
// services. Resources opened before a failure are closed again.
func NewWithConfig(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: log, StartedAt: time.Now()}
	if err := a.connect(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	cfg, log := a.Config, a.Logger

	var err error
	dsn := cfg.Database.SQLitePath
	if cfg.Database.Driver == "mysql" {
		dsn = cfg.MySQLDSN()
	}
	a.DB, err = database.New(ctx, cfg.Database.Driver, dsn)
	if err != nil {
		return err
	}
	if err = database.Migrate(a.DB); err != nil {
		return err
	}

	a.Redis, err = redisClient.New(ctx, redisClient.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}

	a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.NotificationQueue)
	if err != nil {
		return err
	}

	storage := repository.NewStorageRepository(a.DB)
	notifications := repository.NewNotificationRepository(a.DB)

	var notifier app.Notifier = app.NewDirectNotifier(notifications)
	if a.MQConn != nil {
		notifier = rabbitmqClient.NewNotificationPublisher(a.MQConn, cfg.RabbitMQ.NotificationQueue)
		a.NotificationWorker = worker.NewNotificationPersistWorker(a.MQConn, notifications, cfg.RabbitMQ.NotificationQueue, log)
		if err = a.NotificationWorker.Start(ctx); err != nil {
			return fmt.Errorf("start notification worker failed: %w", err)
		}
	} else {
		log.Info("rabbitmq disabled, notifications are written directly")
	}

	// A nil *cache.HistoryCache inside the interface would not compare equal
	// to nil, so the interface stays unset when redis is off.
	var historyCache app.HistoryCache
	if a.Redis != nil {
		historyCache = cache.NewHistoryCache(
			a.Redis,
			time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
			time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
		)
	} else {
		log.Info("redis disabled, chat history is not cached")
	}

	a.Remote = remote.New(cfg.Remote.BaseURL, cfg.RemoteTimeout())
	a.Services = buildServices(cfg, log, a.Remote, storage, notifications, notifier, historyCache)

	idle := cfg.IdleStateTTL()
	a.IdleSweeper = worker.NewIdleStateSweeper(idle, idle/4, log,
		a.Services.Conversations, a.Services.Community, a.Services.Measurements)
	a.IdleSweeper.Start(ctx)
	return nil
}

func buildServices(
	cfg *config.Config,
	log *logrus.Logger,
	api *remote.Client,
	storage *repository.StorageRepository,
	notifications *repository.NotificationRepository,
	notifier app.Notifier,
	historyCache app.HistoryCache,
) Services {
	alerts := app.NewAlerts(notifier, log)
	feeds := app.FeedSettings{
		DefaultPageSize: cfg.Feed.DefaultPageSize,
		MaxPageSize:     cfg.Feed.MaxPageSize,
		ScrollThreshold: cfg.Feed.ScrollThresholdPx,
	}

	sessions := app.NewSessionStore(storage, api, alerts, log)
	history := app.NewHistoryLoader(api, historyCache, log)
	conversations := app.NewConversations()

	profileCache := cache.NewTTL[model.Profile](storage, repository.KeyProfileCache, repository.KeyProfileCacheFetchedAt, cfg.ProfileCacheTTL())
	profiles := app.NewProfileService(api, storage, profileCache, alerts)

	return Services{
		Chat: app.NewChatService(app.FullChatOptions(cfg.ReplyDelay(), cfg.Chat.HistoryLimit),
			sessions, history, api, historyCache, conversations, alerts, log),
		Widget: app.NewChatService(app.CompactChatOptions(cfg.ReplyDelay(), cfg.Chat.HistoryLimit),
			sessions, history, api, historyCache, conversations, alerts, log),
		Community:     app.NewCommunityService(api, feeds, alerts, log),
		Profiles:      profiles,
		Onboarding:    app.NewOnboardingService(storage, profiles),
		Measurements:  app.NewMeasurementService(api, feeds, alerts),
		Notifications: app.NewNotificationService(notifications, cfg.PollInterval()),
		Conversations: conversations,
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.IdleSweeper != nil {
		a.IdleSweeper.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.NotificationWorker != nil {
		a.NotificationWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
