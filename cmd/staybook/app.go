package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"staybook/internal/app/commands"
	availabilityapp "staybook/internal/app/handlers/availability"
	bookingapp "staybook/internal/app/handlers/booking"
	"staybook/internal/app/handlers/notifications"
	pricingapp "staybook/internal/app/handlers/pricing"
	"staybook/internal/app/middleware"
	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainpricing "staybook/internal/domain/pricing"
	"staybook/internal/infra/broker/kafka"
	rediscache "staybook/internal/infra/cache/redis"
	"staybook/internal/infra/channelmanager"
	"staybook/internal/infra/config"
	mongostore "staybook/internal/infra/db/mongo"
	ginserver "staybook/internal/infra/http/gin"
	"staybook/internal/infra/inbox"
	"staybook/internal/infra/obs"
	infraoutbox "staybook/internal/infra/outbox"
	infrapricing "staybook/internal/infra/pricing"
	"staybook/internal/infra/security"
	"staybook/internal/infra/storage/memory"
	s3storage "staybook/internal/infra/storage/s3"
)

const eventSource = "app://staybook"

// actor is a long-running background loop owned by the run group.
type actor struct {
	name string
	run  func(ctx context.Context) error
}

type application struct {
	handlers ginserver.Handlers
	actors   []actor
	checks   []func(ctx context.Context) error
	closers  []func(ctx context.Context) error
}

func (a *application) ready(ctx context.Context) error {
	for _, check := range a.checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
}

// storage bundles the persistence side chosen by STORAGE_MODE.
type storage struct {
	factory     uow.UoWFactory
	idempotency middleware.IdempotencyStore
	outbox      appoutbox.Outbox
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *obs.Metrics) (*application, error) {
	app := &application{}

	index, err := buildAvailability(ctx, cfg, logger, metrics, app)
	if err != nil {
		return nil, err
	}
	pricing, err := buildPricing(ctx, cfg, logger, metrics, app)
	if err != nil {
		return nil, err
	}

	notifier := &notifications.BookingEventNotifier{
		Notifier:      &memory.Notifier{Logger: logger},
		OperatorEmail: cfg.OperatorEmail,
		Logger:        logger,
	}
	store, err := buildStorage(ctx, cfg, logger, metrics, notifier, app)
	if err != nil {
		return nil, err
	}

	cbus := commands.NewInMemoryBus()
	commands.RegisterHandler(cbus, bookingapp.SubmitBookingRequestCommand{}.Key(), &bookingapp.SubmitBookingRequestHandler{
		Pricing:      pricing,
		Availability: index,
		Outbox:       store.outbox,
		Now:          cfg.Now,
		Logger:       logger,
	})
	commands.RegisterHandler(cbus, bookingapp.UpdateBookingStatusCommand{}.Key(), &bookingapp.UpdateBookingStatusHandler{
		Outbox: store.outbox,
		Now:    cfg.Now,
		Logger: logger,
	})

	qbus := queries.NewInMemoryBus()
	queries.RegisterHandler(qbus, bookingapp.ListBookingRequestsQuery{}.Key(), &bookingapp.ListBookingRequestsHandler{UoWFactory: store.factory, Logger: logger})
	queries.RegisterHandler(qbus, bookingapp.BookingSummaryQuery{}.Key(), &bookingapp.BookingSummaryHandler{UoWFactory: store.factory, Now: cfg.Now})
	queries.RegisterHandler(qbus, availabilityapp.GetCalendarQuery{}.Key(), &availabilityapp.GetCalendarHandler{Availability: index, Now: cfg.Now})
	queries.RegisterHandler(qbus, pricingapp.QuoteStayQuery{}.Key(), &pricingapp.QuoteStayHandler{Pricing: pricing})
	queries.RegisterHandler(qbus, pricingapp.GetPricingQuery{}.Key(), &pricingapp.GetPricingHandler{Pricing: pricing})

	validator := middleware.NewStructValidator()
	commandBus := middleware.ChainCommands(cbus,
		middleware.Logging(logger),
		middleware.Validation(validator),
		middleware.Authorization(middleware.OperatorAuthorizer{}),
		middleware.Idempotency(store.idempotency, nil),
		middleware.OutboxFlush(store.outbox),
		middleware.Transaction(store.factory, nil),
	)
	queryBus := middleware.ChainQueries(qbus,
		middleware.QueryLogging(logger),
		middleware.QueryValidation(validator),
		middleware.QueryAuthorization(middleware.OperatorAuthorizer{}),
	)

	if cfg.OperatorPasswordHash == "" {
		logger.Warn("OPERATOR_PASSWORD_HASH not set, operator endpoints will reject every request")
	}
	limiter := ginserver.NewClientRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	app.handlers = ginserver.Handlers{
		Booking:      ginserver.BookingHandler{Commands: commandBus, Logger: logger},
		Operator:     ginserver.OperatorHandler{Commands: commandBus, Queries: queryBus, Logger: logger},
		Availability: ginserver.AvailabilityHandler{Queries: queryBus, Logger: logger},
		Pricing:      ginserver.PricingHandler{Queries: queryBus, Logger: logger},
		OperatorAuth: ginserver.OperatorAuth{
			User:         cfg.OperatorUser,
			PasswordHash: cfg.OperatorPasswordHash,
			Verifier:     security.BcryptHasher{},
			Logger:       logger,
		}.Handle,
		SubmitLimit: limiter.Middleware(),
		Metrics:     metrics,
	}
	return app, nil
}

// buildAvailability wires the channel manager client, optionally behind the Redis cache.
// Without a channel manager URL every date is reported open.
func buildAvailability(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *obs.Metrics, app *application) (*domainavailability.Index, error) {
	var source domainavailability.Source
	if cfg.ChannelManagerURL != "" {
		client, err := channelmanager.NewClient(channelmanager.Config{
			BaseURL:  cfg.ChannelManagerURL,
			Token:    cfg.ChannelManagerToken,
			Timeout:  cfg.ChannelManagerTimeout,
			Location: cfg.TimeZone,
		}, nil, logger)
		if err != nil {
			return nil, err
		}
		source = client
	} else {
		logger.Warn("CHANNEL_MANAGER_URL not set, calendar will show every date as available")
		source = domainavailability.SourceFunc(func(context.Context, time.Time, time.Time) ([]domainavailability.Record, error) {
			return nil, nil
		})
	}

	if cfg.RedisAddr != "" {
		client, err := rediscache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable, availability cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			source = rediscache.NewCachedSource(source, client, cfg.AvailabilityCacheTTL, logger)
			app.closers = append(app.closers, func(context.Context) error { return client.Close() })
		}
	}

	index := domainavailability.NewIndex(source, cfg.ChannelManagerTimeout, logger)
	index.Observer = metrics
	return index, nil
}

func buildPricing(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *obs.Metrics, app *application) (domainpricing.Service, error) {
	switch cfg.PricingSource {
	case config.PricingFile:
		provider, err := infrapricing.NewFileProvider(cfg.PricingFile, logger, metrics)
		if err != nil {
			return domainpricing.Service{}, fmt.Errorf("pricing file %s: %w", cfg.PricingFile, err)
		}
		provider.Watch()
		return domainpricing.Service{Config: provider}, nil
	case config.PricingS3:
		objects, err := s3storage.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, logger)
		if err != nil {
			return domainpricing.Service{}, fmt.Errorf("pricing bucket: %w", err)
		}
		provider := &infrapricing.ObjectProvider{
			Objects:  objects,
			Key:      cfg.PricingObjectKey,
			Interval: cfg.PricingRefreshInterval,
			Logger:   logger,
			Observer: metrics,
		}
		if err := provider.Load(ctx); err != nil {
			logger.Warn("pricing object not loaded yet, retrying in background", "key", cfg.PricingObjectKey, "error", err)
		}
		app.actors = append(app.actors, actor{name: "pricing-refresh", run: provider.Run})
		app.checks = append(app.checks, objects.Ping)
		return domainpricing.Service{Config: provider}, nil
	default:
		return domainpricing.Service{Config: memory.NewPricingStore(memory.DefaultPricing())}, nil
	}
}

// buildStorage picks the in-process setup or Mongo with the Kafka outbox relay and the
// notification consumer.
func buildStorage(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *obs.Metrics, notifier *notifications.BookingEventNotifier, app *application) (storage, error) {
	if cfg.StorageMode != config.StorageMongo {
		repo := memory.NewBookingRepository()
		return storage{
			factory:     memory.Factory{BookingRepo: repo},
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			outbox:      memory.NewOutbox(notifier, logger),
		}, nil
	}

	client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB, cfg.MongoTimeout)
	if err != nil {
		return storage{}, fmt.Errorf("mongo connect: %w", err)
	}
	app.closers = append(app.closers, client.Close)
	app.checks = append(app.checks, client.Ping)

	repo := mongostore.NewBookingRepository(client.DB)
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Warn("booking indexes not created", "error", err)
	}
	box := infraoutbox.NewStore(client.DB)

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		return storage{}, fmt.Errorf("kafka producer: %w", err)
	}
	app.closers = append(app.closers, func(context.Context) error { return producer.Close() })
	worker := &infraoutbox.Worker{
		Store:       box,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Source:      eventSource,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
		Observer:    metrics,
	}
	app.actors = append(app.actors, actor{name: "outbox-relay", run: worker.Run})

	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, sarama.NewConfig(), &kafka.CloudEventHandler{
		Events: notifier,
		Inbox:  inbox.NewStore(client.DB, cfg.KafkaConsumerGroup),
		Logger: logger,
	}, logger)
	if err != nil {
		return storage{}, fmt.Errorf("kafka consumer: %w", err)
	}
	app.closers = append(app.closers, func(context.Context) error { return consumer.Close() })
	topics := []string{infraoutbox.TopicFor(cfg.KafkaTopicPrefix, domainbooking.EventRequested)}
	app.actors = append(app.actors, actor{name: "notifications", run: func(ctx context.Context) error {
		return consumer.Run(ctx, topics)
	}})

	return storage{
		factory:     mongostore.Factory{DB: client.DB, BookingRepo: repo},
		idempotency: mongostore.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL),
		outbox:      box,
	}, nil
}
