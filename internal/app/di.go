// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	otelmetric "go.opentelemetry.io/otel/metric"

	addressHTTP "github.com/allisson/delivery/internal/address/http"
	addressRepository "github.com/allisson/delivery/internal/address/repository"
	addressUsecase "github.com/allisson/delivery/internal/address/usecase"
	"github.com/allisson/delivery/internal/config"
	"github.com/allisson/delivery/internal/database"
	deliveryConsumer "github.com/allisson/delivery/internal/delivery/consumer"
	deliveryHTTP "github.com/allisson/delivery/internal/delivery/http"
	deliveryRepository "github.com/allisson/delivery/internal/delivery/repository"
	deliveryUsecase "github.com/allisson/delivery/internal/delivery/usecase"
	"github.com/allisson/delivery/internal/http"
	"github.com/allisson/delivery/internal/metrics"
	outboxRepository "github.com/allisson/delivery/internal/outbox/repository"
	outboxUsecase "github.com/allisson/delivery/internal/outbox/usecase"
	"github.com/allisson/delivery/internal/rabbitmq"
)

// Container holds all application dependencies and provides methods to access
// them. Components are created lazily on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger   *slog.Logger
	db       *sql.DB
	rabbitMQ *rabbitmq.Connection

	// Managers
	txManager database.TxManager

	// Metrics
	metricsProvider  *metrics.Provider
	businessMetrics  metrics.BusinessMetrics
	messagingMetrics metrics.MessagingMetrics

	// Repositories
	deliveryRepo deliveryUsecase.DeliveryRepository
	addressRepo  addressUsecase.AddressRepository
	outboxRepo   *outboxRepository.PostgreSQLOutboxEventRepository

	// Use Cases
	deliveryUseCase deliveryUsecase.UseCase
	addressUseCase  addressUsecase.UseCase
	outboxUseCase   outboxUsecase.UseCase

	// Servers and workers
	httpServer    *http.Server
	metricsServer *http.MetricsServer
	consumer      *rabbitmq.Consumer

	// Initialization flags and mutex for thread-safety
	mu                   sync.Mutex
	loggerInit           sync.Once
	dbInit               sync.Once
	rabbitMQInit         sync.Once
	txManagerInit        sync.Once
	metricsProviderInit  sync.Once
	businessMetricsInit  sync.Once
	messagingMetricsInit sync.Once
	deliveryRepoInit     sync.Once
	addressRepoInit      sync.Once
	outboxRepoInit       sync.Once
	deliveryUseCaseInit  sync.Once
	addressUseCaseInit   sync.Once
	outboxUseCaseInit    sync.Once
	httpServerInit       sync.Once
	metricsServerInit    sync.Once
	consumerInit         sync.Once
	initErrors           map[string]error
}

// NewContainer creates a new dependency injection container with the provided
// configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := c.initDB()
		if err != nil {
			c.initErrors["db"] = err
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// RabbitMQ returns the broker connection with the exchange topology declared.
func (c *Container) RabbitMQ() (*rabbitmq.Connection, error) {
	c.rabbitMQInit.Do(func() {
		conn, err := rabbitmq.Connect(rabbitmq.Config{
			URL:           c.config.RabbitMQURL,
			Exchange:      c.config.RabbitMQExchange,
			PrefetchCount: c.config.RabbitMQPrefetchCount,
		}, c.Logger())
		if err != nil {
			c.initErrors["rabbitMQ"] = fmt.Errorf("failed to connect to rabbitmq: %w", err)
			return
		}
		c.rabbitMQ = conn
	})
	if storedErr, exists := c.initErrors["rabbitMQ"]; exists {
		return nil, storedErr
	}
	return c.rabbitMQ, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are
// disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. Falls back to a
// no-op implementation when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.businessMetrics = bm
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// MessagingMetrics returns the messaging metrics recorder. Falls back to a
// no-op implementation when metrics are disabled.
func (c *Container) MessagingMetrics() (metrics.MessagingMetrics, error) {
	c.messagingMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["messagingMetrics"] = err
			return
		}
		if provider == nil {
			c.messagingMetrics = metrics.NewNoOpMessagingMetrics()
			return
		}
		mm, err := metrics.NewMessagingMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["messagingMetrics"] = fmt.Errorf("failed to create messaging metrics: %w", err)
			return
		}
		c.messagingMetrics = mm
	})
	if storedErr, exists := c.initErrors["messagingMetrics"]; exists {
		return nil, storedErr
	}
	return c.messagingMetrics, nil
}

// DeliveryRepository returns the delivery repository instance.
func (c *Container) DeliveryRepository() (deliveryUsecase.DeliveryRepository, error) {
	c.deliveryRepoInit.Do(func() {
		db, err := c.requirePostgreSQL("delivery repository")
		if err != nil {
			c.initErrors["deliveryRepo"] = err
			return
		}
		c.deliveryRepo = deliveryRepository.NewPostgreSQLDeliveryRepository(db)
	})
	if storedErr, exists := c.initErrors["deliveryRepo"]; exists {
		return nil, storedErr
	}
	return c.deliveryRepo, nil
}

// AddressRepository returns the delivery address repository instance.
func (c *Container) AddressRepository() (addressUsecase.AddressRepository, error) {
	c.addressRepoInit.Do(func() {
		db, err := c.requirePostgreSQL("address repository")
		if err != nil {
			c.initErrors["addressRepo"] = err
			return
		}
		c.addressRepo = addressRepository.NewPostgreSQLAddressRepository(db)
	})
	if storedErr, exists := c.initErrors["addressRepo"]; exists {
		return nil, storedErr
	}
	return c.addressRepo, nil
}

// OutboxRepository returns the outbox event repository instance.
func (c *Container) OutboxRepository() (*outboxRepository.PostgreSQLOutboxEventRepository, error) {
	c.outboxRepoInit.Do(func() {
		db, err := c.requirePostgreSQL("outbox repository")
		if err != nil {
			c.initErrors["outboxRepo"] = err
			return
		}
		c.outboxRepo = outboxRepository.NewPostgreSQLOutboxEventRepository(db)
	})
	if storedErr, exists := c.initErrors["outboxRepo"]; exists {
		return nil, storedErr
	}
	return c.outboxRepo, nil
}

// DeliveryUseCase returns the delivery use case instance.
func (c *Container) DeliveryUseCase() (deliveryUsecase.UseCase, error) {
	c.deliveryUseCaseInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["deliveryUseCase"] = err
			return
		}
		deliveryRepo, err := c.DeliveryRepository()
		if err != nil {
			c.initErrors["deliveryUseCase"] = err
			return
		}
		outboxRepo, err := c.OutboxRepository()
		if err != nil {
			c.initErrors["deliveryUseCase"] = err
			return
		}
		c.deliveryUseCase = deliveryUsecase.NewDeliveryUseCase(txManager, deliveryRepo, outboxRepo)
	})
	if storedErr, exists := c.initErrors["deliveryUseCase"]; exists {
		return nil, storedErr
	}
	return c.deliveryUseCase, nil
}

// AddressUseCase returns the delivery address use case instance.
func (c *Container) AddressUseCase() (addressUsecase.UseCase, error) {
	c.addressUseCaseInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["addressUseCase"] = err
			return
		}
		addressRepo, err := c.AddressRepository()
		if err != nil {
			c.initErrors["addressUseCase"] = err
			return
		}
		c.addressUseCase = addressUsecase.NewAddressUseCase(txManager, addressRepo)
	})
	if storedErr, exists := c.initErrors["addressUseCase"]; exists {
		return nil, storedErr
	}
	return c.addressUseCase, nil
}

// OutboxUseCase returns the outbox publisher use case instance.
func (c *Container) OutboxUseCase() (outboxUsecase.UseCase, error) {
	c.outboxUseCaseInit.Do(func() {
		useCase, err := c.initOutboxUseCase()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
			return
		}
		c.outboxUseCase = useCase
	})
	if storedErr, exists := c.initErrors["outboxUseCase"]; exists {
		return nil, storedErr
	}
	return c.outboxUseCase, nil
}

// HTTPServer returns the API server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		server, err := c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		c.httpServer = server
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server instance, or nil when metrics are
// disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Consumer returns the order request consumer instance.
func (c *Container) Consumer() (*rabbitmq.Consumer, error) {
	c.consumerInit.Do(func() {
		consumer, err := c.initConsumer()
		if err != nil {
			c.initErrors["consumer"] = err
			return
		}
		c.consumer = consumer
	})
	if storedErr, exists := c.initErrors["consumer"]; exists {
		return nil, storedErr
	}
	return c.consumer, nil
}

// Shutdown performs cleanup of all initialized resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.rabbitMQ != nil {
		if err := c.rabbitMQ.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("rabbitmq close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates a structured logger based on the configured log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// requirePostgreSQL returns the database connection after checking the
// configured driver. The repositories rely on PostgreSQL-specific SQL
// (FOR UPDATE SKIP LOCKED, RETURNING, jsonb).
func (c *Container) requirePostgreSQL(component string) (*sql.DB, error) {
	if c.config.DBDriver != "postgres" {
		return nil, fmt.Errorf("unsupported database driver for %s: %s", component, c.config.DBDriver)
	}
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for %s: %w", component, err)
	}
	return db, nil
}

// initOutboxUseCase creates the outbox publisher with its broker-backed
// event processor.
func (c *Container) initOutboxUseCase() (outboxUsecase.UseCase, error) {
	logger := c.Logger()

	txManager, err := c.TxManager()
	if err != nil {
		return nil, err
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, err
	}

	conn, err := c.RabbitMQ()
	if err != nil {
		return nil, err
	}

	publisher, err := rabbitmq.NewPublisher(conn, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}

	messagingMetrics, err := c.MessagingMetrics()
	if err != nil {
		return nil, err
	}

	useCaseConfig := outboxUsecase.Config{
		Interval:   c.config.WorkerInterval,
		BatchSize:  c.config.WorkerBatchSize,
		MaxRetries: c.config.WorkerMaxRetries,
	}

	eventProcessor := outboxUsecase.NewBrokerEventProcessor(publisher, messagingMetrics)
	return outboxUsecase.NewOutboxUseCase(useCaseConfig, txManager, outboxRepo, eventProcessor, logger), nil
}

// initHTTPServer creates the API server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	deliveryUseCase, err := c.DeliveryUseCase()
	if err != nil {
		return nil, err
	}

	addressUseCase, err := c.AddressUseCase()
	if err != nil {
		return nil, err
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	deliveryHandler := deliveryHTTP.NewDeliveryHandler(deliveryUseCase, businessMetrics, logger)
	addressHandler := addressHTTP.NewAddressHandler(addressUseCase, logger)

	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	readyCheck := func(ctx context.Context) error {
		return db.PingContext(ctx)
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}

	var meterProvider otelmetric.MeterProvider
	if provider != nil {
		meterProvider = provider.MeterProvider()
	}

	return http.NewServer(c.config, logger, deliveryHandler, addressHandler, meterProvider, readyCheck), nil
}

// initConsumer creates the order request consumer bound to the configured
// queue.
func (c *Container) initConsumer() (*rabbitmq.Consumer, error) {
	logger := c.Logger()

	conn, err := c.RabbitMQ()
	if err != nil {
		return nil, err
	}

	if err := conn.DeclareQueue(c.config.RabbitMQQueue, c.config.RabbitMQQueue); err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	deliveryUseCase, err := c.DeliveryUseCase()
	if err != nil {
		return nil, err
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	handler := deliveryConsumer.NewOrderRequestHandler(deliveryUseCase, businessMetrics, logger)

	return rabbitmq.NewConsumer(
		conn,
		c.config.RabbitMQQueue,
		c.config.ConsumerConcurrency,
		handler.Handle,
		logger,
	), nil
}
