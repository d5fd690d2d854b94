package cmd

import (
	"fmt"
	"io"
	"log/slog"

	httpin "ordering/internal/adapters/in/http"
	kafkain "ordering/internal/adapters/in/kafka"
	kafkaout "ordering/internal/adapters/out/kafka"
	"ordering/internal/adapters/out/postgres"
	"ordering/internal/adapters/out/postgres/outboxrepo"
	"ordering/internal/adapters/out/rabbitmq"
	redisout "ordering/internal/adapters/out/redis"
	"ordering/internal/core/application/usecases/commands"
	"ordering/internal/core/application/usecases/queries"
	"ordering/internal/core/ports"
	"ordering/internal/jobs"
	"ordering/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	logger     *slog.Logger
	registry   *prometheus.Registry
	metrics    *metrics.OrderingMetrics
	uowFactory *postgres.GormUnitOfWorkFactory
}

func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) CompositionRoot {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewOrderingMetrics(registry)

	return CompositionRoot{
		config:     config,
		gormDB:     gormDB,
		logger:     logger,
		registry:   registry,
		metrics:    m,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB, m),
	}
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreatePlaceOrderCommandHandler() commands.PlaceOrderCommandHandler {
	return commands.NewPlaceOrderCommandHandler(c.orderUoWFactory())
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(c.orderUoWFactory())
}

func (c *CompositionRoot) CreateAcceptOrderCommandHandler() commands.AcceptOrderCommandHandler {
	return commands.NewAcceptOrderCommandHandler(c.orderUoWFactory())
}

func (c *CompositionRoot) CreateCompleteOrderCommandHandler() commands.CompleteOrderCommandHandler {
	return commands.NewCompleteOrderCommandHandler(c.orderUoWFactory())
}

func (c *CompositionRoot) CreateApplyPaymentResultCommandHandler() commands.ApplyPaymentResultCommandHandler {
	return commands.NewApplyPaymentResultCommandHandler(c.orderUoWFactory())
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListOrdersByCustomerQueryHandler() queries.ListOrdersByCustomerQueryHandler {
	return queries.NewListOrdersByCustomerQueryHandler(c.gormDB)
}

// CreateEventBus connects the broker selected by BUS_DRIVER. The caller
// closes the returned bus on shutdown.
func (c *CompositionRoot) CreateEventBus() (EventBusCloser, error) {
	switch c.config.BusDriver {
	case BusDriverKafka:
		bus, err := kafkaout.NewEventBus(c.config.KafkaBrokers, c.config.KafkaClientID)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka event bus: %w", err)
		}
		return bus, nil
	case BusDriverRabbitMQ:
		bus, err := rabbitmq.NewEventBus(c.config.RabbitMQURL, c.config.RabbitMQExchange)
		if err != nil {
			return nil, fmt.Errorf("failed to create rabbitmq event bus: %w", err)
		}
		return bus, nil
	default:
		return nil, fmt.Errorf("unsupported bus driver %q", c.config.BusDriver)
	}
}

func (c *CompositionRoot) CreateJobManager(bus ports.EventBus) *jobs.JobManager {
	store := outboxrepo.NewGormOutboxStore(c.gormDB)

	dispatcher := jobs.NewOutboxDispatcher(
		store,
		bus,
		jobs.NewTopicRouter(c.config.KafkaDefaultTopic, c.config.OutboxTopicRoutes),
		jobs.DispatcherConfig{
			BatchSize: c.config.OutboxBatchSize,
			Interval:  c.config.OutboxPollInterval,
		},
		c.metrics,
		c.logger,
	)

	retention := jobs.NewOutboxRetentionJob(
		store,
		c.config.OutboxRetentionSchedule,
		c.config.OutboxRetentionWindow,
		c.metrics,
		c.logger,
	)

	return jobs.NewJobManager(dispatcher, retention, c.logger)
}

func (c *CompositionRoot) CreatePaymentEventConsumer() *kafkain.PaymentEventConsumer {
	reader := kafkain.NewReader(c.config.KafkaBrokers, c.config.KafkaPaymentTopic, c.config.KafkaConsumerGroup)
	return kafkain.NewPaymentEventConsumer(reader, c.CreateApplyPaymentResultCommandHandler(), c.logger)
}

// CreateIdempotencyStore returns nil when REDIS_URL is empty, which turns
// Idempotency-Key handling off. The returned closer is never nil.
func (c *CompositionRoot) CreateIdempotencyStore() (*redisout.IdempotencyStore, io.Closer, error) {
	if c.config.RedisURL == "" {
		return nil, closerFunc(func() error { return nil }), nil
	}

	options, err := redis.ParseURL(c.config.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(options)

	return redisout.NewIdempotencyStore(client, c.config.IdempotencyTTL), client, nil
}

func (c *CompositionRoot) CreateRouter(idempotency *redisout.IdempotencyStore) *echo.Echo {
	handlers := httpin.Handlers{
		PlaceOrder:           c.CreatePlaceOrderCommandHandler(),
		CancelOrder:          c.CreateCancelOrderCommandHandler(),
		AcceptOrder:          c.CreateAcceptOrderCommandHandler(),
		CompleteOrder:        c.CreateCompleteOrderCommandHandler(),
		GetOrder:             c.CreateGetOrderQueryHandler(),
		ListOrdersByCustomer: c.CreateListOrdersByCustomerQueryHandler(),
	}

	// A typed nil pointer would defeat the nil check in the server.
	var store httpin.IdempotencyStore
	if idempotency != nil {
		store = idempotency
	}

	return httpin.NewRouter(httpin.NewServer(handlers, store, c.logger), c.registry)
}

// EventBusCloser is an event bus that owns a broker connection.
type EventBusCloser interface {
	ports.EventBus
	io.Closer
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}
