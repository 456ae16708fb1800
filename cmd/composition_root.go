package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/in/kafka"
	"dispatch/internal/adapters/out/filestore"
	"dispatch/internal/adapters/out/notify"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/postgres/orderrepo"
	"dispatch/internal/adapters/out/postgres/registryrepo"
	"dispatch/internal/adapters/out/postgres/rotationrepo"
	"dispatch/internal/core/application/amendments"
	"dispatch/internal/core/application/dispatch"
	"dispatch/internal/core/application/ledger"
	"dispatch/internal/core/application/rotationqueue"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"

	"gorm.io/gorm"
)

const (
	ledgerFileName = "ledger.txt"
	stateFileName  = "state.yaml"
	rosterFileName = "roster.yaml"
)

// CompositionRoot owns the long-lived components and builds the handlers
// the inbound adapters need.
type CompositionRoot struct {
	cfg    Config
	loc    *time.Location
	logger *slog.Logger

	ledger      *ledger.Ledger
	queue       *rotationqueue.RotationQueue
	registry    ports.ParticipantRegistry
	notifier    ports.Notifier
	coordinator *dispatch.Coordinator
	reconciler  *amendments.Reconciler

	closers []func()
}

type storage struct {
	orders   ports.OrderRepository
	rotation ports.RotationRepository
	sequence ports.OrderSequence
	registry ports.ParticipantRegistry
}

func NewCompositionRoot(ctx context.Context, cfg Config, logger *slog.Logger) (*CompositionRoot, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", cfg.TimeZone, err)
	}
	c := &CompositionRoot{cfg: cfg, loc: loc, logger: logger}

	if err = c.build(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *CompositionRoot) build(ctx context.Context) error {
	var (
		st  storage
		err error
	)
	switch c.cfg.LedgerBackend {
	case BackendPostgres:
		st, err = c.openPostgres(ctx)
	default:
		st, err = c.openFiles()
	}
	if err != nil {
		return err
	}
	c.registry = st.registry

	if c.notifier, err = c.openNotifier(); err != nil {
		return err
	}
	if c.ledger, err = ledger.New(st.orders, c.logger); err != nil {
		return fmt.Errorf("create ledger: %w", err)
	}
	if c.queue, err = rotationqueue.New(ctx, st.rotation, c.logger); err != nil {
		return fmt.Errorf("create rotation queue: %w", err)
	}

	c.coordinator, err = dispatch.New(c.ledger, c.queue, st.sequence, c.registry, c.notifier, dispatch.Config{
		AcceptTimeout: c.cfg.AcceptTimeout,
		AdminID:       c.cfg.AdminID,
		Location:      c.loc,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("create coordinator: %w", err)
	}
	c.closers = append(c.closers, c.coordinator.Stop)

	if c.reconciler, err = amendments.New(c.ledger, c.registry, c.notifier, c.logger); err != nil {
		return fmt.Errorf("create reconciler: %w", err)
	}
	return nil
}

func (c *CompositionRoot) openPostgres(ctx context.Context) (storage, error) {
	db, err := postgres.Open(postgres.Config{
		Host:     c.cfg.DBHost,
		Port:     c.cfg.DBPort,
		User:     c.cfg.DBUser,
		Password: c.cfg.DBPassword,
		Name:     c.cfg.DBName,
		SSLMode:  c.cfg.DBSslMode,
	}.DSN())
	if err != nil {
		return storage{}, err
	}
	c.closers = append(c.closers, func() { closeDB(db, c.logger) })

	if err = postgres.Migrate(ctx, db); err != nil {
		return storage{}, err
	}

	var st storage
	if st.orders, err = orderrepo.NewGormOrderRepository(db); err != nil {
		return storage{}, err
	}
	if st.rotation, err = rotationrepo.NewGormRotationRepository(db); err != nil {
		return storage{}, err
	}
	if st.sequence, err = postgres.NewOrderSequence(db); err != nil {
		return storage{}, err
	}
	if st.registry, err = registryrepo.NewGormParticipantRegistry(db); err != nil {
		return storage{}, err
	}
	return st, nil
}

func (c *CompositionRoot) openFiles() (storage, error) {
	if err := os.MkdirAll(c.cfg.DataDir, 0o755); err != nil {
		return storage{}, fmt.Errorf("create data dir: %w", err)
	}

	orders, err := filestore.NewLedgerFile(filepath.Join(c.cfg.DataDir, ledgerFileName), c.loc)
	if err != nil {
		return storage{}, err
	}
	state, err := filestore.NewStateFile(filepath.Join(c.cfg.DataDir, stateFileName))
	if err != nil {
		return storage{}, err
	}
	roster, err := filestore.NewRosterFile(filepath.Join(c.cfg.DataDir, rosterFileName))
	if err != nil {
		return storage{}, err
	}
	return storage{orders: orders, rotation: state, sequence: state, registry: roster}, nil
}

// openNotifier publishes to RabbitMQ when AMQP_URL is set and only logs
// messages otherwise.
func (c *CompositionRoot) openNotifier() (ports.Notifier, error) {
	if c.cfg.AMQPURL == "" {
		c.logger.Warn("AMQP_URL is not set, notifications are only logged")
		return notify.NewLogNotifier(c.logger), nil
	}

	client, err := notify.DialAMQP(c.cfg.AMQPURL, c.cfg.AMQPExchange)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, client.Close)

	return notify.NewRabbitNotifier(client, c.cfg.AMQPExchange, 0, c.logger)
}

func (c *CompositionRoot) Coordinator() *dispatch.Coordinator {
	return c.coordinator
}

func (c *CompositionRoot) CreateCourierActionCommandHandler() (commands.CourierActionCommandHandler, error) {
	return commands.NewCourierActionCommandHandler(c.coordinator, c.reconciler, c.logger)
}

func (c *CompositionRoot) CreateGetReportQueryHandler() (queries.GetReportQueryHandler, error) {
	return queries.NewGetReportQueryHandler(c.ledger, c.registry)
}

func (c *CompositionRoot) CreateHTTPServer() (*httpin.Server, error) {
	actions, err := c.CreateCourierActionCommandHandler()
	if err != nil {
		return nil, err
	}
	getOrder, err := queries.NewGetOrderQueryHandler(c.ledger)
	if err != nil {
		return nil, err
	}
	getLastAccepted, err := queries.NewGetLastAcceptedOrderQueryHandler(c.ledger)
	if err != nil {
		return nil, err
	}
	getReport, err := c.CreateGetReportQueryHandler()
	if err != nil {
		return nil, err
	}
	return httpin.NewServer(c.coordinator, c.reconciler, actions,
		getOrder, getLastAccepted, getReport, c.loc, c.logger), nil
}

func (c *CompositionRoot) CreateJobManager() (*jobs.JobManager, error) {
	reports, err := c.CreateGetReportQueryHandler()
	if err != nil {
		return nil, err
	}
	rollover := jobs.NewRolloverJob(jobs.RolloverConfig{
		Schedule: c.cfg.RolloverSchedule,
		Location: c.loc,
		Admin:    c.cfg.AdminID,
	}, reports, c.notifier, c.coordinator, c.reconciler, c.logger)
	return jobs.NewJobManager(rollover), nil
}

// CreateKafkaConsumer returns nil when no brokers are configured.
func (c *CompositionRoot) CreateKafkaConsumer() (*kafka.Consumer, error) {
	if len(c.cfg.KafkaBrokers) == 0 {
		return nil, nil
	}
	actions, err := c.CreateCourierActionCommandHandler()
	if err != nil {
		return nil, err
	}
	consumer, err := kafka.NewConsumer(kafka.Config{
		Brokers:       c.cfg.KafkaBrokers,
		ConsumerGroup: c.cfg.KafkaConsumerGroup,
		Topic:         c.cfg.KafkaActionsTopic,
	}, actions, c.logger)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, consumer.Close)
	return consumer, nil
}

// Close releases resources in reverse order of acquisition.
func (c *CompositionRoot) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func closeDB(db *gorm.DB, logger *slog.Logger) {
	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.Close()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Closing database failed", "error", err)
	}
}
