package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/redis/go-redis/v9"

	"github.com/target/csv-ingestor/config"
	"github.com/target/csv-ingestor/internal/adapters/lambdahandler"
	"github.com/target/csv-ingestor/internal/adapters/objectstore"
	"github.com/target/csv-ingestor/internal/adapters/poller"
	"github.com/target/csv-ingestor/internal/adapters/queue"
	"github.com/target/csv-ingestor/internal/core"
	"github.com/target/csv-ingestor/internal/data"
	"github.com/target/csv-ingestor/internal/observability/notify"
	"github.com/target/csv-ingestor/internal/service"
)

// IngestorDeps contains the shared infrastructure the ingestor is built from.
type IngestorDeps struct {
	Config *config.AppConfig     // Required
	AWS    aws.Config            // Required
	Redis  redis.UniversalClient // Optional: enables the processed-marker cache
	Logger *slog.Logger
}

// Ingestor is the wired pipeline for one process.
type Ingestor struct {
	Dispatcher *service.Dispatcher
	// Queue is set in poll mode, where the process receives and deletes messages itself.
	Queue *queue.Queue

	closers []func() error
}

// Close releases resources acquired while building the ingestor.
func (i *Ingestor) Close() error {
	var errs []error
	for _, c := range i.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BuildIngestor wires the dispatcher and every collaborator from configuration.
func BuildIngestor(ctx context.Context, deps IngestorDeps) (*Ingestor, error) {
	if deps.Config == nil {
		return nil, errors.New("ingestor config is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessions, err := newConnector(deps)
	if err != nil {
		return nil, err
	}
	ingestor, err := newIngestionService(deps)
	if err != nil {
		return nil, err
	}

	sqsClient := queue.NewClient(deps.AWS, cfg.AWS.Endpoint)
	out := &Ingestor{}
	var acker core.MessageAcker
	if cfg.Runtime.Mode == config.ModePoll {
		q, qErr := queue.New(sqsClient, cfg.Queue.QueueURL, logger.With("component", "queue"))
		if qErr != nil {
			return nil, fmt.Errorf("create queue: %w", qErr)
		}
		out.Queue = q
		acker = q
	}

	var dlq notify.Sink
	if cfg.Queue.DeadLetterEnabled() {
		sink, sErr := queue.NewDeadLetterSink(sqsClient, cfg.Queue.DLQURL)
		if sErr != nil {
			return nil, fmt.Errorf("create dead-letter sink: %w", sErr)
		}
		dlq = sink
	}

	metricsSink, closeMetrics := buildMetrics(ctx, logger, cfg.Observability.Metrics)
	out.closers = append(out.closers, closeMetrics)

	dispatcher, err := service.NewDispatcher(service.DispatcherOptions{
		Pipeline: service.DispatcherPipeline{
			Sessions: sessions,
			Ingestor: ingestor,
			Acker:    acker,
		},
		DeadLetters: buildDeadLetterNotifier(logger, cfg.Observability.Alerts, dlq),
		Telemetry: service.DispatcherTelemetry{
			Logger:  logger.With("component", "dispatcher"),
			Metrics: metricsSink,
		},
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create dispatcher: %w", err), out.Close())
	}
	out.Dispatcher = dispatcher
	return out, nil
}

func newConnector(deps IngestorDeps) (*data.Connector, error) {
	creds, err := NewCredentialSource(deps.AWS, deps.Config)
	if err != nil {
		return nil, err
	}
	connector, err := data.NewConnector(data.ConnectorOptions{
		Credentials: creds,
		DSN:         DSNOptions(deps.Config.Postgres),
		Logger:      deps.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	return connector, nil
}

func newIngestionService(deps IngestorDeps) (*service.IngestionService, error) {
	cfg := deps.Config

	ledger, err := data.NewLedgerRepo(nil, cfg.Ledger.Table)
	if err != nil {
		return nil, err
	}

	var mappings core.TableMappingSource
	if cfg.Resolver.Strategy == config.ResolutionMapping {
		repo, mErr := data.NewTableMappingRepo(nil, cfg.Resolver.MappingTable)
		if mErr != nil {
			return nil, mErr
		}
		mappings = repo
	}
	resolver, err := service.NewTableResolver(string(cfg.Resolver.Strategy), mappings)
	if err != nil {
		return nil, fmt.Errorf("create table resolver: %w", err)
	}

	loader, err := data.NewCopyLoader(data.CopyLoaderOptions{
		ChunkSize: cfg.Loader.ChunkSize,
		Delimiter: cfg.Loader.Delimiter[0],
	})
	if err != nil {
		return nil, fmt.Errorf("create loader: %w", err)
	}

	store, err := objectstore.New(objectstore.Options{
		Client: objectstore.NewClient(deps.AWS, cfg.AWS.Endpoint, cfg.AWS.S3ForcePathStyle),
	})
	if err != nil {
		return nil, fmt.Errorf("create object store: %w", err)
	}

	var cache core.ProcessedCache
	if deps.Redis != nil {
		cache = data.NewProcessedCacheRepo(deps.Redis, cfg.Redis.ProcessedTTL)
	}

	return service.NewIngestionService(service.IngestionServiceOptions{
		Pipeline: service.IngestionPipeline{
			Ledger:   ledger,
			Resolver: resolver,
			Objects:  store,
			Loader:   loader,
		},
		Cache: cache,
	})
}

// RunLambda hands the dispatcher to the Lambda runtime. It does not return on success.
func RunLambda(ing *Ingestor, cfg *config.AppConfig, logger *slog.Logger) error {
	h, err := lambdahandler.New(lambdahandler.Options{
		Dispatcher:     ing.Dispatcher,
		Logger:         logger.With("component", "lambda_handler"),
		ResponseMargin: cfg.Runtime.ResponseMargin,
	})
	if err != nil {
		return fmt.Errorf("create lambda handler: %w", err)
	}
	h.Start()
	return nil
}

// RunPoller long-polls the queue until SIGINT or SIGTERM. Batches in flight finish first.
func RunPoller(ctx context.Context, ing *Ingestor, cfg *config.AppConfig, logger *slog.Logger) error {
	if ing.Queue == nil {
		return errors.New("poll mode requires a queue")
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := poller.New(poller.Options{
		Source:     ing.Queue,
		Dispatcher: ing.Dispatcher,
		Config: poller.Config{
			Workers: cfg.Runtime.Workers,
			Receive: queue.ReceiveOptions{
				MaxMessages:       cfg.Queue.MaxMessages,
				WaitTime:          cfg.Queue.WaitTime,
				VisibilityTimeout: cfg.Queue.VisibilityTimeout,
			},
			BatchTimeout: cfg.Runtime.InvocationTimeout,
		},
		Logger: logger.With("component", "poller"),
	})
	if err != nil {
		return fmt.Errorf("create poller: %w", err)
	}
	return p.Run(ctx)
}
