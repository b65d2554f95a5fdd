package cli

import (
	"fmt"
	"strconv"

	"casebase/config"
	"casebase/internal/adapter/cache"
	"casebase/internal/adapter/encoder"
	"casebase/internal/adapter/library"
	"casebase/internal/adapter/metric"
	"casebase/internal/adapter/retriever"
	"casebase/internal/adapter/store"
	"casebase/internal/port"
	"casebase/internal/usecase"

	"go.uber.org/zap"
)

// app holds everything a command needs to talk to the engine.
type app struct {
	cfg        *config.Config
	trusted    *store.CSVStore
	journal    *store.BoltJournal
	registry   *metric.Registry
	aggregator *usecase.Aggregator
	session    *usecase.Session
	engine     *usecase.Engine
	logger     *zap.Logger
}

// openApp loads the trusted store and restores the session. Failures
// loading the trusted store are startup errors.
func openApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	trusted := store.NewCSVStore(cfg.Library.Trusted)
	base, err := library.LoadTrusted(trusted)
	if err != nil {
		return nil, err
	}
	vocab := base.Vocabulary()
	logger.Info("library loaded",
		zap.String("path", trusted.Path()),
		zap.Int("symptoms", vocab.Len()),
		zap.Int("cases", base.Len()),
	)

	registry, err := metric.FromNames(cfg.Retrieve.Metrics)
	if err != nil {
		return nil, fmt.Errorf("invalid retrieve.metrics: %w", err)
	}
	mode, err := usecase.ParseAggregationMode(cfg.Retrieve.Aggregation)
	if err != nil {
		return nil, err
	}
	aggregator := usecase.NewAggregator(mode)

	var ret port.Retriever = retriever.NewNearestRetriever(registry, cfg.Encoding.Signed, logger)
	var qc *cache.QueryCache
	if cfg.Retrieve.CacheSize > 0 {
		qc = cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL)
		ret = cache.NewCachedRetriever(ret, qc)
	}

	a := &app{
		cfg:        cfg,
		trusted:    trusted,
		registry:   registry,
		aggregator: aggregator,
		logger:     logger,
	}

	opts := usecase.SessionOptions{
		RetainUnselected: cfg.Promote.RetainUnselected,
		PersistPending:   cfg.Promote.PersistPending,
		Logger:           logger,
	}
	if cfg.Promote.PersistPending && cfg.Library.Pending != "" {
		opts.PendingStore = store.NewPendingFile(cfg.Library.Pending)
	}
	if cfg.Library.Journal != "" {
		if err := cfg.EnsureStateDir(); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
		journal, err := openJournal(cfg.Library.Journal, base, logger)
		if err != nil {
			return nil, err
		}
		a.journal = journal
		opts.Journal = journal
	}

	session, err := usecase.OpenSession(base, trusted, opts)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.session = session
	a.engine = usecase.NewEngine(
		encoder.New(vocab, cfg.Encoding.Strict),
		session,
		usecase.NewDiagnoseUseCase(ret, aggregator),
		usecase.EngineOptions{
			FoldPending: cfg.Retrieve.FoldPending,
			Cache:       qc,
			Logger:      logger,
		},
	)
	return a, nil
}

func openJournal(path string, base *library.CaseLibrary, logger *zap.Logger) (*store.BoltJournal, error) {
	journal, err := store.NewBoltJournal(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session journal: %w", err)
	}

	result, err := journal.Open(base.Vocabulary())
	if err != nil {
		journal.Close()
		return nil, fmt.Errorf("failed to prepare session journal: %w", err)
	}
	if result.NeedsRebuild {
		logger.Warn("session journal cleared", zap.String("reason", result.Reason))
	} else if result.NeedsMigration {
		logger.Info("session journal migrated",
			zap.Int("from", result.OldVersion),
			zap.Int("to", result.NewVersion),
		)
	}
	return journal, nil
}

// Close releases the session journal.
func (a *app) Close() {
	if a.journal != nil {
		a.journal.Close()
	}
}

// parseIndices converts 1-based positions from the command line into
// 0-based positions.
func parseIndices(args []string) ([]int, error) {
	indices := make([]int, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid pending index %q: must be a positive number", arg)
		}
		indices = append(indices, n-1)
	}
	return indices, nil
}
