// Package app wires together every subsystem of the indexing and search
// core: configuration, logging, the collection registry, the analyzer
// and parser catalogs, the multi-index manager, the EFO ontology
// subsystem, the indexing service, and the query engine.
package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ebi-biostudies/biostudies-index/internal/analyzer"
	"github.com/ebi-biostudies/biostudies-index/internal/broker"
	"github.com/ebi-biostudies/biostudies-index/internal/common"
	"github.com/ebi-biostudies/biostudies-index/internal/efo"
	"github.com/ebi-biostudies/biostudies-index/internal/indexstore"
	"github.com/ebi-biostudies/biostudies-index/internal/indexsvc"
	"github.com/ebi-biostudies/biostudies-index/internal/parser"
	"github.com/ebi-biostudies/biostudies-index/internal/query"
	"github.com/ebi-biostudies/biostudies-index/internal/registry"
	"github.com/ebi-biostudies/biostudies-index/internal/security"
	"github.com/ebi-biostudies/biostudies-index/internal/spellcheck"
	"github.com/ebi-biostudies/biostudies-index/internal/submission"
	"github.com/ebi-biostudies/biostudies-index/internal/taxonomy"
)

// App holds every wired subsystem, built once at startup in a fixed
// order: index manager -> registry -> analyzers/parsers -> EFO subsystem
// -> submission indexer -> indexing service -> query engine (config and
// logger are supplied by the caller).
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Registry  *registry.Registry
	Analyzers *analyzer.Catalog
	Parsers   *parser.Catalog

	Store *indexstore.Manager

	EFOResolver *efo.Resolver
	EFOIndexer  *efo.Indexer
	EFOMatcher  *efo.EFOTermMatcher

	SubmissionIndexer *submission.Indexer
	IndexingService   *indexsvc.Service
	Taxonomy          *taxonomy.Taxonomy
	SpellCheck        *spellcheck.Checker
	SecurityBuilder   *security.Builder
	QueryEngine       *query.Engine

	BrokerClient *broker.Client

	cleanupCron *cron.Cron
	ctx         context.Context
	cancel      context.CancelFunc
}

// New builds and wires the full application from cfg. EFO ontology data
// at efoPath is loaded if provided; a blank path leaves the EFO index
// empty (acceptable at first boot, before a reload is triggered).
func New(cfg *common.Config, logger arbor.ILogger, efoPath string) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	store, err := indexstore.Open(cfg.Index.BaseDir, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("app: failed to open index manager: %w", err)
	}

	reg, err := registry.Load(cfg.Collection.Registry.Location)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("app: failed to load registry: %w", err)
	}

	analyzers := analyzer.NewCatalog(cfg.Indexer.Stopwords)
	analyzers.BuildDispatcher(reg)
	parsers := parser.NewCatalog()

	efoIndexer := efo.NewIndexerWithStopwords(store, cfg.Indexer.Stopwords, logger)
	matcher := efo.NewEFOTermMatcher(store, logger)

	submissionIndexer := submission.New(reg, analyzers, parsers, store, matcher, logger)

	fetcher := indexsvc.NewHTTPFetcher(nil, cfg.Biostudies.RabbitMQ.Backend, cfg.Biostudies.RabbitMQ.SessionToken)
	indexingService := indexsvc.New(store, submissionIndexer, fetcher, publicCollectionOrFirst(reg), cfg.Indexer.ThreadCount, cfg.Indexer.QueueCapacity, logger)

	tax := taxonomy.New(store, matcher)
	spell := spellcheck.New(store)
	secBuilder := security.NewBuilder(analyzer.NewAccessField(cfg.Indexer.Stopwords))
	queryEngine := query.NewEngine(store, reg, analyzers, secBuilder, spell, logger)

	a := &App{
		Config:            cfg,
		Logger:            logger,
		Registry:          reg,
		Analyzers:         analyzers,
		Parsers:           parsers,
		Store:             store,
		EFOIndexer:        efoIndexer,
		EFOMatcher:        matcher,
		SubmissionIndexer: submissionIndexer,
		IndexingService:   indexingService,
		Taxonomy:          tax,
		SpellCheck:        spell,
		SecurityBuilder:   secBuilder,
		QueryEngine:       queryEngine,
		ctx:               ctx,
		cancel:            cancel,
	}

	if efoPath != "" {
		if err := a.ReloadEFO(efoPath); err != nil {
			logger.Warn().Err(err).Str("path", efoPath).Msg("app: initial EFO load failed, starting with an empty ontology")
		}
	}

	a.cleanupCron = indexsvc.StartCleanupScheduler(indexingService, logger)

	if cfg.Messaging.Stomp.Enabled {
		a.BrokerClient = broker.New(cfg.Biostudies.RabbitMQ, indexingService, logger)
		common.SafeGo(logger, "broker-client", func() {
			if err := a.BrokerClient.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("broker client stopped")
			}
		})
	}

	return a, nil
}

// publicCollectionOrFirst resolves the collection name used for indexing
// worker fetches; this core is registry-driven and collection-agnostic,
// so the "public" collection (or the first declared collection, if
// "public" is absent) stands in for "the" collection at boot.
func publicCollectionOrFirst(reg *registry.Registry) string {
	if _, ok := reg.Collection(registry.PublicCollectionName); ok {
		return registry.PublicCollectionName
	}
	for _, cd := range reg.Collections() {
		return cd.CollectionName
	}
	return ""
}

// ReloadEFO reloads the ontology graph from path, rebuilds the EFO
// index, and refreshes the term matcher's caches. Submissions indexed
// before a reload keep their previously derived efo facet until they
// are themselves reindexed.
func (a *App) ReloadEFO(path string) error {
	resolver, err := efo.LoadEFO(path)
	if err != nil {
		return err
	}
	if err := a.EFOIndexer.IndexEFO(resolver); err != nil {
		return err
	}
	a.EFOResolver = resolver
	return a.EFOMatcher.Refresh()
}

// Shutdown stops the cleanup scheduler and the indexing service's
// workers, then closes every index directory.
func (a *App) Shutdown() error {
	if a.cleanupCron != nil {
		a.cleanupCron.Stop()
	}
	a.IndexingService.Stop()
	a.cancel()
	return a.Store.CloseAll()
}
