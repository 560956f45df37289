package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/ethclient"

	s3blob "turbopricer/internal/blob/s3"
	"turbopricer/internal/cache/redis"
	"turbopricer/internal/chain"
	"turbopricer/internal/config"
	"turbopricer/internal/domain"
	"turbopricer/internal/platform/subgraph"
	"turbopricer/internal/server/ws"
	"turbopricer/internal/service"
	"turbopricer/internal/store/postgres"
)

// Dependencies bundles every dependency that the application modes need to
// operate. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	// Infrastructure
	TransactionStore domain.TransactionStore
	SnapshotCache    domain.SnapshotCache
	LockManager      domain.LockManager
	RateLimiter      domain.RateLimiter
	Archiver         domain.Archiver

	// State sources
	Fetcher *chain.Fetcher
	Indexer *subgraph.Client

	// Services
	Quotes    *service.QuoteService
	Portfolio *service.PortfolioService

	// WebSocket hub (nil when the HTTP server is disabled)
	Hub *ws.Hub
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}
	deps.TransactionStore = postgres.NewTransactionStore(pgClient)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.SnapshotCache = redis.NewSnapshotCache(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)

	// --- Chain ---
	ec, err := ethclient.DialContext(ctx, cfg.Chain.RPCURL)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: rpc dial: %w", err)
	}
	closers = append(closers, ec.Close)

	registry, err := chain.NewRegistry()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: abi registry: %w", err)
	}
	multicaller := chain.NewMulticaller(ec, cfg.Chain.MulticallAddr, registry)
	deps.Fetcher = chain.NewFetcher(ec, multicaller, registry, cfg.Chain.AMMFactoryAddr, logger)

	// --- Indexer ---
	deps.Indexer = subgraph.NewClient(cfg.Subgraph.URL, cfg.Subgraph.APIKey)

	// --- S3 blob storage (optional) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client))
	}

	// --- WebSocket hub ---
	if cfg.Server.Enabled {
		deps.Hub = ws.NewHub(logger)
	}

	// --- Services ---
	deps.Quotes = service.NewQuoteService(deps.SnapshotCache, int32(cfg.Chain.CashDecimals), logger)

	var broadcaster service.Broadcaster
	if deps.Hub != nil {
		broadcaster = deps.Hub
	}
	deps.Portfolio = service.NewPortfolioService(
		deps.Fetcher,
		deps.Indexer,
		deps.TransactionStore,
		deps.SnapshotCache,
		deps.LockManager,
		deps.Archiver,
		broadcaster,
		service.PortfolioServiceConfig{
			MarketFactories: cfg.Chain.MarketFactories,
			CashToken:       cfg.Chain.CashToken,
			CashSymbol:      cfg.Chain.CashSymbol,
			CashDecimals:    int32(cfg.Chain.CashDecimals),
			RefreshInterval: cfg.Refresh.Interval.Duration,
			PoolTTL:         cfg.Refresh.PoolTTL.Duration,
		},
		logger,
	)

	return deps, cleanup, nil
}
