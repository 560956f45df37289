package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"turbopricer/internal/server"
	"turbopricer/internal/server/handler"
)

// shutdownGrace bounds how long the HTTP server waits for in-flight
// requests once the context is cancelled.
const shutdownGrace = 10 * time.Second

// RefreshMode runs the refresh cycle headless: chain snapshots, indexer
// ingest, and cache publication, with no HTTP surface. Useful when the API
// is served by separate instances in server mode.
func (a *App) RefreshMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "running in refresh mode")

	err := deps.Portfolio.Run(ctx)
	if ctx.Err() != nil {
		return context.Canceled
	}
	return err
}

// ServerMode serves the HTTP and WebSocket API from the shared cache
// without running refresh cycles of its own. Quote endpoints work as long
// as some refresh-mode instance keeps the cache warm; the portfolio
// endpoint degrades to 503 until this instance has a snapshot.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "running in server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startServer(ctx, g, deps)
	return waitGroup(ctx, g)
}

// FullMode runs everything in one process: the refresh loop, the WebSocket
// hub, and the HTTP API.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "running in full mode")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := deps.Portfolio.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("refresh loop: %w", err)
	})

	a.startServer(ctx, g, deps)
	return waitGroup(ctx, g)
}

// startServer registers the hub and HTTP server goroutines on the group.
func (a *App) startServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if !a.cfg.Server.Enabled {
		a.logger.WarnContext(ctx, "server disabled in configuration")
		return
	}

	if deps.Hub != nil {
		g.Go(func() error {
			if err := deps.Hub.Run(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("ws hub: %w", err)
			}
			return nil
		})
	}

	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(a.logger),
		Markets:   handler.NewMarketHandler(deps.Portfolio, deps.Quotes, a.logger),
		Estimates: handler.NewEstimateHandler(deps.Quotes, a.logger),
		Portfolio: handler.NewPortfolioHandler(deps.Portfolio, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		RateLimit:       a.cfg.Server.RateLimit,
		RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration,
	}, handlers, deps.Hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		if err := srv.Start(); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// waitGroup blocks on the errgroup, normalizing a cancelled context to the
// clean-shutdown sentinel.
func waitGroup(ctx context.Context, g *errgroup.Group) error {
	err := g.Wait()
	if ctx.Err() != nil {
		return context.Canceled
	}
	return err
}
