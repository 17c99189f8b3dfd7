package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/schemasnap/schemasnap/internal/server"
	"github.com/schemasnap/schemasnap/pkg/buildinfo"
	"github.com/schemasnap/schemasnap/pkg/cache"
	"github.com/schemasnap/schemasnap/pkg/store"
)

// shutdownTimeout bounds graceful shutdown after the context is cancelled.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr        string
		redisURL    string
		mongoURL    string
		mongoDB     string
		cachePrefix string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the schemasnap HTTP API server",
		Long: `Run the schemasnap HTTP API server.

The server accepts snapshot documents in the portable JSON format,
renders them, and archives them. Without --mongo-url archives live in
memory and are lost on restart; without --redis-url re-renders are not
cached.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), serveOptions{
				addr:        addr,
				redisURL:    redisURL,
				mongoURL:    mongoURL,
				mongoDB:     mongoDB,
				cachePrefix: cachePrefix,
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisURL, "redis-url", "", "Redis URL for the render cache (redis://host:port/db)")
	cmd.Flags().StringVar(&mongoURL, "mongo-url", "", "MongoDB URL for the snapshot archive")
	cmd.Flags().StringVar(&mongoDB, "mongo-db", "schemasnap", "MongoDB database name")
	cmd.Flags().StringVar(&cachePrefix, "cache-prefix", "", "prefix for cache keys (for shared Redis instances)")

	return cmd
}

type serveOptions struct {
	addr        string
	redisURL    string
	mongoURL    string
	mongoDB     string
	cachePrefix string
}

func (c *CLI) runServe(ctx context.Context, opts serveOptions) error {
	logger := loggerFromContext(ctx)

	archive, err := c.newArchiveStore(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = archive.Close(closeCtx)
	}()

	renderCache, err := c.newRenderCache(opts)
	if err != nil {
		return err
	}
	defer renderCache.Close()

	var keyer cache.Keyer = cache.NewDefaultKeyer()
	if opts.cachePrefix != "" {
		keyer = cache.NewScopedKeyer(keyer, opts.cachePrefix)
	}

	srv := server.New(server.Config{
		Addr:    opts.addr,
		Store:   archive,
		Cache:   renderCache,
		Keyer:   keyer,
		Logger:  logger,
		Version: buildinfo.Version,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (c *CLI) newArchiveStore(ctx context.Context, opts serveOptions) (store.Store, error) {
	if opts.mongoURL == "" {
		loggerFromContext(ctx).Warn("no --mongo-url configured, archives are kept in memory")
		return store.NewMemoryStore(), nil
	}
	return store.NewMongoStore(ctx, opts.mongoURL, opts.mongoDB)
}

func (c *CLI) newRenderCache(opts serveOptions) (cache.Cache, error) {
	if opts.redisURL == "" {
		return cache.NewNullCache(), nil
	}
	redis, err := cache.NewRedisCache(opts.redisURL)
	if err != nil {
		return nil, err
	}
	return cache.Instrumented(redis), nil
}
