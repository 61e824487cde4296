package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sjsage522/steamcrawler/config"
	"sjsage522/steamcrawler/helpers"
	"sjsage522/steamcrawler/internal/crawler"
	"sjsage522/steamcrawler/logger"
	crawlerrors "sjsage522/steamcrawler/pkg/errors"
	"sjsage522/steamcrawler/services/cache"
	"sjsage522/steamcrawler/services/publisher"
	"sjsage522/steamcrawler/services/worker"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "steamcrawler [--catalog <steam_ids.csv>] [--sinks jsonl,sqlite,redis]",
	Short:         "steamcrawler crawls store detail pages for every app id in a catalog.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCrawl,
}

var flags struct {
	catalog     string
	column      string
	sinks       string
	output      string
	maxInFlight int
	delay       time.Duration
}

func init() {
	rootCmd.Flags().StringVar(&flags.catalog, "catalog", "", "Catalog CSV to read app ids from (overrides CATALOG_PATH).")
	rootCmd.Flags().StringVar(&flags.column, "column", "", "Catalog column holding the app id (overrides CATALOG_COLUMN).")
	rootCmd.Flags().StringVar(&flags.sinks, "sinks", "", "Comma separated output sinks: jsonl, sqlite, redis (overrides OUTPUT_SINKS).")
	rootCmd.Flags().StringVar(&flags.output, "output", "", "JSONL output file (overrides OUTPUT_PATH).")
	rootCmd.Flags().IntVar(&flags.maxInFlight, "max-in-flight", 0, "Maximum concurrent requests (overrides MAX_IN_FLIGHT).")
	rootCmd.Flags().DurationVar(&flags.delay, "delay", 0, "Minimum delay between requests to the store (overrides REQUEST_DELAY_MS).")
}

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	log := logger.Default

	cfg := config.LoadConfig()
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return crawlerrors.NewConfiguration("invalid configuration", err)
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("catalog", cfg.CatalogPath).
		Strs("sinks", cfg.OutputSinks).
		Int("max_in_flight", cfg.MaxInFlight).
		Dur("request_delay", cfg.RequestDelay).
		Msg("Starting crawl")

	ctx := cmd.Context()

	services, err := initializeServices(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer services.Cleanup()

	w := worker.NewWorker(
		crawler.NewRequestBuilder(cfg.AppBaseURL, nil),
		crawler.NewHTTPFetcher(cfg.RequestTimeout, cfg.RateLimitBlock, services.Cache),
		crawler.NewExtractor(crawler.DefaultSelectors()),
		services.Publisher,
		worker.Options{
			MaxInFlight: cfg.MaxInFlight,
			MaxRetries:  cfg.MaxRetries,
			Limiter:     crawler.NewHostLimiter(cfg.RequestDelay),
			Failures:    helpers.NewFailureLog(cfg.FailureLogPath),
		},
	)

	summary, err := w.Run(ctx, cfg.CatalogPath, cfg.CatalogColumn)
	if err != nil {
		return err
	}

	if ctx.Err() != nil {
		log.Warn().Int("cancelled", summary.Cancelled).Msg("Crawl interrupted")
	}
	if summary.Failed > 0 || summary.Cancelled > 0 {
		log.Info().Str("path", cfg.FailureLogPath).Msg("Failed entries were written to the failure list")
	}
	return nil
}

// applyFlags overrides configuration values with flags set on the command line
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("catalog") {
		cfg.CatalogPath = flags.catalog
	}
	if changed("column") {
		cfg.CatalogColumn = flags.column
	}
	if changed("sinks") {
		cfg.OutputSinks = config.ParseSinks(flags.sinks)
	}
	if changed("output") {
		cfg.OutputPath = flags.output
	}
	if changed("max-in-flight") {
		cfg.MaxInFlight = flags.maxInFlight
	}
	if changed("delay") {
		cfg.RequestDelay = flags.delay
	}
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			logger.Default.Error().Err(err).Msg("Failed to close publishers")
		}
	}
}

// initializeServices initializes the optional cache and every configured sink
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := cacheService.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache unavailable, rate limit blocks disabled")
		} else {
			services.Cache = cacheService
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	var sinks publisher.Multi
	for _, name := range cfg.OutputSinks {
		sink, err := openSink(ctx, cfg, name)
		if err != nil {
			sinks.Close()
			return nil, err
		}
		logger.ForSink(name).Info().Msg("Sink ready")
		sinks = append(sinks, sink)
	}
	services.Publisher = sinks

	return services, nil
}

func openSink(ctx context.Context, cfg *config.Config, name string) (publisher.Publisher, error) {
	switch name {
	case config.SinkJSONL:
		return publisher.NewJSONLFile(cfg.OutputPath)
	case config.SinkSQLite:
		return publisher.NewSQLitePublisher(cfg.SQLitePath)
	case config.SinkRedis:
		redisPublisher := publisher.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLength)
		if err := redisPublisher.Ping(ctx); err != nil {
			redisPublisher.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		return redisPublisher, nil
	default:
		return nil, fmt.Errorf("unknown output sink %q", name)
	}
}
