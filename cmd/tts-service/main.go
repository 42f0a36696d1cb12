// main package for the tts-service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/feedtape/tts-service/internal/cache"
	"github.com/feedtape/tts-service/internal/config"
	"github.com/feedtape/tts-service/internal/core"
	"github.com/feedtape/tts-service/internal/language"
	"github.com/feedtape/tts-service/internal/objectstore"
	"github.com/feedtape/tts-service/internal/provider"
	"github.com/feedtape/tts-service/internal/quota"
	"github.com/feedtape/tts-service/internal/store"
	"github.com/feedtape/tts-service/internal/tts"
	"github.com/feedtape/tts-service/internal/worker"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "tts-service.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	return serve(ctx, cfg, finalLog)
}

// serve wires the pipeline together and runs the worker until shutdown.
func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	users, err := store.NewUserStore(jetstreamContext)
	if err != nil {
		return fmt.Errorf("failed to open user store: %w", err)
	}

	usage, err := store.NewUsageStore(jetstreamContext)
	if err != nil {
		return fmt.Errorf("failed to open usage store: %w", err)
	}

	audioStore, err := objectstore.New(jetstreamContext, cfg.NATS.AudioObjectStoreBucket)
	if err != nil {
		return fmt.Errorf("failed to open audio object store: %w", err)
	}

	synthesizer, err := buildProvider(ctx, cfg, log)
	if err != nil {
		return err
	}

	fallback, err := language.Parse(cfg.TTS.FallbackLanguage)
	if err != nil {
		return fmt.Errorf("invalid fallback language: %w", err)
	}

	resultCache := buildCache(cfg)
	if resultCache != nil {
		defer resultCache.Stop()
	}

	// The nil interface check in the service needs a truly nil value when
	// caching is disabled, not a typed nil.
	var cacheForService core.ResultCache
	if resultCache != nil {
		cacheForService = resultCache
	}

	service := tts.NewService(
		users,
		usage,
		quota.NewGuard(cfg.Quota.Policy()),
		language.NewDetector(fallback, log),
		synthesizer,
		cacheForService,
		log,
	)

	natsWorker := worker.NewNatsWorker(
		natsConnection, cfg.NATS.SynthesizeSubject, service, audioStore, log)
	natsWorker.SetHandleTimeout(time.Duration(cfg.TTS.TimeoutSeconds) * time.Second)

	log.System("TTS-Service initialized: provider=%s subject=%s cache_enabled=%t",
		synthesizer.Name(), cfg.NATS.SynthesizeSubject, resultCache != nil)

	return natsWorker.Run(ctx)
}

func buildProvider(
	ctx context.Context,
	cfg *config.Config,
	log *logger.Logger,
) (core.SynthesisProvider, error) {
	switch cfg.TTS.Provider {
	case config.ProviderPolly:
		pollyProvider, err := provider.NewPolly(ctx, cfg.Polly, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create polly provider: %w", err)
		}

		return pollyProvider, nil
	case config.ProviderOpenAI:
		openAIProvider, err := provider.NewOpenAI(cfg.OpenAI, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai provider: %w", err)
		}

		return openAIProvider, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.TTS.Provider)
	}
}

func buildCache(cfg *config.Config) *cache.ResultCache {
	if !cfg.Cache.Enabled {
		return nil
	}

	capacity := cfg.Cache.Capacity
	if capacity <= 0 {
		capacity = cache.DefaultCapacity
	}

	idleTTL := cache.DefaultIdleTTL
	if cfg.Cache.IdleTTLMinutes > 0 {
		idleTTL = time.Duration(cfg.Cache.IdleTTLMinutes) * time.Minute
	}

	return cache.New(capacity, idleTTL)
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
