package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"github.com/okian/finishline/internal/adapters/nyrr"
	"github.com/okian/finishline/internal/adapters/publish"
	"github.com/okian/finishline/internal/adapters/storage"
	app "github.com/okian/finishline/internal/app"
	"github.com/okian/finishline/internal/config"
	"github.com/okian/finishline/pkg/logger"
	"github.com/okian/finishline/pkg/metrics"
)

const pushTimeout = 10 * time.Second

func main() {
	os.Exit(realMain())
}

func realMain() int {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		os.Stderr.WriteString("failed to read .env: " + err.Error() + "\n")
		return 1
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	if err := logger.Init(logger.WithJSON(cfg.LogJSON)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	runErr := run(ctx, cfg, afero.NewOsFs())

	pushCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	if err := metrics.Push(pushCtx, cfg.Metrics.PushURL, cfg.Metrics.Job); err != nil {
		log.Warn(ctx, "metrics push failed", logger.Error(err))
	}

	if runErr != nil {
		log.Error(ctx, "run failed", logger.Error(runErr))
		return 1
	}
	log.Info(ctx, "run complete", logger.Any("stages", cfg.Stages))
	return 0
}

// run wires the pipeline from cfg and executes the configured stages.
func run(ctx context.Context, cfg *config.Config, fsys afero.Fs) error {
	log := logger.Get()

	client := nyrr.New(cfg.APIBaseURL,
		nyrr.WithUserAgent(cfg.UserAgent),
		nyrr.WithOrigin(cfg.Origin),
		nyrr.WithReferer(cfg.Referer),
		nyrr.WithTimeout(cfg.RequestTimeout),
		nyrr.WithMaxAttempts(cfg.MaxAttempts),
		nyrr.WithPageSize(cfg.PageSize),
		nyrr.WithGzip(cfg.AcceptGzip),
	)
	store := storage.New(fsys, cfg.DataDir, storage.WithAtomicWrites(cfg.AtomicWrites))

	opts := []app.Option{
		app.WithLogger(log),
		app.WithYears(cfg.YearFrom, cfg.YearTo),
		app.WithRequestDelay(cfg.RequestDelay),
		app.WithDenylist(cfg.Denylist),
	}
	if cfg.Publish.Bucket != "" && slices.Contains(cfg.Stages, config.StagePublish) {
		s3c, err := publish.NewS3Client(ctx, cfg.Publish.Region)
		if err != nil {
			return err
		}
		opts = append(opts, app.WithUploader(publish.New(s3c, cfg.Publish.Bucket,
			publish.WithPrefix(cfg.Publish.Prefix),
			publish.WithRetries(cfg.Publish.Retries),
			publish.WithTimeout(cfg.Publish.Timeout),
		)))
	}

	svc := app.New(client, store, opts...)
	log.Info(ctx, "starting run",
		logger.String("run", svc.RunID()),
		logger.String("data_dir", cfg.DataDir),
		logger.Any("stages", cfg.Stages))
	return svc.Run(ctx, cfg.Stages)
}
