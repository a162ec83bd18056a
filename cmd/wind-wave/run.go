package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ngmaloney/wind-wave/internal/bmkg"
	"github.com/ngmaloney/wind-wave/internal/ledger"
	"github.com/ngmaloney/wind-wave/internal/logging"
	"github.com/ngmaloney/wind-wave/internal/models"
	"github.com/ngmaloney/wind-wave/internal/pipeline"
	"github.com/ngmaloney/wind-wave/internal/publish"
	"github.com/ngmaloney/wind-wave/internal/ui"
)

// exit codes
const (
	exitFailed = 1
	exitConfig = 2
)

func runAction(cCtx *cli.Context) error {
	cfg, err := loadConfig(cCtx)
	if err != nil {
		return cli.Exit(err, exitConfig)
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(err, exitConfig)
	}

	// Validated above
	dates, _ := cfg.Dates(time.Now())
	product, _ := cfg.Product()
	variants, _ := cfg.VariantList()

	logger, closer, err := logging.Open(logging.Options{
		Path:   cfg.LogPath(),
		Level:  cfg.LogLevel,
		Quiet:  cCtx.Bool("quiet"),
		Stderr: cCtx.App.ErrWriter,
	})
	if err != nil {
		return cli.Exit(err, exitFailed)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := pipeline.Options{
		WorkDir:       cfg.WorkDir,
		Dates:         dates,
		Product:       product,
		Variants:      variants,
		Parallel:      cfg.Parallel,
		KeepNetCDF:    cfg.KeepNetCDF,
		FetchTimeout:  cfg.FetchTimeout.Duration,
		UploadTimeout: cfg.UploadTimeout.Duration,
		Primary:       cfg.Primary,
	}
	if cfg.Secondary.Enabled() {
		v, _ := models.ParseVariant(cfg.Secondary.Variant)
		opts.Mirror = &pipeline.Mirror{Endpoint: cfg.Secondary.Endpoint, Variant: v}
	}

	fetcher := bmkg.NewClient(bmkg.Options{
		BaseURL:  cfg.Source.BaseURL,
		Username: cfg.Source.Username,
		Password: cfg.Source.Password,
		BBox:     cfg.Source.BBox,
	})
	runner := pipeline.NewRunner(opts, fetcher, publish.NetDialer{Timeout: 30 * time.Second}, logger)

	summary := runner.Run(ctx)
	record := summary.Record()

	// The ledger is bookkeeping only and never fails a run
	repo := ledger.NewRepository(ledger.DBPath(cfg.WorkDir))
	if err := repo.Record(record); err != nil {
		logger.Warn().Err(err).Str("run_id", record.ID).Msg("failed to record run in ledger")
	}

	fmt.Fprintln(cCtx.App.Writer, ui.RenderSummary(record))

	if failed := record.Failed(); len(failed) > 0 {
		names := make([]string, len(failed))
		for i, v := range failed {
			names[i] = string(v)
		}
		logger.Error().Strs("variants", names).Msg("run finished with failures")
		return cli.Exit(fmt.Sprintf("failed variants: %s", strings.Join(names, ", ")), exitFailed)
	}
	return nil
}
