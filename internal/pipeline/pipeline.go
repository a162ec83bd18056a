// Package pipeline runs the daily job: fetch, derive, flatten, export and
// publish, once per dataset variant.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/ngmaloney/wind-wave/internal/bmkg"
	"github.com/ngmaloney/wind-wave/internal/export"
	"github.com/ngmaloney/wind-wave/internal/models"
	"github.com/ngmaloney/wind-wave/internal/ncarchive"
	"github.com/ngmaloney/wind-wave/internal/publish"
	"github.com/ngmaloney/wind-wave/internal/table"
	"github.com/ngmaloney/wind-wave/internal/wind"
)

// Mirror is the secondary endpoint and the one variant it receives
type Mirror struct {
	Endpoint publish.Endpoint
	Variant  models.Variant
}

// Options configures a Runner
type Options struct {
	WorkDir       string
	Dates         models.RunDates
	Product       models.ProductType
	Variants      []models.Variant
	Parallel      bool
	KeepNetCDF    bool
	FetchTimeout  time.Duration
	UploadTimeout time.Duration
	Primary       publish.Endpoint
	Mirror        *Mirror // nil disables the secondary upload
}

// Runner executes runs
type Runner struct {
	opts      Options
	fetcher   bmkg.Fetcher
	publisher *publish.Publisher
	logger    *log.Logger
}

// NewRunner creates a runner
func NewRunner(opts Options, fetcher bmkg.Fetcher, dialer publish.Dialer, logger *log.Logger) *Runner {
	return &Runner{
		opts:      opts,
		fetcher:   fetcher,
		publisher: publish.NewPublisher(dialer, opts.UploadTimeout, logger),
		logger:    logger,
	}
}

// VariantResult is the outcome of one variant
type VariantResult struct {
	Variant   models.Variant
	OutputDir string
	Rows      int
	Bundle    *export.Bundle
	NetCDF    string // archived subset, empty when not kept
	Uploads   []publish.Result
	Duration  time.Duration
	Err       error // *StageError, nil on success
}

// OK reports whether every stage succeeded
func (r *VariantResult) OK() bool {
	return r.Err == nil
}

// Stage returns the failing stage, or "" on success
func (r *VariantResult) Stage() Stage {
	var se *StageError
	if errors.As(r.Err, &se) {
		return se.Stage
	}
	return ""
}

// Summary is the outcome of a run
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Dates      models.RunDates
	Product    models.ProductType
	Results    []*VariantResult
}

// Failed lists the variants that did not complete
func (s *Summary) Failed() []models.Variant {
	var out []models.Variant
	for _, r := range s.Results {
		if !r.OK() {
			out = append(out, r.Variant)
		}
	}
	return out
}

// Record converts the summary into a ledger record
func (s *Summary) Record() *models.RunRecord {
	rec := &models.RunRecord{
		ID:         s.RunID,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		InputDate:  s.Dates.InputParts().Day,
		OutputDate: s.Dates.OutputParts().Day,
		Product:    s.Product,
	}
	for _, r := range s.Results {
		vr := models.VariantRun{
			Variant:   r.Variant,
			Status:    models.StatusOK,
			Rows:      r.Rows,
			OutputDir: r.OutputDir,
			Duration:  r.Duration,
		}
		if r.Err != nil {
			vr.Status = models.StatusFailed
			vr.Stage = string(r.Stage())
			vr.Error = r.Err.Error()
		}
		for _, up := range r.Uploads {
			if up.Err != nil {
				vr.Uploads = append(vr.Uploads, models.UploadRecord{Endpoint: up.Endpoint, Remote: up.RemoteDir, Error: up.Err.Error()})
				continue
			}
			for _, f := range up.Files {
				u := models.UploadRecord{Endpoint: up.Endpoint, Remote: f.Remote, Bytes: f.Bytes}
				if f.Err != nil {
					u.Error = f.Err.Error()
				}
				vr.Uploads = append(vr.Uploads, u)
			}
		}
		rec.Variants = append(rec.Variants, vr)
	}
	return rec
}

// OutputDir returns the local directory of a variant's artifacts
func OutputDir(workDir string, v models.Variant, out models.DateParts) string {
	return filepath.Join(workDir, string(v), out.Year, "ww_"+out.Day)
}

// RemoteDir returns the primary archive directory of a variant's artifacts
func RemoteDir(basePath string, v models.Variant, out models.DateParts) string {
	return path.Join(basePath, string(v), out.Year, "ww_"+out.Day)
}

// Run processes every configured variant. Failures are isolated per
// variant and reported in the summary.
func (r *Runner) Run(ctx context.Context) *Summary {
	s := &Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Dates:     r.opts.Dates,
		Product:   r.opts.Product,
		Results:   make([]*VariantResult, len(r.opts.Variants)),
	}
	r.logger.Info().
		Str("run_id", s.RunID).
		Str("input_date", s.Dates.InputParts().Day).
		Str("output_date", s.Dates.OutputParts().Day).
		Str("product", string(s.Product)).
		Bool("parallel", r.opts.Parallel).
		Msg("data processing starting")

	if r.opts.Parallel {
		var wg sync.WaitGroup
		for i, v := range r.opts.Variants {
			wg.Add(1)
			go func(i int, v models.Variant) {
				defer wg.Done()
				s.Results[i] = r.RunVariant(ctx, v)
			}(i, v)
		}
		wg.Wait()
	} else {
		for i, v := range r.opts.Variants {
			s.Results[i] = r.RunVariant(ctx, v)
		}
	}

	s.FinishedAt = time.Now()
	r.logger.Info().
		Str("run_id", s.RunID).
		Int("variants", len(s.Results)).
		Int("failed", len(s.Failed())).
		Dur("elapsed", s.FinishedAt.Sub(s.StartedAt)).
		Msg("data processing finished")
	return s
}

// RunVariant processes a single variant. A panic in any stage is recovered
// into the variant's result.
func (r *Runner) RunVariant(ctx context.Context, v models.Variant) (res *VariantResult) {
	out := r.opts.Dates.OutputParts()
	res = &VariantResult{Variant: v, OutputDir: OutputDir(r.opts.WorkDir, v, out)}
	start := time.Now()
	stage := StageFetch

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error().Str("variant", string(v)).Str("stack", string(debug.Stack())).Msgf("panic: %v", p)
			res.Err = &StageError{Stage: stage, Variant: v, Err: fmt.Errorf("panic: %v", p)}
		}
		res.Duration = time.Since(start)
		if res.Err != nil {
			r.logger.Error().Err(res.Err).Str("variant", string(v)).Msg("variant failed")
		} else {
			r.logger.Info().Str("variant", string(v)).Int("rows", res.Rows).Dur("elapsed", res.Duration).Msg("variant done")
		}
	}()

	fail := func(err error) *VariantResult {
		res.Err = &StageError{Stage: stage, Variant: v, Err: err}
		return res
	}

	r.logger.Info().Str("variant", string(v)).Msg("downloading")
	grid, err := r.fetch(ctx, v)
	if err != nil {
		return fail(err)
	}

	if r.opts.KeepNetCDF {
		res.NetCDF = r.archive(v, res.OutputDir, grid)
	}

	stage = StageTransform
	pts, err := transform(grid)
	if err != nil {
		return fail(err)
	}
	res.Rows = pts.Len()

	stage = StageExport
	bundle, err := export.Write(pts, res.OutputDir, "ww_"+out.Day)
	if err != nil {
		return fail(err)
	}
	res.Bundle = bundle
	r.logger.Info().Str("variant", string(v)).Str("dir", bundle.Dir).Int("rows", res.Rows).Msg("exported")

	stage = StagePublish
	primary := r.publisher.Publish(ctx, r.opts.Primary, RemoteDir(r.opts.Primary.BasePath, v, out), bundle.Files)
	res.Uploads = append(res.Uploads, primary)

	var errs []error
	if err := primary.Failure(); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", primary.Endpoint, err))
	}
	if m := r.opts.Mirror; m != nil && m.Variant == v {
		mirror := r.publisher.Publish(ctx, m.Endpoint, m.Endpoint.BasePath, []string{bundle.TextFile()})
		res.Uploads = append(res.Uploads, mirror)
		if err := mirror.Failure(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", mirror.Endpoint, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fail(err)
	}
	return res
}

func (r *Runner) fetch(ctx context.Context, v models.Variant) (*models.Grid, error) {
	if r.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.FetchTimeout)
		defer cancel()
	}

	req, err := r.fetcher.Open(ctx, v, r.opts.Dates.InputParts(), r.opts.Product)
	if err != nil {
		return nil, err
	}
	r.logger.Debug().Str("variant", string(v)).Str("url", req.URL).Msg("dataset opened")
	return req.Realize(ctx)
}

// archive keeps a NetCDF copy of the fetched subset. Failures are logged only.
func (r *Runner) archive(v models.Variant, dir string, g *models.Grid) string {
	if !ncarchive.Available {
		r.logger.Warn().Str("variant", string(v)).Msg("keep_netcdf set but netcdf support is not compiled in")
		return ""
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		r.logger.Warn().Err(err).Str("variant", string(v)).Msg("writing netcdf copy")
		return ""
	}
	p := filepath.Join(dir, ncarchive.FileName(v, r.opts.Dates.InputParts(), r.opts.Product))
	if err := ncarchive.Write(p, g); err != nil {
		r.logger.Warn().Err(err).Str("variant", string(v)).Msg("writing netcdf copy")
		return ""
	}
	return p
}

// transform derives wind speed and direction and flattens the grid
func transform(g *models.Grid) (*models.PointTable, error) {
	u, ok := g.Field(models.VarWindU)
	if !ok {
		return nil, fmt.Errorf("field %s missing", models.VarWindU)
	}
	v, ok := g.Field(models.VarWindV)
	if !ok {
		return nil, fmt.Errorf("field %s missing", models.VarWindV)
	}
	speed, dir, err := wind.Derive(u, v)
	if err != nil {
		return nil, err
	}
	if err := g.SetField(models.ColWindDir, dir); err != nil {
		return nil, err
	}
	if err := g.SetField(models.ColWindSpeed, speed); err != nil {
		return nil, err
	}
	return table.Build(g)
}
