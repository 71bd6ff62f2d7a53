// Package importer runs the import pipeline: it loads the gazetteer
// into the database, parses the configured providers against the
// resulting areas, and writes their ranges.
//
// Providers are parsed concurrently since they only read from the
// resolver. Writes happen on a single goroutine, in configuration
// order. A lock file next to the database serializes importers.
package importer

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/ipatlas/ipatlas/internal/config"
	"github.com/ipatlas/ipatlas/internal/database"
	"github.com/ipatlas/ipatlas/internal/gazetteer"
	"github.com/ipatlas/ipatlas/internal/model"
	"github.com/ipatlas/ipatlas/internal/registry"
	"github.com/ipatlas/ipatlas/internal/resolver"
	"github.com/ipatlas/ipatlas/internal/runtimex"
	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
	"golang.org/x/sync/errgroup"
)

// Options contains the options of Run.
type Options struct {
	// Config is the mandatory configuration.
	Config *config.Config

	// KeepAreas skips reloading the gazetteer.
	KeepAreas bool

	// KeepRanges preserves the ranges of the providers that are
	// not part of this run. The ranges of a provider being imported
	// are always replaced.
	KeepRanges bool

	// Logger is the optional logger.
	Logger model.Logger

	// NewProgress optionally creates the progress sink of a bulk
	// load writing total items.
	NewProgress func(description string, total int) model.ProgressFunc

	// OpenProvider optionally overrides how a configured provider is
	// opened. The default uses the registry.
	OpenProvider func(pc *config.Provider, logger model.Logger) (model.IPRangeProvider, io.Closer, error)
}

// openProvider opens the provider configured by pc.
func (o *Options) openProvider(pc *config.Provider, logger model.Logger) (model.IPRangeProvider, io.Closer, error) {
	if o.OpenProvider != nil {
		return o.OpenProvider(pc, logger)
	}
	factory, err := registry.NewFactory(pc.Type)
	if err != nil {
		return nil, nil, err
	}
	return factory.NewProvider(pc.Files, logger)
}

// progress returns the sink for a bulk load.
func (o *Options) progress(description string, total int) model.ProgressFunc {
	if o.NewProgress == nil {
		return nil
	}
	return o.NewProgress(description, total)
}

// LockPath returns the path of the lock file of the database.
func LockPath(databasePath string) string {
	return databasePath + ".lock"
}

// Run runs the import pipeline. It blocks while another importer
// holds the lock of the same database.
func Run(ctx context.Context, opts *Options) (*Summary, error) {
	runtimex.Assert(opts.Config != nil, "importer: nil config")
	cfg := opts.Config
	logger := model.ValidLoggerOrDefault(opts.Logger)
	if !opts.KeepAreas {
		if err := cfg.ValidateGazetteer(); err != nil {
			return nil, err
		}
	}
	unlock, err := lockedfile.MutexAt(LockPath(cfg.DatabasePath)).Lock()
	if err != nil {
		return nil, errors.Wrap(err, "acquiring import lock")
	}
	defer unlock()
	r := &run{
		id:      uuid.Must(uuid.NewRandom()).String(),
		logger:  logger,
		opts:    opts,
		started: time.Now(),
	}
	logger.Infof("importer: run %s started", r.id)
	summary, err := r.main(ctx)
	if err != nil {
		logger.Warnf("importer: run %s failed: %s", r.id, err.Error())
		return nil, err
	}
	if err := WriteLastImport(cfg.DatabasePath, summary); err != nil {
		logger.Warnf("importer: cannot save summary: %s", err.Error())
	}
	logger.Infof("importer: run %s done in %s", r.id, summary.Duration)
	return summary, nil
}

// run is a single execution of the pipeline.
type run struct {
	id      string
	db      *database.Database
	logger  model.Logger
	opts    *Options
	started time.Time
}

func (r *run) main(ctx context.Context) (*Summary, error) {
	cfg := r.opts.Config
	db, err := database.Open(cfg.DatabasePath, r.logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	db.BatchSize = cfg.BatchSize
	r.db = db
	if err := db.CreateIfAbsent(ctx); err != nil {
		return nil, err
	}
	summary := &Summary{RunID: r.id, StartedAt: r.started}
	if !r.opts.KeepRanges {
		if err := db.ClearRanges(ctx); err != nil {
			return nil, err
		}
	}
	if !r.opts.KeepAreas {
		if summary.Areas, err = r.loadAreas(ctx); err != nil {
			return nil, err
		}
	}
	res, err := resolver.New(ctx, db, cfg.SearchRadius, r.logger)
	if err != nil {
		return nil, err
	}
	summary.SearchRadius = res.Radius()
	results, err := r.parseProviders(ctx, res)
	if err != nil {
		return nil, err
	}
	for _, result := range results {
		if err := r.writeRanges(ctx, result); err != nil {
			return nil, err
		}
		summary.Providers = append(summary.Providers, result.summary())
	}
	summary.Duration = time.Since(r.started)
	return summary, nil
}

// loadAreas replaces the areas with the gazetteer content.
func (r *run) loadAreas(ctx context.Context) (int, error) {
	sources, closer, err := gazetteer.OpenSources(r.opts.Config.Gazetteer)
	if err != nil {
		return 0, errors.Wrap(err, "opening gazetteer")
	}
	defer closer.Close()
	graph, err := (&gazetteer.Loader{Logger: r.logger}).Load(sources)
	if err != nil {
		return 0, err
	}
	if err := r.db.ClearAreas(ctx); err != nil {
		return 0, err
	}
	areas := graph.Areas()
	if err := r.db.AddAreas(ctx, areas, r.opts.progress("areas", len(areas))); err != nil {
		return 0, err
	}
	return len(areas), nil
}

// parseResult is the outcome of parsing a provider.
type parseResult struct {
	tag    string
	ranges []model.IPRangeLocation
	report model.ProviderReport
}

// parseProviders parses the providers concurrently. The results follow
// the configuration order. The first failure cancels the others.
func (r *run) parseProviders(ctx context.Context, res model.AreaResolver) ([]*parseResult, error) {
	cfg := r.opts.Config
	results := make([]*parseResult, len(cfg.Providers))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(cfg.Parallelism, 1))
	for idx := range cfg.Providers {
		idx := idx
		pc := cfg.Providers[idx]
		eg.Go(func() error {
			result, err := r.parseProvider(ctx, &pc, res)
			if err != nil {
				return errors.Wrapf(err, "provider %s", pc.StorageTag())
			}
			results[idx] = result
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *run) parseProvider(ctx context.Context, pc *config.Provider, res model.AreaResolver) (*parseResult, error) {
	p, closer, err := r.opts.openProvider(pc, r.logger)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	ranges, err := p.Parse(ctx, res)
	if err != nil {
		return nil, err
	}
	return &parseResult{tag: pc.StorageTag(), ranges: ranges, report: p.Report()}, nil
}

// writeRanges replaces the ranges stored under the result tag.
func (r *run) writeRanges(ctx context.Context, result *parseResult) error {
	if err := r.db.ClearProviderRanges(ctx, result.tag); err != nil {
		return err
	}
	return r.db.AddRanges(ctx, result.tag, result.ranges,
		r.opts.progress(result.tag, len(result.ranges)))
}
