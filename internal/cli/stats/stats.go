package stats

import (
	"context"
	"errors"
	"io/fs"

	"github.com/alecthomas/kingpin/v2"
	"github.com/apex/log"
	"github.com/ipatlas/ipatlas/internal/cli/root"
	"github.com/ipatlas/ipatlas/internal/config"
	"github.com/ipatlas/ipatlas/internal/database"
	"github.com/ipatlas/ipatlas/internal/importer"
	"github.com/ipatlas/ipatlas/internal/model"
	"github.com/ipatlas/ipatlas/internal/output"
)

func init() {
	cmd := root.Command("stats", "Show what the database contains")
	cmd.Action(func(_ *kingpin.ParseContext) error {
		return dostats(dostatsconfig{
			Init:   root.Init,
			Logger: log.Log,
		})
	})
}

type dostatsconfig struct {
	Init   func() (*config.Config, error)
	Logger log.Interface
}

func dostats(config dostatsconfig) error {
	cfg, err := config.Init()
	if err != nil {
		return err
	}
	ctx := context.Background()
	db, err := database.Open(cfg.DatabasePath, config.Logger)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.CreateIfAbsent(ctx); err != nil {
		return err
	}
	counts, err := db.Counts(ctx)
	if err != nil {
		return err
	}
	areas := log.Fields{}
	for _, kind := range []model.AreaKind{model.KindCountry, model.KindAdminArea, model.KindPopulatedPlace} {
		areas[kind.String()] = counts.AreasByKind[kind]
	}
	output.Table(config.Logger, "Areas", areas)
	ranges := log.Fields{}
	for provider, count := range counts.RangesByProvider {
		ranges[provider] = count
	}
	if len(ranges) <= 0 {
		config.Logger.Warn("No ranges stored")
	} else {
		output.Table(config.Logger, "Ranges", ranges)
	}
	summary, err := importer.ReadLastImport(cfg.DatabasePath)
	if errors.Is(err, fs.ErrNotExist) {
		config.Logger.Info("No import recorded")
		return nil
	}
	if err != nil {
		return err
	}
	var providers []string
	for _, entry := range summary.Providers {
		providers = append(providers, entry.Tag)
	}
	output.Table(config.Logger, "Last import", log.Fields{
		"run_id":     summary.RunID,
		"started_at": summary.StartedAt.Format("2006-01-02 15:04:05 MST"),
		"duration":   summary.Duration.String(),
		"areas":      summary.Areas,
		"providers":  providers,
	})
	return nil
}
