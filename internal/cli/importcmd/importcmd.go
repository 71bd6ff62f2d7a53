package importcmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kingpin/v2"
	"github.com/apex/log"
	"github.com/ipatlas/ipatlas/internal/cli/root"
	"github.com/ipatlas/ipatlas/internal/config"
	"github.com/ipatlas/ipatlas/internal/importer"
	"github.com/ipatlas/ipatlas/internal/model"
	"github.com/ipatlas/ipatlas/internal/output"
	"github.com/ipatlas/ipatlas/internal/progress"
	"github.com/mattn/go-isatty"
)

func init() {
	cmd := root.Command("import", "Load the gazetteer and the configured providers")
	keepAreas := cmd.Flag("keep-areas", "Do not reload the gazetteer").Bool()
	keepRanges := cmd.Flag("keep-ranges", "Keep the ranges of the providers not imported").Bool()
	cmd.Action(func(_ *kingpin.ParseContext) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return doimport(ctx, doimportconfig{
			KeepAreas:    *keepAreas,
			KeepRanges:   *keepRanges,
			Init:         root.Init,
			Logger:       log.Log,
			NewProgress:  newProgress(log.Log, os.Stderr, isatty.IsTerminal(os.Stderr.Fd()), root.Verbose),
			SectionTitle: output.SectionTitle,
		})
	})
}

// newProgress returns the progress factory of the bulk loads. A terminal
// gets a bar, also logged when verbose. Otherwise the progress is logged.
func newProgress(logger log.Interface, w io.Writer, terminal, verbose bool) func(string, int) model.ProgressFunc {
	return func(description string, total int) model.ProgressFunc {
		logged := progress.NewLogged(logger, total, description, 10)
		if !terminal {
			return logged
		}
		bar := progress.NewBar(w, total, description)
		if !verbose {
			return bar
		}
		return progress.Tee(bar, logged)
	}
}

type doimportconfig struct {
	KeepAreas    bool
	KeepRanges   bool
	Init         func() (*config.Config, error)
	Logger       log.Interface
	NewProgress  func(description string, total int) model.ProgressFunc
	SectionTitle func(string)
}

func doimport(ctx context.Context, config doimportconfig) error {
	config.SectionTitle("Import")
	cfg, err := config.Init()
	if err != nil {
		return err
	}
	summary, err := importer.Run(ctx, &importer.Options{
		Config:      cfg,
		KeepAreas:   config.KeepAreas,
		KeepRanges:  config.KeepRanges,
		Logger:      config.Logger,
		NewProgress: config.NewProgress,
	})
	if err != nil {
		return err
	}
	for _, ps := range summary.Providers {
		output.Table(config.Logger, ps.Tag, log.Fields{
			"read":      ps.Read,
			"accepted":  ps.Accepted,
			"dropped":   ps.Dropped,
			"malformed": ps.Malformed,
			"distances": formatDistances(ps.Distances),
		})
	}
	output.Table(config.Logger, "Import done", log.Fields{
		"run_id":    summary.RunID,
		"areas":     summary.Areas,
		"radius":    summary.SearchRadius,
		"providers": len(summary.Providers),
		"duration":  summary.Duration.String(),
	})
	return nil
}

// formatDistances formats the distance summary of a provider.
func formatDistances(ds importer.DistanceSummary) string {
	if ds.Count <= 0 {
		return "none"
	}
	return fmt.Sprintf("%d, median %.1f km, p95 %.1f km, max %.1f km",
		ds.Count, ds.Median, ds.P95, ds.Max)
}
