package clear

import (
	"context"

	"github.com/alecthomas/kingpin/v2"
	"github.com/apex/log"
	"github.com/ipatlas/ipatlas/internal/cli/root"
	"github.com/ipatlas/ipatlas/internal/config"
	"github.com/ipatlas/ipatlas/internal/database"
	"github.com/ipatlas/ipatlas/internal/output"
)

func init() {
	cmd := root.Command("clear", "Delete the areas, the ranges or both")
	areas := cmd.Flag("areas", "Delete the areas").Bool()
	ranges := cmd.Flag("ranges", "Delete the IP ranges").Bool()
	cmd.Action(func(_ *kingpin.ParseContext) error {
		return doclear(doclearconfig{
			Areas:  *areas,
			Ranges: *ranges,
			Init:   root.Init,
			Logger: log.Log,
		})
	})
}

type doclearconfig struct {
	// Areas and Ranges select what to delete. When both
	// are false, everything is deleted.
	Areas  bool
	Ranges bool

	Init   func() (*config.Config, error)
	Logger log.Interface
}

func doclear(config doclearconfig) error {
	cfg, err := config.Init()
	if err != nil {
		return err
	}
	if !config.Areas && !config.Ranges {
		config.Areas, config.Ranges = true, true
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
	if config.Ranges {
		if err := db.ClearRanges(ctx); err != nil {
			return err
		}
	}
	if config.Areas {
		if err := db.ClearAreas(ctx); err != nil {
			return err
		}
	}
	output.Table(config.Logger, "Database cleared", log.Fields{
		"areas":  config.Areas,
		"ranges": config.Ranges,
	})
	return nil
}
