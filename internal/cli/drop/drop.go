package drop

import (
	"errors"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/apex/log"
	"github.com/ipatlas/ipatlas/internal/cli/root"
	"github.com/ipatlas/ipatlas/internal/config"
	"github.com/ipatlas/ipatlas/internal/database"
	"github.com/ipatlas/ipatlas/internal/importer"
)

func init() {
	cmd := root.Command("drop", "Delete the database")
	force := cmd.Flag("force", "Force deleting the database").Bool()
	cmd.Action(func(_ *kingpin.ParseContext) error {
		return dodrop(dodropconfig{
			Force:  *force,
			Init:   root.Init,
			Logger: log.Log,
		})
	})
}

type dodropconfig struct {
	Force  bool
	Init   func() (*config.Config, error)
	Logger log.Interface
}

func dodrop(config dodropconfig) error {
	cfg, err := config.Init()
	if err != nil {
		return err
	}
	if !config.Force {
		config.Logger.Infof("Run with --force to delete %s", cfg.DatabasePath)
		return nil
	}
	db, err := database.Open(cfg.DatabasePath, config.Logger)
	if err != nil {
		return err
	}
	if err := db.Drop(); err != nil {
		return err
	}
	for _, path := range []string{
		importer.LastImportPath(cfg.DatabasePath),
		importer.LockPath(cfg.DatabasePath),
	} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			config.Logger.Warnf("cannot remove %s: %s", path, err.Error())
		}
	}
	config.Logger.Infof("Deleted %s", cfg.DatabasePath)
	return nil
}
