package create

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
	cmd := root.Command("create", "Create the database if absent")
	cmd.Action(func(_ *kingpin.ParseContext) error {
		return docreate(docreateconfig{
			Init:   root.Init,
			Logger: log.Log,
		})
	})
}

type docreateconfig struct {
	Init   func() (*config.Config, error)
	Logger log.Interface
}

func docreate(config docreateconfig) error {
	cfg, err := config.Init()
	if err != nil {
		return err
	}
	db, err := database.Open(cfg.DatabasePath, config.Logger)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.CreateIfAbsent(context.Background()); err != nil {
		return err
	}
	output.Table(config.Logger, "Database ready", log.Fields{"path": db.Path()})
	return nil
}
