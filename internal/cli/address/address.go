package address

import (
	"context"

	"github.com/alecthomas/kingpin/v2"
	"github.com/apex/log"
	"github.com/ipatlas/ipatlas/internal/cli/root"
	"github.com/ipatlas/ipatlas/internal/config"
	"github.com/ipatlas/ipatlas/internal/database"
	"github.com/ipatlas/ipatlas/internal/output"
	"github.com/ipatlas/ipatlas/internal/resolver"
	"github.com/pkg/errors"
)

func init() {
	cmd := root.Command("address", "Show the address of an area")
	id := cmd.Arg("id", "The GeoNames id of the area").Required().Int64()
	culture := cmd.Flag("culture", "Culture of the names (default: from config)").String()
	cmd.Action(func(_ *kingpin.ParseContext) error {
		return doaddress(doaddressconfig{
			ID:      *id,
			Culture: *culture,
			Init:    root.Init,
			Logger:  log.Log,
		})
	})
}

type doaddressconfig struct {
	ID      int64
	Culture string
	Init    func() (*config.Config, error)
	Logger  log.Interface
}

func doaddress(config doaddressconfig) error {
	cfg, err := config.Init()
	if err != nil {
		return err
	}
	culture := config.Culture
	if culture == "" {
		culture = cfg.Culture
	}
	ctx := context.Background()
	db, err := database.Open(cfg.DatabasePath, config.Logger)
	if err != nil {
		return err
	}
	defer db.Close()
	res, err := resolver.New(ctx, db, cfg.SearchRadius, config.Logger)
	if err != nil {
		return err
	}
	address, err := res.GetAddress(ctx, config.ID, culture)
	if err != nil {
		return errors.Wrapf(err, "area %d", config.ID)
	}
	output.Table(config.Logger, "Address", log.Fields{
		"id":      config.ID,
		"culture": culture,
		"address": address,
	})
	return nil
}
