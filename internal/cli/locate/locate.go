package locate

import (
	"context"
	"net/netip"
	"sort"

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
	cmd := root.Command("locate", "Show the ranges containing an IP address")
	ip := cmd.Arg("ip", "The IPv4 or IPv6 address").Required().String()
	culture := cmd.Flag("culture", "Culture of the names (default: from config)").String()
	address := cmd.Flag("address", "Include the full address of each area").Bool()
	cmd.Action(func(_ *kingpin.ParseContext) error {
		return dolocate(dolocateconfig{
			IP:      *ip,
			Culture: *culture,
			Address: *address,
			Init:    root.Init,
			Logger:  log.Log,
		})
	})
}

type dolocateconfig struct {
	IP      string
	Culture string
	Address bool
	Init    func() (*config.Config, error)
	Logger  log.Interface
}

func dolocate(config dolocateconfig) error {
	ip, err := netip.ParseAddr(config.IP)
	if err != nil {
		return errors.Wrap(err, "parsing ip")
	}
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
	infos, err := db.Locate(ctx, ip)
	if err != nil {
		return err
	}
	if len(infos) <= 0 {
		config.Logger.Warnf("No range contains %s", ip)
		return nil
	}
	res, err := resolver.New(ctx, db, cfg.SearchRadius, config.Logger)
	if err != nil {
		return err
	}
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].Provider < infos[j].Provider
	})
	for _, info := range infos {
		fields := log.Fields{
			"range":   info.Range.String(),
			"area_id": info.AreaID,
		}
		area, err := res.GetArea(ctx, info.AreaID)
		if err != nil {
			config.Logger.Warnf("cannot resolve area %d: %s", info.AreaID, err.Error())
		} else {
			fields["area"] = area.Info().LocalizedName(culture)
			fields["kind"] = area.Kind().String()
		}
		if config.Address && err == nil {
			address, err := res.GetAddress(ctx, info.AreaID, culture)
			if err != nil {
				return err
			}
			fields["address"] = address
		}
		output.Table(config.Logger, info.Provider, fields)
	}
	return nil
}
