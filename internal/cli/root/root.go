package root

import (
	"github.com/alecthomas/kingpin/v2"
	"github.com/apex/log"
	"github.com/ipatlas/ipatlas/internal/config"
	"github.com/ipatlas/ipatlas/internal/log/handlers/cli"
	"github.com/ipatlas/ipatlas/internal/version"
)

// Cmd is the root command
var Cmd = kingpin.New("ipatlas", "Build and query an IP geolocation database.")

// Command is syntax sugar for defining sub-commands
var Command = Cmd.Command

// Init should be called by all subcommands that need the configuration
var Init func() (*config.Config, error)

// Verbose is true when --verbose was given.
var Verbose bool

func init() {
	configPath := Cmd.Flag("config", "Set a custom config file path").Short('c').String()
	databasePath := Cmd.Flag("db", "Override the database path").String()
	verbose := Cmd.Flag("verbose", "Enable verbose log output.").Short('v').Bool()

	Cmd.PreAction(func(ctx *kingpin.ParseContext) error {
		log.SetHandler(cli.Default)
		Verbose = *verbose
		if *verbose {
			log.SetLevel(log.DebugLevel)
			log.Debugf("ipatlas version %s", version.Version)
		}

		Init = func() (*config.Config, error) {
			return NewConfig(*configPath, *databasePath)
		}

		return nil
	})
}

// NewConfig reads the config file, if any, and applies the overrides.
func NewConfig(configPath, databasePath string) (*config.Config, error) {
	c := config.Default()
	if configPath != "" {
		log.Debugf("Reading config file from %s", configPath)
		var err error
		if c, err = config.ReadConfig(configPath); err != nil {
			return nil, err
		}
	}
	if databasePath != "" {
		c.DatabasePath = databasePath
	}
	log.Debugf("Using database sqlite3://%s", c.DatabasePath)
	return c, nil
}
