// Command ipatlas maps IP ranges to GeoNames areas.
package main

import (
	"github.com/apex/log"
	_ "github.com/ipatlas/ipatlas/internal/cli/address"
	"github.com/ipatlas/ipatlas/internal/cli/app"
	_ "github.com/ipatlas/ipatlas/internal/cli/clear"
	_ "github.com/ipatlas/ipatlas/internal/cli/create"
	_ "github.com/ipatlas/ipatlas/internal/cli/drop"
	_ "github.com/ipatlas/ipatlas/internal/cli/extractnames"
	_ "github.com/ipatlas/ipatlas/internal/cli/importcmd"
	_ "github.com/ipatlas/ipatlas/internal/cli/locate"
	_ "github.com/ipatlas/ipatlas/internal/cli/stats"
	_ "github.com/ipatlas/ipatlas/internal/cli/version"
)

func main() {
	if err := app.Run(); err != nil {
		log.WithError(err).Fatal("ipatlas failed")
	}
}
