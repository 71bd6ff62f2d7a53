package registry

//
// Registers the `maxmindcsv' provider.
//

import (
	"io"

	"github.com/ipatlas/ipatlas/internal/model"
	"github.com/ipatlas/ipatlas/internal/provider/maxmindcsv"
)

func init() {
	AllProviders["maxmindcsv"] = &Factory{
		build: func(files map[string]io.Reader, logger model.Logger) model.IPRangeProvider {
			return maxmindcsv.New(files["blocks"], logger)
		},
		required: []string{"blocks"},
	}
}
