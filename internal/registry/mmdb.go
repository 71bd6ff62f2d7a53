package registry

//
// Registers the `mmdb' provider.
//

import (
	"io"

	"github.com/ipatlas/ipatlas/internal/model"
	"github.com/ipatlas/ipatlas/internal/provider/mmdb"
)

func init() {
	AllProviders["mmdb"] = &Factory{
		build: func(files map[string]io.Reader, logger model.Logger) model.IPRangeProvider {
			return mmdb.New(files["db"], logger)
		},
		required: []string{"db"},
	}
}
