package registry

//
// Registers the `ipgeobase' provider.
//

import (
	"io"

	"github.com/ipatlas/ipatlas/internal/model"
	"github.com/ipatlas/ipatlas/internal/provider/ipgeobase"
)

func init() {
	AllProviders["ipgeobase"] = &Factory{
		build: func(files map[string]io.Reader, logger model.Logger) model.IPRangeProvider {
			return ipgeobase.New(files["cidr"], files["cities"], logger)
		},
		required: []string{"cidr"},
		optional: []string{"cities"},
	}
}
