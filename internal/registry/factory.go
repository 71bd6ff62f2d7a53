package registry

//
// Factory for constructing providers.
//

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ipatlas/ipatlas/internal/fsx"
	"github.com/ipatlas/ipatlas/internal/model"
)

// Factory allows to construct a provider.
type Factory struct {
	// build is the constructor that builds a provider reading the given files.
	build func(files map[string]io.Reader, logger model.Logger) model.IPRangeProvider

	// required contains the file roles the provider cannot work without.
	required []string

	// optional contains the file roles the provider may use.
	optional []string
}

var (
	// ErrNoSuchProvider indicates a given provider type does not exist.
	ErrNoSuchProvider = errors.New("no such provider")

	// ErrMissingFile indicates that a required file role has no path.
	ErrMissingFile = errors.New("missing required file")

	// ErrUnknownFile indicates a file role the provider does not use.
	ErrUnknownFile = errors.New("unknown file role")
)

// AllProviders contains all the registered providers by canonical name.
var AllProviders = map[string]*Factory{}

// aliases maps accepted spellings to canonical names.
var aliases = map[string]string{
	"maxmind":   "maxmindcsv",
	"maxminddb": "mmdb",
}

// CanonicalizeProviderName returns the canonical name of a provider type.
func CanonicalizeProviderName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, found := aliases[name]; found {
		return canonical
	}
	return name
}

// NewFactory creates a new Factory instance for the given provider type.
func NewFactory(name string) (*Factory, error) {
	factory := AllProviders[CanonicalizeProviderName(name)]
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchProvider, name)
	}
	return factory, nil
}

// Names returns the sorted canonical names of all providers.
func Names() []string {
	var names []string
	for name := range AllProviders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Required returns the file roles the provider needs.
func (b *Factory) Required() []string {
	return b.required
}

// Optional returns the file roles the provider may use.
func (b *Factory) Optional() []string {
	return b.optional
}

// Validate checks that files contains every required role and
// nothing but known roles.
func (b *Factory) Validate(files map[string]string) error {
	for _, role := range b.required {
		if files[role] == "" {
			return fmt.Errorf("%w: %s", ErrMissingFile, role)
		}
	}
	for role := range files {
		if !b.knows(role) {
			return fmt.Errorf("%w: %s", ErrUnknownFile, role)
		}
	}
	return nil
}

func (b *Factory) knows(role string) bool {
	for _, known := range append(append([]string{}, b.required...), b.optional...) {
		if known == role {
			return true
		}
	}
	return false
}

// NewProvider opens the files and constructs the provider. The caller
// must close the returned io.Closer once the provider has been parsed.
func (b *Factory) NewProvider(files map[string]string, logger model.Logger) (model.IPRangeProvider, io.Closer, error) {
	if err := b.Validate(files); err != nil {
		return nil, nil, err
	}
	var roles []string
	for role, path := range files {
		if path != "" {
			roles = append(roles, role)
		}
	}
	sort.Strings(roles)
	var paths []string
	for _, role := range roles {
		paths = append(paths, files[role])
	}
	opened, closer, err := fsx.OpenFiles(paths...)
	if err != nil {
		return nil, nil, err
	}
	readers := make(map[string]io.Reader)
	for idx, role := range roles {
		readers[role] = opened[idx]
	}
	return b.build(readers, model.ValidLoggerOrDefault(logger)), closer, nil
}
