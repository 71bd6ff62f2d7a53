// Package ipgeobase implements the provider for the ipgeobase.ru feed.
//
// The feed consists of two tab separated files. Each row of
// cidr_optim.txt contains the first and last address of a range as
// integers, the same range as "START - END", the country code and the id
// of the city or "-". Each row of cities.txt contains the city id, its
// name, region and district, and its latitude and longitude.
package ipgeobase

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ipatlas/ipatlas/internal/ipcodec"
	"github.com/ipatlas/ipatlas/internal/model"
	"github.com/ipatlas/ipatlas/internal/provider"
)

// Name is the tag of the ranges of this provider.
const Name = "ipgeobase"

// Column positions of cidr_optim.txt.
const (
	rangeField        = 2
	countryField      = 3
	cityField         = 4
	rangeMinNumFields = 4
)

// Column positions of cities.txt.
const (
	cityIDField        = 0
	cityLatitudeField  = 4
	cityLongitudeField = 5
	cityMinNumFields   = 6
)

// Provider is the ipgeobase model.IPRangeProvider.
type Provider struct {
	cidr   io.Reader
	cities io.Reader
	logger model.Logger
	report model.ProviderReport
}

var _ model.IPRangeProvider = &Provider{}

// New creates a new Provider reading cidr_optim.txt from cidr and
// cities.txt from cities.
func New(cidr, cities io.Reader, logger model.Logger) *Provider {
	return &Provider{
		cidr:   cidr,
		cities: cities,
		logger: model.ValidLoggerOrDefault(logger),
	}
}

// Name implements model.IPRangeProvider.
func (p *Provider) Name() string {
	return Name
}

// Report implements model.IPRangeProvider.
func (p *Provider) Report() model.ProviderReport {
	return p.report
}

// Parse implements model.IPRangeProvider.
func (p *Provider) Parse(ctx context.Context, resolver model.AreaResolver) ([]model.IPRangeLocation, error) {
	cities, err := p.readCities(ctx)
	if err != nil {
		return nil, err
	}
	c := provider.NewCollector(Name, resolver, p.logger)
	defer func() {
		p.report = c.Report()
	}()
	reader := provider.NewTabReader(p.cidr)
	err = provider.ForEachRow(ctx, reader, c.Malformed, func(line int, record []string) error {
		if len(record) < rangeMinNumFields {
			c.Malformed(line, fmt.Errorf("expected at least %d fields, found %d", rangeMinNumFields, len(record)))
			return nil
		}
		r, err := ipcodec.ParseRange(record[rangeField])
		if err != nil {
			c.Malformed(line, err)
			return nil
		}
		cand := provider.Candidate{CountryCode: record[countryField]}
		if len(record) > cityField {
			// An unknown city is treated as no city.
			if coords, found := cities[strings.TrimSpace(record[cityField])]; found {
				cand.Coordinates = &coords
			}
		}
		if err := c.Add(ctx, r, cand); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", Name, err)
	}
	return c.Finish(), nil
}

// readCities maps each city id to its coordinates. Malformed rows are
// logged and skipped.
func (p *Provider) readCities(ctx context.Context) (map[string]model.Coordinates, error) {
	cities := make(map[string]model.Coordinates)
	if p.cities == nil {
		return cities, nil
	}
	skip := func(line int, err error) {
		p.logger.Warnf("%s: cities: skipping line %d: %s", Name, line, err.Error())
	}
	reader := provider.NewTabReader(p.cities)
	err := provider.ForEachRow(ctx, reader, skip, func(line int, record []string) error {
		if len(record) < cityMinNumFields {
			skip(line, fmt.Errorf("expected at least %d fields, found %d", cityMinNumFields, len(record)))
			return nil
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(record[cityLatitudeField]), 64)
		if err != nil {
			skip(line, err)
			return nil
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(record[cityLongitudeField]), 64)
		if err != nil {
			skip(line, err)
			return nil
		}
		cities[strings.TrimSpace(record[cityIDField])] = model.Coordinates{Latitude: lat, Longitude: lon}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: cities: %w", Name, err)
	}
	return cities, nil
}
