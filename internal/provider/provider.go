// Package provider contains the code shared by the IP range providers:
// the resolution policy and the collection of the resolved ranges.
package provider

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/ipatlas/ipatlas/internal/model"
)

// Candidate is what a feed record says about the location of a range.
type Candidate struct {
	// Coordinates is the optional point provided by the feed.
	Coordinates *model.Coordinates

	// AreaIDs contains GeoNames ids in decreasing order of precision.
	AreaIDs []int64

	// CountryCode is the optional ISO 3166-1 alpha-2 code.
	CountryCode string

	// CountryOnly is set when the record locates the range no better
	// than its country. Its Coordinates, if any, are the country centroid:
	// they are kept on the location but never matched to a place.
	CountryOnly bool
}

// Match is a resolved Candidate.
type Match struct {
	// AreaID is the resolved area.
	AreaID int64

	// Place is the populated place matched through the coordinates, if any.
	Place *model.PopulatedPlace
}

// Resolve applies the resolution policy to c. Coordinates of a record
// that is not CountryOnly map to the nearest populated place. Failing
// that, the first area id known to the resolver wins. Failing that, the
// country code is used. It returns model.ErrNotFound when nothing matches
// and any other resolver error as is.
func Resolve(ctx context.Context, resolver model.AreaResolver, c Candidate) (Match, error) {
	if c.Coordinates != nil && !c.CountryOnly && c.Coordinates.Valid() {
		place, err := resolver.GetNearestPopulatedPlace(ctx, *c.Coordinates)
		if err == nil {
			return Match{AreaID: place.ID, Place: place}, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return Match{}, err
		}
	}
	for _, id := range c.AreaIDs {
		area, err := resolver.GetArea(ctx, id)
		if err == nil {
			return Match{AreaID: area.Info().ID}, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return Match{}, err
		}
	}
	if code := strings.ToUpper(strings.TrimSpace(c.CountryCode)); code != "" {
		country, err := resolver.GetCountry(ctx, code)
		if err == nil {
			return Match{AreaID: country.ID}, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return Match{}, err
		}
	}
	return Match{}, model.ErrNotFound
}

// Collector accumulates the ranges resolved by a provider and the
// counters of its report. It is not safe for concurrent use.
type Collector struct {
	logger   model.Logger
	name     string
	ranges   []model.IPRangeLocation
	report   model.ProviderReport
	resolver model.AreaResolver
}

// NewCollector creates a new Collector for the provider with the given name.
func NewCollector(name string, resolver model.AreaResolver, logger model.Logger) *Collector {
	return &Collector{
		logger:   model.ValidLoggerOrDefault(logger),
		name:     name,
		resolver: resolver,
	}
}

// Malformed records a record that could not be parsed.
func (c *Collector) Malformed(line int, err error) {
	c.report.Read++
	c.report.Malformed++
	c.logger.Warnf("%s: skipping malformed record at line %d: %s", c.name, line, err.Error())
}

// Dropped records a well formed record that cannot be resolved.
func (c *Collector) Dropped() {
	c.report.Read++
	c.report.Dropped++
}

// Add resolves cand and, on success, records r as located there. An
// unresolvable record is dropped. Only resolver failures other than
// model.ErrNotFound are returned.
func (c *Collector) Add(ctx context.Context, r model.IPRange, cand Candidate) error {
	m, err := Resolve(ctx, c.resolver, cand)
	if errors.Is(err, model.ErrNotFound) {
		c.Dropped()
		return nil
	}
	if err != nil {
		return err
	}
	c.report.Read++
	c.report.Accepted++
	loc := model.IPRangeLocation{Range: r, AreaID: m.AreaID}
	if cand.Coordinates != nil {
		coords := *cand.Coordinates
		loc.Coordinates = &coords
		if m.Place != nil {
			c.report.Distances = append(c.report.Distances, coords.DistanceKm(m.Place.Coordinates))
		}
	}
	c.ranges = append(c.ranges, loc)
	return nil
}

// Report returns the counters.
func (c *Collector) Report() model.ProviderReport {
	return c.report
}

// Finish logs the counters and returns the ranges.
func (c *Collector) Finish() []model.IPRangeLocation {
	c.logger.Infof("%s: read %d records: %d accepted, %d dropped, %d malformed",
		c.name, c.report.Read, c.report.Accepted, c.report.Dropped, c.report.Malformed)
	return c.ranges
}

// NewTabReader returns a csv.Reader for the tab separated feeds. Rows
// may have any number of fields and quotes have no special meaning.
func NewTabReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true
	return reader
}

// ForEachRow calls fn with the 1-based line number of every row read
// from reader, stopping at EOF or at the first error returned by fn. Rows
// the reader cannot parse are passed to malformed instead.
func ForEachRow(ctx context.Context, reader *csv.Reader,
	malformed func(line int, err error), fn func(line int, record []string) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			malformed(perr.Line, err)
			continue
		}
		if err != nil {
			return err
		}
		line, _ := reader.FieldPos(0)
		if err := fn(line, record); err != nil {
			return err
		}
	}
}
