// Package maxmindcsv implements the provider for the GeoLite2 and GeoIP2
// City Blocks CSV files.
//
// Two layouts are supported and detected from the header. The current
// one describes a network in CIDR notation in the "network" column. The
// legacy one uses "network_start_ip" and "network_prefix_length", with
// IPv4 networks written as IPv4-mapped IPv6 addresses.
package maxmindcsv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"strconv"
	"strings"

	"github.com/ipatlas/ipatlas/internal/ipcodec"
	"github.com/ipatlas/ipatlas/internal/model"
	"github.com/ipatlas/ipatlas/internal/provider"
)

// Name is the tag of the ranges of this provider.
const Name = "maxmind"

// ErrUnknownLayout indicates a header matching no supported layout.
var ErrUnknownLayout = errors.New("maxmindcsv: unknown layout")

// Column names.
const (
	networkColumn            = "network"
	networkStartIPColumn     = "network_start_ip"
	networkPrefixLenColumn   = "network_prefix_length"
	geonameIDColumn          = "geoname_id"
	registeredCountryColumn  = "registered_country_geoname_id"
	representedCountryColumn = "represented_country_geoname_id"
	latitudeColumn           = "latitude"
	longitudeColumn          = "longitude"
)

// Provider is the MaxMind CSV model.IPRangeProvider.
type Provider struct {
	blocks io.Reader
	logger model.Logger
	report model.ProviderReport
}

var _ model.IPRangeProvider = &Provider{}

// New creates a new Provider reading a City Blocks CSV from blocks.
func New(blocks io.Reader, logger model.Logger) *Provider {
	return &Provider{blocks: blocks, logger: model.ValidLoggerOrDefault(logger)}
}

// Name implements model.IPRangeProvider.
func (p *Provider) Name() string {
	return Name
}

// Report implements model.IPRangeProvider.
func (p *Provider) Report() model.ProviderReport {
	return p.report
}

// layout maps column names to their positions.
type layout map[string]int

// newLayout parses the header.
func newLayout(header []string) (layout, error) {
	l := make(layout)
	for idx, name := range header {
		l[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = idx
	}
	_, current := l[networkColumn]
	_, start := l[networkStartIPColumn]
	_, length := l[networkPrefixLenColumn]
	if !current && !(start && length) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLayout, strings.Join(header, ","))
	}
	return l, nil
}

// get returns the trimmed value of the named column, or "".
func (l layout) get(record []string, name string) string {
	idx, found := l[name]
	if !found || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// prefix returns the network of record.
func (l layout) prefix(record []string) (netip.Prefix, error) {
	if _, current := l[networkColumn]; current {
		return netip.ParsePrefix(l.get(record, networkColumn))
	}
	addr, err := netip.ParseAddr(l.get(record, networkStartIPColumn))
	if err != nil {
		return netip.Prefix{}, err
	}
	bits, err := strconv.Atoi(l.get(record, networkPrefixLenColumn))
	if err != nil {
		return netip.Prefix{}, err
	}
	if addr.Is4In6() && bits >= 96 {
		addr, bits = addr.Unmap(), bits-96
	}
	return addr.Prefix(bits)
}

// optionalID parses the named column as an optional GeoNames id.
func (l layout) optionalID(record []string, name string) (int64, bool, error) {
	value := l.get(record, name)
	if value == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", name, err)
	}
	return id, true, nil
}

// coordinates parses the optional coordinates.
func (l layout) coordinates(record []string) (*model.Coordinates, error) {
	lat, lon := l.get(record, latitudeColumn), l.get(record, longitudeColumn)
	if lat == "" || lon == "" {
		return nil, nil
	}
	var (
		coords model.Coordinates
		err    error
	)
	if coords.Latitude, err = strconv.ParseFloat(lat, 64); err != nil {
		return nil, err
	}
	if coords.Longitude, err = strconv.ParseFloat(lon, 64); err != nil {
		return nil, err
	}
	return &coords, nil
}

// Parse implements model.IPRangeProvider.
func (p *Provider) Parse(ctx context.Context, resolver model.AreaResolver) ([]model.IPRangeLocation, error) {
	reader := csv.NewReader(p.blocks)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: reading header: %w", Name, err)
	}
	l, err := newLayout(header)
	if err != nil {
		return nil, err
	}
	c := provider.NewCollector(Name, resolver, p.logger)
	defer func() {
		p.report = c.Report()
	}()
	err = provider.ForEachRow(ctx, reader, c.Malformed, func(line int, record []string) error {
		cand, r, err := l.parse(record)
		if err != nil {
			c.Malformed(line, err)
			return nil
		}
		if len(cand.AreaIDs) == 0 {
			c.Dropped()
			return nil
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

// parse converts record into a candidate and its range. The candidate
// has no area ids when the record has neither the geoname id nor the
// registered country. A record whose geoname id is missing or names one
// of its countries is CountryOnly.
func (l layout) parse(record []string) (provider.Candidate, model.IPRange, error) {
	var cand provider.Candidate
	prefix, err := l.prefix(record)
	if err != nil {
		return cand, model.IPRange{}, err
	}
	r, err := ipcodec.RangeFromPrefix(prefix)
	if err != nil {
		return cand, model.IPRange{}, err
	}
	geonameID, hasGeoname, err := l.optionalID(record, geonameIDColumn)
	if err != nil {
		return cand, model.IPRange{}, err
	}
	registeredID, hasRegistered, err := l.optionalID(record, registeredCountryColumn)
	if err != nil {
		return cand, model.IPRange{}, err
	}
	representedID, hasRepresented, err := l.optionalID(record, representedCountryColumn)
	if err != nil {
		return cand, model.IPRange{}, err
	}
	if !hasGeoname && !hasRegistered {
		return cand, r, nil
	}
	if cand.Coordinates, err = l.coordinates(record); err != nil {
		return cand, model.IPRange{}, err
	}
	cand.CountryOnly = !hasGeoname ||
		(hasRegistered && geonameID == registeredID) ||
		(hasRepresented && geonameID == representedID)
	for _, entry := range []struct {
		id    int64
		found bool
	}{{geonameID, hasGeoname}, {registeredID, hasRegistered}, {representedID, hasRepresented}} {
		if entry.found {
			cand.AreaIDs = append(cand.AreaIDs, entry.id)
		}
	}
	return cand, r, nil
}
