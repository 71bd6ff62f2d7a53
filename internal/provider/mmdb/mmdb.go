// Package mmdb implements the provider reading a MaxMind DB file, such
// as GeoLite2-City.mmdb or GeoLite2-Country.mmdb.
package mmdb

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/netip"

	"github.com/ipatlas/ipatlas/internal/ipcodec"
	"github.com/ipatlas/ipatlas/internal/model"
	"github.com/ipatlas/ipatlas/internal/provider"
	"github.com/oschwald/maxminddb-golang"
)

// Name is the tag of the ranges of this provider.
const Name = "mmdb"

// record is the subset of a City or Country record we use.
type record struct {
	City struct {
		GeoNameID uint `maxminddb:"geoname_id"`
	} `maxminddb:"city"`

	Country struct {
		GeoNameID uint   `maxminddb:"geoname_id"`
		IsoCode   string `maxminddb:"iso_code"`
	} `maxminddb:"country"`

	RegisteredCountry struct {
		GeoNameID uint   `maxminddb:"geoname_id"`
		IsoCode   string `maxminddb:"iso_code"`
	} `maxminddb:"registered_country"`

	Location struct {
		Latitude  *float64 `maxminddb:"latitude"`
		Longitude *float64 `maxminddb:"longitude"`
	} `maxminddb:"location"`
}

// candidate converts the record to a provider.Candidate.
func (r *record) candidate() provider.Candidate {
	cand := provider.Candidate{CountryOnly: r.City.GeoNameID == 0}
	if r.Location.Latitude != nil && r.Location.Longitude != nil {
		cand.Coordinates = &model.Coordinates{
			Latitude:  *r.Location.Latitude,
			Longitude: *r.Location.Longitude,
		}
	}
	for _, id := range []uint{r.City.GeoNameID, r.Country.GeoNameID, r.RegisteredCountry.GeoNameID} {
		if id != 0 {
			cand.AreaIDs = append(cand.AreaIDs, int64(id))
		}
	}
	cand.CountryCode = r.Country.IsoCode
	if cand.CountryCode == "" {
		cand.CountryCode = r.RegisteredCountry.IsoCode
	}
	return cand
}

// Provider is the MaxMind DB model.IPRangeProvider.
type Provider struct {
	db     io.Reader
	logger model.Logger
	report model.ProviderReport
}

var _ model.IPRangeProvider = &Provider{}

// New creates a new Provider reading the database from db.
func New(db io.Reader, logger model.Logger) *Provider {
	return &Provider{db: db, logger: model.ValidLoggerOrDefault(logger)}
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
	data, err := io.ReadAll(p.db)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", Name, err)
	}
	reader, err := maxminddb.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", Name, err)
	}
	defer reader.Close()
	p.logger.Debugf("%s: %s database built at epoch %d", Name,
		reader.Metadata.DatabaseType, reader.Metadata.BuildEpoch)
	c := provider.NewCollector(Name, resolver, p.logger)
	defer func() {
		p.report = c.Report()
	}()
	networks := reader.Networks(maxminddb.SkipAliasedNetworks)
	for count := 1; networks.Next(); count++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var rec record
		subnet, err := networks.Network(&rec)
		if err != nil {
			c.Malformed(count, err)
			continue
		}
		r, err := rangeFromIPNet(subnet)
		if err != nil {
			c.Malformed(count, err)
			continue
		}
		if err := c.Add(ctx, r, rec.candidate()); err != nil {
			return nil, fmt.Errorf("%s: network %s: %w", Name, subnet, err)
		}
	}
	if err := networks.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", Name, err)
	}
	return c.Finish(), nil
}

// rangeFromIPNet converts subnet to a range. IPv4 networks stored in the
// IPv4-mapped subtree are converted back to IPv4.
func rangeFromIPNet(subnet *net.IPNet) (model.IPRange, error) {
	addr, ok := netip.AddrFromSlice(subnet.IP)
	if !ok {
		return model.IPRange{}, fmt.Errorf("%s: invalid network address %s", Name, subnet.IP)
	}
	bits, _ := subnet.Mask.Size()
	if addr.Is4In6() && bits >= 96 {
		addr, bits = addr.Unmap(), bits-96
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return model.IPRange{}, err
	}
	return ipcodec.RangeFromPrefix(prefix)
}
