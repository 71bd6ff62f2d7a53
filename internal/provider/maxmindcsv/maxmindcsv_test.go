package maxmindcsv

import (
	"context"
	"errors"
	"net/netip"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ipatlas/ipatlas/internal/model"
	"github.com/ipatlas/ipatlas/internal/provider/providertest"
)

const currentLayout = "" +
	"network,geoname_id,registered_country_geoname_id,represented_country_geoname_id," +
	"is_anonymous_proxy,is_satellite_provider,postal_code,latitude,longitude,accuracy_radius\n" +
	"1.0.0.0/24,2,1,,0,0,,55.01,37.01,1000\n" +
	"1.0.1.0/24,4242,1,,0,0,,10.0,10.0,1000\n" +
	"1.0.2.0/24,,3,,0,0,,,,\n" +
	"1.0.3.0/24,,,1,0,0,,,,\n" +
	"1.0.4.0/24,4242,4343,,0,0,,,,\n" +
	"1.0.5.0/33,1,1,,0,0,,,,\n" +
	"2001:db8::/32,10,1,,0,0,,,,\n"

const legacyLayout = "" +
	"network_start_ip,network_prefix_length,geoname_id,registered_country_geoname_id," +
	"represented_country_geoname_id,postal_code,latitude,longitude,is_anonymous_proxy,is_satellite_provider\n" +
	"::ffff:1.0.0.0,120,2,1,,,55.01,37.01,0,0\n" +
	"2001:db8::,32,,3,,,,,0,0\n" +
	"::ffff:1.0.1.0,notanumber,2,1,,,,,0,0\n"

func mustRange(start, end string) model.IPRange {
	return model.IPRange{Start: netip.MustParseAddr(start), End: netip.MustParseAddr(end)}
}

var addrComparer = cmp.Comparer(func(a, b netip.Addr) bool { return a == b })

func TestParseCurrentLayout(t *testing.T) {
	p := New(strings.NewReader(currentLayout), model.DiscardLogger)
	ranges, err := p.Parse(context.Background(), providertest.NewResolver(0.3))
	if err != nil {
		t.Fatal(err)
	}
	expect := []model.IPRangeLocation{{
		Range:       mustRange("1.0.0.0", "1.0.0.255"),
		AreaID:      providertest.MoscowID,
		Coordinates: &model.Coordinates{Latitude: 55.01, Longitude: 37.01},
	}, {
		Range:       mustRange("1.0.1.0", "1.0.1.255"),
		AreaID:      providertest.RussiaID,
		Coordinates: &model.Coordinates{Latitude: 10, Longitude: 10},
	}, {
		Range:  mustRange("1.0.2.0", "1.0.2.255"),
		AreaID: providertest.UkraineID,
	}, {
		Range:  mustRange("2001:db8::", "2001:db8:ffff:ffff:ffff:ffff:ffff:ffff"),
		AreaID: providertest.MoscowObID,
	}}
	if diff := cmp.Diff(expect, ranges, addrComparer); diff != "" {
		t.Fatal(diff)
	}
	expectReport := model.ProviderReport{Read: 7, Accepted: 4, Dropped: 2, Malformed: 1}
	report := p.Report()
	report.Distances = nil
	if diff := cmp.Diff(expectReport, report); diff != "" {
		t.Fatal(diff)
	}
}

func TestParseLegacyLayout(t *testing.T) {
	p := New(strings.NewReader(legacyLayout), nil)
	ranges, err := p.Parse(context.Background(), providertest.NewResolver(0.3))
	if err != nil {
		t.Fatal(err)
	}
	expect := []model.IPRangeLocation{{
		Range:       mustRange("1.0.0.0", "1.0.0.255"),
		AreaID:      providertest.MoscowID,
		Coordinates: &model.Coordinates{Latitude: 55.01, Longitude: 37.01},
	}, {
		Range:  mustRange("2001:db8::", "2001:db8:ffff:ffff:ffff:ffff:ffff:ffff"),
		AreaID: providertest.UkraineID,
	}}
	if diff := cmp.Diff(expect, ranges, addrComparer); diff != "" {
		t.Fatal(diff)
	}
	if p.Report().Malformed != 1 {
		t.Fatal("unexpected report", p.Report())
	}
}

func TestParseCountryOnlyRows(t *testing.T) {
	// The coordinates of these rows are country centroids that happen
	// to be next to Moscow.
	const blocks = "" +
		"network,geoname_id,registered_country_geoname_id,represented_country_geoname_id," +
		"is_anonymous_proxy,is_satellite_provider,postal_code,latitude,longitude,accuracy_radius\n" +
		"1.0.0.0/24,1,1,,0,0,,55.01,37.01,1000\n" +
		"1.0.1.0/24,,1,,0,0,,55.01,37.01,1000\n" +
		"1.0.2.0/24,3,1,3,0,0,,55.01,37.01,1000\n"
	p := New(strings.NewReader(blocks), nil)
	ranges, err := p.Parse(context.Background(), providertest.NewResolver(0.3))
	if err != nil {
		t.Fatal(err)
	}
	centroid := &model.Coordinates{Latitude: 55.01, Longitude: 37.01}
	expect := []model.IPRangeLocation{{
		Range:       mustRange("1.0.0.0", "1.0.0.255"),
		AreaID:      providertest.RussiaID,
		Coordinates: centroid,
	}, {
		Range:       mustRange("1.0.1.0", "1.0.1.255"),
		AreaID:      providertest.RussiaID,
		Coordinates: centroid,
	}, {
		Range:       mustRange("1.0.2.0", "1.0.2.255"),
		AreaID:      providertest.UkraineID,
		Coordinates: centroid,
	}}
	if diff := cmp.Diff(expect, ranges, addrComparer); diff != "" {
		t.Fatal(diff)
	}
	if distances := p.Report().Distances; len(distances) != 0 {
		t.Fatal("unexpected distances", distances)
	}
}

func TestParseUnknownLayout(t *testing.T) {
	p := New(strings.NewReader("foo,bar\n1,2\n"), nil)
	_, err := p.Parse(context.Background(), providertest.NewResolver(0.3))
	if !errors.Is(err, ErrUnknownLayout) {
		t.Fatal("unexpected error", err)
	}
}

func TestParseEmptyInput(t *testing.T) {
	p := New(strings.NewReader(""), nil)
	if _, err := p.Parse(context.Background(), providertest.NewResolver(0.3)); err == nil {
		t.Fatal("expected an error")
	}
}

func TestParseStopsOnResolverFailures(t *testing.T) {
	expected := errors.New("mocked error")
	resolver := providertest.NewResolver(0.3)
	resolver.MockGetNearestPopulatedPlace = func(ctx context.Context, c model.Coordinates) (*model.PopulatedPlace, error) {
		return nil, expected
	}
	p := New(strings.NewReader(currentLayout), nil)
	if _, err := p.Parse(context.Background(), resolver); !errors.Is(err, expected) {
		t.Fatal("unexpected error", err)
	}
}
