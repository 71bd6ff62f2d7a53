package provider

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

func coords(lat, lon float64) *model.Coordinates {
	return &model.Coordinates{Latitude: lat, Longitude: lon}
}

func TestResolve(t *testing.T) {
	type testcase struct {
		name      string
		candidate Candidate
		expect    int64
		err       error
	}

	cases := []testcase{{
		name:      "coordinates near a place win over the country",
		candidate: Candidate{Coordinates: coords(55.01, 37.01), CountryCode: "RU"},
		expect:    providertest.MoscowID,
	}, {
		name:      "coordinates far from any place fall back to the country",
		candidate: Candidate{Coordinates: coords(60, 60), CountryCode: "RU"},
		expect:    providertest.RussiaID,
	}, {
		name:      "invalid coordinates are ignored",
		candidate: Candidate{Coordinates: coords(555, 37), CountryCode: "RU"},
		expect:    providertest.RussiaID,
	}, {
		name:      "country only",
		candidate: Candidate{CountryCode: "ru"},
		expect:    providertest.RussiaID,
	}, {
		name: "country centroids are not matched to a place",
		candidate: Candidate{
			Coordinates: coords(55.01, 37.01),
			AreaIDs:     []int64{providertest.RussiaID},
			CountryOnly: true,
		},
		expect: providertest.RussiaID,
	}, {
		name:      "first known area id wins",
		candidate: Candidate{AreaIDs: []int64{4242, providertest.MoscowObID, providertest.RussiaID}},
		expect:    providertest.MoscowObID,
	}, {
		name:      "unknown area ids fall back to the country",
		candidate: Candidate{AreaIDs: []int64{4242}, CountryCode: "UA"},
		expect:    providertest.UkraineID,
	}, {
		name:      "unknown country",
		candidate: Candidate{CountryCode: "XX"},
		err:       model.ErrNotFound,
	}, {
		name:      "nothing at all",
		candidate: Candidate{},
		err:       model.ErrNotFound,
	}}

	resolver := providertest.NewResolver(0.3)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := Resolve(context.Background(), resolver, tc.candidate)
			if !errors.Is(err, tc.err) {
				t.Fatal("unexpected error", err)
			}
			if m.AreaID != tc.expect {
				t.Fatal("unexpected area", m.AreaID)
			}
		})
	}
}

func TestResolveStopsOnResolverFailures(t *testing.T) {
	expected := errors.New("mocked error")
	resolver := providertest.NewResolver(0.3)
	resolver.MockGetNearestPopulatedPlace = func(ctx context.Context, c model.Coordinates) (*model.PopulatedPlace, error) {
		return nil, expected
	}
	_, err := Resolve(context.Background(), resolver, Candidate{Coordinates: coords(55, 37), CountryCode: "RU"})
	if !errors.Is(err, expected) {
		t.Fatal("unexpected error", err)
	}
}

func TestCollector(t *testing.T) {
	ctx := context.Background()
	c := NewCollector("test", providertest.NewResolver(0.3), nil)
	r := model.IPRange{Start: netip.MustParseAddr("1.0.0.0"), End: netip.MustParseAddr("1.0.0.255")}
	if err := c.Add(ctx, r, Candidate{Coordinates: coords(55, 37)}); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(ctx, r, Candidate{CountryCode: "UA"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(ctx, r, Candidate{CountryCode: "XX"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(ctx, r, Candidate{Coordinates: coords(55, 37), CountryCode: "RU", CountryOnly: true}); err != nil {
		t.Fatal(err)
	}
	c.Malformed(5, errors.New("bad row"))
	ranges := c.Finish()
	expect := []model.IPRangeLocation{
		{Range: r, AreaID: providertest.MoscowID, Coordinates: coords(55, 37)},
		{Range: r, AreaID: providertest.UkraineID},
		{Range: r, AreaID: providertest.RussiaID, Coordinates: coords(55, 37)},
	}
	if diff := cmp.Diff(expect, ranges, cmp.Comparer(func(a, b netip.Addr) bool { return a == b })); diff != "" {
		t.Fatal(diff)
	}
	expectReport := model.ProviderReport{Read: 5, Accepted: 3, Dropped: 1, Malformed: 1, Distances: []float64{0}}
	if diff := cmp.Diff(expectReport, c.Report()); diff != "" {
		t.Fatal(diff)
	}
}

func TestNewTabReader(t *testing.T) {
	reader := NewTabReader(strings.NewReader("a\tb\"x\tc\n1\n"))
	record, err := reader.Read()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b\"x", "c"}, record); diff != "" {
		t.Fatal(diff)
	}
	record, err = reader.Read()
	if err != nil {
		t.Fatal(err)
	}
	if len(record) != 1 {
		t.Fatal("unexpected record", record)
	}
}
