package model

import (
	"math"
	"net/netip"
	"testing"
)

func TestLocalizedName(t *testing.T) {
	info := &AreaInfo{
		ID:             524901,
		Name:           "Moscow",
		NamesByCulture: map[string]string{"ru": "Москва", "de": ""},
	}

	t.Run("with a known culture", func(t *testing.T) {
		if got := info.LocalizedName("ru"); got != "Москва" {
			t.Fatal("unexpected name", got)
		}
	})

	t.Run("with a missing culture", func(t *testing.T) {
		if got := info.LocalizedName("fr"); got != "Moscow" {
			t.Fatal("unexpected name", got)
		}
	})

	t.Run("with an empty localized name", func(t *testing.T) {
		if got := info.LocalizedName("de"); got != "Moscow" {
			t.Fatal("unexpected name", got)
		}
	})

	t.Run("with nil names", func(t *testing.T) {
		info := &AreaInfo{Name: "Moscow"}
		if got := info.LocalizedName("ru"); got != "Moscow" {
			t.Fatal("unexpected name", got)
		}
	})
}

func TestKinds(t *testing.T) {
	areas := []Area{&Country{}, &AdminArea{}, &PopulatedPlace{}}
	expect := []AreaKind{KindCountry, KindAdminArea, KindPopulatedPlace}
	for idx, area := range areas {
		if area.Kind() != expect[idx] {
			t.Fatal("unexpected kind", area.Kind())
		}
	}
	if AreaKind(0).String() != "unknown" {
		t.Fatal("unexpected string for invalid kind")
	}
}

func TestDistanceKm(t *testing.T) {
	moscow := Coordinates{Latitude: 55.75222, Longitude: 37.61556}
	spb := Coordinates{Latitude: 59.93863, Longitude: 30.31413}
	d := moscow.DistanceKm(spb)
	if math.Abs(d-634) > 5 {
		t.Fatal("unexpected distance", d)
	}
	if moscow.DistanceKm(moscow) != 0 {
		t.Fatal("expected zero distance")
	}
}

func TestIPRangeContains(t *testing.T) {
	r := IPRange{
		Start: netip.MustParseAddr("137.108.0.0"),
		End:   netip.MustParseAddr("137.108.255.255"),
	}
	if !r.Contains(netip.MustParseAddr("137.108.1.1")) {
		t.Fatal("expected contained")
	}
	if r.Contains(netip.MustParseAddr("8.8.8.8")) {
		t.Fatal("expected not contained")
	}
	if r.Contains(netip.MustParseAddr("::ffff:137.108.1.1")) {
		t.Fatal("expected family mismatch not to match")
	}
}
