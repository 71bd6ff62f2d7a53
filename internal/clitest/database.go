package clitest

import (
	"context"
	"net/netip"
	"path/filepath"
	"testing"

	"github.com/ipatlas/ipatlas/internal/config"
	"github.com/ipatlas/ipatlas/internal/database"
	"github.com/ipatlas/ipatlas/internal/model"
)

// Ids of the sample areas.
const (
	RussiaID  = 2017370
	MoscowObl = 524894
	MoscowID  = 524901
)

// SampleAreas returns Russia, its Moscow admin area and Moscow.
func SampleAreas() []model.Area {
	admin := int64(MoscowObl)
	return []model.Area{
		&model.Country{
			AreaInfo: model.AreaInfo{
				ID:             RussiaID,
				Name:           "Russia",
				NamesByCulture: map[string]string{"ru": "Россия"},
			},
			Code: "RU",
		},
		&model.AdminArea{
			AreaInfo: model.AreaInfo{
				ID:             MoscowObl,
				Name:           "Moscow Oblast",
				NamesByCulture: map[string]string{"ru": "Московская область"},
			},
			CountryID: RussiaID,
			Level:     1,
			Code:      "RU.47",
		},
		&model.PopulatedPlace{
			AreaInfo: model.AreaInfo{
				ID:             MoscowID,
				Name:           "Moscow",
				NamesByCulture: map[string]string{"ru": "Москва"},
			},
			CountryID:         RussiaID,
			AdminAreaLevel1ID: &admin,
			Coordinates:       model.Coordinates{Latitude: 55.75222, Longitude: 37.61556},
		},
	}
}

// NewConfig returns a config whose database is in a temporary directory.
func NewConfig(t *testing.T) *config.Config {
	c := config.Default()
	c.DatabasePath = filepath.Join(t.TempDir(), "ipatlas.sqlite3")
	return c
}

// NewPopulatedConfig is like NewConfig but also stores the sample areas, the
// 2.0.0.0/24 "ipgeobase" range mapped to Moscow and the 2.0.0.0/16
// "maxmind" range mapped to Russia.
func NewPopulatedConfig(t *testing.T) *config.Config {
	c := NewConfig(t)
	ctx := context.Background()
	db, err := database.Open(c.DatabasePath, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := db.CreateIfAbsent(ctx); err != nil {
		t.Fatal(err)
	}
	if err := db.AddAreas(ctx, SampleAreas(), nil); err != nil {
		t.Fatal(err)
	}
	ranges := map[string]model.IPRangeLocation{
		"ipgeobase": {Range: mustRange("2.0.0.0", "2.0.0.255"), AreaID: MoscowID},
		"maxmind":   {Range: mustRange("2.0.0.0", "2.0.255.255"), AreaID: RussiaID},
	}
	for provider, loc := range ranges {
		if err := db.AddRanges(ctx, provider, []model.IPRangeLocation{loc}, nil); err != nil {
			t.Fatal(err)
		}
	}
	return c
}

func mustRange(start, end string) model.IPRange {
	return model.IPRange{Start: netip.MustParseAddr(start), End: netip.MustParseAddr(end)}
}
