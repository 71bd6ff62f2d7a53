// Package providertest contains a resolver over a tiny gazetteer used
// to test the providers.
package providertest

import (
	"context"
	"math"

	"github.com/ipatlas/ipatlas/internal/model"
	"github.com/ipatlas/ipatlas/internal/model/mocks"
)

// Well known ids of the areas known to NewResolver.
const (
	RussiaID   = 1
	MoscowID   = 2
	UkraineID  = 3
	KyivID     = 4
	MoscowObID = 10
)

// Areas returns the areas known to NewResolver.
func Areas() []model.Area {
	return []model.Area{
		&model.Country{AreaInfo: model.AreaInfo{ID: RussiaID, Name: "Russia"}, Code: "RU"},
		&model.Country{AreaInfo: model.AreaInfo{ID: UkraineID, Name: "Ukraine"}, Code: "UA"},
		&model.AdminArea{
			AreaInfo:  model.AreaInfo{ID: MoscowObID, Name: "Moscow Oblast"},
			CountryID: RussiaID,
			Level:     1,
			Code:      "RU.47",
		},
		&model.PopulatedPlace{
			AreaInfo:    model.AreaInfo{ID: MoscowID, Name: "Moscow"},
			CountryID:   RussiaID,
			Coordinates: model.Coordinates{Latitude: 55, Longitude: 37},
		},
		&model.PopulatedPlace{
			AreaInfo:    model.AreaInfo{ID: KyivID, Name: "Kyiv"},
			CountryID:   UkraineID,
			Coordinates: model.Coordinates{Latitude: 50.45, Longitude: 30.52},
		},
	}
}

// NewResolver returns a resolver over Areas with the given search
// radius in degrees.
func NewResolver(radius float64) *mocks.AreaResolver {
	byID := make(map[int64]model.Area)
	byCode := make(map[string]*model.Country)
	var places []*model.PopulatedPlace
	for _, area := range Areas() {
		byID[area.Info().ID] = area
		switch v := area.(type) {
		case *model.Country:
			byCode[v.Code] = v
		case *model.PopulatedPlace:
			places = append(places, v)
		}
	}
	return &mocks.AreaResolver{
		MockGetArea: func(ctx context.Context, id int64) (model.Area, error) {
			area, found := byID[id]
			if !found {
				return nil, model.ErrNotFound
			}
			return area, nil
		},
		MockGetCountry: func(ctx context.Context, code string) (*model.Country, error) {
			country, found := byCode[code]
			if !found {
				return nil, model.ErrNotFound
			}
			return country, nil
		},
		MockGetNearestPopulatedPlace: func(ctx context.Context, coords model.Coordinates) (*model.PopulatedPlace, error) {
			var (
				best     *model.PopulatedPlace
				bestDist = radius
			)
			for _, place := range places {
				dlat := place.Coordinates.Latitude - coords.Latitude
				dlon := (place.Coordinates.Longitude - coords.Longitude) * math.Cos(coords.Latitude*math.Pi/180)
				if dist := math.Hypot(dlat, dlon); dist <= bestDist {
					best, bestDist = place, dist
				}
			}
			if best == nil {
				return nil, model.ErrNotFound
			}
			return best, nil
		},
	}
}
