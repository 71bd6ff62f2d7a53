// Package mocks contains mocks for the model interfaces.
package mocks

import (
	"context"

	"github.com/ipatlas/ipatlas/internal/model"
)

// AreaResolver allows mocking a model.AreaResolver.
type AreaResolver struct {
	MockGetArea                  func(ctx context.Context, id int64) (model.Area, error)
	MockGetCountry               func(ctx context.Context, code string) (*model.Country, error)
	MockGetNearestPopulatedPlace func(ctx context.Context, coords model.Coordinates) (*model.PopulatedPlace, error)
	MockGetAddress               func(ctx context.Context, id int64, culture string) (string, error)
}

var _ model.AreaResolver = &AreaResolver{}

// GetArea calls MockGetArea.
func (r *AreaResolver) GetArea(ctx context.Context, id int64) (model.Area, error) {
	return r.MockGetArea(ctx, id)
}

// GetCountry calls MockGetCountry.
func (r *AreaResolver) GetCountry(ctx context.Context, code string) (*model.Country, error) {
	return r.MockGetCountry(ctx, code)
}

// GetNearestPopulatedPlace calls MockGetNearestPopulatedPlace.
func (r *AreaResolver) GetNearestPopulatedPlace(
	ctx context.Context, coords model.Coordinates) (*model.PopulatedPlace, error) {
	return r.MockGetNearestPopulatedPlace(ctx, coords)
}

// GetAddress calls MockGetAddress.
func (r *AreaResolver) GetAddress(ctx context.Context, id int64, culture string) (string, error) {
	return r.MockGetAddress(ctx, id, culture)
}
