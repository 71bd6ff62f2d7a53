// Package resolver implements model.AreaResolver on top of the store.
//
// A Resolver takes a snapshot of the countries when it is created and
// never mutates it afterwards, so every method is safe for concurrent
// use. Admin areas are kept in a bounded LRU cache because GetAddress
// asks for the same few of them over and over. Populated places are
// always read from the store.
package resolver

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ipatlas/ipatlas/internal/model"
	"github.com/ipatlas/ipatlas/internal/runtimex"
	"github.com/pkg/errors"
)

// DefaultSearchRadius is the default radius, in degrees, within which
// GetNearestPopulatedPlace looks for a populated place.
const DefaultSearchRadius = 0.3

// adminCacheSize is the number of admin areas kept in memory.
const adminCacheSize = 4096

// Store is the subset of the database used by the Resolver.
type Store interface {
	ListCountries(ctx context.Context) ([]*model.Country, error)
	GetArea(ctx context.Context, id int64) (model.Area, error)
	NearestPopulatedPlace(ctx context.Context, coords model.Coordinates, radius float64) (*model.PopulatedPlace, error)
}

// Resolver is the model.AreaResolver. Returned areas are shared and
// callers must not modify them.
type Resolver struct {
	admins *lru.Cache[int64, *model.AdminArea]
	byCode map[string]*model.Country
	byID   map[int64]*model.Country
	logger model.Logger
	radius float64
	store  Store
}

var _ model.AreaResolver = &Resolver{}

// New creates a Resolver taking a snapshot of the countries in store. A
// radius lower than or equal to zero selects DefaultSearchRadius.
func New(ctx context.Context, store Store, radius float64, logger model.Logger) (*Resolver, error) {
	if radius <= 0 {
		radius = DefaultSearchRadius
	}
	countries, err := store.ListCountries(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading countries snapshot")
	}
	admins, err := lru.New[int64, *model.AdminArea](adminCacheSize)
	runtimex.PanicOnError(err, "lru.New failed")
	r := &Resolver{
		admins: admins,
		byCode: make(map[string]*model.Country, len(countries)),
		byID:   make(map[int64]*model.Country, len(countries)),
		logger: model.ValidLoggerOrDefault(logger),
		radius: radius,
		store:  store,
	}
	for _, country := range countries {
		r.byCode[country.Code] = country
		r.byID[country.ID] = country
	}
	r.logger.Debugf("resolver: %d countries, search radius %g degrees", len(countries), radius)
	return r, nil
}

// Radius returns the search radius in degrees.
func (r *Resolver) Radius() float64 {
	return r.radius
}

// GetArea implements model.AreaResolver.
func (r *Resolver) GetArea(ctx context.Context, id int64) (model.Area, error) {
	if country, found := r.byID[id]; found {
		return country, nil
	}
	if admin, found := r.admins.Get(id); found {
		return admin, nil
	}
	area, err := r.store.GetArea(ctx, id)
	if err != nil {
		return nil, err
	}
	if admin, ok := area.(*model.AdminArea); ok {
		r.admins.Add(id, admin)
	}
	return area, nil
}

// GetCountry implements model.AreaResolver.
func (r *Resolver) GetCountry(ctx context.Context, code string) (*model.Country, error) {
	country, found := r.byCode[code]
	if !found {
		return nil, model.ErrNotFound
	}
	return country, nil
}

// GetNearestPopulatedPlace implements model.AreaResolver.
func (r *Resolver) GetNearestPopulatedPlace(
	ctx context.Context, coords model.Coordinates) (*model.PopulatedPlace, error) {
	return r.store.NearestPopulatedPlace(ctx, coords, r.radius)
}

// GetAddress implements model.AreaResolver.
func (r *Resolver) GetAddress(ctx context.Context, id int64, culture string) (string, error) {
	area, err := r.GetArea(ctx, id)
	if err != nil {
		return "", err
	}
	parts := []string{area.Info().LocalizedName(culture)}
	place, ok := area.(*model.PopulatedPlace)
	if !ok {
		return parts[0], nil
	}
	for _, ref := range []*int64{place.AdminAreaLevel2ID, place.AdminAreaLevel1ID} {
		if ref == nil {
			continue
		}
		admin, err := r.GetArea(ctx, *ref)
		if errors.Is(err, model.ErrNotFound) {
			r.logger.Warnf("resolver: place %d references missing admin area %d", id, *ref)
			continue
		}
		if err != nil {
			return "", err
		}
		parts = append(parts, admin.Info().LocalizedName(culture))
	}
	return strings.Join(parts, ", "), nil
}
