package database

import (
	"context"
	"errors"
	"math"
	"net/netip"

	"github.com/ipatlas/ipatlas/internal/ipcodec"
	"github.com/ipatlas/ipatlas/internal/model"
	pkgerrors "github.com/pkg/errors"
	"github.com/upper/db/v4"
)

// GetArea returns the area with the given id or model.ErrNotFound.
func (d *Database) GetArea(ctx context.Context, id int64) (model.Area, error) {
	var row areaRow
	err := d.sess.WithContext(ctx).Collection("areas").Find(db.Cond{"id": id}).One(&row)
	if errors.Is(err, db.ErrNoMoreRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "getting area %d", id)
	}
	return row.area()
}

// ListCountries returns every country ordered by id.
func (d *Database) ListCountries(ctx context.Context) ([]*model.Country, error) {
	var rows []areaRow
	err := d.sess.WithContext(ctx).Collection("areas").
		Find(db.Cond{"kind": int64(model.KindCountry)}).OrderBy("id").All(&rows)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "listing countries")
	}
	countries := make([]*model.Country, 0, len(rows))
	for idx := range rows {
		area, err := rows[idx].area()
		if err != nil {
			return nil, err
		}
		countries = append(countries, area.(*model.Country))
	}
	return countries, nil
}

// NearestPopulatedPlace returns the populated place closest to coords
// among the ones within radius degrees, or model.ErrNotFound. The
// distance is planar, with the longitude difference scaled by the cosine
// of the latitude of coords.
func (d *Database) NearestPopulatedPlace(ctx context.Context,
	coords model.Coordinates, radius float64) (*model.PopulatedPlace, error) {
	scale := math.Cos(coords.Latitude * math.Pi / 180)
	lonRadius := radius / math.Max(scale, 1e-3)
	var rows []areaRow
	err := d.sess.WithContext(ctx).SQL().
		Select("a.*").
		From("area_points AS p").
		Join("areas AS a").On("a.id = p.id").
		Where("p.min_lat <= ? AND p.max_lat >= ? AND p.min_lon <= ? AND p.max_lon >= ?",
			coords.Latitude+radius, coords.Latitude-radius,
			coords.Longitude+lonRadius, coords.Longitude-lonRadius).
		All(&rows)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "searching populated places")
	}
	var (
		best     *areaRow
		bestDist = math.Inf(1)
	)
	for idx := range rows {
		row := &rows[idx]
		dlat := row.Latitude.Float64 - coords.Latitude
		dlon := (row.Longitude.Float64 - coords.Longitude) * scale
		dist := math.Hypot(dlat, dlon)
		if dist > radius {
			continue
		}
		if dist < bestDist || (dist == bestDist && row.ID < best.ID) {
			best, bestDist = row, dist
		}
	}
	if best == nil {
		return nil, model.ErrNotFound
	}
	area, err := best.area()
	if err != nil {
		return nil, err
	}
	return area.(*model.PopulatedPlace), nil
}

// Locate returns every stored range containing ip, in no particular
// order. The result is empty when no range matches.
func (d *Database) Locate(ctx context.Context, ip netip.Addr) ([]model.IPRangeInfo, error) {
	key, err := ipcodec.Encode(ip)
	if err != nil {
		return nil, err
	}
	low, high := key.Storage()
	query := d.sess.WithContext(ctx).SQL().
		Select("start_low", "start_high", "end_low", "end_high", "area_id", "provider").
		From("ip_ranges")
	if !high.Valid {
		query = query.Where("start_high IS NULL AND start_low <= ? AND end_low >= ?", low, low)
	} else {
		query = query.Where(
			"start_high IS NOT NULL"+
				" AND (start_high < ? OR (start_high = ? AND start_low <= ?))"+
				" AND (end_high > ? OR (end_high = ? AND end_low >= ?))",
			high.Int64, high.Int64, low, high.Int64, high.Int64, low)
	}
	var rows []rangeRow
	if err := query.All(&rows); err != nil {
		return nil, pkgerrors.Wrapf(err, "locating %s", ip)
	}
	out := make([]model.IPRangeInfo, 0, len(rows))
	for idx := range rows {
		info, err := rows[idx].info()
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// Counts contains the number of stored items.
type Counts struct {
	// AreasByKind maps an area kind to the number of areas.
	AreasByKind map[model.AreaKind]int

	// RangesByProvider maps a provider tag to the number of ranges.
	RangesByProvider map[string]int
}

// Counts returns the number of stored areas and ranges.
func (d *Database) Counts(ctx context.Context) (*Counts, error) {
	sess := d.sess.WithContext(ctx)
	var kinds []struct {
		Kind  model.AreaKind `db:"kind"`
		Count int            `db:"n"`
	}
	err := sess.SQL().Select("kind", db.Raw("COUNT(*) AS n")).
		From("areas").GroupBy("kind").All(&kinds)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "counting areas")
	}
	var providers []struct {
		Provider string `db:"provider"`
		Count    int    `db:"n"`
	}
	err = sess.SQL().Select("provider", db.Raw("COUNT(*) AS n")).
		From("ip_ranges").GroupBy("provider").All(&providers)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "counting ranges")
	}
	counts := &Counts{
		AreasByKind:      make(map[model.AreaKind]int),
		RangesByProvider: make(map[string]int),
	}
	for _, entry := range kinds {
		counts.AreasByKind[entry.Kind] = entry.Count
	}
	for _, entry := range providers {
		counts.RangesByProvider[entry.Provider] = entry.Count
	}
	return counts, nil
}
