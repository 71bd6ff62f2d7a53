package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ipatlas/ipatlas/internal/ipcodec"
	"github.com/ipatlas/ipatlas/internal/model"
)

// areaRow is a row of the areas table.
type areaRow struct {
	ID             int64           `db:"id"`
	Kind           model.AreaKind  `db:"kind"`
	Name           string          `db:"name"`
	NamesByCulture sql.NullString  `db:"names_by_culture"`
	Code           sql.NullString  `db:"code"`
	CountryID      sql.NullInt64   `db:"country_id"`
	AdminLevel     sql.NullInt64   `db:"admin_level"`
	Admin1ID       sql.NullInt64   `db:"admin1_id"`
	Admin2ID       sql.NullInt64   `db:"admin2_id"`
	Latitude       sql.NullFloat64 `db:"latitude"`
	Longitude      sql.NullFloat64 `db:"longitude"`
}

// areaColumns lists the columns of areaRow in insertion order.
var areaColumns = []string{
	"id", "kind", "name", "names_by_culture", "code", "country_id",
	"admin_level", "admin1_id", "admin2_id", "latitude", "longitude",
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: true}
}

func nullInt64Ptr(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return nullInt64(*v)
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	value := v.Int64
	return &value
}

// newAreaRow converts area to its row.
func newAreaRow(area model.Area) (*areaRow, error) {
	info := area.Info()
	row := &areaRow{ID: info.ID, Kind: area.Kind(), Name: info.Name}
	if len(info.NamesByCulture) > 0 {
		data, err := json.Marshal(info.NamesByCulture)
		if err != nil {
			return nil, err
		}
		row.NamesByCulture = sql.NullString{String: string(data), Valid: true}
	}
	switch v := area.(type) {
	case *model.Country:
		row.Code = sql.NullString{String: v.Code, Valid: true}
	case *model.AdminArea:
		row.Code = sql.NullString{String: v.Code, Valid: true}
		row.CountryID = nullInt64(v.CountryID)
		row.AdminLevel = nullInt64(int64(v.Level))
	case *model.PopulatedPlace:
		row.CountryID = nullInt64(v.CountryID)
		row.Admin1ID = nullInt64Ptr(v.AdminAreaLevel1ID)
		row.Admin2ID = nullInt64Ptr(v.AdminAreaLevel2ID)
		row.Latitude = sql.NullFloat64{Float64: v.Coordinates.Latitude, Valid: true}
		row.Longitude = sql.NullFloat64{Float64: v.Coordinates.Longitude, Valid: true}
	default:
		return nil, fmt.Errorf("database: unsupported area type %T", area)
	}
	return row, nil
}

// values returns the values of the row in areaColumns order.
func (r *areaRow) values() []interface{} {
	return []interface{}{
		r.ID, int64(r.Kind), r.Name, r.NamesByCulture, r.Code, r.CountryID,
		r.AdminLevel, r.Admin1ID, r.Admin2ID, r.Latitude, r.Longitude,
	}
}

// area converts the row back to the variant selected by Kind.
func (r *areaRow) area() (model.Area, error) {
	info := model.AreaInfo{ID: r.ID, Name: r.Name}
	if r.NamesByCulture.Valid && r.NamesByCulture.String != "" {
		if err := json.Unmarshal([]byte(r.NamesByCulture.String), &info.NamesByCulture); err != nil {
			return nil, fmt.Errorf("database: area %d: invalid names: %w", r.ID, err)
		}
	}
	switch r.Kind {
	case model.KindCountry:
		return &model.Country{AreaInfo: info, Code: r.Code.String}, nil
	case model.KindAdminArea:
		return &model.AdminArea{
			AreaInfo:  info,
			CountryID: r.CountryID.Int64,
			Level:     int(r.AdminLevel.Int64),
			Code:      r.Code.String,
		}, nil
	case model.KindPopulatedPlace:
		return &model.PopulatedPlace{
			AreaInfo:          info,
			CountryID:         r.CountryID.Int64,
			AdminAreaLevel1ID: int64Ptr(r.Admin1ID),
			AdminAreaLevel2ID: int64Ptr(r.Admin2ID),
			Coordinates: model.Coordinates{
				Latitude:  r.Latitude.Float64,
				Longitude: r.Longitude.Float64,
			},
		}, nil
	default:
		return nil, fmt.Errorf("database: area %d: unknown kind %d", r.ID, int(r.Kind))
	}
}

// rangeRow is a row of the ip_ranges table.
type rangeRow struct {
	StartLow  int64         `db:"start_low"`
	StartHigh sql.NullInt64 `db:"start_high"`
	EndLow    int64         `db:"end_low"`
	EndHigh   sql.NullInt64 `db:"end_high"`
	AreaID    int64         `db:"area_id"`
	Provider  string        `db:"provider"`
}

// newRangeRow converts loc to its row.
func newRangeRow(provider string, loc *model.IPRangeLocation) (*rangeRow, error) {
	start, err := ipcodec.Encode(loc.Range.Start)
	if err != nil {
		return nil, err
	}
	end, err := ipcodec.Encode(loc.Range.End)
	if err != nil {
		return nil, err
	}
	order, err := ipcodec.Compare(start, end)
	if err != nil || order > 0 {
		return nil, fmt.Errorf("%w: %s", ipcodec.ErrInvalidRange, loc.Range)
	}
	row := &rangeRow{AreaID: loc.AreaID, Provider: provider}
	row.StartLow, row.StartHigh = start.Storage()
	row.EndLow, row.EndHigh = end.Storage()
	return row, nil
}

// info converts the row to a lookup result.
func (r *rangeRow) info() (model.IPRangeInfo, error) {
	start, err := ipcodec.Decode(ipcodec.FromStorage(r.StartLow, r.StartHigh))
	if err != nil {
		return model.IPRangeInfo{}, err
	}
	end, err := ipcodec.Decode(ipcodec.FromStorage(r.EndLow, r.EndHigh))
	if err != nil {
		return model.IPRangeInfo{}, err
	}
	return model.IPRangeInfo{
		Range:    model.IPRange{Start: start, End: end},
		AreaID:   r.AreaID,
		Provider: r.Provider,
	}, nil
}
