package model

import "math"

//
// Administrative hierarchy
//

// AreaKind is the discriminator persisted alongside every area. The
// variant of a stored area cannot be inferred from its nullable columns.
type AreaKind int

const (
	// KindCountry identifies a *Country.
	KindCountry = AreaKind(1)

	// KindAdminArea identifies an *AdminArea.
	KindAdminArea = AreaKind(2)

	// KindPopulatedPlace identifies a *PopulatedPlace.
	KindPopulatedPlace = AreaKind(3)
)

// String implements fmt.Stringer.
func (k AreaKind) String() string {
	switch k {
	case KindCountry:
		return "country"
	case KindAdminArea:
		return "admin_area"
	case KindPopulatedPlace:
		return "populated_place"
	default:
		return "unknown"
	}
}

// AreaInfo contains the fields shared by every area variant.
type AreaInfo struct {
	// ID is the GeoNames id, unique across all variants.
	ID int64

	// Name is the canonical display name.
	Name string

	// NamesByCulture maps a culture tag (e.g. "en", "ru") to
	// the localized name. It may be nil.
	NamesByCulture map[string]string
}

// LocalizedName returns the name for culture, falling back
// to the canonical name when the culture is missing.
func (ai *AreaInfo) LocalizedName(culture string) string {
	if name, found := ai.NamesByCulture[culture]; found && name != "" {
		return name
	}
	return ai.Name
}

// Info returns the shared fields. Every variant gets this method
// through embedding, which is what makes it an Area.
func (ai *AreaInfo) Info() *AreaInfo {
	return ai
}

// Area is any node of the administrative hierarchy. The concrete
// type is one of *Country, *AdminArea or *PopulatedPlace.
type Area interface {
	// Info returns the fields shared by all variants.
	Info() *AreaInfo

	// Kind returns the variant discriminator.
	Kind() AreaKind
}

// Country is a country.
type Country struct {
	AreaInfo

	// Code is the ISO 3166-1 alpha-2 code.
	Code string
}

// Kind implements Area.
func (*Country) Kind() AreaKind {
	return KindCountry
}

// AdminArea is a first or second level administrative division.
type AdminArea struct {
	AreaInfo

	// CountryID references the owning Country.
	CountryID int64

	// Level is either 1 or 2.
	Level int

	// Code is the GeoNames admin code (e.g. "RU.48" or "US.CA.037").
	Code string
}

// Kind implements Area.
func (*AdminArea) Kind() AreaKind {
	return KindAdminArea
}

// PopulatedPlace is a city, town or village.
type PopulatedPlace struct {
	AreaInfo

	// CountryID references the owning Country.
	CountryID int64

	// AdminAreaLevel1ID optionally references the first level AdminArea.
	AdminAreaLevel1ID *int64

	// AdminAreaLevel2ID optionally references the second level AdminArea.
	AdminAreaLevel2ID *int64

	// Coordinates is the WGS84 position of the place.
	Coordinates Coordinates
}

// Kind implements Area.
func (*PopulatedPlace) Kind() AreaKind {
	return KindPopulatedPlace
}

var (
	_ Area = &Country{}
	_ Area = &AdminArea{}
	_ Area = &PopulatedPlace{}
)

//
// Coordinates
//

// Coordinates is a WGS84 point expressed in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// earthRadiusKm is the mean Earth radius.
const earthRadiusKm = 6371.0

// DistanceKm returns the great circle distance between c and other.
func (c Coordinates) DistanceKm(other Coordinates) float64 {
	const rad = math.Pi / 180
	dlat := (other.Latitude - c.Latitude) * rad
	dlon := (other.Longitude - c.Longitude) * rad
	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(c.Latitude*rad)*math.Cos(other.Latitude*rad)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// Valid returns whether the coordinates are within the WGS84 bounds.
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}
