package model

import (
	"context"
	"errors"
)

// ErrNotFound indicates that the requested area does not exist. Callers
// resolving a provider record treat it as "try the next rule".
var ErrNotFound = errors.New("area not found")

// AreaResolver answers questions about the loaded gazetteer. Every
// implementation must be safe for concurrent use.
type AreaResolver interface {
	// GetArea returns the area with the given id.
	GetArea(ctx context.Context, id int64) (Area, error)

	// GetCountry returns the country with the given ISO code.
	GetCountry(ctx context.Context, code string) (*Country, error)

	// GetNearestPopulatedPlace returns the populated place closest to
	// coords within the resolver's search radius.
	GetNearestPopulatedPlace(ctx context.Context, coords Coordinates) (*PopulatedPlace, error)

	// GetAddress returns the place, admin level 2 and admin level 1
	// names for id in the given culture, joined by ", ".
	GetAddress(ctx context.Context, id int64, culture string) (string, error)
}

// IPRangeProvider turns one third-party feed into canonical ranges.
type IPRangeProvider interface {
	// Name returns the tag under which the ranges are stored.
	Name() string

	// Parse reads the feed and resolves every record using resolver. A
	// record that cannot be resolved is dropped. A malformed record is
	// skipped. Only resolver failures other than ErrNotFound, read
	// errors and context cancellation abort the parse.
	Parse(ctx context.Context, resolver AreaResolver) ([]IPRangeLocation, error)

	// Report returns the counters collected by the last Parse.
	Report() ProviderReport
}

// ProviderReport summarizes how a feed was reconciled.
type ProviderReport struct {
	// Read is the number of data records read.
	Read int

	// Accepted is the number of records resolved to an area.
	Accepted int

	// Dropped is the number of well-formed records with no resolvable area.
	Dropped int

	// Malformed is the number of records skipped because unparsable.
	Malformed int

	// Distances contains, for every record resolved through the
	// nearest populated place, the distance in km between the feed
	// point and the matched place.
	Distances []float64
}
