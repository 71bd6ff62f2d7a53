// Package model contains the shared interfaces and data structures.
//
// # Criteria for adding a type to this package
//
// This package should contain two kinds of types:
//
// 1. interfaces shared by several packages (the area resolver, the
// range providers, the logger), with the objective of separating
// unrelated pieces of code and making unit testing easier;
//
// 2. data shared across packages (areas, IP ranges, lookup results).
//
// In general, this package should not contain logic, unless
// this logic is strictly related to data structures and we
// cannot implement this logic elsewhere.
//
// # Content of this package
//
// - area.go: the administrative hierarchy (Country, AdminArea,
// PopulatedPlace) and coordinates;
//
// - iprange.go: IP ranges, resolved range locations, lookup results;
//
// - logger.go: generic definition of an apex/log compatible logger;
//
// - resolver.go: the area resolver and range provider contracts;
//
// - progress.go: the progress sink used by bulk loads.
package model
