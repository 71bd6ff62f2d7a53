package model

import (
	"fmt"
	"net/netip"
)

// IPRange is a closed interval of IP addresses. Start and End belong
// to the same address family and Start <= End.
type IPRange struct {
	Start netip.Addr `json:"start"`
	End   netip.Addr `json:"end"`
}

// String implements fmt.Stringer.
func (r IPRange) String() string {
	return fmt.Sprintf("%s - %s", r.Start, r.End)
}

// Contains returns whether ip is inside the range. Addresses of a
// different family are never contained.
func (r IPRange) Contains(ip netip.Addr) bool {
	if ip.Is4() != r.Start.Is4() {
		return false
	}
	return r.Start.Compare(ip) <= 0 && ip.Compare(r.End) <= 0
}

// IPRangeLocation is a canonical range: an IP range resolved to an area.
type IPRangeLocation struct {
	// Range is the IP range.
	Range IPRange `json:"range"`

	// AreaID is the resolved area. A range without a resolvable
	// area is dropped and never becomes an IPRangeLocation.
	AreaID int64 `json:"area_id"`

	// Coordinates is the point the feed provided, if any.
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// IPRangeInfo is a stored range returned by a lookup.
type IPRangeInfo struct {
	// Range is the IP range.
	Range IPRange `json:"range"`

	// AreaID is the area the provider maps the range to.
	AreaID int64 `json:"area_id"`

	// Provider is the tag of the feed that produced the range.
	Provider string `json:"provider"`
}
