// Package ipcodec converts IP addresses to and from totally ordered,
// fixed-width integer keys.
//
// An IPv4 address is the big-endian 32-bit unsigned integer formed by
// its four octets. An IPv6 address is the big-endian 128-bit unsigned
// integer formed by its sixteen octets, split into the most significant
// 64 bits (High) and the least significant 64 bits (Low). Keys of
// different families are never compared.
package ipcodec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/ipatlas/ipatlas/internal/model"
)

// ErrUnsupportedAddressFamily indicates an address that is neither IPv4 nor IPv6.
var ErrUnsupportedAddressFamily = errors.New("ipcodec: unsupported address family")

// ErrFamilyMismatch indicates an attempt to compare keys of different families.
var ErrFamilyMismatch = errors.New("ipcodec: address family mismatch")

// ErrInvalidRange indicates a range whose endpoints are out of order
// or belong to different families.
var ErrInvalidRange = errors.New("ipcodec: invalid range")

// Family is an address family.
type Family int

const (
	// FamilyIPv4 is the IPv4 family.
	FamilyIPv4 = Family(4)

	// FamilyIPv6 is the IPv6 family.
	FamilyIPv6 = Family(6)
)

// String implements fmt.Stringer.
func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// Key is the encoded form of an IP address. For IPv4 High is always zero
// and Low holds the 32-bit value.
type Key struct {
	Family Family
	High   uint64
	Low    uint64
}

// Encode converts addr to its key. IPv4-mapped IPv6 addresses are
// encoded as IPv6: callers wanting IPv4 semantics must Unmap first.
func Encode(addr netip.Addr) (Key, error) {
	switch {
	case addr.Is4():
		b := addr.As4()
		return Key{Family: FamilyIPv4, Low: uint64(binary.BigEndian.Uint32(b[:]))}, nil
	case addr.Is6():
		b := addr.As16()
		return Key{
			Family: FamilyIPv6,
			High:   binary.BigEndian.Uint64(b[:8]),
			Low:    binary.BigEndian.Uint64(b[8:]),
		}, nil
	default:
		return Key{}, ErrUnsupportedAddressFamily
	}
}

// Decode is the inverse of Encode.
func Decode(key Key) (netip.Addr, error) {
	switch key.Family {
	case FamilyIPv4:
		if key.High != 0 || key.Low > 0xffffffff {
			return netip.Addr{}, fmt.Errorf("ipcodec: ipv4 key out of range: %d", key.Low)
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(key.Low))
		return netip.AddrFrom4(b), nil
	case FamilyIPv6:
		var b [16]byte
		binary.BigEndian.PutUint64(b[:8], key.High)
		binary.BigEndian.PutUint64(b[8:], key.Low)
		return netip.AddrFrom16(b), nil
	default:
		return netip.Addr{}, ErrUnsupportedAddressFamily
	}
}

// Compare returns -1, 0 or +1 depending on whether a is lower than,
// equal to or greater than b.
func Compare(a, b Key) (int, error) {
	if a.Family != b.Family {
		return 0, ErrFamilyMismatch
	}
	switch {
	case a.High < b.High:
		return -1, nil
	case a.High > b.High:
		return 1, nil
	case a.Low < b.Low:
		return -1, nil
	case a.Low > b.Low:
		return 1, nil
	default:
		return 0, nil
	}
}

// bits returns the address width of the family.
func (f Family) bits() int {
	if f == FamilyIPv4 {
		return 32
	}
	return 128
}

// hostMask returns the key whose bits not covered by a prefix of
// length bits are all set to one.
func hostMask(family Family, bits int) Key {
	host := family.bits() - bits
	mask := Key{Family: family}
	switch {
	case host <= 0:
	case host < 64:
		mask.Low = (uint64(1) << host) - 1
	case host == 64:
		mask.Low = ^uint64(0)
	default:
		mask.Low = ^uint64(0)
		mask.High = (uint64(1) << (host - 64)) - 1
	}
	if family == FamilyIPv4 {
		mask.Low &= 0xffffffff
	}
	return mask
}

// LastAddress returns the address obtained by setting all the host
// bits of prefix to one.
func LastAddress(prefix netip.Prefix) (netip.Addr, error) {
	if !prefix.IsValid() {
		return netip.Addr{}, fmt.Errorf("ipcodec: invalid prefix %s", prefix)
	}
	key, err := Encode(prefix.Addr())
	if err != nil {
		return netip.Addr{}, err
	}
	mask := hostMask(key.Family, prefix.Bits())
	key.High |= mask.High
	key.Low |= mask.Low
	return Decode(key)
}

// RangeFromPrefix returns the closed range covered by prefix.
func RangeFromPrefix(prefix netip.Prefix) (model.IPRange, error) {
	last, err := LastAddress(prefix)
	if err != nil {
		return model.IPRange{}, err
	}
	return model.IPRange{Start: prefix.Masked().Addr(), End: last}, nil
}

// NewRange validates and returns the range [start, end].
func NewRange(start, end netip.Addr) (model.IPRange, error) {
	sk, err := Encode(start)
	if err != nil {
		return model.IPRange{}, err
	}
	ek, err := Encode(end)
	if err != nil {
		return model.IPRange{}, err
	}
	cmp, err := Compare(sk, ek)
	if err != nil {
		return model.IPRange{}, fmt.Errorf("%w: %s - %s", ErrInvalidRange, start, end)
	}
	if cmp > 0 {
		return model.IPRange{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}
	return model.IPRange{Start: start, End: end}, nil
}

// ParseRange parses the "START - END" notation.
func ParseRange(s string) (model.IPRange, error) {
	first, second, found := strings.Cut(s, "-")
	if !found {
		return model.IPRange{}, fmt.Errorf("%w: missing separator in %q", ErrInvalidRange, s)
	}
	start, err := netip.ParseAddr(strings.TrimSpace(first))
	if err != nil {
		return model.IPRange{}, err
	}
	end, err := netip.ParseAddr(strings.TrimSpace(second))
	if err != nil {
		return model.IPRange{}, err
	}
	return NewRange(start, end)
}
