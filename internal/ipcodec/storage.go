package ipcodec

import "database/sql"

// signBit is the most significant bit of a 64-bit word.
const signBit = uint64(1) << 63

// Storage maps the key onto signed 64-bit integers preserving the
// ordering, which is what SQLite INTEGER columns can hold. An IPv4 key
// fits as-is and has no high word. Each IPv6 word has its sign bit
// flipped, so that signed comparison of the stored words matches the
// unsigned comparison of the original words.
func (k Key) Storage() (low int64, high sql.NullInt64) {
	if k.Family == FamilyIPv4 {
		return int64(k.Low), sql.NullInt64{}
	}
	return int64(k.Low ^ signBit), sql.NullInt64{Int64: int64(k.High ^ signBit), Valid: true}
}

// FromStorage is the inverse of Key.Storage. The family is implied by
// the presence of the high word.
func FromStorage(low int64, high sql.NullInt64) Key {
	if !high.Valid {
		return Key{Family: FamilyIPv4, Low: uint64(low)}
	}
	return Key{
		Family: FamilyIPv6,
		High:   uint64(high.Int64) ^ signBit,
		Low:    uint64(low) ^ signBit,
	}
}
