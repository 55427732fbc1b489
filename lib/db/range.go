package db

import "strconv"

// ParseIndex parses a string encoded list index (e.g. the arguments of
// LRANGE and LINDEX)
func ParseIndex(s string) (int64, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &ParseError{Value: s, Reason: "is not an integer or out of range"}
	}
	return i, nil
}

// NormalizeRange maps an inclusive range [start, stop] onto a sequence of
// the given length. Negative indexes count from the end (-1 is the last
// element), afterwards start is clamped to 0 and stop to length-1.
// ok is false if the resulting range is empty.
func NormalizeRange(start, stop, length int64) (from, to int64, ok bool) {
	if length <= 0 {
		return 0, 0, false
	}
	if start < 0 {
		start += length
	}
	if stop < 0 {
		stop += length
	}
	if start < 0 {
		start = 0
	}
	if stop >= length {
		stop = length - 1
	}
	if start > stop {
		return 0, 0, false
	}
	return start, stop, true
}

// NormalizeIndex maps a possibly negative index onto a sequence of the given
// length. ok is false if the index is out of range.
func NormalizeIndex(index, length int64) (int64, bool) {
	if index < 0 {
		index += length
	}
	if index < 0 || index >= length {
		return 0, false
	}
	return index, true
}
