package db

import "math/big"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplMemory Implementation = "memory"
)

// Feature represents engine capabilities as bit flags
type Feature uint64

const (
	FeatureKeys     Feature = 1 << iota // Support for Exists, Del, Type and DBSize
	FeatureStrings                      // Support for Get, Set and MSet
	FeatureCounters                     // Support for Incr and IncrBy
	FeatureSets                         // Support for set operations
	FeatureLists                        // Support for list operations
	FeatureFlush                        // Support for FlushAll
	FeatureRandomPop                    // SPop selects members uniformly at random
)

func (f Feature) String() string {
	switch f {
	case FeatureKeys:
		return "Keys"
	case FeatureStrings:
		return "Strings"
	case FeatureCounters:
		return "Counters"
	case FeatureSets:
		return "Sets"
	case FeatureLists:
		return "Lists"
	case FeatureFlush:
		return "Flush"
	case FeatureRandomPop:
		return "RandomPop"
	default:
		return "Unknown"
	}
}

type DatabaseInfo struct {
	SizeBytes         int            `json:"size_bytes"`
	Keys              int64          `json:"keys"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Engine Interface
// --------------------------------------------------------------------------

// GenericOps are the operations that work on keys of any kind
type GenericOps interface {
	// Ping returns "PONG"
	Ping() string

	// Exists reports whether the key is bound to a value of any kind
	Exists(key string) bool

	// Del removes each bound key and returns how many keys were removed.
	// Keys that are absent do not count and are not created.
	Del(keys []string) int64

	// Type returns the kind of the value bound to key (KindNone if unbound)
	Type(key string) Kind

	// DBSize returns the number of bound keys
	DBSize() int64

	// FlushAll removes all keys
	FlushAll()
}

// StringOps are the operations on string values.
// Integers are stored as their canonical decimal string.
type StringOps interface {
	// Get returns a copy of the string bound to key.
	// The boolean is false if the key is unbound.
	Get(key string) (value []byte, ok bool, err error)

	// Set binds key to a string value, replacing any prior value of any kind
	Set(key string, value []byte)

	// MSet applies Set for alternating key/value pairs from left to right.
	// An odd (or zero) number of arguments is an ArityError and nothing is set.
	// It always returns 1 on success.
	MSet(pairs [][]byte) (int64, error)

	// Incr adds one to the integer stored at key (an unbound key counts as 0)
	// and returns the new value.
	Incr(key string) (*big.Int, error)

	// IncrBy adds delta to the integer stored at key and returns the new value
	IncrBy(key string, delta *big.Int) (*big.Int, error)
}

// SetOps are the operations on set values
type SetOps interface {
	// SAdd adds members to the set at key (creating it) and returns the number
	// of members that were not present before.
	SAdd(key string, members [][]byte) (int64, error)

	// SMembers returns an independent copy of all members.
	// An unbound key yields an empty result.
	SMembers(key string) ([][]byte, error)

	// SIsMember reports whether member is part of the set
	SIsMember(key string, member []byte) (bool, error)

	// SCard returns the number of members
	SCard(key string) (int64, error)

	// SPop removes and returns one member chosen at random.
	// The boolean is false if the key is unbound.
	SPop(key string) ([]byte, bool, error)

	// SRem removes members and returns how many were present
	SRem(key string, members [][]byte) (int64, error)
}

// ListOps are the operations on list values
type ListOps interface {
	// LPush prepends each value in order (creating the list) and returns the new length
	LPush(key string, values [][]byte) (int64, error)

	// RPush appends each value in order (creating the list) and returns the new length
	RPush(key string, values [][]byte) (int64, error)

	// LIndex returns the element at index. Negative indexes count from the end.
	// The boolean is false if the index is out of range or the key is unbound.
	LIndex(key string, index int64) ([]byte, bool, error)

	// LPop removes and returns the first element
	LPop(key string) ([]byte, bool, error)

	// RPop removes and returns the last element
	RPop(key string) ([]byte, bool, error)

	// LLen returns the length of the list (0 for an unbound key)
	LLen(key string) (int64, error)

	// LRange returns the inclusive range [start, stop] after normalization
	// with NormalizeRange. An unbound key behaves as an empty list.
	LRange(key string, start, stop int64) ([][]byte, error)
}

// Engine defines the typed key space. Each key is bound to exactly one Value
// kind. Accessing a key with an operation of another kind returns a
// *TypeMismatchError and never changes the key space. Read operations never
// create keys.
//
// Implementations can vary in their feature support, which can be queried with SupportsFeature.
type Engine interface {
	GenericOps
	StringOps
	SetOps
	ListOps

	// SupportsFeature checks if the engine supports the specified feature.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the engine
	GetInfo() (info DatabaseInfo)

	// Close releases the engine, it must not be used afterwards
	Close() (err error)
}
