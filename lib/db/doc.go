// Package db provides the contract of the typed key space.
//
// The package focuses on:
//   - The Engine interface, split into GenericOps, StringOps, SetOps and ListOps
//   - A closed set of stored value kinds (StringValue, SetValue, ListValue)
//   - Typed errors for type mismatches, malformed integers and wrong arity
//   - Feature discovery through capability flags
//
// Key Components:
//
//   - Engine Interface: Every key is bound to exactly one Value kind. All typed
//     accessors check the kind of the bound value before they mutate anything,
//     a mismatch is reported as *TypeMismatchError (errors.Is(err, ErrTypeMismatch))
//     and the key space is left unchanged. Read accessors never create keys, an
//     unbound key reads as absent, empty or zero.
//
//   - Lazy creation: keys are only created by Set, MSet, Incr/IncrBy, SAdd, LPush
//     and RPush. A set or list that becomes empty through a removal is unbound.
//
//   - Integers: there is no integer kind, Incr parses the stored string as a
//     base 10 integer of arbitrary size and stores the canonical decimal form
//     of the result. A malformed value is reported as *ParseError.
//
//   - Ranges: NormalizeRange implements the inclusive range rule of LRange
//     (negative indexes count from the end, clamping to the list bounds) and
//     ParseIndex parses string encoded indexes.
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     advertise through SupportsFeature.
//
//   - Database Information: DatabaseInfo reports the implementation, key count and
//     an estimated size (most implementations only sample their data).
//
// Related Packages:
//
// The engines/memory package (github.com/ValentinKolb/respkv/lib/db/engines/memory)
// provides a sharded in-memory implementation of the Engine interface. The engines
// package selects an implementation by its Implementation name.
//
// The testing package (github.com/ValentinKolb/respkv/lib/db/testing) provides
// standardized tests and benchmarks for implementations of the Engine interface:
//   - RunEngineTests: Runs the conformance suite to validate implementations
//   - RunEngineBenchmarks: Provides performance benchmarks for comparing implementations
package db
