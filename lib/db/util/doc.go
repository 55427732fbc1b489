// Package util provides utility components for engine implementations that
// satisfy the db.Engine interface.
//
// The package contains:
//   - statistics: a SizeHistogram for sampling value sizes and Stats /
//     DistributionStats for reporting how evenly keys are spread over shards
//   - hash: the seeded KeyHasher selecting the shard of a key
//
// The histogram uses exponential bucket sizing to cover values from bytes to
// gigabytes, so engines can report size estimates in GetInfo without a full scan.
package util
