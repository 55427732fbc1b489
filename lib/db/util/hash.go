package util

import "hash/maphash"

// UintKey is the hash of a key, it selects the shard of the key
type UintKey uint64

// KeyHasher hashes keys with a random per instance seed, so the shard
// layout differs between engine instances.
//
// Thread-safety: A KeyHasher is immutable and can be used concurrently.
type KeyHasher struct {
	seed maphash.Seed
}

// NewKeyHasher creates a hasher with a new random seed
func NewKeyHasher() KeyHasher {
	return KeyHasher{seed: maphash.MakeSeed()}
}

// Hash returns the hash of key. Keys are binary safe, every byte is hashed.
func (h KeyHasher) Hash(key string) UintKey {
	return UintKey(maphash.String(h.seed, key))
}
