package internal

import (
	"github.com/ValentinKolb/respkv/lib/db"
	"github.com/ValentinKolb/respkv/lib/db/util"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Entry Type (stored value with metadata)
// --------------------------------------------------------------------------

// Entry stores a value together with metadata that can be read without
// holding the lock of the key. The fields of a stored Entry are never
// modified, every update stores a new Entry. The Value itself may only be
// read or mutated while the lock of the key is held.
type Entry struct {
	Value db.Value // the bound value (never nil)
	Kind  db.Kind  // kind of Value
	Len   int      // Value.Len() at the time the entry was stored
}

// NewEntry creates the entry for v
func NewEntry(v db.Value) Entry {
	return Entry{
		Value: v,
		Kind:  v.Kind(),
		Len:   v.Len(),
	}
}

// --------------------------------------------------------------------------
// Shard Type (partition of the key space)
// --------------------------------------------------------------------------

// Shard represents a partition of the key space
type Shard struct {
	Data *xsync.MapOf[string, Entry]
}

// NewShard creates a new empty shard
func NewShard() *Shard {
	return &Shard{
		Data: xsync.NewMapOf[string, Entry](),
	}
}

// GetShard returns the appropriate shard for a given key hash
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func GetShard[T any](key util.UintKey, shards []*T) *T {
	// Shift right by 7 bits to use higher-quality bits for distribution
	shiftedKey := uint64(key) >> 7
	shardPos := shiftedKey % uint64(len(shards))
	return shards[shardPos]
}
