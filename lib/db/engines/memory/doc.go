// Package memory provides an in-memory implementation of the db.Engine interface.
//
// The key space is split into shards, a key is assigned to a shard by a seeded
// maphash (util.KeyHasher). Every shard is a concurrent map (github.com/puzpuzpuz/xsync/v3)
// and every single key operation runs inside one MapOf.Compute call. Type
// checks therefore happen in the same critical section as the mutation and a
// failed operation never changes the key.
//
// Multi key operations (Del, MSet) apply their keys one after another, there is
// no atomicity across keys.
//
// Sets and lists that become empty through a removal are unbound, so Exists
// reports false for them afterwards.
//
// Usage:
//
//	engine := memory.New(nil)
//	defer engine.Close()
//
//	engine.Set("k", []byte("2"))
//	n, _ := engine.Incr("k") // 3
package memory
