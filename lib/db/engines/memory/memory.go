package memory

import (
	"bytes"
	"math/big"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync"

	"github.com/ValentinKolb/respkv/lib/db"
	"github.com/ValentinKolb/respkv/lib/db/engines/memory/internal"
	"github.com/ValentinKolb/respkv/lib/db/util"
)

// --------------------------------------------------------------------------
// Core memory engine structure
// --------------------------------------------------------------------------

// memoryImpl implements db.Engine with a sharded in-memory key space
type memoryImpl struct {
	numShards int               // Number of shards
	hasher    util.KeyHasher    // Seeded hash for shard selection
	shards    []*internal.Shard // Array of shards
}

// Options configures the engine during initialization
type Options struct {
	NumShards int // Number of shards (0 = use default: number of CPUs)
}

// DefaultOptions returns the default engine options
func DefaultOptions() *Options {
	return &Options{
		NumShards: runtime.NumCPU(), // Auto-determine based on CPU count
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// New creates a new memory engine with the specified options (optional)
func New(opts *Options) db.Engine {

	// Generate default options if not provided
	if opts == nil {
		opts = DefaultOptions()
	}
	numShards := opts.NumShards
	if numShards <= 0 {
		numShards = runtime.NumCPU()
	}

	shards := make([]*internal.Shard, numShards)
	for i := range shards {
		shards[i] = internal.NewShard()
	}

	return &memoryImpl{
		numShards: numShards,
		hasher:    util.NewKeyHasher(),
		shards:    shards,
	}
}

// shard returns the shard responsible for key
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *memoryImpl) shard(key string) *internal.Shard {
	return internal.GetShard(m.hasher.Hash(key), m.shards)
}

// --------------------------------------------------------------------------
// Compute Helpers
// --------------------------------------------------------------------------

// compute runs fn atomically for key. fn receives the bound value (nil if the
// key is unbound) and returns the new value and whether it should be stored.
// A nil new value unbinds the key. If fn returns an error the key is left
// untouched, fn must not modify old in that case.
//
// Absent keys are never created unless fn returns a value to store.
//
// Thread-safety: This function uses the per key lock of the shard map.
func (m *memoryImpl) compute(key string, fn func(old db.Value) (value db.Value, store bool, err error)) error {
	var err error
	m.shard(key).Data.Compute(key, func(oldEntry internal.Entry, loaded bool) (internal.Entry, bool) {
		var old db.Value
		if loaded {
			old = oldEntry.Value
		}

		value, store, fnErr := fn(old)

		// CASE unchanged
		// an absent entry is deleted again so that it is not created
		if fnErr != nil || !store {
			err = fnErr
			return oldEntry, !loaded
		}

		// CASE DELETE
		if value == nil {
			return oldEntry, true
		}

		// CASE WRITE
		return internal.NewEntry(value), false
	})
	return err
}

// view runs fn for the value bound to key without modifying it
func (m *memoryImpl) view(key string, fn func(v db.Value) error) error {
	return m.compute(key, func(old db.Value) (db.Value, bool, error) {
		return nil, false, fn(old)
	})
}

// as converts v to the expected kind. ok is false if v is nil (unbound key).
func as[T db.Value](key string, v db.Value) (val T, ok bool, err error) {
	if v == nil {
		return val, false, nil
	}
	val, ok = v.(T)
	if !ok {
		return val, false, db.NewTypeMismatch(key, val.Kind(), v.Kind())
	}
	return val, true, nil
}

// copyBytes returns a copy of b that does not share memory with the caller
func copyBytes(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

// --------------------------------------------------------------------------
// Generic Operations
// --------------------------------------------------------------------------

func (m *memoryImpl) Ping() string {
	return "PONG"
}

// Exists reports whether key is bound
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *memoryImpl) Exists(key string) bool {
	_, ok := m.shard(key).Data.Load(key)
	return ok
}

// Del removes the given keys, each key is removed atomically on its own
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *memoryImpl) Del(keys []string) int64 {
	var removed int64
	for _, key := range keys {
		m.shard(key).Data.Compute(key, func(e internal.Entry, loaded bool) (internal.Entry, bool) {
			if loaded {
				removed++
			}
			return e, true
		})
	}
	return removed
}

func (m *memoryImpl) Type(key string) db.Kind {
	e, ok := m.shard(key).Data.Load(key)
	if !ok {
		return db.KindNone
	}
	return e.Kind
}

func (m *memoryImpl) DBSize() int64 {
	var size int64
	for _, shard := range m.shards {
		size += int64(shard.Data.Size())
	}
	return size
}

func (m *memoryImpl) FlushAll() {
	for _, shard := range m.shards {
		shard.Data.Clear()
	}
}

// --------------------------------------------------------------------------
// String Operations
// --------------------------------------------------------------------------

// Get returns a copy of the string at key
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *memoryImpl) Get(key string) ([]byte, bool, error) {
	var (
		data  []byte
		found bool
	)
	err := m.view(key, func(v db.Value) error {
		str, ok, err := as[db.StringValue](key, v)
		if !ok {
			return err
		}
		data, found = copyBytes(str), true
		return nil
	})
	return data, found, err
}

// Set binds key to a copy of value
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *memoryImpl) Set(key string, value []byte) {
	// Copy value to prevent memory corruption
	valueCopy := db.StringValue(copyBytes(value))
	_ = m.compute(key, func(db.Value) (db.Value, bool, error) {
		return valueCopy, true, nil
	})
}

// MSet sets all pairs from left to right. The arity is checked before any key is set.
func (m *memoryImpl) MSet(pairs [][]byte) (int64, error) {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return 0, &db.ArityError{Op: "mset", Got: len(pairs)}
	}
	for i := 0; i < len(pairs); i += 2 {
		m.Set(string(pairs[i]), pairs[i+1])
	}
	return 1, nil
}

func (m *memoryImpl) Incr(key string) (*big.Int, error) {
	return m.IncrBy(key, big.NewInt(1))
}

// IncrBy parses the stored string as a base 10 integer, adds delta and
// stores the canonical decimal form of the result
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *memoryImpl) IncrBy(key string, delta *big.Int) (*big.Int, error) {
	result := new(big.Int)
	err := m.compute(key, func(old db.Value) (db.Value, bool, error) {
		str, ok, err := as[db.StringValue](key, old)
		if err != nil {
			return nil, false, err
		}
		if ok {
			if _, valid := result.SetString(string(str), 10); !valid {
				return nil, false, &db.ParseError{Value: string(str), Reason: "is not an integer"}
			}
		}
		result.Add(result, delta)
		return db.StringValue(result.String()), true, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// --------------------------------------------------------------------------
// Set Operations
// --------------------------------------------------------------------------

// SAdd adds members to the set at key
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *memoryImpl) SAdd(key string, members [][]byte) (int64, error) {
	if len(members) == 0 {
		return 0, &db.ArityError{Op: "sadd", Got: 0}
	}
	var added int64
	err := m.compute(key, func(old db.Value) (db.Value, bool, error) {
		set, ok, err := as[db.SetValue](key, old)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			set = make(db.SetValue, len(members))
		}
		for _, member := range members {
			if _, exists := set[string(member)]; !exists {
				set[string(member)] = struct{}{}
				added++
			}
		}
		return set, true, nil
	})
	return added, err
}

// SMembers returns all members of the set in byte order
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *memoryImpl) SMembers(key string) ([][]byte, error) {
	members := [][]byte{}
	err := m.view(key, func(v db.Value) error {
		set, ok, err := as[db.SetValue](key, v)
		if !ok {
			return err
		}
		members = make([][]byte, 0, len(set))
		for member := range set {
			members = append(members, []byte(member))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(members, func(i, j int) bool {
		return bytes.Compare(members[i], members[j]) < 0
	})
	return members, nil
}

func (m *memoryImpl) SIsMember(key string, member []byte) (bool, error) {
	var isMember bool
	err := m.view(key, func(v db.Value) error {
		set, ok, err := as[db.SetValue](key, v)
		if !ok {
			return err
		}
		_, isMember = set[string(member)]
		return nil
	})
	return isMember, err
}

func (m *memoryImpl) SCard(key string) (int64, error) {
	var card int64
	err := m.view(key, func(v db.Value) error {
		set, ok, err := as[db.SetValue](key, v)
		if !ok {
			return err
		}
		card = int64(len(set))
		return nil
	})
	return card, err
}

// SPop removes a uniformly chosen member. A set that becomes empty is unbound.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *memoryImpl) SPop(key string) ([]byte, bool, error) {
	var (
		member []byte
		found  bool
	)
	err := m.compute(key, func(old db.Value) (db.Value, bool, error) {
		set, ok, err := as[db.SetValue](key, old)
		if !ok || len(set) == 0 {
			return nil, false, err
		}

		// map iteration order is not uniform, pick the n-th member instead
		n := rand.IntN(len(set))
		for candidate := range set {
			if n == 0 {
				member = []byte(candidate)
				break
			}
			n--
		}
		found = true

		delete(set, string(member))
		if len(set) == 0 {
			return nil, true, nil
		}
		return set, true, nil
	})
	return member, found, err
}

// SRem removes members from the set. A set that becomes empty is unbound.
func (m *memoryImpl) SRem(key string, members [][]byte) (int64, error) {
	if len(members) == 0 {
		return 0, &db.ArityError{Op: "srem", Got: 0}
	}
	var removed int64
	err := m.compute(key, func(old db.Value) (db.Value, bool, error) {
		set, ok, err := as[db.SetValue](key, old)
		if !ok {
			return nil, false, err
		}
		for _, member := range members {
			if _, exists := set[string(member)]; exists {
				delete(set, string(member))
				removed++
			}
		}
		if removed == 0 {
			return nil, false, nil
		}
		if len(set) == 0 {
			return nil, true, nil
		}
		return set, true, nil
	})
	return removed, err
}

// --------------------------------------------------------------------------
// List Operations
// --------------------------------------------------------------------------

// LPush prepends values one after another, so the last value becomes the head
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *memoryImpl) LPush(key string, values [][]byte) (int64, error) {
	return m.push(key, "lpush", values, func(list db.ListValue, values [][]byte) db.ListValue {
		pushed := make(db.ListValue, 0, len(list)+len(values))
		for i := len(values) - 1; i >= 0; i-- {
			pushed = append(pushed, copyBytes(values[i]))
		}
		return append(pushed, list...)
	})
}

// RPush appends values in order
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *memoryImpl) RPush(key string, values [][]byte) (int64, error) {
	return m.push(key, "rpush", values, func(list db.ListValue, values [][]byte) db.ListValue {
		for _, value := range values {
			list = append(list, copyBytes(value))
		}
		return list
	})
}

// push is the shared implementation of LPush and RPush
func (m *memoryImpl) push(key, op string, values [][]byte, fn func(list db.ListValue, values [][]byte) db.ListValue) (int64, error) {
	if len(values) == 0 {
		return 0, &db.ArityError{Op: op, Got: 0}
	}
	var length int64
	err := m.compute(key, func(old db.Value) (db.Value, bool, error) {
		list, _, err := as[db.ListValue](key, old)
		if err != nil {
			return nil, false, err
		}
		list = fn(list, values)
		length = int64(len(list))
		return list, true, nil
	})
	return length, err
}

func (m *memoryImpl) LIndex(key string, index int64) ([]byte, bool, error) {
	var (
		elem  []byte
		found bool
	)
	err := m.view(key, func(v db.Value) error {
		list, ok, err := as[db.ListValue](key, v)
		if !ok {
			return err
		}
		if i, ok := db.NormalizeIndex(index, int64(len(list))); ok {
			elem, found = copyBytes(list[i]), true
		}
		return nil
	})
	return elem, found, err
}

func (m *memoryImpl) LPop(key string) ([]byte, bool, error) {
	return m.pop(key, func(list db.ListValue) ([]byte, db.ListValue) {
		return list[0], list[1:]
	})
}

func (m *memoryImpl) RPop(key string) ([]byte, bool, error) {
	return m.pop(key, func(list db.ListValue) ([]byte, db.ListValue) {
		last := len(list) - 1
		return list[last], list[:last]
	})
}

// pop is the shared implementation of LPop and RPop. A list that becomes
// empty is unbound.
func (m *memoryImpl) pop(key string, fn func(list db.ListValue) ([]byte, db.ListValue)) ([]byte, bool, error) {
	var (
		elem  []byte
		found bool
	)
	err := m.compute(key, func(old db.Value) (db.Value, bool, error) {
		list, ok, err := as[db.ListValue](key, old)
		if !ok || len(list) == 0 {
			return nil, false, err
		}
		var rest db.ListValue
		elem, rest = fn(list)
		found = true
		if len(rest) == 0 {
			return nil, true, nil
		}
		// copy the remaining elements so that the popped slot can be collected
		return append(db.ListValue(nil), rest...), true, nil
	})
	return elem, found, err
}

func (m *memoryImpl) LLen(key string) (int64, error) {
	var length int64
	err := m.view(key, func(v db.Value) error {
		list, ok, err := as[db.ListValue](key, v)
		if !ok {
			return err
		}
		length = int64(len(list))
		return nil
	})
	return length, err
}

// LRange returns copies of the elements in the normalized range [start, stop]
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *memoryImpl) LRange(key string, start, stop int64) ([][]byte, error) {
	result := [][]byte{}
	err := m.view(key, func(v db.Value) error {
		list, ok, err := as[db.ListValue](key, v)
		if !ok {
			return err
		}
		from, to, ok := db.NormalizeRange(start, stop, int64(len(list)))
		if !ok {
			return nil
		}
		result = make([][]byte, 0, to-from+1)
		for _, elem := range list[from : to+1] {
			result = append(result, copyBytes(elem))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// --------------------------------------------------------------------------
// Engine Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

// GetInfo returns statistics about the engine
func (m *memoryImpl) GetInfo() db.DatabaseInfo {

	// create a size histogram for the info
	histogram := util.NewSizeHistogram()
	samplesPerShard := 100
	wg := sync.WaitGroup{}
	wg.Add(len(m.shards))

	// more stats
	mu := sync.Mutex{}
	kinds := make(map[string]int64)
	shardSizes := make([]float64, len(m.shards))

	// concurrently collect samples from all shards
	for shardIndex, shard := range m.shards {
		go func(i int, s *internal.Shard) {
			defer wg.Done()
			count := 0
			local := make(map[db.Kind]int64)
			s.Data.Range(func(key string, entry internal.Entry) bool {
				local[entry.Kind]++

				// only sample a few entries per shard for the size estimate
				if count < samplesPerShard {
					histogram.AddSample(len(key) + entry.Len)
				}
				count++
				return true
			})

			mu.Lock()
			defer mu.Unlock()

			for kind, n := range local {
				kinds[kind.String()] += n
			}
			shardSizes[i] = float64(s.Data.Size())
		}(shardIndex, shard)
	}

	// wait for all shards to finish
	wg.Wait()

	// calculate size
	entryOverhead := 48 // key header, interface and entry metadata
	medianSize := histogram.MedianEstimate() + entryOverhead
	avgSize := histogram.AverageSize() + entryOverhead

	// weighted estimate (60% median, 40% average) per key
	keys := m.DBSize()
	sizeBytes := int(keys) * ((medianSize*60 + avgSize*40) / 100)

	// Metadata for this specific engine implementation
	meta := &struct {
		ShardCount        int                    `json:"shard_count"`
		ShardDistribution util.DistributionStats `json:"shard_distribution"`
		KeysByKind        map[string]int64       `json:"keys_by_kind"`
		Info              string                 `json:"info"`
	}{
		ShardCount:        len(m.shards),
		ShardDistribution: util.NewDistributionStats(shardSizes),
		KeysByKind:        kinds,
		Info:              "SizeBytes is an estimate for string values, for sets and lists element counts are sampled.",
	}

	return db.DatabaseInfo{
		SizeBytes:         sizeBytes,
		Keys:              keys,
		DbType:            db.ImplMemory,
		SupportedFeatures: supportedFeatures,
		Metadata:          meta,
	}
}

var supportedFeatures = []db.Feature{
	db.FeatureKeys, db.FeatureStrings, db.FeatureCounters,
	db.FeatureSets, db.FeatureLists,
	db.FeatureFlush, db.FeatureRandomPop,
}

// SupportsFeature checks if this implementation supports a specific feature
func (m *memoryImpl) SupportsFeature(feature db.Feature) bool {
	supported := db.FeatureKeys |
		db.FeatureStrings |
		db.FeatureCounters |
		db.FeatureSets |
		db.FeatureLists |
		db.FeatureFlush |
		db.FeatureRandomPop
	return supported&feature == feature
}

// Close drops all data
func (m *memoryImpl) Close() error {
	m.FlushAll()
	return nil
}
