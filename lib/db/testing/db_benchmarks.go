package testing

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/respkv/lib/db"
)

// RunEngineBenchmarks runs all benchmarks for an Engine implementation
func RunEngineBenchmarks(b *testing.B, name string, factory EngineFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Set", func(b *testing.B) {
			benchmarkSet(b, factory())
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory())
		})

		b.Run("Incr", func(b *testing.B) {
			benchmarkIncr(b, factory())
		})

		b.Run("SAdd", func(b *testing.B) {
			benchmarkSAdd(b, factory())
		})

		b.Run("RPush&LPop", func(b *testing.B) {
			benchmarkPushPop(b, factory())
		})

		b.Run("LRange", func(b *testing.B) {
			benchmarkLRange(b, factory())
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for Set operation
func benchmarkSet(b *testing.B, engine db.Engine) {

	b.Cleanup(func() {
		engine.Close()
	})

	requireFeature(b, engine, db.FeatureStrings)

	var counter atomic.Int64
	value := []byte("benchmark-value")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			engine.Set(fmt.Sprintf("key-%d", counter.Add(1)), value)
		}
	})
}

// Benchmark for Get operation on existing keys
func benchmarkGet(b *testing.B, engine db.Engine) {

	b.Cleanup(func() {
		engine.Close()
	})

	requireFeature(b, engine, db.FeatureStrings)

	const numKeys = 10000
	keys := make([]string, numKeys)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
		engine.Set(keys[i], []byte("benchmark-value"))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			engine.Get(keys[r.Intn(numKeys)])
		}
	})
}

// Benchmark for Incr on a small set of hot counters
func benchmarkIncr(b *testing.B, engine db.Engine) {

	b.Cleanup(func() {
		engine.Close()
	})

	requireFeature(b, engine, db.FeatureCounters)

	counters := []string{"c0", "c1", "c2", "c3", "c4", "c5", "c6", "c7"}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			if _, err := engine.Incr(counters[r.Intn(len(counters))]); err != nil {
				b.Error(err)
			}
		}
	})
}

// Benchmark for SAdd on many sets
func benchmarkSAdd(b *testing.B, engine db.Engine) {

	b.Cleanup(func() {
		engine.Close()
	})

	requireFeature(b, engine, db.FeatureSets)

	var counter atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := counter.Add(1)
			engine.SAdd(fmt.Sprintf("set-%d", i%128), [][]byte{[]byte(fmt.Sprintf("member-%d", i))})
		}
	})
}

// Benchmark for a list used as a queue
func benchmarkPushPop(b *testing.B, engine db.Engine) {

	b.Cleanup(func() {
		engine.Close()
	})

	requireFeature(b, engine, db.FeatureLists)

	value := [][]byte{[]byte("job")}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			engine.RPush("queue", value)
			engine.LPop("queue")
		}
	})
}

// Benchmark for LRange reading a window of a long list
func benchmarkLRange(b *testing.B, engine db.Engine) {

	b.Cleanup(func() {
		engine.Close()
	})

	requireFeature(b, engine, db.FeatureLists)

	for i := 0; i < 1000; i++ {
		engine.RPush("list", [][]byte{[]byte(fmt.Sprintf("element-%d", i))})
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			engine.LRange("list", -100, -1)
		}
	})
}

// Benchmark for a realistic mix of reads and writes
func benchmarkMixedUsage(b *testing.B, engine db.Engine) {

	b.Cleanup(func() {
		engine.Close()
	})

	requireFeature(b, engine, db.FeatureStrings|db.FeatureCounters|db.FeatureLists)

	const numKeys = 1000
	for i := 0; i < numKeys; i++ {
		engine.Set(fmt.Sprintf("key-%d", i), []byte("value"))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			key := fmt.Sprintf("key-%d", r.Intn(numKeys))
			switch op := r.Intn(100); {
			case op < 70: // 70% reads
				engine.Get(key)
			case op < 85: // 15% writes
				engine.Set(key, []byte("new-value"))
			case op < 95: // 10% counters
				engine.Incr(fmt.Sprintf("counter-%d", r.Intn(16)))
			default: // 5% lists
				engine.RPush("list", [][]byte{[]byte(key)})
			}
		}
	})
}
