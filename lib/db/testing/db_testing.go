package testing

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"testing"

	"github.com/ValentinKolb/respkv/lib/db"
)

// EngineFactory is a function that creates a new instance of an Engine implementation
type EngineFactory func() db.Engine

// RunEngineTests runs a comprehensive test suite for an Engine implementation.
func RunEngineTests(t *testing.T, name string, factory EngineFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Ping", func(t *testing.T) {
			testPing(t, factory())
		})

		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("AbsentKeys", func(t *testing.T) {
			testAbsentKeys(t, factory())
		})

		t.Run("Del", func(t *testing.T) {
			testDel(t, factory())
		})

		t.Run("TypeAndSize", func(t *testing.T) {
			testTypeAndSize(t, factory())
		})

		t.Run("MSet", func(t *testing.T) {
			testMSet(t, factory())
		})

		t.Run("Incr", func(t *testing.T) {
			testIncr(t, factory())
		})

		t.Run("IncrBy", func(t *testing.T) {
			testIncrBy(t, factory())
		})

		t.Run("Sets", func(t *testing.T) {
			testSets(t, factory())
		})

		t.Run("SPop", func(t *testing.T) {
			testSPop(t, factory())
		})

		t.Run("Lists", func(t *testing.T) {
			testLists(t, factory())
		})

		t.Run("LRange", func(t *testing.T) {
			testLRange(t, factory())
		})

		t.Run("TypeMismatch", func(t *testing.T) {
			testTypeMismatch(t, factory())
		})

		t.Run("ConcurrentIncr", func(t *testing.T) {
			testConcurrentIncr(t, factory())
		})

		t.Run("ConcurrentPush", func(t *testing.T) {
			testConcurrentPush(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the engine supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, engine db.Engine, feature db.Feature) {
	if !engine.SupportsFeature(feature) {
		t.Skip()
	}
}

func toBytes(values ...string) [][]byte {
	out := make([][]byte, len(values))
	for i, v := range values {
		out[i] = []byte(v)
	}
	return out
}

func toStrings(values [][]byte) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testPing(t *testing.T, engine db.Engine) {
	defer engine.Close()

	if pong := engine.Ping(); pong != "PONG" {
		t.Errorf("Expected PONG, got %s", pong)
	}
}

func testSetGet(t *testing.T, engine db.Engine) {
	defer engine.Close()

	requireFeature(t, engine, db.FeatureStrings)

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	engine.Set(testKey, testValue1)

	result, exists, err := engine.Get(testKey)
	if err != nil || !exists {
		t.Fatalf("Expected key %s to exist after Set (err=%v)", testKey, err)
	}

	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	engine.Set(testKey, testValue2)

	result, _, _ = engine.Get(testKey)
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	// the returned slice is a copy
	result[0] = 'X'
	original, _, _ := engine.Get(testKey)
	if bytes.Equal(result, original) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}

	// the stored value is a copy of the argument
	input := []byte("input")
	engine.Set("input-key", input)
	input[0] = 'X'
	stored, _, _ := engine.Get("input-key")
	if string(stored) != "input" {
		t.Errorf("Set should store a copy of the value, got %s", stored)
	}

	// binary safe keys and values
	binKey := "bin\x00key\r\n"
	binValue := []byte{0, 1, '\r', '\n', 255}
	engine.Set(binKey, binValue)
	stored, exists, _ = engine.Get(binKey)
	if !exists || !bytes.Equal(stored, binValue) {
		t.Errorf("Expected binary value %v, got %v", binValue, stored)
	}

	// empty value is distinct from an absent key
	engine.Set("empty", []byte{})
	stored, exists, _ = engine.Get("empty")
	if !exists || len(stored) != 0 {
		t.Errorf("Expected empty value to exist")
	}

	// set replaces a prior value of another kind
	if _, err := engine.RPush("list", toBytes("a")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	engine.Set("list", []byte("now a string"))
	if kind := engine.Type("list"); kind != db.KindString {
		t.Errorf("Expected Set to replace the list, got type %s", kind)
	}
}

// every read accessor on a never written key returns the absent result and
// does not create the key
func testAbsentKeys(t *testing.T, engine db.Engine) {
	defer engine.Close()

	key := "never-written"

	if _, ok, err := engine.Get(key); ok || err != nil {
		t.Errorf("Get: expected absent, got ok=%v err=%v", ok, err)
	}
	if members, err := engine.SMembers(key); err != nil || len(members) != 0 {
		t.Errorf("SMembers: expected empty, got %v err=%v", members, err)
	}
	if ok, err := engine.SIsMember(key, []byte("x")); ok || err != nil {
		t.Errorf("SIsMember: expected false, got %v err=%v", ok, err)
	}
	if n, err := engine.SCard(key); n != 0 || err != nil {
		t.Errorf("SCard: expected 0, got %d err=%v", n, err)
	}
	if _, ok, err := engine.SPop(key); ok || err != nil {
		t.Errorf("SPop: expected absent, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := engine.LIndex(key, 0); ok || err != nil {
		t.Errorf("LIndex: expected absent, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := engine.LPop(key); ok || err != nil {
		t.Errorf("LPop: expected absent, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := engine.RPop(key); ok || err != nil {
		t.Errorf("RPop: expected absent, got ok=%v err=%v", ok, err)
	}
	if n, err := engine.LLen(key); n != 0 || err != nil {
		t.Errorf("LLen: expected 0, got %d err=%v", n, err)
	}
	if elems, err := engine.LRange(key, 0, -1); err != nil || len(elems) != 0 {
		t.Errorf("LRange: expected empty, got %v err=%v", elems, err)
	}
	if n := engine.Del([]string{key}); n != 0 {
		t.Errorf("Del: expected 0, got %d", n)
	}
	if kind := engine.Type(key); kind != db.KindNone {
		t.Errorf("Type: expected none, got %s", kind)
	}

	if engine.Exists(key) {
		t.Errorf("Expected key %s to not exist after read accessors", key)
	}
	if size := engine.DBSize(); size != 0 {
		t.Errorf("Expected empty key space, got %d keys", size)
	}
}

func testDel(t *testing.T, engine db.Engine) {
	defer engine.Close()

	requireFeature(t, engine, db.FeatureKeys)

	engine.Set("a", []byte("1"))
	engine.Set("b", []byte("2"))
	engine.Set("untouched", []byte("3"))
	if _, err := engine.SAdd("s", toBytes("x")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// absent keys and duplicates do not count
	if n := engine.Del([]string{"a", "missing", "s", "a"}); n != 2 {
		t.Errorf("Expected 2 removed keys, got %d", n)
	}

	for _, key := range []string{"a", "s", "missing"} {
		if engine.Exists(key) {
			t.Errorf("Expected key %s to not exist after Del", key)
		}
	}
	for _, key := range []string{"b", "untouched"} {
		if !engine.Exists(key) {
			t.Errorf("Expected key %s to still exist after Del", key)
		}
	}

	if n := engine.Del(nil); n != 0 {
		t.Errorf("Expected 0 removed keys for empty Del, got %d", n)
	}
}

func testTypeAndSize(t *testing.T, engine db.Engine) {
	defer engine.Close()

	requireFeature(t, engine, db.FeatureKeys|db.FeatureFlush)

	engine.Set("str", []byte("v"))
	engine.SAdd("set", toBytes("a"))
	engine.LPush("list", toBytes("a"))

	expected := map[string]db.Kind{
		"str":     db.KindString,
		"set":     db.KindSet,
		"list":    db.KindList,
		"missing": db.KindNone,
	}
	for key, kind := range expected {
		if got := engine.Type(key); got != kind {
			t.Errorf("Expected type %s for key %s, got %s", kind, key, got)
		}
	}

	if size := engine.DBSize(); size != 3 {
		t.Errorf("Expected 3 keys, got %d", size)
	}

	info := engine.GetInfo()
	if info.Keys != 3 {
		t.Errorf("Expected info to report 3 keys, got %d", info.Keys)
	}

	engine.FlushAll()
	if size := engine.DBSize(); size != 0 {
		t.Errorf("Expected 0 keys after FlushAll, got %d", size)
	}
	if engine.Exists("str") {
		t.Errorf("Expected key str to not exist after FlushAll")
	}
}

func testMSet(t *testing.T, engine db.Engine) {
	defer engine.Close()

	requireFeature(t, engine, db.FeatureStrings)

	n, err := engine.MSet(toBytes("a", "1", "b", "2", "a", "3"))
	if err != nil || n != 1 {
		t.Fatalf("Expected MSet to return 1, got %d err=%v", n, err)
	}

	// pairs are applied from left to right
	if v, _, _ := engine.Get("a"); string(v) != "3" {
		t.Errorf("Expected a=3, got %s", v)
	}
	if v, _, _ := engine.Get("b"); string(v) != "2" {
		t.Errorf("Expected b=2, got %s", v)
	}

	// odd arity is rejected before anything is set
	_, err = engine.MSet(toBytes("c", "1", "d"))
	if !errors.Is(err, db.ErrArity) {
		t.Errorf("Expected arity error, got %v", err)
	}
	if engine.Exists("c") || engine.Exists("d") {
		t.Errorf("MSet with odd arity must not set any key")
	}

	if _, err := engine.MSet(nil); !errors.Is(err, db.ErrArity) {
		t.Errorf("Expected arity error for empty MSet, got %v", err)
	}
}

func testIncr(t *testing.T, engine db.Engine) {
	defer engine.Close()

	requireFeature(t, engine, db.FeatureCounters)

	engine.Set("k", []byte("2"))

	n, err := engine.Incr("k")
	if err != nil || n.Int64() != 3 {
		t.Fatalf("Expected 3, got %v err=%v", n, err)
	}
	if v, _, _ := engine.Get("k"); string(v) != "3" {
		t.Errorf("Expected k=3, got %s", v)
	}
	n, _ = engine.Incr("k")
	if n.Int64() != 4 {
		t.Errorf("Expected 4, got %v", n)
	}

	// absent keys count as zero and are created
	n, err = engine.Incr("counter")
	if err != nil || n.Int64() != 1 {
		t.Errorf("Expected 1, got %v err=%v", n, err)
	}

	// monotonic by exactly one and readable through Get
	for i := int64(2); i <= 100; i++ {
		n, _ := engine.Incr("counter")
		if n.Int64() != i {
			t.Fatalf("Expected %d, got %v", i, n)
		}
		if v, _, _ := engine.Get("counter"); string(v) != n.String() {
			t.Fatalf("Expected Get to return %s, got %s", n, v)
		}
	}

	// negative values
	engine.Set("neg", []byte("-2"))
	if n, _ := engine.Incr("neg"); n.Int64() != -1 {
		t.Errorf("Expected -1, got %v", n)
	}

	// not an integer, nothing changes
	for _, invalid := range []string{"abc", "1.5", "", " 1", "1x"} {
		engine.Set("invalid", []byte(invalid))
		_, err = engine.Incr("invalid")
		if !errors.Is(err, db.ErrParse) {
			t.Errorf("Expected parse error for %q, got %v", invalid, err)
		}
		if v, _, _ := engine.Get("invalid"); string(v) != invalid {
			t.Errorf("Expected value %q to be unchanged, got %q", invalid, v)
		}
	}
}

func testIncrBy(t *testing.T, engine db.Engine) {
	defer engine.Close()

	requireFeature(t, engine, db.FeatureCounters)

	n, err := engine.IncrBy("k", big.NewInt(10))
	if err != nil || n.Int64() != 10 {
		t.Fatalf("Expected 10, got %v err=%v", n, err)
	}
	n, _ = engine.IncrBy("k", big.NewInt(-15))
	if n.Int64() != -5 {
		t.Errorf("Expected -5, got %v", n)
	}

	// no overflow beyond 64 bit
	engine.Set("big", []byte("9223372036854775807"))
	n, err = engine.Incr("big")
	if err != nil || n.String() != "9223372036854775808" {
		t.Errorf("Expected 9223372036854775808, got %v err=%v", n, err)
	}
	if v, _, _ := engine.Get("big"); string(v) != "9223372036854775808" {
		t.Errorf("Expected stored value 9223372036854775808, got %s", v)
	}
}

func testSets(t *testing.T, engine db.Engine) {
	defer engine.Close()

	requireFeature(t, engine, db.FeatureSets)

	added, err := engine.SAdd("s", toBytes("a", "b", "a"))
	if err != nil || added != 2 {
		t.Fatalf("Expected 2 added members, got %d err=%v", added, err)
	}
	added, _ = engine.SAdd("s", toBytes("b", "c"))
	if added != 1 {
		t.Errorf("Expected 1 added member, got %d", added)
	}

	members, err := engine.SMembers("s")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	got := toStrings(members)
	sort.Strings(got)
	if !equalStrings(got, []string{"a", "b", "c"}) {
		t.Errorf("Expected members [a b c], got %v", got)
	}

	// the result is independent of the stored set
	members[0][0] = 'X'
	if ok, _ := engine.SIsMember("s", []byte("X")); ok {
		t.Errorf("Mutating SMembers result must not affect the stored set")
	}
	if n, _ := engine.SCard("s"); n != 3 {
		t.Errorf("Expected cardinality 3, got %d", n)
	}

	if ok, _ := engine.SIsMember("s", []byte("a")); !ok {
		t.Errorf("Expected a to be a member")
	}
	if ok, _ := engine.SIsMember("s", []byte("z")); ok {
		t.Errorf("Expected z to not be a member")
	}

	removed, err := engine.SRem("s", toBytes("a", "z"))
	if err != nil || removed != 1 {
		t.Errorf("Expected 1 removed member, got %d err=%v", removed, err)
	}
	removed, _ = engine.SRem("s", toBytes("b", "c"))
	if removed != 2 {
		t.Errorf("Expected 2 removed members, got %d", removed)
	}
	if engine.Exists("s") {
		t.Errorf("Expected empty set to be unbound")
	}

	if _, err := engine.SAdd("s", nil); !errors.Is(err, db.ErrArity) {
		t.Errorf("Expected arity error for SAdd without members, got %v", err)
	}
	if engine.Exists("s") {
		t.Errorf("SAdd without members must not create the key")
	}
}

func testSPop(t *testing.T, engine db.Engine) {
	defer engine.Close()

	requireFeature(t, engine, db.FeatureSets)

	expected := []string{"a", "b", "c", "d", "e"}
	engine.SAdd("s", toBytes(expected...))

	var popped []string
	for i := len(expected); i > 0; i-- {
		member, ok, err := engine.SPop("s")
		if err != nil || !ok {
			t.Fatalf("Expected a member, got ok=%v err=%v", ok, err)
		}
		popped = append(popped, string(member))

		// cardinality is reduced by one
		if n, _ := engine.SCard("s"); n != int64(i-1) {
			t.Errorf("Expected cardinality %d, got %d", i-1, n)
		}
		if ok, _ := engine.SIsMember("s", member); ok {
			t.Errorf("Popped member %s is still in the set", member)
		}
	}

	sort.Strings(popped)
	if !equalStrings(popped, expected) {
		t.Errorf("Expected to pop %v, got %v", expected, popped)
	}

	if engine.Exists("s") {
		t.Errorf("Expected empty set to be unbound")
	}
	if _, ok, _ := engine.SPop("s"); ok {
		t.Errorf("Expected SPop on empty set to return nothing")
	}
}

func testLists(t *testing.T, engine db.Engine) {
	defer engine.Close()

	requireFeature(t, engine, db.FeatureLists)

	n, err := engine.RPush("l", toBytes("b", "c"))
	if err != nil || n != 2 {
		t.Fatalf("Expected length 2, got %d err=%v", n, err)
	}
	n, _ = engine.LPush("l", toBytes("a", "z"))
	if n != 4 {
		t.Errorf("Expected length 4, got %d", n)
	}
	engine.RPush("l", toBytes("c"))

	// each value is prepended in order, duplicates are kept
	all, _ := engine.LRange("l", 0, -1)
	if got := toStrings(all); !equalStrings(got, []string{"z", "a", "b", "c", "c"}) {
		t.Errorf("Expected [z a b c c], got %v", got)
	}
	if n, _ := engine.LLen("l"); n != 5 {
		t.Errorf("Expected length 5, got %d", n)
	}

	indexes := map[int64]string{0: "z", 2: "b", 4: "c", -1: "c", -5: "z"}
	for index, want := range indexes {
		v, ok, err := engine.LIndex("l", index)
		if err != nil || !ok || string(v) != want {
			t.Errorf("LIndex(%d): expected %s, got %s ok=%v err=%v", index, want, v, ok, err)
		}
	}
	for _, index := range []int64{5, 100, -6} {
		if _, ok, _ := engine.LIndex("l", index); ok {
			t.Errorf("LIndex(%d): expected out of range", index)
		}
	}

	v, ok, _ := engine.LPop("l")
	if !ok || string(v) != "z" {
		t.Errorf("Expected LPop to return z, got %s", v)
	}
	v, ok, _ = engine.RPop("l")
	if !ok || string(v) != "c" {
		t.Errorf("Expected RPop to return c, got %s", v)
	}
	all, _ = engine.LRange("l", 0, -1)
	if got := toStrings(all); !equalStrings(got, []string{"a", "b", "c"}) {
		t.Errorf("Expected [a b c], got %v", got)
	}

	// popped values are copies
	v[0] = 'X'
	if v, _, _ := engine.LIndex("l", -1); string(v) != "c" {
		t.Errorf("Expected last element c, got %s", v)
	}

	for i := 0; i < 3; i++ {
		engine.LPop("l")
	}
	if engine.Exists("l") {
		t.Errorf("Expected empty list to be unbound")
	}

	if _, err := engine.LPush("l", nil); !errors.Is(err, db.ErrArity) {
		t.Errorf("Expected arity error for LPush without values, got %v", err)
	}
}

func testLRange(t *testing.T, engine db.Engine) {
	defer engine.Close()

	requireFeature(t, engine, db.FeatureLists)

	for _, v := range []string{"a", "b", "c", "d", "e"} {
		engine.RPush("l", toBytes(v))
	}

	result, err := engine.LRange("l", -2, 4)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := toStrings(result); !equalStrings(got, []string{"d", "e"}) {
		t.Errorf("Expected [d e], got %v", got)
	}

	// clamping and python style negative indexes for all combinations
	elements := []string{"a", "b", "c", "d", "e"}
	length := int64(len(elements))
	for start := int64(-8); start <= 8; start++ {
		for stop := int64(-8); stop <= 8; stop++ {
			from, to := start, stop
			if from < 0 {
				from += length
			}
			if to < 0 {
				to += length
			}
			var expected []string
			for i, e := range elements {
				if int64(i) >= from && int64(i) <= to {
					expected = append(expected, e)
				}
			}

			result, err := engine.LRange("l", start, stop)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := toStrings(result); !equalStrings(got, expected) {
				t.Errorf("LRange(%d, %d): expected %v, got %v", start, stop, expected, got)
			}
		}
	}

	// string encoded indexes
	start, err := db.ParseIndex("-3")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	stop, _ := db.ParseIndex("-2")
	result, _ = engine.LRange("l", start, stop)
	if got := toStrings(result); !equalStrings(got, []string{"c", "d"}) {
		t.Errorf("Expected [c d], got %v", got)
	}
}

// a type mismatch is reported and never changes the key space
func testTypeMismatch(t *testing.T, engine db.Engine) {
	defer engine.Close()

	engine.Set("str", []byte("value"))
	engine.SAdd("set", toBytes("m"))
	engine.RPush("list", toBytes("x", "y"))

	expectMismatch := func(op string, err error) {
		t.Helper()
		if !errors.Is(err, db.ErrTypeMismatch) {
			t.Errorf("%s: expected type mismatch, got %v", op, err)
		}
		var mismatch *db.TypeMismatchError
		if !errors.As(err, &mismatch) {
			t.Errorf("%s: expected *db.TypeMismatchError, got %T", op, err)
		}
	}

	// string accessors
	_, _, err := engine.Get("set")
	expectMismatch("Get", err)
	_, err = engine.Incr("list")
	expectMismatch("Incr", err)
	_, err = engine.IncrBy("set", big.NewInt(2))
	expectMismatch("IncrBy", err)

	// set accessors
	_, err = engine.SAdd("str", toBytes("a"))
	expectMismatch("SAdd", err)
	_, err = engine.SMembers("list")
	expectMismatch("SMembers", err)
	_, err = engine.SIsMember("str", []byte("a"))
	expectMismatch("SIsMember", err)
	_, err = engine.SCard("list")
	expectMismatch("SCard", err)
	_, _, err = engine.SPop("str")
	expectMismatch("SPop", err)
	_, err = engine.SRem("list", toBytes("x"))
	expectMismatch("SRem", err)

	// list accessors
	_, err = engine.LPush("str", toBytes("a"))
	expectMismatch("LPush", err)
	_, err = engine.RPush("set", toBytes("a"))
	expectMismatch("RPush", err)
	_, _, err = engine.LIndex("set", 0)
	expectMismatch("LIndex", err)
	_, _, err = engine.LPop("str")
	expectMismatch("LPop", err)
	_, _, err = engine.RPop("set")
	expectMismatch("RPop", err)
	_, err = engine.LLen("str")
	expectMismatch("LLen", err)
	_, err = engine.LRange("set", 0, -1)
	expectMismatch("LRange", err)

	var mismatch *db.TypeMismatchError
	_, _, err = engine.LPop("str")
	if errors.As(err, &mismatch) {
		if mismatch.Key != "str" || mismatch.Expected != db.KindList || mismatch.Actual != db.KindString {
			t.Errorf("Unexpected mismatch details %+v", mismatch)
		}
	}

	// nothing changed
	if v, _, _ := engine.Get("str"); string(v) != "value" {
		t.Errorf("Expected str to be unchanged, got %s", v)
	}
	if members, _ := engine.SMembers("set"); !equalStrings(toStrings(members), []string{"m"}) {
		t.Errorf("Expected set to be unchanged, got %v", toStrings(members))
	}
	if elems, _ := engine.LRange("list", 0, -1); !equalStrings(toStrings(elems), []string{"x", "y"}) {
		t.Errorf("Expected list to be unchanged, got %v", toStrings(elems))
	}
	if size := engine.DBSize(); size != 3 {
		t.Errorf("Expected 3 keys, got %d", size)
	}
}

func testConcurrentIncr(t *testing.T, engine db.Engine) {
	defer engine.Close()

	requireFeature(t, engine, db.FeatureCounters)

	const (
		workers    = 8
		increments = 500
	)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < increments; i++ {
				if _, err := engine.Incr("counter"); err != nil {
					t.Errorf("Unexpected error: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	expected := fmt.Sprintf("%d", workers*increments)
	if v, _, _ := engine.Get("counter"); string(v) != expected {
		t.Errorf("Expected counter %s, got %s", expected, v)
	}
}

func testConcurrentPush(t *testing.T, engine db.Engine) {
	defer engine.Close()

	requireFeature(t, engine, db.FeatureLists|db.FeatureSets)

	const (
		workers = 8
		pushes  = 200
	)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < pushes; i++ {
				value := []byte(fmt.Sprintf("%d-%d", worker, i))
				engine.RPush("list", [][]byte{value})
				engine.SAdd("set", [][]byte{value})
				engine.Set(fmt.Sprintf("key-%d-%d", worker, i), value)
			}
		}(w)
	}
	wg.Wait()

	if n, _ := engine.LLen("list"); n != workers*pushes {
		t.Errorf("Expected list length %d, got %d", workers*pushes, n)
	}
	if n, _ := engine.SCard("set"); n != workers*pushes {
		t.Errorf("Expected set cardinality %d, got %d", workers*pushes, n)
	}
	if n := engine.DBSize(); n != workers*pushes+2 {
		t.Errorf("Expected %d keys, got %d", workers*pushes+2, n)
	}
}
