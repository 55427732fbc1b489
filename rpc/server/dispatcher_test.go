package server

import (
	"strings"
	"testing"

	"github.com/ValentinKolb/respkv/lib/db/engines/memory"
	"github.com/ValentinKolb/respkv/lib/resp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run sends one command to d and checks the reply
func run(t *testing.T, d *Dispatcher, want resp.Value, args ...string) {
	t.Helper()
	got, closeConn := d.Handle(resp.Command(args...))
	assert.False(t, closeConn)
	require.NotNil(t, got, "%v", args)
	assert.True(t, resp.Equal(want, got), "%v: want %s, got %s", args, resp.Format(want), resp.Format(got))
}

func newDispatcher() *Dispatcher {
	return NewDispatcher(memory.New(nil))
}

func TestGenericCommands(t *testing.T) {
	d := newDispatcher()

	run(t, d, resp.Str("PONG"), "PING")
	run(t, d, resp.Bulk("hello"), "ping", "hello")
	run(t, d, resp.Bulk("a b"), "ECHO", "a b")

	run(t, d, resp.Str("OK"), "SET", "a", "1")
	run(t, d, resp.Str("OK"), "SET", "b", "2")
	run(t, d, resp.Int(3), "EXISTS", "a", "b", "a", "missing")
	run(t, d, resp.Int(2), "DBSIZE")
	run(t, d, resp.Str("string"), "TYPE", "a")
	run(t, d, resp.Str("none"), "TYPE", "missing")
	run(t, d, resp.Int(1), "DEL", "a", "missing")
	run(t, d, resp.Str("OK"), "FLUSHALL")
	run(t, d, resp.Int(0), "DBSIZE")
}

func TestStringCommands(t *testing.T) {
	d := newDispatcher()

	run(t, d, resp.Null{}, "GET", "k")
	run(t, d, resp.Str("OK"), "SET", "k", "v\r\n")
	run(t, d, resp.Bulk("v\r\n"), "GET", "k")
	run(t, d, resp.Str("OK"), "MSET", "a", "1", "b", "2")
	run(t, d, resp.Bulk("2"), "GET", "b")

	run(t, d, resp.Int(1), "INCR", "counter")
	run(t, d, resp.Int(11), "INCRBY", "counter", "10")
	run(t, d, resp.Int(10), "DECR", "counter")
	run(t, d, resp.Int(-5), "DECRBY", "counter", "15")
	run(t, d, resp.Bulk("-5"), "GET", "counter")

	// counters are not limited to 64 bit
	run(t, d, resp.Str("OK"), "SET", "big", "9223372036854775807")
	run(t, d, mustBig(t, "9223372036854775808"), "INCR", "big")
}

func mustBig(t *testing.T, s string) resp.Value {
	t.Helper()
	n, ok := parseInteger([]byte(s))
	require.True(t, ok)
	return resp.BigInt(n)
}

func TestSetCommands(t *testing.T) {
	d := newDispatcher()

	run(t, d, resp.Int(3), "SADD", "s", "c", "a", "b", "a")
	run(t, d, resp.Int(3), "SCARD", "s")
	run(t, d, resp.Command("a", "b", "c"), "SMEMBERS", "s")
	run(t, d, resp.Int(1), "SISMEMBER", "s", "a")
	run(t, d, resp.Int(0), "SISMEMBER", "s", "x")
	run(t, d, resp.Int(1), "SREM", "s", "a", "x")
	run(t, d, resp.Array{}, "SMEMBERS", "missing")
	run(t, d, resp.Null{}, "SPOP", "missing")

	got, _ := d.Handle(resp.Command("SPOP", "s"))
	member, ok := resp.Text(got)
	require.True(t, ok, resp.Format(got))
	assert.Contains(t, []string{"b", "c"}, string(member))
	run(t, d, resp.Int(1), "SCARD", "s")
}

// replays the list scenario of the engine tests over the wire
func TestListCommands(t *testing.T) {
	d := newDispatcher()

	run(t, d, resp.Int(1), "RPUSH", "l", "a")
	run(t, d, resp.Int(3), "RPUSH", "l", "b", "c")
	run(t, d, resp.Int(4), "LPUSH", "l", "z")
	run(t, d, resp.Int(4), "LLEN", "l")
	run(t, d, resp.Command("z", "a", "b", "c"), "LRANGE", "l", "0", "-1")
	run(t, d, resp.Command("a", "b"), "LRANGE", "l", "1", "2")
	run(t, d, resp.Array{}, "LRANGE", "l", "5", "10")
	run(t, d, resp.Bulk("c"), "LINDEX", "l", "-1")
	run(t, d, resp.Null{}, "LINDEX", "l", "10")
	run(t, d, resp.Bulk("z"), "LPOP", "l")
	run(t, d, resp.Bulk("c"), "RPOP", "l")
	run(t, d, resp.Int(2), "LLEN", "l")
	run(t, d, resp.Null{}, "LPOP", "missing")
	run(t, d, resp.Int(0), "LLEN", "missing")
}

func TestErrorReplies(t *testing.T) {
	d := newDispatcher()
	wrongType := resp.Error("WRONGTYPE Operation against a key holding the wrong kind of value")
	notInteger := resp.Error("ERR value is not an integer or out of range")

	run(t, d, resp.Str("OK"), "SET", "str", "abc")
	run(t, d, resp.Int(1), "RPUSH", "list", "a")

	run(t, d, wrongType, "LPUSH", "str", "x")
	run(t, d, wrongType, "SADD", "list", "x")
	run(t, d, wrongType, "GET", "list")
	run(t, d, wrongType, "INCR", "list")
	run(t, d, notInteger, "INCR", "str")
	run(t, d, notInteger, "INCRBY", "counter", "ten")
	run(t, d, notInteger, "LINDEX", "list", "first")
	run(t, d, notInteger, "LRANGE", "list", "0", "x")

	run(t, d, resp.Error("ERR wrong number of arguments for 'get' command"), "GET")
	run(t, d, resp.Error("ERR wrong number of arguments for 'set' command"), "set", "k")
	run(t, d, resp.Error("ERR wrong number of arguments for 'mset' command"), "MSET", "a", "1", "b")
	run(t, d, resp.Error("ERR wrong number of arguments for 'sadd' command"), "SADD", "s")
	run(t, d, resp.Error("ERR wrong number of arguments for 'ping' command"), "PING", "a", "b")

	got, _ := d.Handle(resp.Command("NOPE", "a"))
	msg, ok := got.(resp.Error)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(string(msg), "ERR unknown command 'NOPE'"), string(msg))

	// engine state is unchanged after the errors
	run(t, d, resp.Bulk("abc"), "GET", "str")
	run(t, d, resp.Int(0), "EXISTS", "counter", "s")
}

func TestInvalidRequests(t *testing.T) {
	d := newDispatcher()

	// empty requests are ignored
	reply, closeConn := d.Handle(resp.Array{})
	assert.Nil(t, reply)
	assert.False(t, closeConn)

	reply, _ = d.Handle(resp.Int(1))
	assert.IsType(t, resp.Error(""), reply)

	reply, _ = d.Handle(resp.Array{resp.Bulk("GET"), resp.Int(1)})
	assert.IsType(t, resp.Error(""), reply)

	// inline requests are arrays of simple strings
	reply, _ = d.Handle(resp.Array{resp.Str("echo"), resp.Str("hi")})
	assert.True(t, resp.Equal(resp.Bulk("hi"), reply))
}

func TestQuit(t *testing.T) {
	d := newDispatcher()
	reply, closeConn := d.Handle(resp.Command("QUIT"))
	assert.True(t, closeConn)
	assert.True(t, resp.Equal(resp.Str("OK"), reply))
}

func TestCommandAndInfo(t *testing.T) {
	d := newDispatcher()

	names := CommandNames()
	assert.Contains(t, names, "lrange")
	assert.IsIncreasing(t, names)

	reply, _ := d.Handle(resp.Command("COMMAND"))
	arr, ok := reply.(resp.Array)
	require.True(t, ok)
	assert.Len(t, arr, len(names))
	run(t, d, resp.Int(int64(len(names))), "COMMAND", "COUNT")
	run(t, d, resp.Array{}, "COMMAND", "DOCS")

	run(t, d, resp.Str("OK"), "SET", "k", "v")
	reply, _ = d.Handle(resp.Command("INFO"))
	text, ok := resp.Text(reply)
	require.True(t, ok)
	assert.Contains(t, string(text), "engine:memory")
	assert.Contains(t, string(text), "keys:1")
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "get", CommandName(resp.Command("GeT", "k")))
	assert.Equal(t, "unknown", CommandName(resp.Command("nope")))
	assert.Equal(t, "unknown", CommandName(resp.Array{}))
	assert.Equal(t, "unknown", CommandName(resp.Null{}))
}
