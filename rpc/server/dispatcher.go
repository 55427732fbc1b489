package server

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/ValentinKolb/respkv/lib/db"
	"github.com/ValentinKolb/respkv/lib/resp"
)

// --------------------------------------------------------------------------
// Command Table
// --------------------------------------------------------------------------

// commandFunc executes one command, args[0] is the command name
type commandFunc func(d *Dispatcher, args [][]byte) resp.Value

// command describes one entry of the command table.
// A positive arity is the exact number of arguments (including the name),
// a negative arity -n means at least n arguments.
type command struct {
	arity     int
	run       commandFunc
	closeConn bool
}

var commands map[string]command

func init() {
	commands = map[string]command{
		// generic
		"ping":     {arity: -1, run: cmdPing},
		"echo":     {arity: 2, run: cmdEcho},
		"exists":   {arity: -2, run: cmdExists},
		"del":      {arity: -2, run: cmdDel},
		"type":     {arity: 2, run: cmdType},
		"dbsize":   {arity: 1, run: cmdDBSize},
		"flushall": {arity: 1, run: cmdFlushAll},
		"info":     {arity: -1, run: cmdInfo},
		"command":  {arity: -1, run: cmdCommand},
		"quit":     {arity: 1, run: cmdQuit, closeConn: true},

		// strings and counters
		"get":    {arity: 2, run: cmdGet},
		"set":    {arity: 3, run: cmdSet},
		"mset":   {arity: -3, run: cmdMSet},
		"incr":   {arity: 2, run: cmdIncr},
		"incrby": {arity: 3, run: cmdIncrBy},
		"decr":   {arity: 2, run: cmdDecr},
		"decrby": {arity: 3, run: cmdDecrBy},

		// sets
		"sadd":      {arity: -3, run: cmdSAdd},
		"srem":      {arity: -3, run: cmdSRem},
		"smembers":  {arity: 2, run: cmdSMembers},
		"sismember": {arity: 3, run: cmdSIsMember},
		"scard":     {arity: 2, run: cmdSCard},
		"spop":      {arity: 2, run: cmdSPop},

		// lists
		"lpush":  {arity: -3, run: cmdLPush},
		"rpush":  {arity: -3, run: cmdRPush},
		"lindex": {arity: 3, run: cmdLIndex},
		"lpop":   {arity: 2, run: cmdLPop},
		"rpop":   {arity: 2, run: cmdRPop},
		"llen":   {arity: 2, run: cmdLLen},
		"lrange": {arity: 4, run: cmdLRange},
	}
}

// CommandNames returns the names of all supported commands in sorted order
func CommandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// --------------------------------------------------------------------------
// Dispatcher
// --------------------------------------------------------------------------

// Dispatcher maps parsed requests to engine operations and builds the replies.
//
// Thread-safety: Handle can be called concurrently, the engine serializes
// operations on the same key.
type Dispatcher struct {
	engine  db.Engine
	started time.Time
}

// NewDispatcher creates a dispatcher for the given engine
func NewDispatcher(engine db.Engine) *Dispatcher {
	return &Dispatcher{
		engine:  engine,
		started: time.Now(),
	}
}

// Handle executes one request. It returns the reply (nil for an empty request,
// nothing is written in that case) and whether the connection should be closed.
func (d *Dispatcher) Handle(req resp.Value) (resp.Value, bool) {
	args, errReply := requestArgs(req)
	if errReply != nil {
		return errReply, false
	}
	if len(args) == 0 {
		return nil, false
	}

	name := strings.ToLower(string(args[0]))
	cmd, ok := commands[name]
	if !ok {
		return unknownCommand(args), false
	}

	if !checkArity(cmd.arity, len(args)) {
		return arityError(name), false
	}

	return cmd.run(d, args), cmd.closeConn
}

// CommandName returns the lower case name of the command in req, or "unknown"
// if req is not a known command
func CommandName(req resp.Value) string {
	arr, ok := req.(resp.Array)
	if !ok || len(arr) == 0 {
		return "unknown"
	}
	raw, ok := resp.Text(arr[0])
	if !ok {
		return "unknown"
	}
	name := strings.ToLower(string(raw))
	if _, ok := commands[name]; !ok {
		return "unknown"
	}
	return name
}

// requestArgs converts a request into its arguments.
// Requests must be arrays of simple or bulk strings.
func requestArgs(req resp.Value) ([][]byte, resp.Value) {
	arr, ok := req.(resp.Array)
	if !ok {
		return nil, resp.Error("ERR invalid request, expected an array of strings")
	}
	args := make([][]byte, len(arr))
	for i, v := range arr {
		arg, ok := resp.Text(v)
		if !ok {
			return nil, resp.Errorf("ERR invalid request, argument %d is a %s", i, v.Type())
		}
		args[i] = arg
	}
	return args, nil
}

func checkArity(arity, got int) bool {
	if arity >= 0 {
		return got == arity
	}
	return got >= -arity
}

// --------------------------------------------------------------------------
// Error Replies
// --------------------------------------------------------------------------

var (
	replyOK   = resp.Str("OK")
	replyZero = resp.Int(0)
	replyOne  = resp.Int(1)
)

func unknownCommand(args [][]byte) resp.Value {
	var sb strings.Builder
	for _, arg := range args[1:] {
		fmt.Fprintf(&sb, "'%s' ", arg)
	}
	return resp.Errorf("ERR unknown command '%s', with args beginning with: %s", args[0], sb.String())
}

func arityError(name string) resp.Value {
	return resp.Errorf("ERR wrong number of arguments for '%s' command", name)
}

// errorReply maps an engine error to its wire form
func errorReply(name string, err error) resp.Value {
	switch {
	case errors.Is(err, db.ErrTypeMismatch):
		return resp.Error("WRONGTYPE Operation against a key holding the wrong kind of value")
	case errors.Is(err, db.ErrParse):
		return resp.Error("ERR value is not an integer or out of range")
	case errors.Is(err, db.ErrArity):
		return arityError(name)
	default:
		return resp.Errorf("ERR %s", err)
	}
}

func boolReply(b bool) resp.Value {
	if b {
		return replyOne
	}
	return replyZero
}

// optionalReply returns a bulk string or Null if ok is false
func optionalReply(value []byte, ok bool) resp.Value {
	if !ok {
		return resp.Null{}
	}
	return resp.BulkString(value)
}

func keys(args [][]byte) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = string(arg)
	}
	return out
}

// parseInteger parses a decimal integer argument of arbitrary size
func parseInteger(arg []byte) (*big.Int, bool) {
	return new(big.Int).SetString(string(arg), 10)
}

// --------------------------------------------------------------------------
// Generic Commands
// --------------------------------------------------------------------------

func cmdPing(d *Dispatcher, args [][]byte) resp.Value {
	switch len(args) {
	case 1:
		return resp.Str(d.engine.Ping())
	case 2:
		return resp.BulkString(args[1])
	default:
		return arityError("ping")
	}
}

func cmdEcho(_ *Dispatcher, args [][]byte) resp.Value {
	return resp.BulkString(args[1])
}

func cmdExists(d *Dispatcher, args [][]byte) resp.Value {
	var n int64
	for _, key := range args[1:] {
		if d.engine.Exists(string(key)) {
			n++
		}
	}
	return resp.Int(n)
}

func cmdDel(d *Dispatcher, args [][]byte) resp.Value {
	return resp.Int(d.engine.Del(keys(args[1:])))
}

func cmdType(d *Dispatcher, args [][]byte) resp.Value {
	return resp.Str(d.engine.Type(string(args[1])).String())
}

func cmdDBSize(d *Dispatcher, _ [][]byte) resp.Value {
	return resp.Int(d.engine.DBSize())
}

func cmdFlushAll(d *Dispatcher, _ [][]byte) resp.Value {
	d.engine.FlushAll()
	return replyOK
}

func cmdQuit(_ *Dispatcher, _ [][]byte) resp.Value {
	return replyOK
}

// cmdCommand lists the supported commands. COMMAND COUNT returns their number,
// other sub commands are answered with an empty array.
func cmdCommand(_ *Dispatcher, args [][]byte) resp.Value {
	if len(args) == 1 {
		names := CommandNames()
		reply := make(resp.Array, len(names))
		for i, name := range names {
			reply[i] = resp.Bulk(name)
		}
		return reply
	}
	if strings.EqualFold(string(args[1]), "count") {
		return resp.Int(int64(len(commands)))
	}
	return resp.Array{}
}

// cmdInfo reports engine statistics as "key:value" lines grouped in sections
func cmdInfo(d *Dispatcher, _ [][]byte) resp.Value {
	info := d.engine.GetInfo()

	features := make([]string, len(info.SupportedFeatures))
	for i, f := range info.SupportedFeatures {
		features[i] = strings.ToLower(f.String())
	}

	var sb strings.Builder
	sb.WriteString("# Server\r\n")
	fmt.Fprintf(&sb, "engine:%s\r\n", info.DbType)
	fmt.Fprintf(&sb, "uptime_in_seconds:%d\r\n", int64(time.Since(d.started).Seconds()))
	fmt.Fprintf(&sb, "features:%s\r\n", strings.Join(features, ","))
	sb.WriteString("\r\n# Keyspace\r\n")
	fmt.Fprintf(&sb, "keys:%d\r\n", info.Keys)
	fmt.Fprintf(&sb, "size_bytes:%d\r\n", info.SizeBytes)
	return resp.Bulk(sb.String())
}

// --------------------------------------------------------------------------
// String Commands
// --------------------------------------------------------------------------

func cmdGet(d *Dispatcher, args [][]byte) resp.Value {
	value, ok, err := d.engine.Get(string(args[1]))
	if err != nil {
		return errorReply("get", err)
	}
	return optionalReply(value, ok)
}

func cmdSet(d *Dispatcher, args [][]byte) resp.Value {
	d.engine.Set(string(args[1]), args[2])
	return replyOK
}

func cmdMSet(d *Dispatcher, args [][]byte) resp.Value {
	if _, err := d.engine.MSet(args[1:]); err != nil {
		return errorReply("mset", err)
	}
	return replyOK
}

func cmdIncr(d *Dispatcher, args [][]byte) resp.Value {
	n, err := d.engine.Incr(string(args[1]))
	if err != nil {
		return errorReply("incr", err)
	}
	return resp.BigInt(n)
}

func cmdDecr(d *Dispatcher, args [][]byte) resp.Value {
	return incrBy(d, "decr", args[1], big.NewInt(-1))
}

func cmdIncrBy(d *Dispatcher, args [][]byte) resp.Value {
	delta, ok := parseInteger(args[2])
	if !ok {
		return errorReply("incrby", db.ErrParse)
	}
	return incrBy(d, "incrby", args[1], delta)
}

func cmdDecrBy(d *Dispatcher, args [][]byte) resp.Value {
	delta, ok := parseInteger(args[2])
	if !ok {
		return errorReply("decrby", db.ErrParse)
	}
	return incrBy(d, "decrby", args[1], delta.Neg(delta))
}

func incrBy(d *Dispatcher, name string, key []byte, delta *big.Int) resp.Value {
	n, err := d.engine.IncrBy(string(key), delta)
	if err != nil {
		return errorReply(name, err)
	}
	return resp.BigInt(n)
}

// --------------------------------------------------------------------------
// Set Commands
// --------------------------------------------------------------------------

func cmdSAdd(d *Dispatcher, args [][]byte) resp.Value {
	n, err := d.engine.SAdd(string(args[1]), args[2:])
	if err != nil {
		return errorReply("sadd", err)
	}
	return resp.Int(n)
}

func cmdSRem(d *Dispatcher, args [][]byte) resp.Value {
	n, err := d.engine.SRem(string(args[1]), args[2:])
	if err != nil {
		return errorReply("srem", err)
	}
	return resp.Int(n)
}

func cmdSMembers(d *Dispatcher, args [][]byte) resp.Value {
	members, err := d.engine.SMembers(string(args[1]))
	if err != nil {
		return errorReply("smembers", err)
	}
	return resp.BulkArray(members)
}

func cmdSIsMember(d *Dispatcher, args [][]byte) resp.Value {
	ok, err := d.engine.SIsMember(string(args[1]), args[2])
	if err != nil {
		return errorReply("sismember", err)
	}
	return boolReply(ok)
}

func cmdSCard(d *Dispatcher, args [][]byte) resp.Value {
	n, err := d.engine.SCard(string(args[1]))
	if err != nil {
		return errorReply("scard", err)
	}
	return resp.Int(n)
}

func cmdSPop(d *Dispatcher, args [][]byte) resp.Value {
	member, ok, err := d.engine.SPop(string(args[1]))
	if err != nil {
		return errorReply("spop", err)
	}
	return optionalReply(member, ok)
}

// --------------------------------------------------------------------------
// List Commands
// --------------------------------------------------------------------------

func cmdLPush(d *Dispatcher, args [][]byte) resp.Value {
	n, err := d.engine.LPush(string(args[1]), args[2:])
	if err != nil {
		return errorReply("lpush", err)
	}
	return resp.Int(n)
}

func cmdRPush(d *Dispatcher, args [][]byte) resp.Value {
	n, err := d.engine.RPush(string(args[1]), args[2:])
	if err != nil {
		return errorReply("rpush", err)
	}
	return resp.Int(n)
}

func cmdLIndex(d *Dispatcher, args [][]byte) resp.Value {
	index, err := db.ParseIndex(string(args[2]))
	if err != nil {
		return errorReply("lindex", err)
	}
	value, ok, err := d.engine.LIndex(string(args[1]), index)
	if err != nil {
		return errorReply("lindex", err)
	}
	return optionalReply(value, ok)
}

func cmdLPop(d *Dispatcher, args [][]byte) resp.Value {
	value, ok, err := d.engine.LPop(string(args[1]))
	if err != nil {
		return errorReply("lpop", err)
	}
	return optionalReply(value, ok)
}

func cmdRPop(d *Dispatcher, args [][]byte) resp.Value {
	value, ok, err := d.engine.RPop(string(args[1]))
	if err != nil {
		return errorReply("rpop", err)
	}
	return optionalReply(value, ok)
}

func cmdLLen(d *Dispatcher, args [][]byte) resp.Value {
	n, err := d.engine.LLen(string(args[1]))
	if err != nil {
		return errorReply("llen", err)
	}
	return resp.Int(n)
}

func cmdLRange(d *Dispatcher, args [][]byte) resp.Value {
	start, err := db.ParseIndex(string(args[2]))
	if err != nil {
		return errorReply("lrange", err)
	}
	stop, err := db.ParseIndex(string(args[3]))
	if err != nil {
		return errorReply("lrange", err)
	}
	values, err := d.engine.LRange(string(args[1]), start, stop)
	if err != nil {
		return errorReply("lrange", err)
	}
	return resp.BulkArray(values)
}
