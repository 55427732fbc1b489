// Package server implements the RESP command server.
//
// A Dispatcher maps request arrays to the operations of a db.Engine and
// converts results and errors into reply values:
//
//	SET k v         -> +OK
//	GET missing     -> $-1 (Null)
//	SISMEMBER s m   -> :0 / :1
//	INCR on "abc"   -> -ERR value is not an integer or out of range
//	LPUSH on string -> -WRONGTYPE Operation against a key holding the wrong kind of value
//
// Command names are case-insensitive and the number of arguments is checked
// before the engine is called. RPCServer wires a dispatcher to a transport
// (see rpc/transport/tcp and rpc/transport/unix), initializes logging and
// optionally serves Prometheus metrics on an HTTP endpoint.
package server
