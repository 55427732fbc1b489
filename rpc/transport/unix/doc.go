// Package unix implements a transport for the RESP server and client using
// Unix domain sockets, for clients running on the same machine.
//
// The server removes a stale socket file before listening. All other
// behaviour (pipelining, timeouts and client retries) comes from the base package.
package unix
