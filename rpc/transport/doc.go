// Package transport defines the interfaces between the server / client and
// the network. Requests and replies are protocol values (lib/resp), framing is
// the protocol itself.
//
// Implementations:
//   - base: medium independent server and client logic (accept loop, per
//     connection parser and serializer, connection pool, retries)
//   - tcp: TCP sockets with configurable socket options
//   - unix: Unix domain sockets
package transport
