// Package rpc contains the network layer of respkv. Requests and replies are
// RESP values (see lib/resp) exchanged over stream sockets.
//
// The package is organized into several subpackages:
//
//   - common: Configuration structures of server and client and the zap
//     backed logger factory.
//
//   - transport: Stream transport abstractions with pluggable implementations
//     (TCP, Unix sockets) sharing the base package.
//
//   - server: The command dispatcher mapping requests to a db.Engine and the
//     server wiring logging, metrics and the transport together.
//
//   - client: A RESP client with typed helpers for the supported commands.
package rpc
