// Package base implements the RESP stream transport independent of the
// network medium. The tcp and unix packages extend it with connectors.
//
// Key Components:
//
//   - IClientConnector/IServerConnector: medium specific dial, listen and
//     socket option handling.
//
//   - serverTransport: accepts connections and runs one goroutine per
//     connection. Each connection parses requests with resp.Parser, passes
//     them to the registered handler and writes the replies in request order.
//     Pipelined requests are answered in a batch, the write buffer is flushed
//     once no further request is buffered.
//
//   - clientTransport: holds a pool of connections (ConnectionsPerEndpoint per
//     endpoint) selected round robin. Requests that fail before they are
//     written are retried with exponential backoff. A request that failed while
//     waiting for the reply is never resent, as most commands are not idempotent.
//
// Thread Safety:
//
//	All public methods are thread-safe. A client connection serves one request
//	at a time, concurrent callers are spread over the pool.
package base
