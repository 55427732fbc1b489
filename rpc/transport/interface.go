package transport

import (
	"context"

	"github.com/ValentinKolb/respkv/lib/resp"
	"github.com/ValentinKolb/respkv/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests.
// It is called by a server transport for every parsed request of a connection,
// in the order the requests were received. A nil reply writes nothing,
// closeConn closes the connection after the reply was written.
type ServerHandleFunc func(req resp.Value) (reply resp.Value, closeConn bool)

// IRPCServerTransport is the interface for the server transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers the handler called for every request
	RegisterHandler(handler ServerHandleFunc)

	// Listen accepts connections until ctx is cancelled. Open connections
	// are closed before Listen returns.
	Listen(ctx context.Context, config common.ServerConfig) error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error

	// Send writes one request and returns the matching reply.
	// Error replies are returned as resp.Error values, not as errors.
	Send(ctx context.Context, req resp.Value) (reply resp.Value, err error)

	// Close closes all connections
	Close() error
}
