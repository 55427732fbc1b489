package base

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/respkv/lib/resp"
	"github.com/ValentinKolb/respkv/rpc/common"
	"github.com/ValentinKolb/respkv/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport/rpc")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientConnection represents a single net connection. Replies arrive in
// request order, so a connection serves one request at a time.
type clientConnection struct {
	mu         sync.Mutex // Serializes request / reply pairs
	conn       net.Conn
	writer     *bufio.Writer
	parser     *resp.Parser
	serializer *resp.Serializer
	endpoint   string
	parent     *clientTransport
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	connections   []*clientConnection
	connectionsMu sync.RWMutex
	nextConnIndex uint64 // Atomic counter for Round Robin
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Store the config
	t.config = config

	// Close all existing connections
	t.closeConnections()

	// Set default value for ConnectionsPerEndpoint
	connectionsPerEP := 1
	if config.Transport.ConnectionsPerEndpoint > 0 {
		connectionsPerEP = config.Transport.ConnectionsPerEndpoint
	}

	connections := make([]*clientConnection, 0, len(config.Transport.Endpoints)*connectionsPerEP)

	// Initialize client connections
	for _, endpoint := range config.Transport.Endpoints {
		// Create multiple connections per endpoint
		for i := 0; i < connectionsPerEP; i++ {
			clientConn := &clientConnection{
				endpoint: endpoint,
				parent:   t,
			}

			// Establish the initial connection with retries
			if err := t.retry(clientConn.reconnect); err != nil {
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, connectionsPerEP, err)
				continue
			}

			connections = append(connections, clientConn)
			Logger.Debugf("Connected to %s (connection %d/%d)", endpoint, i+1, connectionsPerEP)
		}
	}

	// Check if we have at least one connection
	if len(connections) == 0 {
		return fmt.Errorf("failed to connect to any endpoint")
	}

	t.connectionsMu.Lock()
	t.connections = connections
	t.connectionsMu.Unlock()

	Logger.Debugf("Connected to %d out of %d connections to %d endpoints using %s transport",
		len(connections), len(config.Transport.Endpoints)*connectionsPerEP, len(config.Transport.Endpoints), t.connector.GetName())

	return nil
}

func (t *clientTransport) Send(ctx context.Context, req resp.Value) (resp.Value, error) {
	conn := t.getNextConnection()
	if conn == nil {
		return nil, fmt.Errorf("no active connections available")
	}

	var reply resp.Value
	err := t.retry(func() error {
		var sendErr error
		reply, sendErr = conn.send(ctx, req)
		return sendErr
	})
	return reply, err
}

func (t *clientTransport) Close() error {
	t.closeConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// retry runs fn until it succeeds, returns a non retryable error or the
// retry count is exhausted. Only connection failures are retried.
func (t *clientTransport) retry(fn func() error) error {
	// We always try at least once, and up to maxRetries times
	maxRetries := t.config.Transport.RetryCount
	if maxRetries < 1 {
		maxRetries = 1
	}

	// Initial backoff duration in milliseconds
	backoffMs := 50

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var retryable *retryableError
		if !errors.As(err, &retryable) {
			return err
		}
		Logger.Debugf("Attempt %d/%d failed: %v", i+1, maxRetries, err)

		if i < maxRetries-1 {
			// Exponential backoff with a small random jitter (+-10%)
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			time.Sleep(time.Duration(jitter) * time.Millisecond)
			backoffMs *= 2
		}
	}

	// All attempts failed
	return fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

// retryableError marks errors that happened before a request reached the server
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// getNextConnection selects the next connection via Round Robin
func (t *clientTransport) getNextConnection() *clientConnection {
	t.connectionsMu.RLock()
	defer t.connectionsMu.RUnlock()

	if len(t.connections) == 0 {
		return nil
	}

	// Simple Round Robin algorithm
	var index uint64
	if len(t.connections) == 1 {
		// optimize for single connection
		index = 0
	} else {
		index = atomic.AddUint64(&t.nextConnIndex, 1) % uint64(len(t.connections))
	}
	return t.connections[index]
}

// closeConnections closes all active connections
func (t *clientTransport) closeConnections() {
	t.connectionsMu.Lock()
	defer t.connectionsMu.Unlock()

	for _, conn := range t.connections {
		conn.close()
	}

	// Empty the list
	t.connections = nil
}

// send writes req and reads one reply.
// Errors before the request was written are retryable, after a failure while
// waiting for the reply the connection is dropped and reopened by the next request.
func (c *clientConnection) send(ctx context.Context, req resp.Value) (resp.Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.conn == nil {
		if err := c.dial(); err != nil {
			return nil, &retryableError{err}
		}
	}

	// Deadline from the context or the configured timeout
	deadline, fromCtx := ctx.Deadline()
	ok := fromCtx
	if !ok && c.parent.config.TimeoutSecond > 0 {
		deadline, ok = time.Now().Add(time.Duration(c.parent.config.TimeoutSecond)*time.Second), true
	}
	if ok {
		if err := c.conn.SetDeadline(deadline); err != nil {
			c.drop()
			return nil, &retryableError{err}
		}
	}

	// Cancel a blocked request by expiring the deadline. The callback only
	// touches the connection of this request, c.conn may be replaced meanwhile.
	conn := c.conn
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := c.serializer.Write(req); err != nil {
		if errors.Is(err, resp.ErrUnsupported) {
			return nil, err
		}
		return nil, c.writeFailed(ctx, fromCtx, err)
	}
	if err := c.writer.Flush(); err != nil {
		return nil, c.writeFailed(ctx, fromCtx, err)
	}

	reply, err := c.parser.Next()
	if err != nil {
		c.drop()
		if cerr := contextError(ctx, fromCtx, err); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("error reading reply from %s: %w", c.endpoint, err)
	}
	return reply, nil
}

// writeFailed drops the connection after a failed write, the request is
// retried unless ctx ended
func (c *clientConnection) writeFailed(ctx context.Context, fromCtx bool, err error) error {
	c.drop()
	if cerr := contextError(ctx, fromCtx, err); cerr != nil {
		return cerr
	}
	return &retryableError{err}
}

// contextError returns the context error that caused err, or nil.
// A socket deadline taken from ctx can fire before ctx itself reports it.
func contextError(ctx context.Context, fromCtx bool, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	if fromCtx && errors.Is(err, os.ErrDeadlineExceeded) {
		return context.DeadlineExceeded
	}
	return nil
}

// reconnect establishes or restores the connection to the endpoint
func (c *clientConnection) reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drop()
	if err := c.dial(); err != nil {
		return &retryableError{err}
	}
	return nil
}

// dial opens the connection, the caller holds c.mu
func (c *clientConnection) dial() error {
	conn, err := c.parent.connector.Connect(c.endpoint)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}

	// Upgrade the connection with protocol-specific settings
	if err := c.parent.connector.UpgradeConnection(conn, c.parent.config); err != nil {
		conn.Close()
		return fmt.Errorf("failed to upgrade connection to %s: %w", c.endpoint, err)
	}

	socket := c.parent.config.Transport.SocketConf
	c.conn = conn
	c.writer = bufio.NewWriterSize(conn, bufferSize(socket.WriteBufferSize))
	c.parser = resp.NewParser(bufio.NewReaderSize(conn, bufferSize(socket.ReadBufferSize)))
	c.serializer = resp.NewSerializer(c.writer)
	return nil
}

// drop closes the connection, the caller holds c.mu
func (c *clientConnection) drop() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.writer, c.parser, c.serializer = nil, nil, nil
}

func (c *clientConnection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drop()
}
