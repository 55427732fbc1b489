package base

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/ValentinKolb/respkv/lib/resp"
	"github.com/ValentinKolb/respkv/rpc/common"
	"github.com/ValentinKolb/respkv/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

const (
	defaultBufferSize = 64 * 1024 // 64 KB
)

var (
	openConnections  = metrics.NewCounter("respkv_open_connections")
	totalConnections = metrics.NewCounter("respkv_connections_total")
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector   IServerConnector
	handler     transport.ServerHandleFunc
	config      common.ServerConfig
	connections *xsync.MapOf[string, net.Conn] // open connections by id
	wg          sync.WaitGroup
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport for the given connector
func NewBaseServerTransport(connector IServerConnector) transport.IRPCServerTransport {
	return &serverTransport{
		connector:   connector,
		connections: xsync.NewMapOf[string, net.Conn](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(ctx context.Context, config common.ServerConfig) error {
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}
	t.config = config

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	Logger.Infof("Starting %s server on %s", t.connector.GetName(), listener.Addr())

	// Stop accepting when the context is cancelled
	stop := context.AfterFunc(ctx, func() {
		_ = listener.Close()
	})
	defer stop()

	// Accept connections
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			Logger.Errorf("Accept error: %v", err)
			continue
		}

		if err := t.connector.UpgradeConnection(conn, config); err != nil {
			Logger.Warningf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
		}

		id := uuid.NewString()
		t.connections.Store(id, conn)
		t.wg.Add(1)

		// Handle the connection in a goroutine
		go func() {
			defer t.wg.Done()
			defer t.connections.Delete(id)
			totalConnections.Inc()
			openConnections.Inc()
			defer openConnections.Dec()
			t.handleConnection(id, conn)
		}()
	}

	// Close all open connections and wait until their handlers return
	Logger.Infof("Shutting down %s server, closing %d connections", t.connector.GetName(), t.connections.Size())
	t.connections.Range(func(_ string, conn net.Conn) bool {
		_ = conn.Close()
		return true
	})
	t.wg.Wait()

	if ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("listener closed unexpectedly")
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection reads requests of one connection until it is closed.
// Requests are handled strictly in order, replies are buffered and flushed
// once no pipelined request is waiting in the read buffer.
func (t *serverTransport) handleConnection(id string, conn net.Conn) {
	defer conn.Close()

	Logger.Debugf("Connection %s opened by %s", id, conn.RemoteAddr())

	// Idle timeout in seconds
	timeout := time.Duration(t.config.TimeoutSecond) * time.Second

	reader := bufio.NewReaderSize(conn, bufferSize(t.config.Transport.ReadBufferSize))
	writer := bufio.NewWriterSize(conn, bufferSize(t.config.Transport.WriteBufferSize))
	parser := resp.NewParser(reader)
	serializer := resp.NewSerializer(writer)

	flush := func() error {
		if timeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
				return err
			}
		}
		return writer.Flush()
	}

	for {
		if timeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
				Logger.Errorf("Failed to set read deadline: %v", err)
				return
			}
		}

		req, err := parser.Next()
		if err != nil {
			switch {
			// Case EOF: Connection closed by client
			case errors.Is(err, io.EOF):
				Logger.Debugf("Connection %s closed by client", id)

			// Case protocol error: the stream position is undefined, reply and close
			case errors.Is(err, resp.ErrProtocol):
				Logger.Warningf("Protocol error on connection %s: %v", id, err)
				_ = serializer.Write(resp.Errorf("ERR Protocol error: %s", err))
				_ = flush()

			// Case idle timeout
			case errors.Is(err, os.ErrDeadlineExceeded):
				Logger.Debugf("Connection %s idle for %s, closing", id, timeout)

			// Case closed by server shutdown
			case errors.Is(err, net.ErrClosed):

			default:
				Logger.Errorf("Error reading request on connection %s: %v", id, err)
			}
			return
		}

		reply, closeConn := t.handler(req)
		if reply != nil {
			if err := serializer.Write(reply); err != nil {
				Logger.Errorf("Failed to serialize reply on connection %s: %v", id, err)
				_ = serializer.Write(resp.Error("ERR internal error"))
			}
		}

		// flush when the client waits for the replies
		if closeConn || parser.Buffered() == 0 {
			if err := flush(); err != nil {
				Logger.Errorf("Failed to write reply on connection %s: %v", id, err)
				return
			}
		}

		if closeConn {
			Logger.Debugf("Connection %s closed by request", id)
			return
		}
	}
}

// bufferSize returns size or the default buffer size if size is not set
func bufferSize(size int) int {
	if size <= 0 {
		return defaultBufferSize
	}
	return size
}
