package unix

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/respkv/lib/resp"
	"github.com/ValentinKolb/respkv/rpc/common"
	"github.com/ValentinKolb/respkv/rpc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoHandler returns every request unchanged, QUIT closes the connection
func echoHandler(req resp.Value) (resp.Value, bool) {
	if arr, ok := req.(resp.Array); ok && len(arr) > 0 {
		if name, ok := resp.Text(arr[0]); ok && strings.EqualFold(string(name), "QUIT") {
			return resp.Str("OK"), true
		}
	}
	return req, false
}

// startServer runs an echo server on a socket inside t.TempDir
func startServer(t *testing.T) (string, context.CancelFunc, <-chan error) {
	t.Helper()

	socket := filepath.Join(t.TempDir(), "respkv.sock")
	server := NewUnixServerTransport()
	server.RegisterHandler(echoHandler)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Listen(ctx, common.ServerConfig{
			Transport:     common.ServerTransportConfig{Endpoint: socket},
			TimeoutSecond: 10,
		})
	}()
	t.Cleanup(cancel)
	return socket, cancel, done
}

func newClient(t *testing.T, socket string, connections int) transport.IRPCClientTransport {
	t.Helper()

	client := NewUnixClientTransport()
	err := client.Connect(common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			RetryCount:             8,
			Endpoints:              []string{socket},
			ConnectionsPerEndpoint: connections,
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// dialRaw waits until the socket accepts connections
func dialRaw(t *testing.T, socket string) net.Conn {
	t.Helper()
	var conn net.Conn
	require.Eventually(t, func() bool {
		var err error
		conn, err = net.Dial("unix", socket)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestSendReceive(t *testing.T) {
	socket, _, _ := startServer(t)
	client := newClient(t, socket, 1)

	req := resp.Command("SET", "key", "a\r\nb")
	reply, err := client.Send(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.Equal(req, reply), "got %s", resp.Format(reply))

	reply, err = client.Send(context.Background(), resp.Array{resp.Int(-3), resp.Null{}, resp.Array{}})
	require.NoError(t, err)
	assert.True(t, resp.Equal(resp.Array{resp.Int(-3), resp.Null{}, resp.Array{}}, reply), "got %s", resp.Format(reply))
}

func TestUnsupportedRequest(t *testing.T) {
	socket, _, _ := startServer(t)
	client := newClient(t, socket, 1)

	_, err := client.Send(context.Background(), nil)
	assert.ErrorIs(t, err, resp.ErrUnsupported)

	// the connection is still usable
	reply, err := client.Send(context.Background(), resp.Command("PING"))
	require.NoError(t, err)
	assert.True(t, resp.Equal(resp.Command("PING"), reply))
}

func TestConcurrentClients(t *testing.T) {
	socket, _, _ := startServer(t)
	client := newClient(t, socket, 4)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				req := resp.Command(fmt.Sprintf("worker-%d", i), fmt.Sprintf("%d", j))
				reply, err := client.Send(context.Background(), req)
				if !assert.NoError(t, err) {
					return
				}
				assert.True(t, resp.Equal(req, reply), "got %s", resp.Format(reply))
			}
		}(i)
	}
	wg.Wait()
}

func TestPipelinedInlineRequests(t *testing.T) {
	socket, _, _ := startServer(t)
	conn := dialRaw(t, socket)

	// three requests in one write, answered in order
	_, err := conn.Write([]byte("PING\r\nECHO hello\r\n*1\r\n$4\r\nQUIT\r\n"))
	require.NoError(t, err)

	parser := resp.NewParser(bufio.NewReader(conn))
	for _, want := range []resp.Value{
		resp.Command("PING"),
		resp.Command("ECHO", "hello"),
		resp.Bulk("OK"),
	} {
		got, err := parser.Next()
		require.NoError(t, err)
		assert.True(t, resp.Equal(want, got), "got %s", resp.Format(got))
	}

	// QUIT closed the connection
	_, err = parser.Next()
	assert.Error(t, err)
}

func TestProtocolError(t *testing.T) {
	socket, _, _ := startServer(t)
	conn := dialRaw(t, socket)

	_, err := conn.Write([]byte("*1\r\n$x\r\n"))
	require.NoError(t, err)

	parser := resp.NewParser(bufio.NewReader(conn))
	got, err := parser.Next()
	require.NoError(t, err)
	msg, ok := got.(resp.Error)
	require.True(t, ok, "got %s", resp.Format(got))
	assert.True(t, strings.HasPrefix(string(msg), "ERR Protocol error"), string(msg))

	_, err = parser.Next()
	assert.Error(t, err)
}

func TestShutdown(t *testing.T) {
	socket, cancel, done := startServer(t)
	client := newClient(t, socket, 2)

	_, err := client.Send(context.Background(), resp.Command("PING"))
	require.NoError(t, err)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	_, err = client.Send(context.Background(), resp.Command("PING"))
	assert.Error(t, err)
}

func TestConnectFailure(t *testing.T) {
	client := NewUnixClientTransport()
	err := client.Connect(common.ClientConfig{
		Transport: common.ClientTransportConfig{
			RetryCount: 1,
			Endpoints:  []string{filepath.Join(t.TempDir(), "missing.sock")},
		},
	})
	assert.Error(t, err)

	err = client.Connect(common.ClientConfig{})
	assert.Error(t, err)
}

// silentServer accepts connections and reads requests without ever replying
func silentServer(t *testing.T) string {
	t.Helper()

	socket := filepath.Join(t.TempDir(), "silent.sock")
	listener, err := net.Listen("unix", socket)
	require.NoError(t, err)

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
			go func() { _, _ = io.Copy(io.Discard, conn) }()
		}
	}()

	t.Cleanup(func() {
		_ = listener.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, conn := range conns {
			_ = conn.Close()
		}
	})
	return socket
}

func TestDeadlineWhileWaitingForReply(t *testing.T) {
	client := newClient(t, silentServer(t), 1)

	for i := 0; i < 20; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, err := client.Send(ctx, resp.Command("PING"))
		cancel()
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded, "send %d", i)
	}
}

func TestCancelWhileWaitingForReply(t *testing.T) {
	client := newClient(t, silentServer(t), 1)

	for i := 0; i < 20; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		timer := time.AfterFunc(5*time.Millisecond, cancel)
		_, err := client.Send(ctx, resp.Command("PING"))
		timer.Stop()
		cancel()
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled, "send %d", i)
	}
}
