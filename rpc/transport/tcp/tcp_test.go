package tcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/ValentinKolb/respkv/lib/resp"
	"github.com/ValentinKolb/respkv/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpgrade(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	conn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	tcpConf := common.TCPConf{TCPNoDelay: true, TCPKeepAliveSec: 30, TCPLingerSec: -1}
	socket := common.SocketConf{WriteBufferSize: 32 * 1024, ReadBufferSize: 32 * 1024}
	assert.NoError(t, upgrade(conn, tcpConf, socket))

	server := <-accepted
	defer server.Close()
	assert.NoError(t, (&serverConnector{}).UpgradeConnection(server, common.ServerConfig{
		Transport: common.ServerTransportConfig{TCPConf: tcpConf, SocketConf: socket},
	}))
}

func TestUpgradeIgnoresOtherConnections(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	assert.NoError(t, upgrade(a, common.TCPConf{TCPLingerSec: 5}, common.SocketConf{}))
}

func TestRoundTrip(t *testing.T) {
	// reserve a free port
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	endpoint := probe.Addr().String()
	require.NoError(t, probe.Close())

	server := NewTCPServerTransport()
	server.RegisterHandler(func(req resp.Value) (resp.Value, bool) {
		return resp.Int(int64(len(req.(resp.Array)))), false
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Listen(ctx, common.ServerConfig{
			Transport: common.ServerTransportConfig{
				Endpoint: endpoint,
				TCPConf:  common.TCPConf{TCPNoDelay: true, TCPLingerSec: -1},
			},
		})
	}()

	client := NewTCPClientTransport()
	require.NoError(t, client.Connect(common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			RetryCount: 8,
			Endpoints:  []string{endpoint},
			TCPConf:    common.TCPConf{TCPNoDelay: true, TCPLingerSec: -1},
		},
	}))
	defer client.Close()

	reply, err := client.Send(context.Background(), resp.Command("a", "b", "c"))
	require.NoError(t, err)
	assert.True(t, resp.Equal(resp.Int(3), reply), "got %s", resp.Format(reply))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
