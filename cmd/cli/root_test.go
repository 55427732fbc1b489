package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ValentinKolb/respkv/rpc/client"
	"github.com/ValentinKolb/respkv/rpc/common"
	"github.com/ValentinKolb/respkv/rpc/server"
	"github.com/ValentinKolb/respkv/rpc/transport/unix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *client.Client {
	t.Helper()

	socket := filepath.Join(t.TempDir(), "cli.sock")
	ctx, cancel := context.WithCancel(context.Background())
	s := server.NewRPCServer(common.ServerConfig{
		Transport: common.ServerTransportConfig{Endpoint: socket},
		LogLevel:  "error",
	}, unix.NewUnixServerTransport())
	go func() { _ = s.Serve(ctx) }()

	c, err := client.New(common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			RetryCount: 8,
			Endpoints:  []string{socket},
		},
	}, unix.NewUnixClientTransport())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
		cancel()
	})
	return c
}

func TestPipe(t *testing.T) {
	c := newTestClient(t)

	input := strings.Join([]string{
		`SET greeting "hello world"`,
		`GET greeting`,
		`3 INCR counter`,
		``,
		`RPUSH list a b`,
		`LRANGE list 0 -1`,
		`NOPE`,
		`SET "open`,
		`quit`,
		`GET greeting`,
	}, "\n")

	var out strings.Builder
	require.NoError(t, pipe(c, strings.NewReader(input), &out))

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 10, out.String())
	assert.Equal(t, `"OK"`, lines[0])
	assert.Equal(t, `"hello world"`, lines[1])
	assert.Equal(t, "(integer) 1", lines[2])
	assert.Equal(t, "(integer) 2", lines[3])
	assert.Equal(t, "(integer) 3", lines[4])
	assert.Equal(t, "(integer) 2", lines[5])
	assert.Equal(t, `1) "a"`, lines[6])
	assert.Equal(t, `2) "b"`, lines[7])
	assert.True(t, strings.HasPrefix(lines[8], "(error) ERR unknown command 'NOPE'"), lines[8])
	assert.True(t, strings.HasPrefix(lines[9], "Invalid argument(s)"), lines[9])
}

func TestRepeatValidation(t *testing.T) {
	c := newTestClient(t)

	var out strings.Builder
	quit, err := execute(c, "0 PING", &out)
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Equal(t, "Invalid repeat command option value.\n", out.String())

	quit, err = execute(c, "EXIT", &out)
	require.NoError(t, err)
	assert.True(t, quit)
}
