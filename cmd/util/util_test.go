package util

import (
	"errors"
	"strings"
	"testing"

	"github.com/ValentinKolb/respkv/lib/resp"
	"github.com/ValentinKolb/respkv/rpc/client"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	assert.Equal(t, "", WrapString(""))
	assert.Equal(t, "short text", WrapString("  short   text "))

	long := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(long), "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
	}

	// words longer than the limit stay intact
	huge := strings.Repeat("x", Wrap+10)
	assert.Equal(t, "a\n"+huge+"\nb", WrapString("a "+huge+" b"))
}

func TestPrintReply(t *testing.T) {
	var out strings.Builder

	require.NoError(t, PrintReply(&out, resp.Int(3), nil))
	require.NoError(t, PrintReply(&out, nil, &client.ReplyError{Msg: "ERR boom"}))
	assert.Equal(t, "(integer) 3\n(error) ERR boom\n", out.String())

	transportErr := errors.New("connection refused")
	assert.ErrorIs(t, PrintReply(&out, nil, transportErr), transportErr)
}

func TestGetClientConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("timeout", 7)
	viper.Set("transport-endpoints", "a:1, b:2,,")
	viper.Set("transport-read-buffer", 2)
	viper.Set("transport-tcp-linger", -1)

	conf := GetClientConfig()
	assert.Equal(t, 7, conf.TimeoutSecond)
	assert.Equal(t, []string{"a:1", "b:2"}, conf.Transport.Endpoints)
	assert.Equal(t, 2048, conf.Transport.ReadBufferSize)
	assert.Equal(t, -1, conf.Transport.TCPLingerSec)
}

func TestGetTransport(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	for _, name := range []string{"tcp", "unix"} {
		viper.Set("transport", name)
		_, err := GetTransport()
		assert.NoError(t, err, name)
		_, err = GetServerTransport()
		assert.NoError(t, err, name)
	}

	viper.Set("transport", "http")
	_, err := GetTransport()
	assert.Error(t, err)
	_, err = GetServerTransport()
	assert.Error(t, err)
}
