package client

import (
	"context"
	"math/big"
	"strconv"

	"github.com/ValentinKolb/respkv/lib/resp"
	"github.com/ValentinKolb/respkv/rpc/common"
	"github.com/ValentinKolb/respkv/rpc/transport"
)

// Client sends commands to a respkv (or any RESP speaking) server
type Client struct {
	config    common.ClientConfig
	transport transport.IRPCClientTransport
}

// New connects the transport and returns a client using it
func New(config common.ClientConfig, transport transport.IRPCClientTransport) (*Client, error) {
	// Connect the transport
	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	Logger.Debugf("connected to %v", config.Transport.Endpoints)
	return &Client{
		config:    config,
		transport: transport,
	}, nil
}

// Do sends a command and returns the raw reply. Error replies are
// returned as *ReplyError.
func (c *Client) Do(ctx context.Context, args ...string) (resp.Value, error) {
	return invoke(ctx, c.transport, resp.Command(args...))
}

// Close closes all connections of the client
func (c *Client) Close() error {
	return c.transport.Close()
}

// --------------------------------------------------------------------------
// Typed commands
// --------------------------------------------------------------------------

func (c *Client) Ping(ctx context.Context) (string, error) {
	reply, err := c.Do(ctx, "PING")
	if err != nil {
		return "", err
	}
	text, ok := resp.Text(reply)
	if !ok {
		return "", unexpected("string", reply)
	}
	return string(text), nil
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	reply, err := c.Do(ctx, "GET", key)
	if err != nil {
		return nil, false, err
	}
	return asOptional(reply)
}

func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	_, err := invoke(ctx, c.transport, resp.Array{resp.Bulk("SET"), resp.Bulk(key), resp.BulkString(value)})
	return err
}

func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	reply, err := c.Do(ctx, append([]string{"DEL"}, keys...)...)
	if err != nil {
		return 0, err
	}
	return asInt64(reply)
}

func (c *Client) Incr(ctx context.Context, key string) (*big.Int, error) {
	reply, err := c.Do(ctx, "INCR", key)
	if err != nil {
		return nil, err
	}
	return asBigInt(reply)
}

func (c *Client) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	reply, err := c.Do(ctx, append([]string{"SADD", key}, members...)...)
	if err != nil {
		return 0, err
	}
	return asInt64(reply)
}

func (c *Client) SMembers(ctx context.Context, key string) ([][]byte, error) {
	reply, err := c.Do(ctx, "SMEMBERS", key)
	if err != nil {
		return nil, err
	}
	return asList(reply)
}

func (c *Client) RPush(ctx context.Context, key string, values ...string) (int64, error) {
	reply, err := c.Do(ctx, append([]string{"RPUSH", key}, values...)...)
	if err != nil {
		return 0, err
	}
	return asInt64(reply)
}

func (c *Client) LPop(ctx context.Context, key string) ([]byte, bool, error) {
	reply, err := c.Do(ctx, "LPOP", key)
	if err != nil {
		return nil, false, err
	}
	return asOptional(reply)
}

func (c *Client) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	reply, err := c.Do(ctx, "LRANGE", key, strconv.FormatInt(start, 10), strconv.FormatInt(stop, 10))
	if err != nil {
		return nil, err
	}
	return asList(reply)
}
