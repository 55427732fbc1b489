package client

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ValentinKolb/respkv/lib/resp"
	"github.com/ValentinKolb/respkv/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("client")
)

// ReplyError is an error reply sent by the server
type ReplyError struct {
	Msg string
}

func (e *ReplyError) Error() string {
	return e.Msg
}

// invoke is a helper function used by all client methods to send requests.
// Error replies are converted to *ReplyError.
func invoke(ctx context.Context, transport transport.IRPCClientTransport, req resp.Value) (resp.Value, error) {
	reply, err := transport.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	// Check if the response is an error response
	if msg, ok := reply.(resp.Error); ok {
		return nil, &ReplyError{Msg: string(msg)}
	}
	return reply, nil
}

// --------------------------------------------------------------------------
// Reply conversion
// --------------------------------------------------------------------------

func asInt64(reply resp.Value) (int64, error) {
	n, ok := reply.(resp.Integer)
	if !ok || n.Value == nil {
		return 0, unexpected("integer", reply)
	}
	if !n.Value.IsInt64() {
		return 0, fmt.Errorf("integer reply %s out of int64 range", n.Value)
	}
	return n.Value.Int64(), nil
}

func asBigInt(reply resp.Value) (*big.Int, error) {
	n, ok := reply.(resp.Integer)
	if !ok || n.Value == nil {
		return nil, unexpected("integer", reply)
	}
	return n.Value, nil
}

// asOptional converts a bulk reply, Null is returned as ok == false
func asOptional(reply resp.Value) ([]byte, bool, error) {
	if resp.IsNull(reply) {
		return nil, false, nil
	}
	value, ok := resp.Text(reply)
	if !ok {
		return nil, false, unexpected("bulk string", reply)
	}
	return value, true, nil
}

func asList(reply resp.Value) ([][]byte, error) {
	arr, ok := reply.(resp.Array)
	if !ok {
		return nil, unexpected("array", reply)
	}
	out := make([][]byte, len(arr))
	for i, v := range arr {
		value, ok := resp.Text(v)
		if !ok {
			return nil, unexpected("bulk string", v)
		}
		out[i] = value
	}
	return out, nil
}

func unexpected(want string, got resp.Value) error {
	return fmt.Errorf("unexpected reply %s, expected %s", resp.Format(got), want)
}
