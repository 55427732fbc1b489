package util

import (
	"errors"
	"fmt"
	"io"

	"github.com/ValentinKolb/respkv/lib/resp"
	"github.com/ValentinKolb/respkv/rpc/client"
)

// PrintReply writes the reply of a command in redis-cli form to w.
// Error replies are printed, all other errors are returned.
func PrintReply(w io.Writer, reply resp.Value, err error) error {
	var replyErr *client.ReplyError
	switch {
	case errors.As(err, &replyErr):
		reply = resp.Error(replyErr.Msg)
	case err != nil:
		return err
	}
	_, err = fmt.Fprintln(w, resp.Format(reply))
	return err
}
