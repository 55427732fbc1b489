// Package client implements a RESP client on top of the rpc/transport layer.
//
// Do sends any command and returns the raw reply, the typed helpers (Get,
// Set, Incr, SAdd, RPush, LPop, ...) convert replies into Go values. Error
// replies of the server are returned as *ReplyError.
//
// Usage Example:
//
//	config := common.ClientConfig{
//		TimeoutSecond: 5,
//		Transport: common.ClientTransportConfig{
//			Endpoints:  []string{"localhost:6380"},
//			RetryCount: 3,
//		},
//	}
//
//	c, err := client.New(config, tcp.NewTCPClientTransport())
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	_ = c.Set(ctx, "mykey", []byte("myvalue"))
//	value, exists, _ := c.Get(ctx, "mykey")
//
// Thread Safety:
//
//	A Client is safe for concurrent use. Requests are spread over the
//	connections of the transport (ConnectionsPerEndpoint).
package client
