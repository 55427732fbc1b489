// Package tcp implements the TCP transport of the RESP server and client.
// It provides the connectors for the base package, which does the actual
// request handling.
//
// Accepted and dialed connections are upgraded with the options found in
// common.TCPConf (no delay, keep-alive and linger) and common.SocketConf
// (kernel buffer sizes).
package tcp
