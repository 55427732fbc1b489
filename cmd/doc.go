// Package cmd implements the command-line interface of respkv. It provides
// a hierarchical command structure for running the server and talking to it.
//
// The package is organized into several subpackages:
//
//   - serve: Starts the respkv server
//   - kv: Sends a single command to a server and runs the perf benchmark
//   - cli: Interactive shell (redis-cli like)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// All flags can also be set as environment variables RESPKV_<FLAG> (e.g.
// RESPKV_LOG_LEVEL=debug) or in a .env / .env.local file.
//
// See respkv -help for a list of all commands.
package cmd
