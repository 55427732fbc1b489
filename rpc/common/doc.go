// Package common provides the configuration structures and the logging setup
// shared by the server, the client and the command line tools.
//
// Key Components:
//
//   - ServerConfig: listener endpoint and socket options, idle timeout, engine
//     selection, logging and the optional metrics endpoint.
//
//   - ClientConfig: endpoints, connections per endpoint, timeouts and retry behavior.
//
//   - Logger: a zap backed implementation of dragonboat's logger.ILogger. All
//     packages obtain named loggers with logger.GetLogger, InitLoggers installs
//     the factory and sets the level. With a log file configured, JSON lines are
//     also written to a file rotated by lumberjack.
package common
