package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ValentinKolb/respkv/lib/db"
	"github.com/ValentinKolb/respkv/lib/db/engines"
	"github.com/ValentinKolb/respkv/lib/resp"
	"github.com/ValentinKolb/respkv/rpc/common"
	"github.com/ValentinKolb/respkv/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("server")

// RPCServer serves the commands of one engine over a transport
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	dispatcher *Dispatcher
}

// NewRPCServer creates a new RPC server
// It takes a config and a transport as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//	)
//
//	if err := s.Serve(ctx); err != nil {
//		panic(err)
//	}
func NewRPCServer(config common.ServerConfig, transport transport.IRPCServerTransport) *RPCServer {
	return &RPCServer{
		config:    config,
		transport: transport,
	}
}

// Serve initializes logging and the engine and handles requests until ctx is cancelled
func (s *RPCServer) Serve(ctx context.Context) error {
	if err := common.InitLoggers(s.config.LogLevel, s.config.LogFile); err != nil {
		return err
	}
	defer common.SyncLoggers()

	Logger.Infof("Created RPC Server")
	Logger.Infof("%s", s.config.String())

	impl := db.Implementation(s.config.Engine)
	if impl == "" {
		impl = db.ImplMemory
	}
	engine, err := engines.New(impl, &engines.Options{NumShards: s.config.NumShards})
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			Logger.Errorf("failed to close engine: %v", err)
		}
	}()

	s.dispatcher = NewDispatcher(engine)
	s.transport.RegisterHandler(s.handle)

	if s.config.MetricsEndpoint != "" {
		s.serveMetrics(ctx)
	}

	Logger.Infof("respkv setup completed successfully (engine %s)", impl)
	return s.transport.Listen(ctx, s.config)
}

// handle runs a request through the dispatcher and records its metrics
func (s *RPCServer) handle(req resp.Value) (resp.Value, bool) {
	start := time.Now()
	reply, closeConn := s.dispatcher.Handle(req)
	if reply == nil {
		return nil, closeConn
	}

	name := CommandName(req)
	metrics.GetOrCreateCounter(fmt.Sprintf(`respkv_commands_total{command=%q}`, name)).Inc()
	metrics.GetOrCreateHistogram(fmt.Sprintf(`respkv_command_duration_seconds{command=%q}`, name)).UpdateDuration(start)
	if _, ok := reply.(resp.Error); ok {
		metrics.GetOrCreateCounter(fmt.Sprintf(`respkv_command_errors_total{command=%q}`, name)).Inc()
	}
	return reply, closeConn
}

// serveMetrics exposes the metrics in Prometheus text format on /metrics
// until ctx is cancelled
func (s *RPCServer) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	srv := &http.Server{
		Addr:              s.config.MetricsEndpoint,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		Logger.Infof("Starting metrics endpoint on http://%s/metrics", s.config.MetricsEndpoint)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("metrics endpoint failed: %v", err)
		}
	}()

	context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
}
