package pprof

import (
	"context"
	"errors"
	"net"
	"net/http"
	netpprof "net/http/pprof"
	"time"
)

// httpServer hosts the standard debug/pprof endpoints on a dedicated
// listener, kept separate from any job-submission HTTP surface so
// profiling access can be firewalled independently.
type httpServer struct {
	srv *http.Server
}

func startHTTPServer(cfg *HTTPConfig) (*httpServer, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", netpprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", netpprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", netpprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", netpprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", netpprof.Trace)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			// The listener died out from under us; nothing to do but
			// let Stop observe the server as already down.
			_ = err
		}
	}()

	return &httpServer{srv: srv}, nil
}

func (h *httpServer) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.srv.Shutdown(ctx)
}
