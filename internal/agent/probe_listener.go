package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi"

	"sysinfo-agent/internal/agent/version"
)

func (a *Agent) probeRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !a.health.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("sysinfo-agent:ok\n"))
	})
	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		a.writeJSON(w, a.health.Snapshot())
	})
	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		a.writeJSON(w, version.Get(a.cfg, &version.GetVersionRequest{NodeID: r.URL.Query().Get("node_id")}))
	})
	return r
}

func (a *Agent) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Debugw("probe response encode failed", "error", err)
	}
}

func (a *Agent) runProbeListener(ctx context.Context) error {
	addr := strings.TrimSpace(a.cfg.ProbeListenAddr)
	if addr == "" {
		return errors.New("empty probe listen address")
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen probe endpoint %s: %w", addr, err)
	}
	a.logger.Infow("probe endpoint listening", "addr", ln.Addr().String())

	srv := &http.Server{
		Handler:           a.probeRouter(),
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      2 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve probe endpoint %s: %w", addr, err)
	}
	return nil
}
