package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// statusHandler reports process liveness.
func (a *App) statusHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Status endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// proxiesHandler exposes the live proxy pool state as JSON.
func (a *App) proxiesHandler(w http.ResponseWriter, r *http.Request) {
	if a.services.Pool == nil {
		http.Error(w, "no proxy pool configured", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	payload := map[string]any{
		"stats":   a.services.Pool.Stats(),
		"proxies": a.services.Pool.Snapshot(),
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error("Failed to encode proxy state.", "error", err)
	}
}

// startStatusServer initializes and runs the status HTTP server.
func (a *App) startStatusServer() {
	if a.config.StatusPort <= 0 {
		a.logger.Debug("Status server not started: disabled")
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.statusHandler)
	mux.HandleFunc("/proxies", a.proxiesHandler)

	addr := fmt.Sprintf(":%d", a.config.StatusPort)
	a.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		a.logger.Info("🩺 Status server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Status server failed unexpectedly", "error", err)
		}
	}()
}

func (a *App) closeStatusServer() {
	if a.httpServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.logger.Debug("Shutting down status server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Status server shutdown failed", "error", err)
	}
}
