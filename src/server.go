// Copyright (c) 2026 Khaled Abbas
//
// This source code is licensed under the Business Source License 1.1.
//
// Change Date: 4 years after the first public release of this version.
// Change License: MIT
//
// On the Change Date, this version of the code automatically converts
// to the MIT License. Prior to that date, use is subject to the
// Additional Use Grant. See the LICENSE file for details.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"bambucloud/src/logging"
	"bambucloud/src/store"
	"bambucloud/src/syncer"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// StatusResponse for JSON output
type StatusResponse struct {
	ID            string     `json:"id"`
	StartTime     time.Time  `json:"start_time"`
	Uptime        string     `json:"uptime"`
	SyncsRun      uint64     `json:"syncs_run"`
	SyncFailures  uint64     `json:"sync_failures"`
	TasksFetched  uint64     `json:"tasks_fetched"`
	TasksUpserted uint64     `json:"tasks_upserted"`
	LastSyncAt    *time.Time `json:"last_sync_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
}

// SyncStats tracks the internal state of the sync worker
type SyncStats struct {
	mu             sync.RWMutex
	statusResponse StatusResponse
}

func (s *SyncStats) SetID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusResponse.ID = id
	s.statusResponse.StartTime = time.Now()
}

// RecordSync folds one successful pass into the counters.
func (s *SyncStats) RecordSync(res syncer.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusResponse.SyncsRun++
	s.statusResponse.TasksFetched += uint64(res.Fetched)
	s.statusResponse.TasksUpserted += uint64(res.Upserted)
	now := time.Now()
	s.statusResponse.LastSyncAt = &now
	s.statusResponse.LastError = ""

	logging.UpdateSpanValue("sync_runs_total", float64(s.statusResponse.SyncsRun))
	logging.UpdateSpanValue("sync_tasks_fetched_total", float64(s.statusResponse.TasksFetched))
	logging.UpdateSpanValue("sync_tasks_upserted_total", float64(s.statusResponse.TasksUpserted))
}

// RecordFailure folds one failed pass into the counters.
func (s *SyncStats) RecordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusResponse.SyncsRun++
	s.statusResponse.SyncFailures++
	s.statusResponse.LastError = err.Error()

	logging.UpdateSpanValue("sync_failures_total", float64(s.statusResponse.SyncFailures))
}

// GetStats returns the current statistics as a response struct
func (s *SyncStats) GetStats() StatusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := s.statusResponse
	resp.Uptime = time.Since(s.statusResponse.StartTime).Truncate(time.Second).String()
	return resp
}

// APIServer holds dependencies for the HTTP handlers
type APIServer struct {
	store *store.TaskStore
	stats *SyncStats
}

// StartAPIServer starts the HTTP server with graceful shutdown and OTel
func StartAPIServer(port string, taskStore *store.TaskStore, stats *SyncStats) error {
	// 1. Setup Context for Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Setup OpenTelemetry
	otelShutdown, err := logging.SetupOTelSDK(context.Background())
	if err != nil {
		return fmt.Errorf("failed to setup OTel SDK: %w", err)
	}
	defer func() {
		// Ensure OTel flushes spans before exiting
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "OTel shutdown error: %v\n", err)
		}
	}()

	srv := &APIServer{
		store: taskStore,
		stats: stats,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/status", srv.statusHandler)
	mux.HandleFunc("/global-status", srv.globalStatusHandler)
	mux.HandleFunc("/tasks", srv.tasksHandler)

	// 3. Wrap Mux with OTel Middleware
	otelHandler := otelhttp.NewHandler(mux, "sync-api-server")

	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: otelHandler,
	}

	// 4. Run Server in Background
	serverErr := make(chan error, 1)
	go func() {
		fmt.Printf("API Server starting on :%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 5. Wait for Shutdown Signal or Error
	select {
	case err := <-serverErr:
		return fmt.Errorf("server startup failed: %w", err)
	case <-ctx.Done():
		fmt.Println("\nShutdown signal received, closing server...")

		// Gracefully shut down the HTTP server (max 10s timeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		fmt.Println("Server exited cleanly")
	}

	return nil
}

func (s *APIServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.stats.GetStats())
}

func (s *APIServer) globalStatusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	gs, err := s.store.Stats(r.Context())
	if err != nil {
		http.Error(w, "Failed to query cache stats", http.StatusInternalServerError)
		return
	}

	_ = json.NewEncoder(w).Encode(gs)
}

func (s *APIServer) tasksHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	tasks, err := s.store.RecentTasks(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to query cached tasks", http.StatusInternalServerError)
		return
	}

	_ = json.NewEncoder(w).Encode(tasks)
}
