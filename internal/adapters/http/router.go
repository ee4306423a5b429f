// Package httpadapter exposes the analysis results and batch triggering
// over a small REST surface.
package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/biasharahub/docintel/internal/core/ports"
)

type Router struct {
	queue    ports.BatchQueue
	repo     ports.AnalysisRepository
	reporter ports.InsightReporter
	logger   *slog.Logger
}

func NewRouter(queue ports.BatchQueue, repo ports.AnalysisRepository, reporter ports.InsightReporter, logger *slog.Logger) *Router {
	return &Router{
		queue:    queue,
		repo:     repo,
		reporter: reporter,
		logger:   logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/batches", rt.startBatch)
	mux.HandleFunc("/v1/analyses/", rt.getAnalysis)
	mux.HandleFunc("/v1/runs/", rt.runSubresource)
	return requestIDMiddleware(accessLogMiddleware(rt.logger, mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// startBatch enqueues a batch run and returns its id; the worker picks the
// run up from the queue.
func (rt *Router) startBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	runID := uuid.NewString()
	if err := rt.queue.PublishBatchRequested(r.Context(), runID); err != nil {
		rt.logger.Error("enqueue batch run", "run_id", runID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

func (rt *Router) getAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	documentID := strings.TrimPrefix(r.URL.Path, "/v1/analyses/")
	if documentID == "" || strings.Contains(documentID, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	analysis, err := rt.repo.GetAnalysisByID(r.Context(), documentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// runSubresource serves /v1/runs/{id}/insights and /v1/runs/{id}/report.
func (rt *Router) runSubresource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	runID, resource := parts[0], parts[1]

	switch resource {
	case "insights":
		insights, err := rt.repo.GetInsightsByRun(r.Context(), runID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, insights)
	case "report":
		insights, err := rt.repo.GetInsightsByRun(r.Context(), runID)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="portfolio-insights-`+runID+`.xlsx"`)
		if err := rt.reporter.Write(*insights, w); err != nil {
			rt.logger.Error("render insights report", "run_id", runID, "error", err)
		}
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
