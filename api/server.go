// Package api exposes the fleet dispatch service over HTTP JSON.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/swarmsync/fleetd/core/dispatch"
	"github.com/swarmsync/fleetd/core/fleet"
	coremetrics "github.com/swarmsync/fleetd/core/metrics"
	"github.com/swarmsync/fleetd/core/model"
	"github.com/swarmsync/fleetd/core/rank"
	"github.com/swarmsync/fleetd/infra/logger"
)

// Server wires the HTTP surface to the domain services.
type Server struct {
	store       fleet.Store
	engine      *rank.Engine
	dispatcher  *dispatch.Manager
	sink        coremetrics.MetricsSink
	modelLoaded bool
	log         logger.Logger
}

// NewServer builds a Server. modelLoaded reflects whether the classifier
// artifact was available at startup; a nil sink disables metrics.
func NewServer(store fleet.Store, engine *rank.Engine, dispatcher *dispatch.Manager, sink coremetrics.MetricsSink, modelLoaded bool) *Server {
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	return &Server{
		store:       store,
		engine:      engine,
		dispatcher:  dispatcher,
		sink:        sink,
		modelLoaded: modelLoaded,
		log:         logger.New("api"),
	}
}

// Handler returns the routed HTTP handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/fleet", s.handleFleet)
	mux.HandleFunc("GET /api/fleet/status", s.handleFleetStatus)
	mux.HandleFunc("POST /api/rank", s.handleRank)
	mux.HandleFunc("POST /api/trucks/{id}/status", s.handleTruckStatus)
	mux.HandleFunc("POST /api/dispatches", s.handleStartDispatch)
	mux.HandleFunc("GET /api/dispatches", s.handleListDispatches)
	mux.HandleFunc("GET /api/dispatches/{id}", s.handleGetDispatch)
	mux.HandleFunc("DELETE /api/dispatches/{id}", s.handleCancelDispatch)
	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debugf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"model_loaded": s.modelLoaded,
		"method":       s.engine.Method(),
		"fleet_size":   len(s.store.List()),
	})
}

func (s *Server) handleFleet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.List())
}

func (s *Server) handleFleetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Summary())
}

type rankResponse struct {
	Candidates []model.Candidate `json:"candidates"`
	Method     string            `json:"method"`
	Count      int               `json:"count"`
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var report model.BreakdownReport
	if err := decodeJSON(r, &report); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := report.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cands := s.engine.Rank(report, s.store.List())
	s.recordRanking(report, cands)
	writeJSON(w, http.StatusOK, rankResponse{
		Candidates: cands,
		Method:     s.engine.Method(),
		Count:      len(cands),
	})
}

func (s *Server) recordRanking(report model.BreakdownReport, cands []model.Candidate) {
	if len(cands) == 0 {
		return
	}
	now := time.Now().UTC()
	results := make([]coremetrics.RankingResult, 0, len(cands))
	for _, c := range cands {
		results = append(results, coremetrics.RankingResult{
			TruckID:    c.TruckID,
			Urgency:    report.Urgency,
			Method:     c.Method,
			Score:      c.Score,
			DistanceKM: c.DistanceKM,
			Time:       now,
		})
	}
	if err := s.sink.RecordRanking(results); err != nil {
		s.log.Warnf("record ranking metrics: %v", err)
	}
}

type statusRequest struct {
	Status model.TruckStatus `json:"status"`
}

func (s *Server) handleTruckStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	if err := s.store.UpdateStatus(id, req.Status); err != nil {
		if errors.Is(err, fleet.ErrNotFound) {
			writeError(w, http.StatusNotFound, "truck not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	truck, err := s.store.Get(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, truck)
}

type startDispatchRequest struct {
	TruckID   string                `json:"truck_id"`
	Breakdown model.BreakdownReport `json:"breakdown"`
}

func (s *Server) handleStartDispatch(w http.ResponseWriter, r *http.Request) {
	var req startDispatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TruckID == "" {
		writeError(w, http.StatusBadRequest, "truck_id is required")
		return
	}
	if err := req.Breakdown.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := s.dispatcher.Start(r.Context(), req.TruckID, req.Breakdown)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, d)
	case errors.Is(err, fleet.ErrNotFound):
		writeError(w, http.StatusNotFound, "truck not found")
	case errors.Is(err, dispatch.ErrTruckBusy):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.log.Errorf("start dispatch: %v", err)
		writeError(w, http.StatusBadGateway, "routing failed")
	}
}

func (s *Server) handleListDispatches(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dispatcher.List())
}

func (s *Server) handleGetDispatch(w http.ResponseWriter, r *http.Request) {
	d, err := s.dispatcher.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "dispatch not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleCancelDispatch(w http.ResponseWriter, r *http.Request) {
	err := s.dispatcher.Cancel(r.PathValue("id"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, dispatch.ErrNotFound):
		writeError(w, http.StatusNotFound, "dispatch not found")
	case errors.Is(err, dispatch.ErrFinished):
		writeError(w, http.StatusConflict, "dispatch already finished")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
