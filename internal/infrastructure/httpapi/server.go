// Package httpapi serves the planning pipeline over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/metrics"
	"github.com/Sahithiv25/InsightMiner/internal/ports"
)

// Response headers carrying plan provenance.
const (
	HeaderPlanner = "X-Planner"
	HeaderPlanID  = "X-Plan-ID"
)

const maxBodyBytes = 64 * 1024

// Planner is the orchestrator the server delegates to.
type Planner interface {
	Plan(context.Context, domain.PlanRequest) (domain.PlanResult, error)
}

// Server wires handlers to the planning services.
type Server struct {
	Planner        Planner
	Validator      ports.SQLValidator
	Catalog        ports.KPICatalog
	Metrics        *metrics.Recorder
	Logger         ports.Logger
	AllowedOrigins []string
}

type planRequest struct {
	Question   string   `json:"question"`
	Start      string   `json:"start,omitempty"`
	End        string   `json:"end,omitempty"`
	Dimensions []string `json:"dimensions,omitempty"`
	Mode       string   `json:"mode,omitempty"`
}

type validateRequest struct {
	SQL string `json:"sql"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if s.Metrics != nil {
		r.Use(s.Metrics.Middleware)
	}
	if len(s.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{HeaderPlanner, HeaderPlanID},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/plan", s.handlePlan)
	r.Post("/validate", s.handleValidate)
	r.Get("/kpis", s.handleKPIs)
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics.Handler())
	}
	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("http server listening", map[string]interface{}{"addr": addr})
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.Logger.Info("http server shutting down", nil)
		return server.Shutdown(shutdownCtx)
	}
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var body planRequest
	if err := decode(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	result, err := s.Planner.Plan(r.Context(), domain.PlanRequest{
		Question:   body.Question,
		Start:      body.Start,
		End:        body.End,
		Dimensions: body.Dimensions,
		Mode:       domain.Mode(body.Mode),
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidRequest) {
			status = http.StatusBadRequest
		} else {
			s.Logger.Error("plan failed", err, map[string]interface{}{"request_id": middleware.GetReqID(r.Context())})
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	w.Header().Set(HeaderPlanner, string(result.Meta.Provenance()))
	w.Header().Set(HeaderPlanID, result.Meta.ID)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var body validateRequest
	if err := decode(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.Validator.Validate(body.SQL))
}

func (s *Server) handleKPIs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"kpis":       s.Catalog.KPIs(),
		"dimensions": s.Catalog.Dimensions(),
	})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
