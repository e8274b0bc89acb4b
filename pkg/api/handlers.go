package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/paulmach/orb"
	"gonum.org/v1/plot/vg"

	"roadgen/pkg/demand"
	"roadgen/pkg/evaluate"
	"roadgen/pkg/export"
	"roadgen/pkg/problem"
	"roadgen/pkg/session"
)

const (
	// maxSteps bounds the steps a single request may run.
	maxSteps   = 10000
	// maxMapSize bounds the width and height of a created map.
	maxMapSize = 1000
	// maxCities bounds the number of cities in a created session.
	maxCities  = 500
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	sessions Sessions
	defaults session.Config
}

// NewHandlers creates handlers over the given sessions. defaults fills the
// fields a create request leaves out.
func NewHandlers(sessions Sessions, defaults session.Config) *Handlers {
	return &Handlers{
		sessions: sessions,
		defaults: defaults,
	}
}

// HandleCreate handles POST /api/v1/sessions.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	cfg := h.defaults
	if req.Width != 0 {
		cfg.Width = req.Width
	}
	if req.Height != 0 {
		cfg.Height = req.Height
	}
	if req.Cities != 0 {
		cfg.Cities = req.Cities
	}
	if cfg.Width < 0 || cfg.Width > maxMapSize || cfg.Height < 0 || cfg.Height > maxMapSize {
		writeError(w, http.StatusUnprocessableEntity, "invalid_problem", "width")
		return
	}
	if cfg.Cities < 0 || cfg.Cities > maxCities || len(req.CityPoints) > maxCities {
		writeError(w, http.StatusUnprocessableEntity, "invalid_problem", "cities")
		return
	}

	opts := CreateOptions{Config: cfg, Weights: req.Weights}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	} else {
		opts.Seed = time.Now().UnixNano()
	}
	for _, name := range req.Evaluators {
		e, err := evaluate.Named(name)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "unknown_evaluator", "evaluators")
			return
		}
		opts.Evaluators = append(opts.Evaluators, e)
	}
	bound := problem.Description{Width: cfg.Width, Height: cfg.Height}.Bound()
	for _, p := range req.CityPoints {
		if err := validatePoint(p, bound); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_coordinates", "city_points")
			return
		}
		opts.Cities = append(opts.Cities, orb.Point{p.X, p.Y})
	}

	id, snap, err := h.sessions.Create(opts)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(id, snap))
}

// HandleGet handles GET /api/v1/sessions/{id}.
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	snap, err := h.sessions.Get(id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(id, snap))
}

// HandleStep handles POST /api/v1/sessions/{id}/step.
func (h *Handlers) HandleStep(w http.ResponseWriter, r *http.Request) {
	var req StepRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	if req.Steps == 0 {
		req.Steps = h.defaults.StepsPerTick
	}
	if req.Steps < 0 || req.Steps > maxSteps {
		writeError(w, http.StatusBadRequest, "invalid_steps", "steps")
		return
	}

	id := mux.Vars(r)["id"]
	snap, err := h.sessions.Step(r.Context(), id, req.Steps, req.Weights)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(id, snap))
}

// HandleSetCity handles PUT /api/v1/sessions/{id}/cities/{index}.
func (h *Handlers) HandleSetCity(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "index")
		return
	}

	var p PointJSON
	if !decodeJSON(w, r, &p, false) {
		return
	}

	snap, err := h.sessions.Get(vars["id"])
	if err != nil {
		writeSessionError(w, err)
		return
	}
	if err := validatePoint(p, snap.Bound); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "")
		return
	}

	snap, err = h.sessions.SetCity(vars["id"], index, orb.Point{p.X, p.Y})
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(vars["id"], snap))
}

// HandleReset handles POST /api/v1/sessions/{id}/reset.
func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	snap, err := h.sessions.Reset(id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(id, snap))
}

// HandleDelete handles DELETE /api/v1/sessions/{id}.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(mux.Vars(r)["id"]); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGeoJSON handles GET /api/v1/sessions/{id}/geojson.
func (h *Handlers) HandleGeoJSON(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		writeSessionError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	json.NewEncoder(w).Encode(export.GeoJSON(snap))
}

// HandlePNG handles GET /api/v1/sessions/{id}/png.
func (h *Handlers) HandlePNG(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		writeSessionError(w, err)
		return
	}

	width := 8 * vg.Inch
	height := width
	if snap.Width > 0 {
		height = width * vg.Length(snap.Height) / vg.Length(snap.Width)
	}
	var buf bytes.Buffer
	if err := export.WritePNG(&buf, snap, width, height); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatsResponse{NumSessions: h.sessions.Len()})
}

func toResponse(id string, snap session.Snapshot) SessionResponse {
	resp := SessionResponse{
		ID:         id,
		Generation: snap.Generation,
		Width:      snap.Width,
		Height:     snap.Height,
		Evaluators: snap.Evaluators,
		Costs:      snap.Costs,
		Weights:    snap.Weights,
		Weighted:   snap.Weighted,
		Cities:     make([]PointJSON, len(snap.Cities)),
		Segments:   make([]SegmentJSON, len(snap.Segments)),
		Vertices:   len(snap.Vertices),
		Components: snap.Components,
		Largest:    snap.LargestComponent,
	}
	for i, c := range snap.Cities {
		resp.Cities[i] = PointJSON{X: c[0], Y: c[1]}
	}
	for i, s := range snap.Segments {
		resp.Segments[i] = SegmentJSON{
			From:    PointJSON{X: s.From[0], Y: s.From[1]},
			To:      PointJSON{X: s.To[0], Y: s.To[1]},
			Quality: s.Quality.String(),
			Level:   int(s.Quality),
			Length:  s.Length(),
		}
	}
	return resp
}

// decodeJSON enforces the content type and decodes the body into v. When
// optional is set an empty body leaves v unchanged.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	if optional && r.ContentLength == 0 && r.Header.Get("Content-Type") == "" {
		return true
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return false
	}
	return true
}

func validatePoint(p PointJSON, bound orb.Bound) error {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
		return errors.New("coordinates must be finite numbers")
	}
	if !bound.Contains(orb.Point{p.X, p.Y}) {
		return errors.New("coordinates out of range")
	}
	return nil
}

// writeSessionError maps registry and domain errors to responses.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", "")
	case errors.Is(err, ErrTooManySessions):
		writeError(w, http.StatusTooManyRequests, "too_many_sessions", "")
	case errors.Is(err, evaluate.ErrInvalidWeights):
		writeError(w, http.StatusBadRequest, "invalid_weights", "weights")
	case errors.Is(err, problem.ErrCityIndex):
		writeError(w, http.StatusNotFound, "city_not_found", "index")
	case errors.Is(err, problem.ErrInvalidPoint):
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "")
	case errors.Is(err, problem.ErrInvalidSize),
		errors.Is(err, problem.ErrTooFewCities),
		errors.Is(err, problem.ErrNoEvaluators),
		errors.Is(err, demand.ErrNoDestinations):
		writeError(w, http.StatusUnprocessableEntity, "invalid_problem", "")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request_timeout", "")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	writeJSON(w, status, ErrorResponse{Error: code, Field: field})
}
