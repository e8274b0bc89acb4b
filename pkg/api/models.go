package api

// PointJSON is a map cell coordinate in JSON.
type PointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CreateSessionRequest is the JSON body for POST /api/v1/sessions. Zero
// fields take the server defaults.
type CreateSessionRequest struct {
	Width      int         `json:"width,omitempty"`
	Height     int         `json:"height,omitempty"`
	Cities     int         `json:"cities,omitempty"`
	Seed       *int64      `json:"seed,omitempty"`
	Evaluators []string    `json:"evaluators,omitempty"`
	Weights    []float64   `json:"weights,omitempty"`
	CityPoints []PointJSON `json:"city_points,omitempty"`
}

// StepRequest is the JSON body for POST /api/v1/sessions/{id}/step.
type StepRequest struct {
	Steps   int       `json:"steps,omitempty"`
	Weights []float64 `json:"weights,omitempty"`
}

// SegmentJSON represents a road segment in the response.
type SegmentJSON struct {
	From    PointJSON `json:"from"`
	To      PointJSON `json:"to"`
	Quality string    `json:"quality"`
	Level   int       `json:"level"`
	Length  float64   `json:"length"`
}

// SessionResponse is the JSON response describing a session's state.
type SessionResponse struct {
	ID         string        `json:"id"`
	Generation int           `json:"generation"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Evaluators []string      `json:"evaluators"`
	Costs      []float64     `json:"costs"`
	Weights    []float64     `json:"weights"`
	Weighted   float64       `json:"weighted_cost"`
	Cities     []PointJSON   `json:"cities"`
	Segments   []SegmentJSON `json:"segments"`
	Vertices   int           `json:"num_vertices"`
	Components int           `json:"num_components"`
	Largest    int           `json:"largest_component"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumSessions int `json:"num_sessions"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
