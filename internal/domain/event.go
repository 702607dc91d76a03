package domain

import "time"

// AnalysisEvent summarizes one analyzed batch for downstream consumers.
type AnalysisEvent struct {
	RequestID  string    `json:"request_id"`
	OK         bool      `json:"ok"`
	Status     string    `json:"status"`
	Files      int       `json:"files"`
	Staged     int       `json:"staged"`
	Succeeded  int       `json:"succeeded"`
	DurationMS int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}

const (
	EventStatusCompleted   = "completed"
	EventStatusNoValid     = "no_valid_images"
	EventStatusEngineError = "engine_error"
)

// ArchivedSample is an accepted upload kept for later model training.
type ArchivedSample struct {
	RequestID   string
	Seq         int
	Filename    string
	ContentType string
	Data        []byte
	OK          bool
	DamageTypes []string
}

var DamageLabels = []string{"crack", "moisture", "peeling_paint", "breakage"}
