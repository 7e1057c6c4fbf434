package api

import (
	"lead-scoring/backend/internal/model"
)

// OfferResponse echoes the stored offer.
type OfferResponse struct {
	Status string      `json:"status"`
	Offer  model.Offer `json:"offer"`
}

// UploadResponse reports the lead collection after an upload.
type UploadResponse struct {
	Status string       `json:"status"`
	Count  int          `json:"count"`
	Leads  []model.Lead `json:"leads"`
}

// LeadsResponse lists every uploaded lead.
type LeadsResponse struct {
	Count int          `json:"count"`
	Leads []model.Lead `json:"leads"`
}

// ScoreResponse summarises a completed scoring run.
type ScoreResponse struct {
	Status     string `json:"status"`
	Count      int    `json:"count"`
	RunID      string `json:"run_id"`
	Fallbacks  int    `json:"fallbacks"`
	DurationMs int64  `json:"duration_ms"`
}

// ConfigResponse exposes non-secret runtime settings.
type ConfigResponse struct {
	Store       string `json:"store"`
	Model       string `json:"model"`
	AIEnabled   bool   `json:"ai_enabled"`
	Concurrency int    `json:"concurrency"`
}
