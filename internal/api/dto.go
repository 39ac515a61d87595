package api

import (
	"time"

	"brand-profiler/backend/internal/brand"
	"brand-profiler/backend/internal/pipeline"
	"brand-profiler/backend/internal/store"
)

// ScrapeRequest is the message a stream client sends to start a scrape.
type ScrapeRequest struct {
	URL string `json:"url"`
}

// ProfilesResponse is a page of stored profile summaries.
type ProfilesResponse struct {
	Items    []store.ProfileSummary `json:"items"`
	Total    int64                  `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"pageSize"`
}

// RuntimeFlags are the non-secret settings reported by /api/config.
type RuntimeFlags struct {
	AIEnabled       bool   `json:"ai_enabled"`
	AIProvider      string `json:"ai_provider"`
	RespectRobots   bool   `json:"respect_robots"`
	MatchImageNames bool   `json:"match_image_names"`
	StoreEnabled    bool   `json:"store_enabled"`
	RateLimited     bool   `json:"rate_limited"`
}

// Stream event types.
const (
	eventStage  = "stage"
	eventResult = "result"
	eventError  = "error"
)

// StreamEvent describes websocket payloads emitted during a scrape.
type StreamEvent struct {
	Type      string         `json:"type"`
	JobID     string         `json:"job_id"`
	Stage     string         `json:"stage,omitempty"`
	Message   string         `json:"message,omitempty"`
	ElapsedMs int64          `json:"elapsed_ms,omitempty"`
	Profile   *brand.Profile `json:"profile,omitempty"`
	ProfileID uint           `json:"profile_id,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func stageEvent(jobID string, e pipeline.Event) StreamEvent {
	return StreamEvent{
		Type:      eventStage,
		JobID:     jobID,
		Stage:     e.Stage,
		Message:   e.Message,
		ElapsedMs: e.ElapsedMs,
	}
}
