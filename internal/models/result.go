package models

import (
	"time"

	"jobly/cv-analyzer/internal/scoring"
)

type AnalysisPayload struct {
	AnalysisID string `json:"analysis_id,omitempty"`
	scoring.ScoreReport
	AnalyzedAt *time.Time `json:"analyzed_at,omitempty"`
}

type AnalyzeResponse struct {
	Success  bool            `json:"success"`
	Cached   bool            `json:"cached"`
	Analysis AnalysisPayload `json:"analysis"`
}

type HistoryItem struct {
	AnalysisPayload
	Cached bool `json:"cached"`
}

type HistoryResponse struct {
	Success bool          `json:"success"`
	History []HistoryItem `json:"history"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Error   string `json:"error"`
}
