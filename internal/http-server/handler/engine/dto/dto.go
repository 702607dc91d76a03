package dto

import "buildcheck/internal/usecase/inspector"

type AnalyzeRequest struct {
	RequestID string   `json:"request_id"`
	Paths     []string `json:"paths"`
}

type AnalyzeResponse struct {
	OK      bool               `json:"ok"`
	Results []inspector.Result `json:"results"`
}

type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
}
