package dto

import "buildcheck/internal/domain"

type AnalyzeResponse struct {
	OK        bool          `json:"ok"`
	RequestID string        `json:"request_id"`
	Results   []ImageResult `json:"results"`
}

// ImageResult carries the assessment fields only for images the engine
// approved.
type ImageResult struct {
	Filename string `json:"filename"`
	OK       bool   `json:"ok"`
	*Assessment
	Error string `json:"error,omitempty"`
}

type Assessment struct {
	DamageTypes []string `json:"damage_types"`
	CostMin     int      `json:"cost_min"`
	CostMax     int      `json:"cost_max"`
}

type ErrorResponse struct {
	OK        bool      `json:"ok"`
	RequestID string    `json:"request_id"`
	Error     ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func FromBatch(resp *domain.BatchResponse) AnalyzeResponse {
	out := AnalyzeResponse{
		OK:        resp.OK,
		RequestID: resp.RequestID,
		Results:   make([]ImageResult, 0, len(resp.Results)),
	}

	for _, r := range resp.Results {
		item := ImageResult{Filename: r.Filename, OK: r.OK}
		if r.OK {
			labels := r.DamageTypes
			if labels == nil {
				labels = []string{}
			}
			item.Assessment = &Assessment{DamageTypes: labels, CostMin: r.CostMin, CostMax: r.CostMax}
		} else {
			item.Error = r.Error
		}
		out.Results = append(out.Results, item)
	}

	return out
}
