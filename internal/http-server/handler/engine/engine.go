package engine

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	engineclient "buildcheck/internal/client/engine"
	"buildcheck/internal/http-server/handler/engine/dto"
	"buildcheck/internal/http-server/middleware"
	"buildcheck/internal/usecase/inspector"

	"github.com/wb-go/wbf/zlog"
)

const (
	serviceName = "engine"
	maxBody     = 1 << 20
)

type EngineHandler struct {
	usecase inspectUsecase
	limiter rateLimiter
	apiKey  string
	logger  *zlog.Zerolog
}

// NewEngineHandler builds the stub engine endpoints. A nil limiter disables
// rate limiting; an empty apiKey disables the key check.
func NewEngineHandler(usecase inspectUsecase, limiter rateLimiter, apiKey string, logger *zlog.Zerolog) *EngineHandler {
	return &EngineHandler{
		usecase: usecase,
		limiter: limiter,
		apiKey:  apiKey,
		logger:  logger,
	}
}

func (h *EngineHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, dto.HealthResponse{OK: true, Service: serviceName})
}

func (h *EngineHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rid := r.Header.Get(engineclient.HeaderRequestID)

	if h.apiKey != "" {
		got := r.Header.Get(engineclient.HeaderEngineKey)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.apiKey)) != 1 {
			h.logger.Warn().Str("request_id", rid).Msg("Rejected request with invalid engine key")
			h.respondError(w, http.StatusUnauthorized, "invalid engine key")
			return
		}
	}

	if h.limiter != nil {
		key := r.Header.Get(engineclient.HeaderRateLimitKey)
		if key == "" {
			key = middleware.ClientIP(r, false)
		}

		allowed, err := h.limiter.Allow(ctx, key)
		if err != nil {
			h.logger.Warn().Err(err).Str("request_id", rid).Msg("Rate limiter unavailable, letting request through")
		} else if !allowed {
			h.logger.Warn().Str("request_id", rid).Str("key", key).Msg("Rate limit exceeded")
			h.respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
	}

	var req dto.AnalyzeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Paths == nil {
		h.respondError(w, http.StatusBadRequest, inspector.ErrMissingPaths.Error())
		return
	}
	if rid == "" {
		rid = req.RequestID
	}

	results, err := h.usecase.Inspect(ctx, rid, req.Paths)
	if err != nil {
		h.handleInspectError(w, rid, err)
		return
	}

	ok := false
	for _, res := range results {
		if res.OK {
			ok = true
			break
		}
	}

	h.respondJSON(w, http.StatusOK, dto.AnalyzeResponse{OK: ok, Results: results})
}

func (h *EngineHandler) handleInspectError(w http.ResponseWriter, rid string, err error) {
	switch {
	case errors.Is(err, inspector.ErrMissingPaths):
		h.respondError(w, http.StatusBadRequest, inspector.ErrMissingPaths.Error())
	case errors.Is(err, inspector.ErrTooManyPaths):
		h.respondError(w, http.StatusBadRequest, inspector.ErrTooManyPaths.Error())
	default:
		h.logger.Error().Err(err).Str("request_id", rid).Msg("Inspection failed")
		h.respondError(w, http.StatusInternalServerError, "inspection failed")
	}
}

func (h *EngineHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *EngineHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, dto.ErrorResponse{OK: false, Error: message})
}
