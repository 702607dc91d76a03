package contact

import (
	"encoding/json"
	"errors"
	"net/http"

	"buildcheck/internal/http-server/handler/contact/dto"
	contact_uc "buildcheck/internal/usecase/contact"

	"github.com/wb-go/wbf/zlog"
)

const maxJSONBody = 64 << 10

type ContactHandler struct {
	usecase contactUsecase
	logger  *zlog.Zerolog
}

func NewContactHandler(usecase contactUsecase, logger *zlog.Zerolog) *ContactHandler {
	return &ContactHandler{
		usecase: usecase,
		logger:  logger,
	}
}

func (h *ContactHandler) Preflight(w http.ResponseWriter, r *http.Request) {
	setPublicCORS(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	setPublicCORS(w)

	var req *dto.ContactRequest
	if err := decodeJSON(w, r, &req); err != nil || req == nil {
		respondError(w, h.logger, http.StatusBadRequest, codeInvalidContact, msgExpectedJSON)
		return
	}

	entry, err := h.usecase.Submit(r.Context(), contact_uc.Submission{
		Name:    req.Name,
		Phone:   req.Phone,
		Message: req.Message,
	})
	if err != nil {
		h.handleSubmitError(w, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, dto.ContactResponse{OK: true, Item: entry})
}

func (h *ContactHandler) handleSubmitError(w http.ResponseWriter, err error) {
	var verr *contact_uc.ValidationError

	switch {
	case errors.As(err, &verr):
		respondError(w, h.logger, http.StatusBadRequest, codeInvalidContact, verr.Message)
	case errors.Is(err, contact_uc.ErrPersistence):
		respondError(w, h.logger, http.StatusInternalServerError, codePersistenceError, "Failed to persist contact submission")
	default:
		h.logger.Error().Err(err).Msg("Contact submission failed")
		respondError(w, h.logger, http.StatusInternalServerError, codeInternalError, "Internal server error")
	}
}

func setPublicCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return json.NewDecoder(r.Body).Decode(v)
}

func respondJSON(w http.ResponseWriter, logger *zlog.Zerolog, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, logger *zlog.Zerolog, status int, code, message string) {
	respondJSON(w, logger, status, dto.ErrorResponse{
		OK:    false,
		Error: dto.ErrorBody{Code: code, Message: message},
	})
}
