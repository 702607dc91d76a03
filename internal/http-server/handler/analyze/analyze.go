package analyze

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"buildcheck/internal/client/engine"
	"buildcheck/internal/domain"
	"buildcheck/internal/http-server/handler/analyze/dto"
	"buildcheck/internal/http-server/middleware"
	analyze_uc "buildcheck/internal/usecase/analyze"

	"github.com/wb-go/wbf/zlog"
)

const (
	imagesField      = "images"
	defaultMaxMemory = 32 << 20
)

type Options struct {
	PayloadMaxBytes    int64
	MultipartMaxMemory int64
	TrustProxyHeaders  bool
}

type AnalyzeHandler struct {
	usecase analyzeUsecase
	logger  *zlog.Zerolog
	opts    Options
}

func NewAnalyzeHandler(usecase analyzeUsecase, logger *zlog.Zerolog, opts Options) *AnalyzeHandler {
	if opts.PayloadMaxBytes <= 0 {
		opts.PayloadMaxBytes = domain.DefaultPayloadMaxBytes
	}
	if opts.MultipartMaxMemory <= 0 {
		opts.MultipartMaxMemory = defaultMaxMemory
	}
	return &AnalyzeHandler{
		usecase: usecase,
		logger:  logger,
		opts:    opts,
	}
}

func (h *AnalyzeHandler) Preflight(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rid := middleware.RequestID(ctx)
	setCORS(w)

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		h.respondError(w, rid, http.StatusUnsupportedMediaType, codeUnsupportedMediaType, "Expected multipart/form-data")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.PayloadMaxBytes)
	if err := r.ParseMultipartForm(h.opts.MultipartMaxMemory); err != nil {
		if isTooLarge(err) {
			h.logger.Warn().Str("request_id", rid).Int64("limit", h.opts.PayloadMaxBytes).Msg("Payload too large")
			h.respondError(w, rid, http.StatusRequestEntityTooLarge, codePayloadTooLarge,
				fmt.Sprintf("Request body exceeds %d bytes", h.opts.PayloadMaxBytes))
			return
		}
		h.logger.Warn().Err(err).Str("request_id", rid).Msg("Failed to parse multipart form")
		h.respondError(w, rid, http.StatusBadRequest, codeInvalidMultipart, "Invalid multipart body")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Warn().Err(err).Str("request_id", rid).Msg("Failed to remove multipart temp files")
		}
	}()

	files := r.MultipartForm.File[imagesField]
	if len(files) == 0 {
		h.respondError(w, rid, http.StatusBadRequest, codeMissingField, "Field 'images' is required")
		return
	}
	if limit := h.usecase.MaxFiles(); len(files) > limit {
		h.respondError(w, rid, http.StatusBadRequest, codeTooManyFiles,
			fmt.Sprintf("Too many files: %d (max %d)", len(files), limit))
		return
	}

	images, err := readImages(files)
	if err != nil {
		h.logger.Error().Err(err).Str("request_id", rid).Msg("Failed to read uploaded file")
		h.respondError(w, rid, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}

	resp, err := h.usecase.Analyze(ctx, rid, middleware.ClientIP(r, h.opts.TrustProxyHeaders), images)
	if err != nil {
		h.handleAnalyzeError(w, rid, err)
		return
	}

	status := http.StatusOK
	if !resp.OK {
		status = http.StatusUnprocessableEntity
	}
	h.respondJSON(w, status, dto.FromBatch(resp))
}

// readImages reads at most one byte past the per-image ceiling, enough for
// the validator to see that a file is too large.
func readImages(files []*multipart.FileHeader) ([]domain.UploadedImage, error) {
	images := make([]domain.UploadedImage, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %q: %w", fh.Filename, err)
		}

		data, err := io.ReadAll(io.LimitReader(f, domain.MaxImageBytes+1))
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", fh.Filename, err)
		}

		images = append(images, domain.UploadedImage{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return images, nil
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

func (h *AnalyzeHandler) handleAnalyzeError(w http.ResponseWriter, rid string, err error) {
	var dispatchErr *engine.DispatchError

	switch {
	case errors.Is(err, analyze_uc.ErrNoImages):
		h.respondError(w, rid, http.StatusBadRequest, codeMissingField, "Field 'images' is required")
	case errors.Is(err, analyze_uc.ErrTooManyFiles):
		h.respondError(w, rid, http.StatusBadRequest, codeTooManyFiles, "Too many files")
	case errors.As(err, &dispatchErr):
		h.logger.Error().
			Err(err).
			Str("request_id", rid).
			Str("kind", dispatchErr.Kind.String()).
			Int("engine_status", dispatchErr.StatusCode).
			Msg("Engine call failed")
		h.respondError(w, rid, http.StatusBadGateway, codeEngineError, dispatchErr.Message())
	default:
		h.logger.Error().Err(err).Str("request_id", rid).Msg("Analyze failed")
		h.respondError(w, rid, http.StatusInternalServerError, codeInternalError, "Internal server error")
	}
}

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func (h *AnalyzeHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *AnalyzeHandler) respondError(w http.ResponseWriter, rid string, status int, code, message string) {
	h.respondJSON(w, status, dto.ErrorResponse{
		OK:        false,
		RequestID: rid,
		Error:     dto.ErrorBody{Code: code, Message: message},
	})
}
