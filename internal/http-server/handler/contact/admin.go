package contact

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"buildcheck/internal/domain"
	"buildcheck/internal/http-server/handler/contact/dto"
	contact_uc "buildcheck/internal/usecase/contact"

	"github.com/wb-go/wbf/zlog"
)

const (
	HeaderAdminToken = "X-Admin-Token"

	loginMethods       = "POST, OPTIONS"
	loginHeaders       = "Content-Type"
	submissionsMethods = "GET, OPTIONS"
	submissionsHeaders = "Content-Type, " + HeaderAdminToken
)

type AdminOptions struct {
	AllowedOrigins []string
	CookieSecure   bool
}

type AdminHandler struct {
	contacts contactUsecase
	auth     adminAuth
	logger   *zlog.Zerolog
	opts     AdminOptions
}

func NewAdminHandler(contacts contactUsecase, auth adminAuth, logger *zlog.Zerolog, opts AdminOptions) *AdminHandler {
	origins := make([]string, 0, len(opts.AllowedOrigins))
	for _, o := range opts.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	opts.AllowedOrigins = origins

	return &AdminHandler{
		contacts: contacts,
		auth:     auth,
		logger:   logger,
		opts:     opts,
	}
}

func (h *AdminHandler) LoginPreflight(w http.ResponseWriter, r *http.Request) {
	h.setCORS(w, r, loginMethods, loginHeaders)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) SubmissionsPreflight(w http.ResponseWriter, r *http.Request) {
	h.setCORS(w, r, submissionsMethods, submissionsHeaders)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.setCORS(w, r, loginMethods, loginHeaders)

	if !h.auth.LoginConfigured() {
		respondError(w, h.logger, http.StatusServiceUnavailable, codeAdminNotConfigured, "Admin username/password not configured")
		return
	}

	var req *dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil || req == nil {
		respondError(w, h.logger, http.StatusBadRequest, codeBadRequest, msgExpectedJSON)
		return
	}

	sess, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, contact_uc.ErrAdminNotConfigured):
			respondError(w, h.logger, http.StatusServiceUnavailable, codeAdminNotConfigured, "Admin username/password not configured")
		case errors.Is(err, contact_uc.ErrUnauthorized):
			respondError(w, h.logger, http.StatusUnauthorized, codeUnauthorized, "Invalid credentials")
		case errors.Is(err, contact_uc.ErrPersistence):
			respondError(w, h.logger, http.StatusInternalServerError, codePersistenceError, "Failed to persist admin session")
		default:
			h.logger.Error().Err(err).Msg("Admin login failed")
			respondError(w, h.logger, http.StatusInternalServerError, codeInternalError, "Internal server error")
		}
		return
	}

	http.SetCookie(w, h.sessionCookie(r, sess.ID, int(domain.AdminSessionTTL.Seconds())))
	respondJSON(w, h.logger, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setCORS(w, r, loginMethods, loginHeaders)

	if err := h.auth.Logout(r.Context(), sessionID(r)); err != nil {
		respondError(w, h.logger, http.StatusInternalServerError, codePersistenceError, "Failed to persist admin session state")
		return
	}

	http.SetCookie(w, h.sessionCookie(r, "", -1))
	respondJSON(w, h.logger, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AdminHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	h.setCORS(w, r, submissionsMethods, submissionsHeaders)

	if err := h.auth.Authorize(r.Context(), sessionID(r), r.Header.Get(HeaderAdminToken)); err != nil {
		switch {
		case errors.Is(err, contact_uc.ErrAdminNotConfigured):
			respondError(w, h.logger, http.StatusServiceUnavailable, codeAdminNotConfigured, "Admin auth is not configured")
		default:
			respondError(w, h.logger, http.StatusUnauthorized, codeUnauthorized, "Unauthorized")
		}
		return
	}

	items, err := h.contacts.List(r.Context())
	if err != nil {
		respondError(w, h.logger, http.StatusInternalServerError, codePersistenceError, "Failed to load contact submissions")
		return
	}
	if items == nil {
		items = []domain.ContactEntry{}
	}

	respondJSON(w, h.logger, http.StatusOK, dto.SubmissionsResponse{OK: true, Items: items})
}

// sessionCookie builds the admin cookie; a negative maxAge expires it.
func (h *AdminHandler) sessionCookie(r *http.Request, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     domain.AdminSessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.opts.CookieSecure || strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https"),
	}
}

// setCORS echoes an allowed Origin with credentials. Requests without an
// Origin header are same-origin or non-browser and get '*'.
func (h *AdminHandler) setCORS(w http.ResponseWriter, r *http.Request, methods, headers string) {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		if h.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Add("Vary", "Origin")
	}
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", headers)
}

func (h *AdminHandler) originAllowed(origin string) bool {
	for _, allowed := range h.opts.AllowedOrigins {
		if subtle.ConstantTimeCompare([]byte(origin), []byte(allowed)) == 1 {
			return true
		}
	}
	return false
}

func sessionID(r *http.Request) string {
	c, err := r.Cookie(domain.AdminSessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}
