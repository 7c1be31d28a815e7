package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/parkhaus-cloud/parkhaus/internal/identity"
	"github.com/parkhaus-cloud/parkhaus/internal/platform/httpx"
)

// UsageRecorder forwards product events to the analytics pipeline. Recording
// is best effort; a failure never blocks the request.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, tenantID, action string) error
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	usage     UsageRecorder
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, usage UsageRecorder) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		usage:     usage,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/sign-in", h.handleSignIn)
	r.Post("/validate", h.handleValidate)
}

type signInRequest struct {
	TenantID string `json:"tenantId" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type signInResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.TenantID, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrUnavailable) {
			httpx.RespondError(w, err)
			return
		}
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
		return
	}
	token, err := h.service.IssueToken(user)
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if h.usage != nil {
		if err := h.usage.RecordUsage(r.Context(), user.TenantID, "auth.sign_in"); err != nil {
			h.logger.Warn("record usage", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusOK, signInResponse{Token: token, UserID: user.ID})
}

type validateResponse struct {
	UserID   string `json:"userId"`
	TenantID string `json:"tenantId"`
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
		return
	}
	claims, err := h.service.VerifyToken(token)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
		return
	}
	httpx.JSON(w, http.StatusOK, validateResponse{UserID: claims.Subject, TenantID: claims.TenantID})
}
