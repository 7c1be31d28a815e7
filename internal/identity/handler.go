package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/parkhaus-cloud/parkhaus/internal/platform/httpx"
)

// CredentialStore lets the handler keep stored credentials in step with user
// lifecycle changes without importing the auth package.
type CredentialStore interface {
	SetPassword(ctx context.Context, userID, tenantID, email, password string) error
	RemoveCredential(ctx context.Context, userID string) error
}

// DenialRecorder counts denied operations for observability.
type DenialRecorder interface {
	RecordAuthzDenial(operation string)
}

// Handler manages user management endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	credentials CredentialStore
	denials     DenialRecorder
	validator   *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, credentials CredentialStore, denials DenialRecorder) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		credentials: credentials,
		denials:     denials,
		validator:   validator.New(),
	}
}

// MountRoutes registers user routes. The principal middleware must already be
// installed on the parent router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Post("/", h.createUser)
	r.Get("/{id}", h.getUser)
	r.Put("/{id}", h.updateUser)
	r.Put("/{id}/role", h.setUserRole)
	r.Delete("/{id}", h.deleteUser)
}

type userResponse struct {
	ID       string `json:"id"`
	Role     int    `json:"role"`
	TenantID string `json:"tenantId"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:       u.ID,
		Role:     int(u.Role),
		TenantID: u.TenantID,
		Email:    u.Email,
		Name:     u.Name,
	}
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	user, err := h.service.GetUser(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "users.get", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	users, err := h.service.ListUsers(r.Context(), actor)
	if err != nil {
		h.respondError(w, "users.list", err)
		return
	}
	out := make([]userResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	httpx.JSON(w, http.StatusOK, out)
}

type createUserRequest struct {
	TenantID string `json:"tenantId" validate:"required"`
	Role     int    `json:"role" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := FromNumber(req.Role)
	if err != nil {
		h.respondError(w, "users.create", err)
		return
	}
	user, err := h.service.CreateUser(r.Context(), actor, NewUserData{
		TenantID: req.TenantID,
		Role:     role,
		Email:    req.Email,
		Name:     req.Name,
	})
	if err != nil {
		h.respondError(w, "users.create", err)
		return
	}
	if h.credentials != nil {
		if err := h.credentials.SetPassword(r.Context(), user.ID, user.TenantID, user.Email, req.Password); err != nil {
			h.logger.Error("store credential", slog.String("user", user.ID), slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusCreated, toUserResponse(user))
}

type updateUserRequest struct {
	Role  *int    `json:"role"`
	Email *string `json:"email" validate:"omitempty,email"`
	Name  *string `json:"name"`
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	var req updateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	changes := EditUserData{Email: req.Email, Name: req.Name}
	if req.Role != nil {
		role, err := FromNumber(*req.Role)
		if err != nil {
			h.respondError(w, "users.update", err)
			return
		}
		changes.Role = &role
	}
	current, err := h.service.GetUser(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "users.update", err)
		return
	}
	if err := h.service.UpdateUser(r.Context(), actor, current, changes); err != nil {
		h.respondError(w, "users.update", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setRoleRequest struct {
	Role int `json:"role" validate:"required"`
}

func (h *Handler) setUserRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	var req setRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	role, err := FromNumber(req.Role)
	if err != nil {
		h.respondError(w, "users.set_role", err)
		return
	}
	target, err := h.service.GetUser(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "users.set_role", err)
		return
	}
	if err := h.service.SetUserRole(r.Context(), actor, target, role); err != nil {
		h.respondError(w, "users.set_role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	target, err := h.service.GetUser(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "users.delete", err)
		return
	}
	if err := h.service.DeleteUser(r.Context(), actor, target); err != nil {
		h.respondError(w, "users.delete", err)
		return
	}
	if h.credentials != nil {
		if err := h.credentials.RemoveCredential(r.Context(), target.ID); err != nil {
			h.logger.Warn("remove credential", slog.String("user", target.ID), slog.Any("error", err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, operation string, err error) {
	if errors.Is(err, ErrUnauthorized) && h.denials != nil {
		h.denials.RecordAuthzDenial(operation)
	}
	httpx.RespondError(w, err)
}
