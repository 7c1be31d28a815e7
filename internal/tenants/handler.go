package tenants

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/parkhaus-cloud/parkhaus/internal/identity"
	"github.com/parkhaus-cloud/parkhaus/internal/platform/httpx"
)

// Handler manages tenant endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers authenticated tenant routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listTenants)
	r.Post("/", h.createTenant)
	r.Get("/{id}", h.getTenant)
}

// MountPublicRoutes registers the unauthenticated login-routing lookup.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/tenants/resolve", h.resolveRouting)
}

type tenantResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Subdomain string `json:"subdomain"`
}

func toTenantResponse(t Tenant) tenantResponse {
	return tenantResponse{ID: t.ID, Name: t.Name, Type: t.Type, Subdomain: t.Subdomain}
}

type createTenantRequest struct {
	Name          string `json:"name" validate:"required"`
	Type          string `json:"type" validate:"required"`
	Subdomain     string `json:"subdomain" validate:"required,hostname"`
	AdminEmail    string `json:"adminEmail" validate:"required,email"`
	AdminName     string `json:"adminName" validate:"required"`
	AdminPassword string `json:"adminPassword" validate:"required,min=8"`
}

func (h *Handler) createTenant(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	var req createTenantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	tenant, err := h.service.CreateTenant(r.Context(), actor, CreateTenantData{
		Name:          req.Name,
		Type:          req.Type,
		Subdomain:     req.Subdomain,
		AdminEmail:    req.AdminEmail,
		AdminName:     req.AdminName,
		AdminPassword: req.AdminPassword,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTenantResponse(tenant))
}

func (h *Handler) listTenants(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	tenants, err := h.service.ListTenants(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]tenantResponse, len(tenants))
	for i, t := range tenants {
		out[i] = toTenantResponse(t)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getTenant(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	tenant, err := h.service.GetTenant(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTenantResponse(tenant))
}

type resolveRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) resolveRouting(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	routing, err := h.service.ResolveRouting(r.Context(), req.Email)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, routing)
}
