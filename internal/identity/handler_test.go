package identity

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memoryCredentials struct {
	passwords map[string]string
	removed   []string
}

func newMemoryCredentials() *memoryCredentials {
	return &memoryCredentials{passwords: make(map[string]string)}
}

func (c *memoryCredentials) SetPassword(ctx context.Context, userID, tenantID, email, password string) error {
	c.passwords[userID] = password
	return nil
}

func (c *memoryCredentials) RemoveCredential(ctx context.Context, userID string) error {
	c.removed = append(c.removed, userID)
	delete(c.passwords, userID)
	return nil
}

type denialCounter struct {
	operations []string
}

func (d *denialCounter) RecordAuthzDenial(operation string) {
	d.operations = append(d.operations, operation)
}

type handlerFixture struct {
	dir         *memoryDirectory
	credentials *memoryCredentials
	denials     *denialCounter
	router      chi.Router
}

func newHandlerFixture(t *testing.T, seed ...User) *handlerFixture {
	t.Helper()
	fx := &handlerFixture{
		dir:         newMemoryDirectory(seed...),
		credentials: newMemoryCredentials(),
		denials:     &denialCounter{},
	}
	handler := NewHandler(newTestLogger(), NewService(fx.dir), fx.credentials, fx.denials)
	fx.router = chi.NewRouter()
	fx.router.Route("/users", handler.MountRoutes)
	return fx
}

func (fx *handlerFixture) do(t *testing.T, actor *Principal, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if actor != nil {
		req = req.WithContext(ContextWithPrincipal(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRequiresPrincipal(t *testing.T) {
	fx := newHandlerFixture(t)
	rec := fx.do(t, nil, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerGetUserConflatesDenialWithNotFound(t *testing.T) {
	fx := newHandlerFixture(t, User{ID: "u1", Role: RoleTenantAdmin, TenantID: "T2", Email: "a@t2.example"})
	actor := principal(RoleTenantAdmin, "T1")

	rec := fx.do(t, &actor, http.MethodGet, "/users/u1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Empty(t, fx.denials.operations)
}

func TestHandlerGetUser(t *testing.T) {
	fx := newHandlerFixture(t, User{ID: "u1", Role: RoleCustomer, TenantID: "T1", Email: "c@t1.example", Name: "Customer"})
	actor := principal(RoleTenantAdmin, "T1")

	rec := fx.do(t, &actor, http.MethodGet, "/users/u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "u1", got.ID)
	require.Equal(t, int(RoleCustomer), got.Role)
	require.Equal(t, "T1", got.TenantID)
}

func TestHandlerListUsersTenantScoped(t *testing.T) {
	fx := newHandlerFixture(t,
		User{ID: "u1", Role: RoleCustomer, TenantID: "T1", Email: "a@t1.example"},
		User{ID: "u2", Role: RoleCustomer, TenantID: "T2", Email: "b@t2.example"},
	)
	actor := principal(RoleTenantAdmin, "T1")

	rec := fx.do(t, &actor, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, "u1", got[0].ID)
}

func TestHandlerListUsersDeniedRecordsDenial(t *testing.T) {
	fx := newHandlerFixture(t)
	actor := principal(RoleCustomer, "T1")

	rec := fx.do(t, &actor, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, []string{"users.list"}, fx.denials.operations)
}

func TestHandlerCreateUserStoresCredential(t *testing.T) {
	fx := newHandlerFixture(t)
	actor := principal(RoleTenantAdmin, "T1")

	rec := fx.do(t, &actor, http.MethodPost, "/users",
		`{"tenantId":"T1","role":400,"email":"new@t1.example","name":"New","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, int(RoleCustomer), got.Role)
	require.Equal(t, "s3cret-pass", fx.credentials.passwords[got.ID])
}

func TestHandlerCreateUserValidation(t *testing.T) {
	fx := newHandlerFixture(t)
	actor := principal(RoleTenantAdmin, "T1")

	rec := fx.do(t, &actor, http.MethodPost, "/users",
		`{"tenantId":"T1","role":400,"email":"not-an-email","name":"New","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = fx.do(t, &actor, http.MethodPost, "/users",
		`{"tenantId":"T1","role":123,"email":"new@t1.example","name":"New","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerUpdateUser(t *testing.T) {
	fx := newHandlerFixture(t, User{ID: "u1", Role: RoleCustomer, TenantID: "T1", Email: "c@t1.example", Name: "Old"})
	actor := principal(RoleTenantAdmin, "T1")

	rec := fx.do(t, &actor, http.MethodPut, "/users/u1", `{"name":"Renamed"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "Renamed", fx.dir.users["u1"].Name)
	require.Equal(t, "c@t1.example", fx.dir.users["u1"].Email)
}

func TestHandlerSetUserRole(t *testing.T) {
	fx := newHandlerFixture(t, User{ID: "u1", Role: RoleCustomer, TenantID: "T1", Email: "c@t1.example"})
	actor := principal(RoleTenantAdmin, "T1")

	rec := fx.do(t, &actor, http.MethodPut, "/users/u1/role", `{"role":300}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, RoleOperationalManager, fx.dir.users["u1"].Role)
}

func TestHandlerDeleteUserInsufficientRank(t *testing.T) {
	fx := newHandlerFixture(t, User{ID: "u1", Role: RoleTenantAdmin, TenantID: "T1", Email: "a@t1.example"})
	actor := principal(RoleOperationalManager, "T1")

	// GetUser already hides higher-privileged peers, so the delete surfaces
	// as 404 rather than 403.
	rec := fx.do(t, &actor, http.MethodDelete, "/users/u1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, fx.dir.users, "u1")
}

func TestHandlerDeleteUserRemovesCredential(t *testing.T) {
	fx := newHandlerFixture(t, User{ID: "u1", Role: RoleCustomer, TenantID: "T1", Email: "c@t1.example"})
	actor := principal(RoleTenantAdmin, "T1")

	rec := fx.do(t, &actor, http.MethodDelete, "/users/u1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotContains(t, fx.dir.users, "u1")
	require.Equal(t, []string{"u1"}, fx.credentials.removed)
}
