package registry

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/signup-go/validation"
)

func newTestRouter(t *testing.T) (*Registry, *chi.Mux) {
	t.Helper()
	service := NewRegistry(validation.DefaultRules())
	handlers := NewHandlers(service)

	router := chi.NewRouter()
	router.Route("/users", func(r chi.Router) {
		handlers.RegisterRoutes(r)
	})
	return service, router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

func TestHandleAddUser_Created(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/users", RegistrationForm{
		Username: "anna",
		Email:    "anna@example.com",
		Password: "longenough",
		Role:     "user",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp RegistrationResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.IsValid)
	assert.Empty(t, resp.Errors)
	require.NotNil(t, resp.Record)
	assert.NotEmpty(t, resp.Record.ID)
	assert.Equal(t, RoleUser, resp.Record.Role)
}

func TestHandleAddUser_ValidationFailure(t *testing.T) {
	service, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/users", RegistrationForm{
		Username: "ab",
		Email:    "not-an-email",
		Password: "short",
		Role:     "user",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp RegistrationResponse
	decodeBody(t, rec, &resp)
	assert.False(t, resp.IsValid)
	assert.Contains(t, resp.Errors, validation.FieldUsername)
	assert.Contains(t, resp.Errors, validation.FieldEmail)
	assert.Contains(t, resp.Errors, validation.FieldPassword)
	assert.Nil(t, resp.Record)
	assert.Empty(t, service.List())
}

func TestHandleAddUser_RejectsUnknownFields(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/users", map[string]interface{}{
		"username": "anna",
		"email":    "anna@example.com",
		"password": "longenough",
		"role":     "user",
		"is_admin": true,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListUsers_FilterQuery(t *testing.T) {
	service, router := newTestRouter(t)
	mustAdd(t, service, validForm("Anna", "admin"))
	mustAdd(t, service, validForm("Hannah", "user"))
	mustAdd(t, service, validForm("Bob", "user"))

	rec := doJSON(t, router, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []UserRecord
	decodeBody(t, rec, &all)
	assert.Len(t, all, 3)

	rec = doJSON(t, router, http.MethodGet, "/users?search=ann", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var matches []UserRecord
	decodeBody(t, rec, &matches)
	require.Len(t, matches, 2)
	assert.Equal(t, "Anna", matches[0].Username)
	assert.Equal(t, "Hannah", matches[1].Username)

	rec = doJSON(t, router, http.MethodGet, "/users?role=admin&search=ann", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	matches = nil
	decodeBody(t, rec, &matches)
	require.Len(t, matches, 1)
	assert.Equal(t, "Anna", matches[0].Username)
}

func TestHandleGetUser(t *testing.T) {
	service, router := newTestRouter(t)
	record := mustAdd(t, service, validForm("anna", "user"))

	rec := doJSON(t, router, http.MethodGet, "/users/"+record.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got UserRecord
	decodeBody(t, rec, &got)
	assert.Equal(t, record.ID, got.ID)

	rec = doJSON(t, router, http.MethodGet, "/users/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleUpdateUser(t *testing.T) {
	service, router := newTestRouter(t)
	record := mustAdd(t, service, validForm("anna", "user"))

	rec := doJSON(t, router, http.MethodPatch, "/users/"+record.ID, UpdateUserRequest{
		Username: strPtr("annabelle"),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp RegistrationResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.IsValid)
	require.NotNil(t, resp.Record)
	assert.Equal(t, "annabelle", resp.Record.Username)

	rec = doJSON(t, router, http.MethodPatch, "/users/"+record.ID, UpdateUserRequest{
		Username: strPtr("ab"),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPatch, "/users/no-such-id", UpdateUserRequest{
		Username: strPtr("annabelle"),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRemoveUser(t *testing.T) {
	service, router := newTestRouter(t)
	record := mustAdd(t, service, validForm("anna", "user"))

	rec := doJSON(t, router, http.MethodDelete, "/users/"+record.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, service.List())

	rec = doJSON(t, router, http.MethodDelete, "/users/"+record.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleClear(t *testing.T) {
	service, router := newTestRouter(t)
	mustAdd(t, service, validForm("anna", "user"))
	mustAdd(t, service, validForm("bob", "user"))

	rec := doJSON(t, router, http.MethodDelete, "/users", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, service.List())
}

func TestHandleStatistics(t *testing.T) {
	service, router := newTestRouter(t)
	mustAdd(t, service, validForm("anna", "user"))
	inactive := validForm("root", "admin")
	inactive.Active = boolPtr(false)
	mustAdd(t, service, inactive)

	rec := doJSON(t, router, http.MethodGet, "/users/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats Statistics
	decodeBody(t, rec, &stats)
	assert.Equal(t, Statistics{Total: 2, Active: 1, AdminCount: 1}, stats)
}

func TestHandlePermissions(t *testing.T) {
	service, router := newTestRouter(t)
	admin := mustAdd(t, service, validForm("root", "admin"))
	user := mustAdd(t, service, validForm("anna", "user"))

	rec := doJSON(t, router, http.MethodGet, "/users/"+admin.ID+"/permissions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp PermissionsResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, []Permission{PermissionDelete, PermissionRead, PermissionWrite}, resp.Permissions)

	rec = doJSON(t, router, http.MethodDelete, "/users/"+admin.ID+"/permissions/write", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/users/"+admin.ID+"/permissions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = PermissionsResponse{}
	decodeBody(t, rec, &resp)
	assert.Equal(t, []Permission{PermissionDelete, PermissionRead}, resp.Permissions)

	rec = doJSON(t, router, http.MethodPut, "/users/"+admin.ID+"/permissions/write", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Unknown permission names are rejected before touching the registry.
	rec = doJSON(t, router, http.MethodPut, "/users/"+admin.ID+"/permissions/execute", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Non-admin records have no permission set.
	rec = doJSON(t, router, http.MethodGet, "/users/"+user.ID+"/permissions", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/users/no-such-id/permissions", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
