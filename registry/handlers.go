// HTTP handlers for the registry module. Handlers decode the request DTO,
// perform shape checks, delegate to the Registry, and encode the response.
package registry

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/signup-go/apperror"
)

// Handlers wraps the Registry to provide HTTP handlers.
type Handlers struct {
	service *Registry
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *Registry) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the registry API routes with a chi.Router.
// The router is expected to be mounted under /users.
func (h *Handlers) RegisterRoutes(router chi.Router) {
	router.Post("/", h.handleAddUser)
	router.Get("/", h.handleListUsers)
	router.Delete("/", h.handleClear)
	router.Get("/stats", h.handleStatistics)
	router.Get("/{id}", h.handleGetUser)
	router.Patch("/{id}", h.handleUpdateUser)
	router.Delete("/{id}", h.handleRemoveUser)
	router.Get("/{id}/permissions", h.handleListPermissions)
	router.Put("/{id}/permissions/{permission}", h.handleGrantPermission)
	router.Delete("/{id}/permissions/{permission}", h.handleRevokePermission)
}

// handleAddUser godoc
// @Summary Register a user
// @Description Validates the submitted form and stores a new user record on success.
// @Tags users
// @Accept json
// @Produce json
// @Param registrationForm body RegistrationForm true "Registration fields"
// @Success 201 {object} RegistrationResponse "Record created"
// @Failure 400 {object} RegistrationResponse "Per-field validation errors"
// @Router /users [post]
func (h *Handlers) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var form RegistrationForm
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&form); err != nil {
		WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
		return
	}
	defer r.Body.Close()

	record, result := h.service.Add(form)
	if !result.IsValid {
		writeJSON(w, http.StatusBadRequest, RegistrationResponse{Result: result})
		return
	}
	writeJSON(w, http.StatusCreated, RegistrationResponse{Result: result, Record: record})
}

// handleListUsers godoc
// @Summary List users
// @Description Returns records in insertion order, optionally filtered by role and a case-insensitive username search term. Both filters are ANDed.
// @Tags users
// @Produce json
// @Param role query string false "Role filter (admin, user, guest)"
// @Param search query string false "Username substring, case-insensitive"
// @Success 200 {array} UserRecord
// @Router /users [get]
func (h *Handlers) handleListUsers(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	search := r.URL.Query().Get("search")

	if role == "" && search == "" {
		writeJSON(w, http.StatusOK, h.service.List())
		return
	}
	writeJSON(w, http.StatusOK, h.service.Filter(role, search))
}

// handleStatistics godoc
// @Summary Registry statistics
// @Description Returns total, active, and admin record counts.
// @Tags users
// @Produce json
// @Success 200 {object} Statistics
// @Router /users/stats [get]
func (h *Handlers) handleStatistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Statistics())
}

// handleGetUser godoc
// @Summary Get a user record
// @Tags users
// @Produce json
// @Param id path string true "Record id"
// @Success 200 {object} UserRecord
// @Failure 404 {object} apperror.ErrorResponse
// @Router /users/{id} [get]
func (h *Handlers) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record, ok := h.service.Get(id)
	if !ok {
		WriteError(w, r, apperror.NewNotFoundError("user "+id+" not found", nil))
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// handleUpdateUser godoc
// @Summary Update a user record
// @Description Applies a partial merge of the supplied fields. Id and role are immutable.
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "Record id"
// @Param updateRequest body UpdateUserRequest true "Fields to merge"
// @Success 200 {object} RegistrationResponse
// @Failure 400 {object} RegistrationResponse "Per-field validation errors"
// @Failure 404 {object} apperror.ErrorResponse
// @Router /users/{id} [patch]
func (h *Handlers) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateUserRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
		return
	}
	defer r.Body.Close()

	record, result, found := h.service.Update(id, req)
	if !found {
		WriteError(w, r, apperror.NewNotFoundError("user "+id+" not found", nil))
		return
	}
	if !result.IsValid {
		writeJSON(w, http.StatusBadRequest, RegistrationResponse{Result: result})
		return
	}
	writeJSON(w, http.StatusOK, RegistrationResponse{Result: result, Record: record})
}

// handleRemoveUser godoc
// @Summary Remove a user record
// @Tags users
// @Param id path string true "Record id"
// @Success 204 "Record removed"
// @Failure 404 {object} apperror.ErrorResponse
// @Router /users/{id} [delete]
func (h *Handlers) handleRemoveUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.service.Remove(id) {
		WriteError(w, r, apperror.NewNotFoundError("user "+id+" not found", nil))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClear godoc
// @Summary Clear the registry
// @Description Removes every record and permission entry. Irreversible.
// @Tags users
// @Success 204 "Registry cleared"
// @Router /users [delete]
func (h *Handlers) handleClear(w http.ResponseWriter, r *http.Request) {
	h.service.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// handleListPermissions godoc
// @Summary List admin permissions
// @Tags permissions
// @Produce json
// @Param id path string true "Record id"
// @Success 200 {object} PermissionsResponse
// @Failure 400 {object} apperror.ErrorResponse "Record is not an admin"
// @Failure 404 {object} apperror.ErrorResponse
// @Router /users/{id}/permissions [get]
func (h *Handlers) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	perms, err := h.service.Permissions(id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PermissionsResponse{Permissions: perms})
}

// handleGrantPermission godoc
// @Summary Grant an admin permission
// @Description Adds the permission to the record's set. Granting an already-present permission is a no-op.
// @Tags permissions
// @Param id path string true "Record id"
// @Param permission path string true "Permission (read, write, delete)"
// @Success 204 "Permission present"
// @Failure 400 {object} apperror.ErrorResponse "Unknown permission or record is not an admin"
// @Failure 404 {object} apperror.ErrorResponse
// @Router /users/{id}/permissions/{permission} [put]
func (h *Handlers) handleGrantPermission(w http.ResponseWriter, r *http.Request) {
	h.handlePermissionChange(w, r, (*Registry).GrantPermission)
}

// handleRevokePermission godoc
// @Summary Revoke an admin permission
// @Description Removes the permission from the record's set. Revoking an absent permission is a no-op.
// @Tags permissions
// @Param id path string true "Record id"
// @Param permission path string true "Permission (read, write, delete)"
// @Success 204 "Permission absent"
// @Failure 400 {object} apperror.ErrorResponse "Unknown permission or record is not an admin"
// @Failure 404 {object} apperror.ErrorResponse
// @Router /users/{id}/permissions/{permission} [delete]
func (h *Handlers) handleRevokePermission(w http.ResponseWriter, r *http.Request) {
	h.handlePermissionChange(w, r, (*Registry).RevokePermission)
}

func (h *Handlers) handlePermissionChange(w http.ResponseWriter, r *http.Request, change func(*Registry, string, Permission) error) {
	id := chi.URLParam(r, "id")
	perm, ok := ParsePermission(chi.URLParam(r, "permission"))
	if !ok {
		WriteError(w, r, apperror.NewBadRequestError("unknown permission: "+chi.URLParam(r, "permission"), nil))
		return
	}
	if err := change(h.service, id, perm); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeJSON serializes data to JSON and writes it with the given status.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		}
	}
}

// WriteError uses the apperror system to write standardized error responses.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("an unexpected error occurred: "+err.Error(), err)
	}
	if appErr.StatusCode() >= http.StatusInternalServerError {
		logger.Error().Err(appErr).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, appErr.StatusCode(), appErr.ToResponse())
}
