package registry

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/user/signup-go/apperror"
	"github.com/user/signup-go/validation"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "registry").Logger()

// Registry is the in-memory store of validated user records plus the side
// map of admin permission sets, keyed by record id. The side map keeps
// role-specific capabilities out of the generic record type.
//
// All operations are atomic under the internal lock; reads hand out
// defensive copies so callers can never reach internal state. Ids are
// unique for the lifetime of the registry and never reused after removal.
type Registry struct {
	mu          sync.RWMutex
	rules       validation.Rules
	records     []UserRecord
	permissions map[string]*PermissionSet
}

// NewRegistry creates an empty registry applying the given validation rules.
func NewRegistry(rules validation.Rules) *Registry {
	return &Registry{
		rules:       rules,
		permissions: make(map[string]*PermissionSet),
	}
}

// Add validates the form and, on success, constructs and stores a new record.
// This is the only creation path: nothing is stored unless every field check
// passed, and no state is touched on failure. The role-dependent password
// rule is re-checked after the full validation pass so the commit path cannot
// admit a weak credential even if the composite check drifts.
//
// The returned record is a copy; the password is discarded here and is not
// part of it.
func (r *Registry) Add(form RegistrationForm) (*UserRecord, validation.Result) {
	result := r.rules.ValidateForm(validation.Form{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
		Role:     form.Role,
	})
	if !result.IsValid {
		return nil, result
	}

	if !r.rules.Password(form.Password, form.Role) {
		result.Fail(validation.FieldPassword, r.rules.PasswordMessage(form.Role))
		return nil, result
	}

	id, err := uuid.NewRandom()
	if err != nil {
		logger.Error().Err(err).Msg("failed to generate record id")
		result.Fail(validation.FieldGeneral, "failed to create user record")
		return nil, result
	}

	record := UserRecord{
		ID:        id.String(),
		Username:  form.Username,
		Email:     strings.ToLower(form.Email),
		Role:      Role(form.Role),
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if form.Active != nil {
		record.Active = *form.Active
	}
	if form.BirthDate != nil || form.Address != nil {
		profile := &Profile{}
		if form.BirthDate != nil {
			profile.BirthDate = *form.BirthDate
		}
		if form.Address != nil {
			profile.Address = *form.Address
		}
		record.Profile = profile
	}

	r.mu.Lock()
	r.records = append(r.records, record)
	if record.Role == RoleAdmin {
		r.permissions[record.ID] = DefaultAdminPermissions()
	}
	r.mu.Unlock()

	logger.Info().Str("id", record.ID).Str("role", string(record.Role)).Msg("user registered")

	out := record.clone()
	return &out, result
}

// Remove deletes the record with the given id and its permission entry.
// A miss is not an error; it simply reports false.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, rec := range r.records {
		if rec.ID == id {
			r.records = append(r.records[:i], r.records[i+1:]...)
			delete(r.permissions, id)
			logger.Info().Str("id", id).Msg("user removed")
			return true
		}
	}
	return false
}

// Get returns a copy of the record with the given id.
func (r *Registry) Get(id string) (*UserRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.ID == id {
			out := rec.clone()
			return &out, true
		}
	}
	return nil, false
}

// Update applies a partial merge to the record with the given id. Nil fields
// are left untouched; username and email are re-validated with the same rules
// as creation before anything is written. Id and role are immutable. The
// returned bool reports whether the record exists.
func (r *Registry) Update(id string, req UpdateUserRequest) (*UserRecord, validation.Result, bool) {
	result := validation.NewResult()
	if req.Username != nil && !r.rules.Username(*req.Username) {
		result.Fail(validation.FieldUsername, r.rules.UsernameMessage())
	}
	if req.Email != nil && !r.rules.Email(*req.Email) {
		result.Fail(validation.FieldEmail, r.rules.EmailMessage())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, rec := range r.records {
		if rec.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, result, false
	}
	if !result.IsValid {
		return nil, result, true
	}

	rec := &r.records[idx]
	if req.Username != nil {
		rec.Username = *req.Username
	}
	if req.Email != nil {
		rec.Email = strings.ToLower(*req.Email)
	}
	if req.Active != nil {
		rec.Active = *req.Active
	}
	if req.BirthDate != nil || req.Address != nil {
		if rec.Profile == nil {
			rec.Profile = &Profile{}
		}
		if req.BirthDate != nil {
			rec.Profile.BirthDate = *req.BirthDate
		}
		if req.Address != nil {
			rec.Profile.Address = *req.Address
		}
	}

	out := rec.clone()
	return &out, result, true
}

// List returns a snapshot of all records in insertion order. Mutating the
// returned slice or its profiles does not affect the registry.
func (r *Registry) List() []UserRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(func(UserRecord) bool { return true })
}

// Filter returns the records matching both criteria, in insertion order.
// An empty role matches every role; an empty search term matches every
// username. The username match is a case-insensitive substring check.
func (r *Registry) Filter(role string, searchTerm string) []UserRecord {
	search := strings.ToLower(searchTerm)

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(func(rec UserRecord) bool {
		if role != "" && rec.Role != Role(role) {
			return false
		}
		if search != "" && !strings.Contains(strings.ToLower(rec.Username), search) {
			return false
		}
		return true
	})
}

// snapshot copies the records accepted by keep. Callers must hold the lock.
func (r *Registry) snapshot(keep func(UserRecord) bool) []UserRecord {
	out := make([]UserRecord, 0, len(r.records))
	for _, rec := range r.records {
		if keep(rec) {
			out = append(out, rec.clone())
		}
	}
	return out
}

// Statistics returns the aggregate counts over the current records.
func (r *Registry) Statistics() Statistics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Statistics{Total: len(r.records)}
	for _, rec := range r.records {
		if rec.Active {
			stats.Active++
		}
		if rec.Role == RoleAdmin {
			stats.AdminCount++
		}
	}
	return stats
}

// Clear removes every record and permission entry. Irreversible.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = nil
	r.permissions = make(map[string]*PermissionSet)
	logger.Info().Msg("registry cleared")
}

// adminPermissions resolves the permission set for an admin record.
// Callers must hold the lock.
func (r *Registry) adminPermissions(id string) (*PermissionSet, error) {
	set, ok := r.permissions[id]
	if ok {
		return set, nil
	}
	for _, rec := range r.records {
		if rec.ID == id {
			return nil, apperror.NewBadRequestError(fmt.Sprintf("user %s is not an admin", id), nil)
		}
	}
	return nil, apperror.NewNotFoundError(fmt.Sprintf("user %s not found", id), nil)
}

// Permissions returns the sorted permission list of an admin record.
func (r *Registry) Permissions(id string) ([]Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, err := r.adminPermissions(id)
	if err != nil {
		return nil, err
	}
	return set.List(), nil
}

// GrantPermission adds a permission to an admin record. Granting an
// already-present permission is a no-op.
func (r *Registry) GrantPermission(id string, p Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, err := r.adminPermissions(id)
	if err != nil {
		return err
	}
	set.Grant(p)
	return nil
}

// RevokePermission removes a permission from an admin record. Revoking an
// absent permission is a no-op.
func (r *Registry) RevokePermission(id string, p Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, err := r.adminPermissions(id)
	if err != nil {
		return err
	}
	set.Revoke(p)
	return nil
}
