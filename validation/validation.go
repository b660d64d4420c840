// Package validation contains the pure field-validation rules applied to
// registration data before a record is admitted to the registry. All checks
// are side-effect free; failures are reported as data, never as errors.
package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Stable field identifiers used as keys in Result.Errors. Clients rely on
// these to attach messages to the matching form controls.
const (
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldRole     = "role"
	// FieldGeneral carries failures that cannot be attributed to a single field,
	// such as an unexpected record-construction failure.
	FieldGeneral = "general"
)

// adminRole is the role name that triggers the stricter password threshold.
const adminRole = "admin"

// validRoles enumerates the accepted role values.
var validRoles = map[string]bool{
	"admin": true,
	"user":  true,
	"guest": true,
}

// emailPattern is a deliberately permissive shape check, not RFC validation:
// non-space/non-@ local part, "@", non-space/non-@ domain, ".", non-space tail.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s]+$`)

// Rules carries the configurable length limits. The zero value is unusable;
// construct via DefaultRules or from config.
type Rules struct {
	UsernameMinLength      int
	UsernameMaxLength      int
	PasswordMinLength      int
	AdminPasswordMinLength int
}

// DefaultRules returns the documented limits: usernames of 3-20 characters,
// passwords of at least 8 characters, 12 for admins.
func DefaultRules() Rules {
	return Rules{
		UsernameMinLength:      3,
		UsernameMaxLength:      20,
		PasswordMinLength:      8,
		AdminPasswordMinLength: 12,
	}
}

// Form is the raw field input checked by ValidateForm.
type Form struct {
	Username string
	Email    string
	Password string
	Role     string
}

// Result is the outcome of a validation pass. IsValid is true iff Errors is
// empty; Errors maps field identifiers to one human-readable message each.
type Result struct {
	IsValid bool              `json:"is_valid"`
	Errors  map[string]string `json:"errors"`
}

// NewResult returns a valid Result with an initialized, empty error map.
// The map is always non-nil so callers and JSON encoding see {} rather than null.
func NewResult() Result {
	return Result{IsValid: true, Errors: map[string]string{}}
}

// Fail records a message for the given field and marks the result invalid.
// Only the first message per field is kept.
func (r *Result) Fail(field, message string) {
	if _, exists := r.Errors[field]; exists {
		return
	}
	r.Errors[field] = message
	r.IsValid = false
}

// Username reports whether s has an acceptable rune length.
func (ru Rules) Username(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= ru.UsernameMinLength && n <= ru.UsernameMaxLength
}

// Email reports whether s matches the permissive local@domain.tld shape.
func (ru Rules) Email(s string) bool {
	return emailPattern.MatchString(s)
}

// Password reports whether s meets the minimum length for the given role.
// Admins are held to the stricter threshold.
func (ru Rules) Password(s, role string) bool {
	return utf8.RuneCountInString(s) >= ru.passwordMinFor(role)
}

func (ru Rules) passwordMinFor(role string) int {
	if role == adminRole {
		return ru.AdminPasswordMinLength
	}
	return ru.PasswordMinLength
}

// UsernameMessage returns the user-facing message for a username failure.
func (ru Rules) UsernameMessage() string {
	return fmt.Sprintf("username must be between %d and %d characters", ru.UsernameMinLength, ru.UsernameMaxLength)
}

// EmailMessage returns the user-facing message for an email failure.
func (ru Rules) EmailMessage() string {
	return "email must look like local@domain.tld"
}

// PasswordMessage returns the user-facing message for a password failure,
// reflecting the role-dependent threshold.
func (ru Rules) PasswordMessage(role string) string {
	return fmt.Sprintf("password must be at least %d characters", ru.passwordMinFor(role))
}

// RoleMessage returns the user-facing message for an unknown role value.
func (ru Rules) RoleMessage() string {
	return "role must be one of admin, user, guest"
}

// ValidRole reports whether role is one of the accepted values.
func ValidRole(role string) bool {
	return validRoles[role]
}

// ValidateForm runs every field check against the form and collects one
// message per failing field. It never panics and always returns a complete
// Result. The password threshold follows the submitted role; an unknown role
// is itself a failure and falls back to the ordinary threshold.
func (ru Rules) ValidateForm(f Form) Result {
	result := NewResult()

	if !ru.Username(f.Username) {
		result.Fail(FieldUsername, ru.UsernameMessage())
	}
	if !ru.Email(f.Email) {
		result.Fail(FieldEmail, ru.EmailMessage())
	}
	if !ValidRole(f.Role) {
		result.Fail(FieldRole, ru.RoleMessage())
	}
	if !ru.Password(f.Password, f.Role) {
		result.Fail(FieldPassword, ru.PasswordMessage(f.Role))
	}

	return result
}
