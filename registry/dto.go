// Data transfer objects for the registry module: request payloads accepted by
// the HTTP handlers and response shapes returned to clients.
package registry

import "github.com/user/signup-go/validation"

// RegistrationForm is the raw field input for creating a record. The password
// is used once for validation and discarded; it is never echoed back.
// Pointer fields distinguish "not supplied" from zero values.
type RegistrationForm struct {
	Username  string  `json:"username" example:"newuser"`
	Email     string  `json:"email" example:"user@example.com"`
	Password  string  `json:"password" example:"strongpassword123"`
	Role      string  `json:"role" example:"user"`
	Active    *bool   `json:"active,omitempty"`
	BirthDate *string `json:"birth_date,omitempty" example:"1990-04-01"`
	Address   *string `json:"address,omitempty" example:"12 Main St"`
}

// UpdateUserRequest is the partial-merge payload for updating a record.
// Nil fields are left untouched. The id and role of a record are immutable.
type UpdateUserRequest struct {
	Username  *string `json:"username,omitempty"`
	Email     *string `json:"email,omitempty"`
	Active    *bool   `json:"active,omitempty"`
	BirthDate *string `json:"birth_date,omitempty"`
	Address   *string `json:"address,omitempty"`
}

// RegistrationResponse pairs the validation outcome with the affected record.
// On failure the record is absent and Errors names each offending field.
type RegistrationResponse struct {
	validation.Result
	Record *UserRecord `json:"record,omitempty"`
}

// Statistics is the fixed-shape aggregate over the current records.
type Statistics struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	AdminCount int `json:"admin_count"`
}

// PermissionsResponse lists an admin's current permissions in sorted order.
type PermissionsResponse struct {
	Permissions []Permission `json:"permissions"`
}
