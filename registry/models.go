// Package registry holds the in-memory store of validated user records and
// the operations on it: add, remove, update, list, filter, statistics, clear,
// and the admin permission extension kept beside the records.
package registry

import "time"

// Role classifies a user record. Role-specific behavior (the stricter admin
// password threshold, the admin permission set) keys off this value instead
// of subtyping the record.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// Profile carries the optional registration extras. It is attached to a
// record only when at least one field was supplied at creation.
type Profile struct {
	BirthDate string `json:"birth_date,omitempty"`
	Address   string `json:"address,omitempty"`
}

// UserRecord is a stored user entity. The credential checked at registration
// is never part of the record; it is discarded after validation.
type UserRecord struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	Profile   *Profile  `json:"profile,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// clone returns a copy detached from registry state, including the profile
// sub-object, so callers can mutate the result freely.
func (u UserRecord) clone() UserRecord {
	c := u
	if u.Profile != nil {
		p := *u.Profile
		c.Profile = &p
	}
	return c
}
