package mapi

import (
	"time"

	"github.com/parla-ai/mapi-client/internal/constants"
)

// Resource represents the base structure for management API objects. The
// server keys objects by Mongo-style "_id" identifiers.
type Resource struct {
	ID        string    `json:"_id"       yaml:"id"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
}

// ListResponse represents an aggregated list response. Items are concatenated
// across pages in fetch order; cursor fields reflect the last fetched page.
type ListResponse[T any] struct {
	Items          []T     `json:"items"                    yaml:"items"`
	Total          int     `json:"total,omitempty"          yaml:"total,omitempty"`
	NextCursor     *string `json:"nextCursor,omitempty"     yaml:"next_cursor,omitempty"`
	PreviousCursor *string `json:"previousCursor,omitempty" yaml:"previous_cursor,omitempty"`
}

// User represents a platform user account.
type User struct {
	Resource `yaml:",inline"`

	Email       string     `json:"email"                 yaml:"email"`
	Name        string     `json:"name,omitempty"        yaml:"name,omitempty"`
	Roles       []string   `json:"roles,omitempty"       yaml:"roles,omitempty"`
	Active      bool       `json:"active,omitempty"      yaml:"active,omitempty"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" yaml:"last_login_at,omitempty"`
}

// IsAdmin reports whether the user carries the administrator role.
func (u *User) IsAdmin() bool {
	for _, role := range u.Roles {
		if role == constants.AdminRole {
			return true
		}
	}

	return false
}

// Organisation represents a platform organisation.
type Organisation struct {
	Resource `yaml:",inline"`

	Name     string `json:"name"               yaml:"name"`
	Disabled bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// AuditEvent represents one entry from the audit log. Events are immutable,
// so they carry a single timestamp instead of created/updated pairs.
type AuditEvent struct {
	ID           string                 `json:"_id"                    yaml:"id"`
	Type         string                 `json:"type"                   yaml:"type"`
	Timestamp    time.Time              `json:"timestamp"              yaml:"timestamp"`
	User         string                 `json:"user,omitempty"         yaml:"user,omitempty"`
	Organisation string                 `json:"organisation,omitempty" yaml:"organisation,omitempty"`
	IPAddress    string                 `json:"ipAddress,omitempty"    yaml:"ip_address,omitempty"`
	Payload      map[string]interface{} `json:"payload,omitempty"      yaml:"payload,omitempty"`
}

// Project represents a platform project.
type Project struct {
	Resource `yaml:",inline"`

	Name         string `json:"name"                   yaml:"name"`
	Organisation string `json:"organisation,omitempty" yaml:"organisation,omitempty"`
}

// APIKey represents an API key minted through the management surface.
// Temporary super keys are valid for fifteen minutes server-side.
type APIKey struct {
	ID           string     `json:"_id,omitempty"          yaml:"id,omitempty"`
	Key          string     `json:"apiKey"                 yaml:"api_key"`
	Role         string     `json:"role,omitempty"         yaml:"role,omitempty"`
	Organisation string     `json:"organisation,omitempty" yaml:"organisation,omitempty"`
	ValidUntil   *time.Time `json:"validUntil,omitempty"   yaml:"valid_until,omitempty"`
}

// UserList represents an aggregated list of User resources.
type UserList = ListResponse[User]

// OrganisationList represents an aggregated list of Organisation resources.
type OrganisationList = ListResponse[Organisation]

// AuditEventList represents an aggregated list of AuditEvent resources.
type AuditEventList = ListResponse[AuditEvent]

// ProjectList represents an aggregated list of Project resources.
type ProjectList = ListResponse[Project]
