package accesscontrol

import "time"

type RoleName string

const (
	RoleAdmin RoleName = "admin"
	// RoleSteward is derived from the stewardship ledger: held while the user
	// has at least one active grant on any venue.
	RoleSteward RoleName = "steward"
)

type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
