package domain

import "time"

// Built-in role names.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type Role struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
