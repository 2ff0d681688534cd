package actor

import (
	"errors"
	"time"
)

var (
	ErrAlreadyRegistered = errors.New("address is already registered")
	ErrInvalidRole       = errors.New("invalid role")
	ErrEmptyAddress      = errors.New("address is required")
	ErrNotFound          = errors.New("actor not found")
)

// Role is the closed set of identities the registry accepts. Role is fixed
// at registration and never changes afterwards.
type Role string

const (
	RolePatient  Role = "PATIENT"
	RoleDoctor   Role = "DOCTOR"
	RoleHospital Role = "HOSPITAL"
	RolePharmacy Role = "PHARMACY"
	RoleClinic   Role = "CLINIC"
)

// ParseRole validates a raw role string against the closed enumeration.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePatient, RoleDoctor, RoleHospital, RolePharmacy, RoleClinic:
		return Role(s), nil
	}
	return "", ErrInvalidRole
}

// IsProvider reports whether the role may be granted access to a patient's
// records. Patients are never providers.
func (r Role) IsProvider() bool {
	switch r {
	case RoleDoctor, RoleHospital, RolePharmacy, RoleClinic:
		return true
	}
	return false
}

// Actor is a registered identity. Address is the stable unique identifier;
// an address registers at most once and rows are never deleted.
type Actor struct {
	Address    string    `db:"address" json:"address"`
	Name       string    `db:"name" json:"name"`
	Role       Role      `db:"role" json:"role"`
	Registered bool      `db:"registered" json:"registered"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
