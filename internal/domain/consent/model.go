package consent

import (
	"errors"
	"time"
)

var (
	ErrNotRegistered   = errors.New("address is not registered")
	ErrNotAPatient     = errors.New("granting address is not a registered patient")
	ErrTargetIsPatient = errors.New("target address is a patient, not a provider")
)

// Edge is a patient's standing grant of access to a provider. Edges are
// deactivated on revoke, never deleted, so grant history survives.
type Edge struct {
	PatientAddress  string     `db:"patient_address" json:"patient_address"`
	ProviderAddress string     `db:"provider_address" json:"provider_address"`
	Active          bool       `db:"active" json:"active"`
	GrantedAt       time.Time  `db:"granted_at" json:"granted_at"`
	RevokedAt       *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}
