package record

import (
	"errors"
	"time"
)

var (
	ErrInvalidType      = errors.New("invalid record type")
	ErrEmptyContentHash = errors.New("content hash is required")
	ErrNotFound         = errors.New("record not found")
)

// Type classifies the referenced document.
type Type string

const (
	TypePrescription Type = "PRESCRIPTION"
	TypeLabResult    Type = "LAB_RESULT"
	TypeImaging      Type = "IMAGING"
	TypeClinicalNote Type = "CLINICAL_NOTE"
	TypeDischarge    Type = "DISCHARGE_SUMMARY"
)

func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypePrescription, TypeLabResult, TypeImaging, TypeClinicalNote, TypeDischarge:
		return Type(s), nil
	}
	return "", ErrInvalidType
}

// Entry references an externally stored document. The ledger assigns IDs
// from a monotonic sequence; IDs are never reused, gaps from failed
// transactions are acceptable. Entries are immutable except for the
// description and the active flag.
type Entry struct {
	ID              int64     `db:"id" json:"id"`
	PatientAddress  string    `db:"patient_address" json:"patient_address"`
	UploaderAddress string    `db:"uploader_address" json:"uploader_address"`
	Type            Type      `db:"record_type" json:"record_type"`
	Description     string    `db:"description" json:"description"`
	ContentHash     string    `db:"content_hash" json:"content_hash"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
