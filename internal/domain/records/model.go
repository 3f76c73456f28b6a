package records

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phr/phr/pkg/apperr"
	"github.com/phr/phr/pkg/principal"
)

// RecordType classifies a health record. The set is closed; unknown
// types are rejected on create.
type RecordType string

const (
	TypeMedicalHistory RecordType = "medical_history"
	TypePrescription   RecordType = "prescription"
	TypeLabResult      RecordType = "lab_result"
	TypeVaccination    RecordType = "vaccination"
	TypeAllergy        RecordType = "allergy"
	TypeSurgery        RecordType = "surgery"
	TypeConsultation   RecordType = "consultation"
	TypeOther          RecordType = "other"
)

var recordTypes = map[RecordType]bool{
	TypeMedicalHistory: true, TypePrescription: true, TypeLabResult: true,
	TypeVaccination: true, TypeAllergy: true, TypeSurgery: true,
	TypeConsultation: true, TypeOther: true,
}

// ParseRecordType validates a raw record type string.
func ParseRecordType(s string) (RecordType, error) {
	t := RecordType(s)
	if !recordTypes[t] {
		return "", fmt.Errorf("%w: unknown record type %q", apperr.ErrInvalidInput, s)
	}
	return t, nil
}

// VitalSigns is an optional structured block inside RecordData. The
// engine never interprets it.
type VitalSigns struct {
	BloodPressure    string   `json:"blood_pressure,omitempty"`
	HeartRate        *int     `json:"heart_rate,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	Weight           *float64 `json:"weight,omitempty"`
	Height           *float64 `json:"height,omitempty"`
	OxygenSaturation *int     `json:"oxygen_saturation,omitempty"`
}

// Medication is one entry in a record's medication list.
type Medication struct {
	Name         string     `json:"name"`
	Dosage       string     `json:"dosage,omitempty"`
	Frequency    string     `json:"frequency,omitempty"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	PrescribedBy string     `json:"prescribed_by,omitempty"`
}

// RecordData is the medical payload of a record. It is opaque to
// authorization decisions and stored as a single JSON document.
type RecordData struct {
	MedicalData map[string]string `json:"medical_data,omitempty"`
	Attachments []string          `json:"attachments,omitempty"`
	VitalSigns  *VitalSigns       `json:"vital_signs,omitempty"`
	Medications []Medication      `json:"medications,omitempty"`
	Notes       string            `json:"notes,omitempty"`
}

// HealthRecord is the unit of sharing and authorization. PatientID is
// immutable after create; SharedWith holds the providers with a live
// grant and is maintained exclusively by the consent engine.
type HealthRecord struct {
	ID          uuid.UUID             `json:"id"`
	PatientID   principal.Principal   `json:"patient_id"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	RecordType  RecordType            `json:"record_type"`
	Data        RecordData            `json:"data"`
	IsPublic    bool                  `json:"is_public"`
	SharedWith  []principal.Principal `json:"shared_with"`
	DateCreated time.Time             `json:"date_created"`
	DateUpdated time.Time             `json:"date_updated"`
}

// Operation is the access class checked by Authorize.
type Operation int

const (
	OpRead Operation = iota
	OpWrite
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}
