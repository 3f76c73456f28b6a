package identity

import (
	"time"

	"github.com/phr/phr/pkg/principal"
)

// Patient is the profile a person registers before owning health records.
// The ID is the caller principal; exactly one profile exists per principal.
type Patient struct {
	ID               principal.Principal `db:"id" json:"id"`
	Name             string              `db:"name" json:"name"`
	Email            string              `db:"email" json:"email"`
	DateOfBirth      string              `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender           string              `db:"gender" json:"gender,omitempty"`
	Phone            string              `db:"phone" json:"phone,omitempty"`
	Address          string              `db:"address" json:"address,omitempty"`
	EmergencyContact *EmergencyContact   `json:"emergency_contact,omitempty"`
	CreatedAt        time.Time           `db:"created_at" json:"created_at"`
}

// EmergencyContact is an optional attachment to a patient profile.
type EmergencyContact struct {
	Name         string `db:"emergency_name" json:"name"`
	Relationship string `db:"emergency_relationship" json:"relationship,omitempty"`
	Phone        string `db:"emergency_phone" json:"phone,omitempty"`
	Email        string `db:"emergency_email" json:"email,omitempty"`
}

// Provider is a healthcare provider profile. Verified is recorded but
// never gates authorization; verification happens out of band.
type Provider struct {
	ID                  principal.Principal `db:"id" json:"id"`
	Name                string              `db:"name" json:"name"`
	Specialty           string              `db:"specialty" json:"specialty,omitempty"`
	LicenseNumber       string              `db:"license_number" json:"license_number,omitempty"`
	HospitalAffiliation string              `db:"hospital_affiliation" json:"hospital_affiliation,omitempty"`
	Email               string              `db:"email" json:"email,omitempty"`
	Phone               string              `db:"phone" json:"phone,omitempty"`
	Verified            bool                `db:"verified" json:"verified"`
	CreatedAt           time.Time           `db:"created_at" json:"created_at"`
}

// Resolution is the outcome of looking up a principal. At most one of
// the two pointers is set; both nil means the principal is unregistered.
type Resolution struct {
	Patient  *Patient  `json:"patient,omitempty"`
	Provider *Provider `json:"provider,omitempty"`
}

// Registered reports whether the principal has any profile.
func (r Resolution) Registered() bool { return r.Patient != nil || r.Provider != nil }

// IsPatient reports whether the principal resolved to a patient profile.
func (r Resolution) IsPatient() bool { return r.Patient != nil }

// IsProvider reports whether the principal resolved to a provider profile.
func (r Resolution) IsProvider() bool { return r.Provider != nil }
