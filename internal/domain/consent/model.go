package consent

import (
	"time"

	"github.com/google/uuid"

	"github.com/phr/phr/pkg/principal"
)

// Status is the share request lifecycle state. Pending is the only
// state that permits transitions; the other three are terminal, except
// that a lapsed Approved grant expires when the lapse is observed.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// ShareRequest asks a patient to grant a provider time-bounded read
// access to a set of the patient's records.
type ShareRequest struct {
	ID          uuid.UUID           `json:"id"`
	PatientID   principal.Principal `json:"patient_id"`
	ProviderID  principal.Principal `json:"provider_id"`
	RecordIDs   []uuid.UUID         `json:"record_ids"`
	Message     string              `json:"message,omitempty"`
	Status      Status              `json:"status"`
	RequestedAt time.Time           `json:"requested_at"`
	ExpiresAt   time.Time           `json:"expires_at"`
}

// Lapsed reports whether the request's time bound has passed.
func (r *ShareRequest) Lapsed(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
