package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a referral. Only PENDING is ever assigned;
// nothing in the service transitions a referral after creation.
type Status string

const StatusPending Status = "PENDING"

// Referral links a referrer, a referee and a course.
//
// Invariants:
//   - the five submitted fields are non-empty at creation
//   - Status is StatusPending at creation
//   - ID and CreatedAt are assigned by the store
//   - records are never updated or deleted
type Referral struct {
	ID            uuid.UUID `json:"id"`
	ReferrerName  string    `json:"referrerName"`
	ReferrerEmail string    `json:"referrerEmail"`
	RefereeName   string    `json:"refereeName"`
	RefereeEmail  string    `json:"refereeEmail"`
	Course        string    `json:"course"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewReferral is what the service hands to the store: a validated submission
// that has not been assigned an ID or creation time yet.
type NewReferral struct {
	ReferrerName  string
	ReferrerEmail string
	RefereeName   string
	RefereeEmail  string
	Course        string
	Status        Status
}

// Materialize builds the persisted record from n with store-assigned values.
func (n NewReferral) Materialize(id uuid.UUID, createdAt time.Time) Referral {
	return Referral{
		ID:            id,
		ReferrerName:  n.ReferrerName,
		ReferrerEmail: n.ReferrerEmail,
		RefereeName:   n.RefereeName,
		RefereeEmail:  n.RefereeEmail,
		Course:        n.Course,
		Status:        n.Status,
		CreatedAt:     createdAt,
	}
}
