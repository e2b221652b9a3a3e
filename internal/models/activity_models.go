package models

import "time"

// Activity represents a scheduled session or workshop.
// ParticipantCount tracks confirmed sign-ups only and is owned by the
// server; it never comes from a client payload.
type Activity struct {
	ID                 int64     `json:"id"`
	Title              string    `json:"title" db:"title"`
	LocationName       string    `json:"location_name" db:"location_name"`
	LocationAddress    string    `json:"location_address" db:"location_address"`
	Description        *string   `json:"description,omitempty" db:"description"`
	Image              *string   `json:"image,omitempty" db:"image"`
	DateTime           time.Time `json:"date_time" db:"date_time"`
	ParticipantCount   int       `json:"participant_count" db:"participant_count"`
	Capacity           int       `json:"capacity" db:"capacity"`
	PriceForNonMembers *string   `json:"price_for_non_members,omitempty" db:"price_for_non_members"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`

	Participants []ActivityParticipant `json:"participants,omitempty"`
}

// ActivityParticipant is the reduced user view joined onto an activity.
type ActivityParticipant struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	IsMember bool   `json:"is_member"`
}

// SignUp links a user to an activity. TransactionID is nil for members
// (no payment required); a non-member sign-up references the transaction
// that pays for it.
type SignUp struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id" db:"user_id"`
	ActivityID    int64     `json:"activity_id" db:"activity_id"`
	TransactionID *int64    `json:"transaction_id,omitempty" db:"transaction_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	Activity    *Activity    `json:"activity,omitempty"`
	Transaction *Transaction `json:"transaction,omitempty"`
}

// Confirmed reports whether the sign-up holds a slot: member sign-ups
// confirm immediately, paid sign-ups confirm once the transaction completes.
func (s *SignUp) Confirmed() bool {
	if s.TransactionID == nil {
		return true
	}
	return s.Transaction != nil && s.Transaction.Status == string(TransactionStatusCompleted)
}
