package models

import "time"

// EmailStatus defines the type for campaign statuses.
type EmailStatus string

const (
	EmailStatusDraft EmailStatus = "draft"
	EmailStatusSent  EmailStatus = "sent"
)

// IsValidEmailStatus checks if the provided status is a valid EmailStatus.
func IsValidEmailStatus(status string) bool {
	switch EmailStatus(status) {
	case EmailStatusDraft, EmailStatusSent:
		return true
	default:
		return false
	}
}

// EmailFilter names an audience segment used to compute recipients.
type EmailFilter string

const (
	FilterMembers               EmailFilter = "members"
	FilterNonMembers            EmailFilter = "non-members"
	FilterPendingMembershipFees EmailFilter = "pending_membership_fees"
)

// IsValidEmailFilter checks if the provided filter is a valid EmailFilter.
func IsValidEmailFilter(filter string) bool {
	switch EmailFilter(filter) {
	case FilterMembers, FilterNonMembers, FilterPendingMembershipFees:
		return true
	default:
		return false
	}
}

// SendingResults summarizes a campaign dispatch.
type SendingResults struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Email is a campaign. ToUsers, when set, is an explicit recipient list
// that overrides Filter.
type Email struct {
	ID             int64           `json:"id"`
	Status         string          `json:"status" db:"status"`
	Title          string          `json:"title" db:"title"`
	Body           string          `json:"body" db:"body"` // HTML
	Filter         string          `json:"filter" db:"filter"`
	ToUsers        []int64         `json:"to_users,omitempty" db:"to_users"`
	SentAt         *time.Time      `json:"sent_at,omitempty" db:"sent_at"`
	SendingResults *SendingResults `json:"sending_results,omitempty" db:"sending_results"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
