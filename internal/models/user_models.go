package models

import "time"

// UserStatus defines the type for user account statuses.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// IsValidUserStatus checks if the provided status string is a valid UserStatus.
func IsValidUserStatus(status string) bool {
	switch UserStatus(status) {
	case UserStatusActive, UserStatusInactive:
		return true
	default:
		return false
	}
}

// ExperienceLevel categorizes acroyoga experience.
type ExperienceLevel string

const (
	ExperienceLessThanYear ExperienceLevel = "less_than_year"
	ExperienceOneToThree   ExperienceLevel = "1_to_3_years"
	ExperienceAboveThree   ExperienceLevel = "above_3_years"
)

// IsValidExperienceLevel checks if the provided level is a valid ExperienceLevel.
func IsValidExperienceLevel(level string) bool {
	switch ExperienceLevel(level) {
	case ExperienceLessThanYear, ExperienceOneToThree, ExperienceAboveThree:
		return true
	default:
		return false
	}
}

// AcroRole is a practice role a user can perform.
type AcroRole string

const (
	AcroRoleFlyer AcroRole = "flyer"
	AcroRoleBase  AcroRole = "base"
)

// IsValidAcroRole checks if the provided role is a valid AcroRole.
func IsValidAcroRole(role string) bool {
	switch AcroRole(role) {
	case AcroRoleFlyer, AcroRoleBase:
		return true
	default:
		return false
	}
}

// User represents a member, non-member or administrator account.
type User struct {
	ID             int64     `json:"id"`
	FullName       string    `json:"full_name" db:"full_name"`
	Email          string    `json:"email" db:"email"`
	PasswordHash   string    `json:"-" db:"password"` // '-' means don't send in JSON response
	IsMember       bool      `json:"is_member" db:"is_member"`
	IsAdmin        bool      `json:"is_admin" db:"is_admin"`
	Roles          []string  `json:"roles,omitempty" db:"roles"`
	Status         string    `json:"status" db:"status"`
	Experience     *string   `json:"experience,omitempty" db:"experience"`
	MailingEnabled bool      `json:"mailing_enabled" db:"mailing_enabled"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// UserFilters defines the available filters for querying users.
type UserFilters struct {
	IsMember *bool   `form:"is_member"`
	Status   *string `form:"status"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}
