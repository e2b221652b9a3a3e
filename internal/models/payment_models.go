package models

import "time"

// TransactionStatus defines the type for payment statuses.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// IsValidTransactionStatus checks if the provided status is a valid TransactionStatus.
func IsValidTransactionStatus(status string) bool {
	switch TransactionStatus(status) {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed:
		return true
	default:
		return false
	}
}

// TransactionPurposeKind discriminates what a transaction pays for.
type TransactionPurposeKind string

const (
	PurposeSignUpPayment        TransactionPurposeKind = "sign_up"
	PurposeMembershipFeePayment TransactionPurposeKind = "membership_fee"
)

// TransactionPurpose is the tagged view of the two mutually exclusive
// foreign keys on a transaction row. Exactly one of the FK columns is
// set; the purpose makes that a type-level fact in the service layer.
type TransactionPurpose struct {
	Kind  TransactionPurposeKind
	RefID int64
}

// ForSignUp builds the purpose of a transaction paying for a sign-up.
func ForSignUp(signUpID int64) TransactionPurpose {
	return TransactionPurpose{Kind: PurposeSignUpPayment, RefID: signUpID}
}

// ForMembershipFee builds the purpose of a transaction paying a fee.
func ForMembershipFee(feeID int64) TransactionPurpose {
	return TransactionPurpose{Kind: PurposeMembershipFeePayment, RefID: feeID}
}

// Transaction is a payment record for either an activity sign-up or a
// membership fee. Amounts are fixed-point decimal strings.
type Transaction struct {
	ID                  int64     `json:"id"`
	UserID              int64     `json:"user_id" db:"user_id"`
	SignUpID            *int64    `json:"sign_up_id,omitempty" db:"sign_up_id"`
	MembershipFeeID     *int64    `json:"membership_fee_id,omitempty" db:"membership_fee_id"`
	PaymentProviderLink *string   `json:"payment_provider_link,omitempty" db:"payment_provider_link"`
	Amount              string    `json:"amount" db:"amount"`
	Status              string    `json:"status" db:"status"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

// Purpose derives the tagged purpose from the row's FK columns.
// The second return is false when the row violates the exclusivity
// constraint, which the schema prevents.
func (t *Transaction) Purpose() (TransactionPurpose, bool) {
	switch {
	case t.SignUpID != nil && t.MembershipFeeID == nil:
		return ForSignUp(*t.SignUpID), true
	case t.MembershipFeeID != nil && t.SignUpID == nil:
		return ForMembershipFee(*t.MembershipFeeID), true
	default:
		return TransactionPurpose{}, false
	}
}

// Trimester is a quarterly membership billing period.
type Trimester struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name" db:"name"`
	MembershipFee string    `json:"membership_fee" db:"membership_fee"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// MembershipFeeStatus defines the type for membership fee statuses.
type MembershipFeeStatus string

const (
	MembershipFeeStatusPaid      MembershipFeeStatus = "paid"
	MembershipFeeStatusPending   MembershipFeeStatus = "pending"
	MembershipFeeStatusCancelled MembershipFeeStatus = "cancelled"
)

// IsValidMembershipFeeStatus checks if the provided status is a valid MembershipFeeStatus.
func IsValidMembershipFeeStatus(status string) bool {
	switch MembershipFeeStatus(status) {
	case MembershipFeeStatusPaid, MembershipFeeStatusPending, MembershipFeeStatusCancelled:
		return true
	default:
		return false
	}
}

// MembershipFee is a user's obligation for one trimester. One row per
// (user, trimester).
type MembershipFee struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	TrimesterID int64     `json:"trimester_id" db:"trimester_id"`
	Fee         string    `json:"fee" db:"fee"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	User      *User      `json:"user,omitempty"`
	Trimester *Trimester `json:"trimester,omitempty"`
}
