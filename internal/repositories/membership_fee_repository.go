package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"acroyoga_club_backend/internal/models"

	"github.com/lib/pq"
)

// MembershipFeeRepository defines the interface for membership fee operations.
type MembershipFeeRepository interface {
	// InsertDueFees creates a pending fee for every active member who has
	// no fee row for the trimester yet. Safe to call repeatedly: the
	// anti-join makes it a no-op for already-billed members.
	InsertDueFees(executor SQLExecutor, trimesterID int64) ([]models.MembershipFee, error)
	GetFeeByID(id int64) (*models.MembershipFee, error)
	SetStatus(executor SQLExecutor, id int64, status string) error
	ListByUser(userID int64) ([]models.MembershipFee, error)
	// GetPendingWithDetails joins pending fees with their user and
	// trimester rows. The joins are inner: a pending fee whose user or
	// trimester is missing is a data-integrity fault that must surface.
	GetPendingWithDetails() ([]models.MembershipFee, error)
}

type membershipFeeRepository struct {
	db *sql.DB
}

// NewMembershipFeeRepository creates a new instance of MembershipFeeRepository.
func NewMembershipFeeRepository(db *sql.DB) MembershipFeeRepository {
	return &membershipFeeRepository{db: db}
}

func scanFeeRow(row scanner) (*models.MembershipFee, error) {
	var fee models.MembershipFee
	err := row.Scan(&fee.ID, &fee.UserID, &fee.TrimesterID, &fee.Fee, &fee.Status, &fee.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning membership fee: %v", ErrDatabaseError, err)
	}
	return &fee, nil
}

func (r *membershipFeeRepository) InsertDueFees(executor SQLExecutor, trimesterID int64) ([]models.MembershipFee, error) {
	query := `INSERT INTO membership_fees (user_id, trimester_id, fee, status)
	          SELECT u.id, t.id, t.membership_fee, 'pending'
	          FROM users u
	          JOIN trimesters t ON t.id = $1
	          WHERE u.is_member = TRUE
	            AND u.status = 'active'
	            AND NOT EXISTS (
	                SELECT 1 FROM membership_fees mf
	                WHERE mf.user_id = u.id AND mf.trimester_id = t.id
	            )
	          RETURNING id, user_id, trimester_id, fee, status, created_at`

	rows, err := executor.Query(query, trimesterID)
	if err != nil {
		return nil, fmt.Errorf("%w: inserting due fees for trimester %d: %v", ErrDatabaseError, trimesterID, err)
	}
	defer rows.Close()

	fees := []models.MembershipFee{}
	for rows.Next() {
		fee, err := scanFeeRow(rows)
		if err != nil {
			return nil, err
		}
		fees = append(fees, *fee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating due fee rows: %v", ErrDatabaseError, err)
	}
	return fees, nil
}

func (r *membershipFeeRepository) GetFeeByID(id int64) (*models.MembershipFee, error) {
	query := `SELECT id, user_id, trimester_id, fee, status, created_at
	          FROM membership_fees WHERE id = $1`
	return scanFeeRow(r.db.QueryRow(query, id))
}

func (r *membershipFeeRepository) SetStatus(executor SQLExecutor, id int64, status string) error {
	result, err := executor.Exec("UPDATE membership_fees SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("%w: updating membership fee %d status: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *membershipFeeRepository) ListByUser(userID int64) ([]models.MembershipFee, error) {
	query := `SELECT id, user_id, trimester_id, fee, status, created_at
	          FROM membership_fees WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying fees for user %d: %v", ErrDatabaseError, userID, err)
	}
	defer rows.Close()

	fees := []models.MembershipFee{}
	for rows.Next() {
		fee, err := scanFeeRow(rows)
		if err != nil {
			return nil, err
		}
		fees = append(fees, *fee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating fee rows: %v", ErrDatabaseError, err)
	}
	return fees, nil
}

func (r *membershipFeeRepository) GetPendingWithDetails() ([]models.MembershipFee, error) {
	query := `SELECT
	            mf.id, mf.user_id, mf.trimester_id, mf.fee, mf.status, mf.created_at,
	            u.id, u.full_name, u.email, u.is_member, u.is_admin, u.roles, u.status,
	            u.mailing_enabled, u.created_at,
	            t.id, t.name, t.membership_fee, t.created_at
	          FROM membership_fees mf
	          JOIN users u ON mf.user_id = u.id
	          JOIN trimesters t ON mf.trimester_id = t.id
	          WHERE mf.status = 'pending'
	          ORDER BY mf.created_at`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying pending fees: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	fees := []models.MembershipFee{}
	for rows.Next() {
		var fee models.MembershipFee
		var user models.User
		var trimester models.Trimester
		var roles pq.StringArray

		if err := rows.Scan(
			&fee.ID, &fee.UserID, &fee.TrimesterID, &fee.Fee, &fee.Status, &fee.CreatedAt,
			&user.ID, &user.FullName, &user.Email, &user.IsMember, &user.IsAdmin,
			&roles, &user.Status, &user.MailingEnabled, &user.CreatedAt,
			&trimester.ID, &trimester.Name, &trimester.MembershipFee, &trimester.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning pending fee with details: %v", ErrDatabaseError, err)
		}

		user.Roles = []string(roles)
		fee.User = &user
		fee.Trimester = &trimester
		fees = append(fees, fee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating pending fee rows: %v", ErrDatabaseError, err)
	}
	return fees, nil
}
