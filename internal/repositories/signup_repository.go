package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"acroyoga_club_backend/internal/models"
)

// SignUpRepository defines the interface for sign-up database operations.
type SignUpRepository interface {
	CreateSignUp(executor SQLExecutor, signUp *models.SignUp) (*models.SignUp, error)
	SetTransactionID(executor SQLExecutor, signUpID int64, transactionID int64) error
	GetSignUpByID(id int64) (*models.SignUp, error)
	GetByUserAndActivity(userID, activityID int64) (*models.SignUp, error)
	ListByUser(userID int64) ([]models.SignUp, error)
}

type signUpRepository struct {
	db *sql.DB
}

// NewSignUpRepository creates a new instance of SignUpRepository.
func NewSignUpRepository(db *sql.DB) SignUpRepository {
	return &signUpRepository{db: db}
}

func scanSignUpRow(row scanner) (*models.SignUp, error) {
	var signUp models.SignUp
	var transactionID sql.NullInt64

	err := row.Scan(&signUp.ID, &signUp.UserID, &signUp.ActivityID, &transactionID, &signUp.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning sign-up: %v", ErrDatabaseError, err)
	}

	if transactionID.Valid {
		signUp.TransactionID = &transactionID.Int64
	}
	return &signUp, nil
}

func (r *signUpRepository) CreateSignUp(executor SQLExecutor, signUp *models.SignUp) (*models.SignUp, error) {
	query := `INSERT INTO sign_ups (user_id, activity_id, transaction_id)
	          VALUES ($1, $2, $3)
	          RETURNING id, created_at`

	err := executor.QueryRow(query, signUp.UserID, signUp.ActivityID, signUp.TransactionID).
		Scan(&signUp.ID, &signUp.CreatedAt)
	if err != nil {
		return nil, mapPQError(err, "creating sign-up")
	}
	return signUp, nil
}

func (r *signUpRepository) SetTransactionID(executor SQLExecutor, signUpID int64, transactionID int64) error {
	result, err := executor.Exec(
		"UPDATE sign_ups SET transaction_id = $1 WHERE id = $2", transactionID, signUpID)
	if err != nil {
		return fmt.Errorf("%w: linking transaction to sign-up %d: %v", ErrDatabaseError, signUpID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *signUpRepository) GetSignUpByID(id int64) (*models.SignUp, error) {
	query := `SELECT id, user_id, activity_id, transaction_id, created_at
	          FROM sign_ups WHERE id = $1`
	return scanSignUpRow(r.db.QueryRow(query, id))
}

func (r *signUpRepository) GetByUserAndActivity(userID, activityID int64) (*models.SignUp, error) {
	query := `SELECT id, user_id, activity_id, transaction_id, created_at
	          FROM sign_ups WHERE user_id = $1 AND activity_id = $2`
	return scanSignUpRow(r.db.QueryRow(query, userID, activityID))
}

func (r *signUpRepository) ListByUser(userID int64) ([]models.SignUp, error) {
	query := `SELECT
	            s.id, s.user_id, s.activity_id, s.transaction_id, s.created_at,
	            a.id, a.title, a.location_name, a.location_address, a.description, a.image,
	            a.date_time, a.participant_count, a.capacity, a.price_for_non_members, a.created_at
	          FROM sign_ups s
	          JOIN activities a ON s.activity_id = a.id
	          WHERE s.user_id = $1
	          ORDER BY a.date_time`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying sign-ups for user %d: %v", ErrDatabaseError, userID, err)
	}
	defer rows.Close()

	signUps := []models.SignUp{}
	for rows.Next() {
		var signUp models.SignUp
		var activity models.Activity
		var transactionID sql.NullInt64
		var description, image, price sql.NullString

		if err := rows.Scan(
			&signUp.ID, &signUp.UserID, &signUp.ActivityID, &transactionID, &signUp.CreatedAt,
			&activity.ID, &activity.Title, &activity.LocationName, &activity.LocationAddress,
			&description, &image, &activity.DateTime, &activity.ParticipantCount,
			&activity.Capacity, &price, &activity.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning sign-up with activity: %v", ErrDatabaseError, err)
		}

		if transactionID.Valid {
			signUp.TransactionID = &transactionID.Int64
		}
		if description.Valid {
			activity.Description = &description.String
		}
		if image.Valid {
			activity.Image = &image.String
		}
		if price.Valid {
			activity.PriceForNonMembers = &price.String
		}
		signUp.Activity = &activity
		signUps = append(signUps, signUp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sign-up rows: %v", ErrDatabaseError, err)
	}
	return signUps, nil
}
