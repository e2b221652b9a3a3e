package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"acroyoga_club_backend/internal/models"
)

// ActivityRepository defines the interface for activity-related database operations.
type ActivityRepository interface {
	CreateActivity(executor SQLExecutor, activity *models.Activity) (*models.Activity, error)
	GetActivityByID(id int64) (*models.Activity, error)
	ListActivities(date *time.Time) ([]models.Activity, error)
	UpdateActivity(executor SQLExecutor, activity *models.Activity) error
	DeleteActivity(executor SQLExecutor, id int64) error
	// IncrementParticipantCount atomically takes one slot. It returns
	// ErrCapacityExceeded when the activity is already full, which is the
	// guard that keeps concurrent last-slot sign-ups from overbooking.
	IncrementParticipantCount(executor SQLExecutor, activityID int64) error
	GetParticipants(activityID int64) ([]models.ActivityParticipant, error)
}

type activityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new instance of ActivityRepository.
func NewActivityRepository(db *sql.DB) ActivityRepository {
	return &activityRepository{db: db}
}

const selectActivityFields = `
	id, title, location_name, location_address, description, image,
	date_time, participant_count, capacity, price_for_non_members, created_at
`

func scanActivityRow(row scanner) (*models.Activity, error) {
	var activity models.Activity
	var description, image, price sql.NullString

	err := row.Scan(
		&activity.ID, &activity.Title, &activity.LocationName, &activity.LocationAddress,
		&description, &image, &activity.DateTime, &activity.ParticipantCount,
		&activity.Capacity, &price, &activity.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning activity: %v", ErrDatabaseError, err)
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
	return &activity, nil
}

func (r *activityRepository) CreateActivity(executor SQLExecutor, activity *models.Activity) (*models.Activity, error) {
	query := `INSERT INTO activities
	            (title, location_name, location_address, description, image, date_time, capacity, price_for_non_members)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id, participant_count, created_at`

	err := executor.QueryRow(query,
		activity.Title, activity.LocationName, activity.LocationAddress,
		activity.Description, activity.Image, activity.DateTime,
		activity.Capacity, activity.PriceForNonMembers,
	).Scan(&activity.ID, &activity.ParticipantCount, &activity.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: creating activity: %v", ErrDatabaseError, err)
	}
	return activity, nil
}

func (r *activityRepository) GetActivityByID(id int64) (*models.Activity, error) {
	query := "SELECT " + selectActivityFields + " FROM activities WHERE id = $1"
	return scanActivityRow(r.db.QueryRow(query, id))
}

func (r *activityRepository) ListActivities(date *time.Time) ([]models.Activity, error) {
	query := "SELECT " + selectActivityFields + " FROM activities"
	var args []interface{}
	if date != nil {
		// Calendar lookups match the civil date of the session.
		query += " WHERE date_time >= $1 AND date_time < $2"
		dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		args = append(args, dayStart, dayStart.AddDate(0, 0, 1))
	}
	query += " ORDER BY date_time"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying activities: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		activity, err := scanActivityRow(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating activity rows: %v", ErrDatabaseError, err)
	}
	return activities, nil
}

func (r *activityRepository) UpdateActivity(executor SQLExecutor, activity *models.Activity) error {
	query := `UPDATE activities SET
	            title = $1, location_name = $2, location_address = $3, description = $4,
	            image = $5, date_time = $6, capacity = $7, price_for_non_members = $8
	          WHERE id = $9`

	result, err := executor.Exec(query,
		activity.Title, activity.LocationName, activity.LocationAddress, activity.Description,
		activity.Image, activity.DateTime, activity.Capacity, activity.PriceForNonMembers,
		activity.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating activity %d: %v", ErrDatabaseError, activity.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *activityRepository) DeleteActivity(executor SQLExecutor, id int64) error {
	result, err := executor.Exec("DELETE FROM activities WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("%w: deleting activity %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *activityRepository) IncrementParticipantCount(executor SQLExecutor, activityID int64) error {
	query := `UPDATE activities
	          SET participant_count = participant_count + 1
	          WHERE id = $1 AND participant_count < capacity`

	result, err := executor.Exec(query, activityID)
	if err != nil {
		return fmt.Errorf("%w: incrementing participant count for activity %d: %v", ErrDatabaseError, activityID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		// Zero rows also covers a deleted activity; tell them apart.
		var exists bool
		err := executor.QueryRow("SELECT EXISTS (SELECT 1 FROM activities WHERE id = $1)", activityID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("%w: checking activity %d: %v", ErrDatabaseError, activityID, err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrCapacityExceeded
	}
	return nil
}

func (r *activityRepository) GetParticipants(activityID int64) ([]models.ActivityParticipant, error) {
	query := `SELECT u.id, u.full_name, u.email, u.is_member
	          FROM sign_ups s
	          JOIN users u ON s.user_id = u.id
	          LEFT JOIN transactions t ON s.transaction_id = t.id
	          WHERE s.activity_id = $1
	            AND (s.transaction_id IS NULL OR t.status = 'completed')
	          ORDER BY s.created_at`

	rows, err := r.db.Query(query, activityID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying participants for activity %d: %v", ErrDatabaseError, activityID, err)
	}
	defer rows.Close()

	participants := []models.ActivityParticipant{}
	for rows.Next() {
		var p models.ActivityParticipant
		if err := rows.Scan(&p.ID, &p.FullName, &p.Email, &p.IsMember); err != nil {
			return nil, fmt.Errorf("%w: scanning participant: %v", ErrDatabaseError, err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating participant rows: %v", ErrDatabaseError, err)
	}
	return participants, nil
}
