package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"acroyoga_club_backend/internal/models"
)

// TrimesterRepository defines the interface for billing period operations.
type TrimesterRepository interface {
	CreateTrimester(executor SQLExecutor, trimester *models.Trimester) (*models.Trimester, error)
	GetTrimesterByID(id int64) (*models.Trimester, error)
	ListTrimesters() ([]models.Trimester, error)
	UpdateTrimester(executor SQLExecutor, trimester *models.Trimester) error
	DeleteTrimester(executor SQLExecutor, id int64) error
}

type trimesterRepository struct {
	db *sql.DB
}

// NewTrimesterRepository creates a new instance of TrimesterRepository.
func NewTrimesterRepository(db *sql.DB) TrimesterRepository {
	return &trimesterRepository{db: db}
}

func scanTrimesterRow(row scanner) (*models.Trimester, error) {
	var trimester models.Trimester
	err := row.Scan(&trimester.ID, &trimester.Name, &trimester.MembershipFee, &trimester.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning trimester: %v", ErrDatabaseError, err)
	}
	return &trimester, nil
}

func (r *trimesterRepository) CreateTrimester(executor SQLExecutor, trimester *models.Trimester) (*models.Trimester, error) {
	query := `INSERT INTO trimesters (name, membership_fee)
	          VALUES ($1, $2)
	          RETURNING id, membership_fee, created_at`

	err := executor.QueryRow(query, trimester.Name, trimester.MembershipFee).
		Scan(&trimester.ID, &trimester.MembershipFee, &trimester.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: creating trimester: %v", ErrDatabaseError, err)
	}
	return trimester, nil
}

func (r *trimesterRepository) GetTrimesterByID(id int64) (*models.Trimester, error) {
	query := "SELECT id, name, membership_fee, created_at FROM trimesters WHERE id = $1"
	return scanTrimesterRow(r.db.QueryRow(query, id))
}

func (r *trimesterRepository) ListTrimesters() ([]models.Trimester, error) {
	rows, err := r.db.Query("SELECT id, name, membership_fee, created_at FROM trimesters ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("%w: querying trimesters: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	trimesters := []models.Trimester{}
	for rows.Next() {
		trimester, err := scanTrimesterRow(rows)
		if err != nil {
			return nil, err
		}
		trimesters = append(trimesters, *trimester)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating trimester rows: %v", ErrDatabaseError, err)
	}
	return trimesters, nil
}

func (r *trimesterRepository) UpdateTrimester(executor SQLExecutor, trimester *models.Trimester) error {
	result, err := executor.Exec(
		"UPDATE trimesters SET name = $1, membership_fee = $2 WHERE id = $3",
		trimester.Name, trimester.MembershipFee, trimester.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating trimester %d: %v", ErrDatabaseError, trimester.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *trimesterRepository) DeleteTrimester(executor SQLExecutor, id int64) error {
	result, err := executor.Exec("DELETE FROM trimesters WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("%w: deleting trimester %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
