package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"acroyoga_club_backend/internal/models"
)

// EmailRepository defines the interface for campaign database operations.
type EmailRepository interface {
	CreateEmail(executor SQLExecutor, email *models.Email) (*models.Email, error)
	GetEmailByID(id int64) (*models.Email, error)
	ListEmails() ([]models.Email, error)
	UpdateDraft(executor SQLExecutor, email *models.Email) error
	DeleteEmail(executor SQLExecutor, id int64) error
	MarkSent(executor SQLExecutor, id int64, sentAt time.Time, results models.SendingResults) error
}

type emailRepository struct {
	db *sql.DB
}

// NewEmailRepository creates a new instance of EmailRepository.
func NewEmailRepository(db *sql.DB) EmailRepository {
	return &emailRepository{db: db}
}

const selectEmailFields = `
	id, status, title, body, filter, to_users, sent_at, sending_results, created_at
`

func scanEmailRow(row scanner) (*models.Email, error) {
	var email models.Email
	var toUsers, sendingResults []byte
	var sentAt sql.NullTime

	err := row.Scan(
		&email.ID, &email.Status, &email.Title, &email.Body, &email.Filter,
		&toUsers, &sentAt, &sendingResults, &email.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning email: %v", ErrDatabaseError, err)
	}

	if sentAt.Valid {
		email.SentAt = &sentAt.Time
	}
	if len(toUsers) > 0 {
		if err := json.Unmarshal(toUsers, &email.ToUsers); err != nil {
			return nil, fmt.Errorf("%w: decoding to_users for email %d: %v", ErrDatabaseError, email.ID, err)
		}
	}
	if len(sendingResults) > 0 {
		var results models.SendingResults
		if err := json.Unmarshal(sendingResults, &results); err != nil {
			return nil, fmt.Errorf("%w: decoding sending_results for email %d: %v", ErrDatabaseError, email.ID, err)
		}
		email.SendingResults = &results
	}
	return &email, nil
}

func marshalToUsers(ids []int64) (interface{}, error) {
	if ids == nil {
		return nil, nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding to_users: %v", ErrDatabaseError, err)
	}
	return data, nil
}

func (r *emailRepository) CreateEmail(executor SQLExecutor, email *models.Email) (*models.Email, error) {
	toUsers, err := marshalToUsers(email.ToUsers)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO emails (status, title, body, filter, to_users)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, created_at`

	err = executor.QueryRow(query, email.Status, email.Title, email.Body, email.Filter, toUsers).
		Scan(&email.ID, &email.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: creating email: %v", ErrDatabaseError, err)
	}
	return email, nil
}

func (r *emailRepository) GetEmailByID(id int64) (*models.Email, error) {
	query := "SELECT " + selectEmailFields + " FROM emails WHERE id = $1"
	return scanEmailRow(r.db.QueryRow(query, id))
}

func (r *emailRepository) ListEmails() ([]models.Email, error) {
	rows, err := r.db.Query("SELECT " + selectEmailFields + " FROM emails ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("%w: querying emails: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	emails := []models.Email{}
	for rows.Next() {
		email, err := scanEmailRow(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, *email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating email rows: %v", ErrDatabaseError, err)
	}
	return emails, nil
}

func (r *emailRepository) UpdateDraft(executor SQLExecutor, email *models.Email) error {
	toUsers, err := marshalToUsers(email.ToUsers)
	if err != nil {
		return err
	}

	query := `UPDATE emails SET title = $1, body = $2, filter = $3, to_users = $4
	          WHERE id = $5 AND status = 'draft'`

	result, err := executor.Exec(query, email.Title, email.Body, email.Filter, toUsers, email.ID)
	if err != nil {
		return fmt.Errorf("%w: updating email %d: %v", ErrDatabaseError, email.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *emailRepository) DeleteEmail(executor SQLExecutor, id int64) error {
	result, err := executor.Exec("DELETE FROM emails WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("%w: deleting email %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *emailRepository) MarkSent(executor SQLExecutor, id int64, sentAt time.Time, results models.SendingResults) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("%w: encoding sending_results: %v", ErrDatabaseError, err)
	}

	query := `UPDATE emails SET status = 'sent', sent_at = $1, sending_results = $2 WHERE id = $3`
	result, err := executor.Exec(query, sentAt, data, id)
	if err != nil {
		return fmt.Errorf("%w: marking email %d sent: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
