package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"acroyoga_club_backend/internal/models"

	"github.com/lib/pq"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	CreateUser(executor SQLExecutor, user *models.User) (int64, error)
	GetUserByID(id int64) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateProfile(executor SQLExecutor, user *models.User) error
	SetStatus(executor SQLExecutor, userID int64, status string) error
	SetMembership(executor SQLExecutor, userID int64, isMember bool) error
	SetMailingEnabled(executor SQLExecutor, userID int64, enabled bool) error
	ListUsers(filters models.UserFilters) ([]models.User, int, error)
	ListActiveByMembership(isMember bool, mailableOnly bool) ([]models.User, error)
	ListByIDs(ids []int64) ([]models.User, error)
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const selectUserFields = `
	id, full_name, email, password, is_member, is_admin, roles, status,
	experience, mailing_enabled, created_at
`

func scanUserRow(row scanner) (*models.User, error) {
	var user models.User
	var experience sql.NullString
	var roles pq.StringArray

	err := row.Scan(
		&user.ID, &user.FullName, &user.Email, &user.PasswordHash,
		&user.IsMember, &user.IsAdmin, &roles, &user.Status,
		&experience, &user.MailingEnabled, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning user: %v", ErrDatabaseError, err)
	}

	if experience.Valid {
		user.Experience = &experience.String
	}
	user.Roles = []string(roles)
	return &user, nil
}

func (r *userRepository) CreateUser(executor SQLExecutor, user *models.User) (int64, error) {
	query := `INSERT INTO users
	            (full_name, email, password, is_member, is_admin, roles, status, experience, mailing_enabled)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id, created_at`

	var roles interface{}
	if len(user.Roles) > 0 {
		roles = pq.Array(user.Roles)
	}

	err := executor.QueryRow(query,
		user.FullName, user.Email, user.PasswordHash, user.IsMember, user.IsAdmin,
		roles, user.Status, user.Experience, user.MailingEnabled,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return 0, mapPQError(err, "creating user")
	}
	return user.ID, nil
}

func (r *userRepository) GetUserByID(id int64) (*models.User, error) {
	query := "SELECT " + selectUserFields + " FROM users WHERE id = $1"
	return scanUserRow(r.db.QueryRow(query, id))
}

func (r *userRepository) GetUserByEmail(email string) (*models.User, error) {
	query := "SELECT " + selectUserFields + " FROM users WHERE email = $1"
	return scanUserRow(r.db.QueryRow(query, email))
}

func (r *userRepository) UpdateProfile(executor SQLExecutor, user *models.User) error {
	query := `UPDATE users SET
	            full_name = $1, roles = $2, experience = $3, mailing_enabled = $4
	          WHERE id = $5`

	var roles interface{}
	if len(user.Roles) > 0 {
		roles = pq.Array(user.Roles)
	}

	result, err := executor.Exec(query, user.FullName, roles, user.Experience, user.MailingEnabled, user.ID)
	if err != nil {
		return mapPQError(err, fmt.Sprintf("updating profile for user %d", user.ID))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) SetStatus(executor SQLExecutor, userID int64, status string) error {
	return r.setColumn(executor, userID, "status", status)
}

func (r *userRepository) SetMembership(executor SQLExecutor, userID int64, isMember bool) error {
	return r.setColumn(executor, userID, "is_member", isMember)
}

func (r *userRepository) SetMailingEnabled(executor SQLExecutor, userID int64, enabled bool) error {
	return r.setColumn(executor, userID, "mailing_enabled", enabled)
}

func (r *userRepository) setColumn(executor SQLExecutor, userID int64, column string, value interface{}) error {
	query := fmt.Sprintf("UPDATE users SET %s = $1 WHERE id = $2", column)
	result, err := executor.Exec(query, value, userID)
	if err != nil {
		return fmt.Errorf("%w: updating user %d: %v", ErrDatabaseError, userID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) ListUsers(filters models.UserFilters) ([]models.User, int, error) {
	users := []models.User{}
	var totalCount int

	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + selectUserFields + ", COUNT(*) OVER() AS total_count FROM users")

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.IsMember != nil {
		conditions = append(conditions, fmt.Sprintf("is_member = $%d", argCount))
		args = append(args, *filters.IsMember)
		argCount++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, filters.PageSize)
		argCount++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying users: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var user models.User
		var experience sql.NullString
		var roles pq.StringArray
		if err := rows.Scan(
			&user.ID, &user.FullName, &user.Email, &user.PasswordHash,
			&user.IsMember, &user.IsAdmin, &roles, &user.Status,
			&experience, &user.MailingEnabled, &user.CreatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning user row: %v", ErrDatabaseError, err)
		}
		if experience.Valid {
			user.Experience = &experience.String
		}
		user.Roles = []string(roles)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating user rows: %v", ErrDatabaseError, err)
	}
	return users, totalCount, nil
}

func (r *userRepository) ListActiveByMembership(isMember bool, mailableOnly bool) ([]models.User, error) {
	query := "SELECT " + selectUserFields + " FROM users WHERE is_member = $1 AND status = $2"
	args := []interface{}{isMember, string(models.UserStatusActive)}
	if mailableOnly {
		query += " AND mailing_enabled = TRUE"
	}
	query += " ORDER BY id"
	return r.queryUsers(query, args...)
}

func (r *userRepository) ListByIDs(ids []int64) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	query := "SELECT " + selectUserFields + " FROM users WHERE id = ANY($1) ORDER BY id"
	return r.queryUsers(query, pq.Array(ids))
}

func (r *userRepository) queryUsers(query string, args ...interface{}) ([]models.User, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying users: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating user rows: %v", ErrDatabaseError, err)
	}
	return users, nil
}
