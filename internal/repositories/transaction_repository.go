package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"acroyoga_club_backend/internal/models"
)

// TransactionRepository defines the interface for payment transaction operations.
type TransactionRepository interface {
	CreateTransaction(executor SQLExecutor, transaction *models.Transaction) (*models.Transaction, error)
	GetTransactionByID(id int64) (*models.Transaction, error)
	UpdateStatus(executor SQLExecutor, id int64, status string) error
	ListTransactions(page, pageSize int) ([]models.Transaction, int, error)
}

type transactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new instance of TransactionRepository.
func NewTransactionRepository(db *sql.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

const selectTransactionFields = `
	id, user_id, sign_up_id, membership_fee_id, payment_provider_link,
	amount, status, created_at
`

func scanTransactionRow(row scanner) (*models.Transaction, error) {
	var tr models.Transaction
	var signUpID, membershipFeeID sql.NullInt64
	var providerLink sql.NullString

	err := row.Scan(
		&tr.ID, &tr.UserID, &signUpID, &membershipFeeID,
		&providerLink, &tr.Amount, &tr.Status, &tr.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning transaction: %v", ErrDatabaseError, err)
	}

	if signUpID.Valid {
		tr.SignUpID = &signUpID.Int64
	}
	if membershipFeeID.Valid {
		tr.MembershipFeeID = &membershipFeeID.Int64
	}
	if providerLink.Valid {
		tr.PaymentProviderLink = &providerLink.String
	}
	return &tr, nil
}

func (r *transactionRepository) CreateTransaction(executor SQLExecutor, transaction *models.Transaction) (*models.Transaction, error) {
	query := `INSERT INTO transactions
	            (user_id, sign_up_id, membership_fee_id, payment_provider_link, amount, status)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at`

	err := executor.QueryRow(query,
		transaction.UserID, transaction.SignUpID, transaction.MembershipFeeID,
		transaction.PaymentProviderLink, transaction.Amount, transaction.Status,
	).Scan(&transaction.ID, &transaction.CreatedAt)
	if err != nil {
		return nil, mapPQError(err, "creating transaction")
	}
	return transaction, nil
}

func (r *transactionRepository) GetTransactionByID(id int64) (*models.Transaction, error) {
	query := "SELECT " + selectTransactionFields + " FROM transactions WHERE id = $1"
	return scanTransactionRow(r.db.QueryRow(query, id))
}

// UpdateStatus moves a transaction out of pending. The condition makes
// the transition single-shot: duplicate provider deliveries racing each
// other resolve to exactly one winner, the rest see ErrAlreadyFinalized.
func (r *transactionRepository) UpdateStatus(executor SQLExecutor, id int64, status string) error {
	result, err := executor.Exec(
		"UPDATE transactions SET status = $1 WHERE id = $2 AND status = 'pending'", status, id)
	if err != nil {
		return fmt.Errorf("%w: updating transaction %d status: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		var current string
		err := executor.QueryRow("SELECT status FROM transactions WHERE id = $1", id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: checking transaction %d status: %v", ErrDatabaseError, id, err)
		}
		return ErrAlreadyFinalized
	}
	return nil
}

func (r *transactionRepository) ListTransactions(page, pageSize int) ([]models.Transaction, int, error) {
	query := "SELECT " + selectTransactionFields + `, COUNT(*) OVER() AS total_count
	          FROM transactions ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	offset := (page - 1) * pageSize
	rows, err := r.db.Query(query, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying transactions: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	var totalCount int
	for rows.Next() {
		var tr models.Transaction
		var signUpID, membershipFeeID sql.NullInt64
		var providerLink sql.NullString

		if err := rows.Scan(
			&tr.ID, &tr.UserID, &signUpID, &membershipFeeID,
			&providerLink, &tr.Amount, &tr.Status, &tr.CreatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning transaction row: %v", ErrDatabaseError, err)
		}

		if signUpID.Valid {
			tr.SignUpID = &signUpID.Int64
		}
		if membershipFeeID.Valid {
			tr.MembershipFeeID = &membershipFeeID.Int64
		}
		if providerLink.Valid {
			tr.PaymentProviderLink = &providerLink.String
		}
		transactions = append(transactions, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating transaction rows: %v", ErrDatabaseError, err)
	}
	return transactions, totalCount, nil
}
