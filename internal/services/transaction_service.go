package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"acroyoga_club_backend/internal/messaging"
	"acroyoga_club_backend/internal/models"
	"acroyoga_club_backend/internal/repositories"
	"acroyoga_club_backend/pkg/utils"
)

var (
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrTransactionFinalized = errors.New("transaction is already completed or failed")
	ErrInvalidTransaction   = errors.New("invalid transaction data")
)

// UpdateTransactionStatusRequest DTO.
type UpdateTransactionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// --- TransactionService Interface ---
type TransactionService interface {
	GetTransactionByID(id int64) (*models.Transaction, error)
	ListTransactions(page, pageSize int) ([]models.Transaction, int, error)
	// UpdateStatus moves a pending transaction to completed or failed.
	// Completing a sign-up payment confirms the sign-up (taking a slot);
	// completing a fee payment marks the fee paid.
	UpdateStatus(ctx context.Context, id int64, status string) (*models.Transaction, error)
}

// --- transactionService Implementation ---
type transactionService struct {
	transactionRepo repositories.TransactionRepository
	signUpRepo      repositories.SignUpRepository
	activityRepo    repositories.ActivityRepository
	feeRepo         repositories.MembershipFeeRepository
	txRunner        repositories.TxRunner
	publisher       messaging.Publisher
}

// NewTransactionService creates a new instance of TransactionService.
func NewTransactionService(
	transactionRepo repositories.TransactionRepository,
	signUpRepo repositories.SignUpRepository,
	activityRepo repositories.ActivityRepository,
	feeRepo repositories.MembershipFeeRepository,
	txRunner repositories.TxRunner,
	publisher messaging.Publisher,
) TransactionService {
	return &transactionService{
		transactionRepo: transactionRepo,
		signUpRepo:      signUpRepo,
		activityRepo:    activityRepo,
		feeRepo:         feeRepo,
		txRunner:        txRunner,
		publisher:       publisher,
	}
}

func (s *transactionService) GetTransactionByID(id int64) (*models.Transaction, error) {
	transaction, err := s.transactionRepo.GetTransactionByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return transaction, nil
}

func (s *transactionService) ListTransactions(page, pageSize int) ([]models.Transaction, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	transactions, totalCount, err := s.transactionRepo.ListTransactions(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, totalCount, nil
}

func (s *transactionService) UpdateStatus(ctx context.Context, id int64, status string) (*models.Transaction, error) {
	if !models.IsValidTransactionStatus(status) {
		return nil, fmt.Errorf("%w: status '%s'", ErrInvalidTransaction, status)
	}

	transaction, err := s.transactionRepo.GetTransactionByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}

	if transaction.Status != string(models.TransactionStatusPending) {
		return nil, ErrTransactionFinalized
	}
	if status == string(models.TransactionStatusPending) {
		return transaction, nil
	}

	if status == string(models.TransactionStatusFailed) {
		err = s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
			return s.transactionRepo.UpdateStatus(executor, id, status)
		})
		if err != nil {
			if errors.Is(err, repositories.ErrAlreadyFinalized) {
				return nil, ErrTransactionFinalized
			}
			return nil, fmt.Errorf("failed to fail transaction: %w", err)
		}
		transaction.Status = status
		return transaction, nil
	}

	purpose, ok := transaction.Purpose()
	if !ok {
		return nil, fmt.Errorf("%w: transaction %d references neither a sign-up nor a fee", ErrInvalidTransaction, id)
	}

	switch purpose.Kind {
	case models.PurposeSignUpPayment:
		err = s.completeSignUpPayment(ctx, transaction, purpose.RefID)
	case models.PurposeMembershipFeePayment:
		err = s.completeFeePayment(ctx, transaction, purpose.RefID)
	}
	if err != nil {
		return nil, err
	}

	transaction.Status = string(models.TransactionStatusCompleted)
	return transaction, nil
}

// completeSignUpPayment confirms the paid sign-up. The participant
// increment and the status flip commit together; if the activity filled
// up while the payment was pending, the whole thing rolls back, the
// transaction is marked failed and the caller gets a capacity conflict.
func (s *transactionService) completeSignUpPayment(ctx context.Context, transaction *models.Transaction, signUpID int64) error {
	signUp, err := s.signUpRepo.GetSignUpByID(signUpID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: sign-up %d for transaction %d", ErrSignUpNotFound, signUpID, transaction.ID)
		}
		return fmt.Errorf("failed to load sign-up for payment: %w", err)
	}

	err = s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		if err := s.transactionRepo.UpdateStatus(executor, transaction.ID, string(models.TransactionStatusCompleted)); err != nil {
			return err
		}
		return s.activityRepo.IncrementParticipantCount(executor, signUp.ActivityID)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrAlreadyFinalized) {
			// A duplicate delivery won the race inside the transaction.
			return ErrTransactionFinalized
		}
		if errors.Is(err, repositories.ErrCapacityExceeded) {
			if failErr := s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
				return s.transactionRepo.UpdateStatus(executor, transaction.ID, string(models.TransactionStatusFailed))
			}); failErr != nil && !errors.Is(failErr, repositories.ErrAlreadyFinalized) {
				utils.LogError(failErr, "UpdateStatus: failed to mark overbooked transaction as failed")
			}
			return ErrActivityFull
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: activity %d for sign-up %d", ErrActivityNotFound, signUp.ActivityID, signUp.ID)
		}
		return fmt.Errorf("failed to complete sign-up payment: %w", err)
	}

	if pubErr := s.publisher.Publish(ctx, messaging.Event{
		Name:       "signup.confirmed",
		OccurredAt: time.Now().UTC(),
		Payload: map[string]interface{}{
			"sign_up_id":     signUp.ID,
			"user_id":        signUp.UserID,
			"activity_id":    signUp.ActivityID,
			"transaction_id": transaction.ID,
		},
	}); pubErr != nil {
		utils.LogError(pubErr, "UpdateStatus: failed to publish signup.confirmed event")
	}
	return nil
}

func (s *transactionService) completeFeePayment(ctx context.Context, transaction *models.Transaction, feeID int64) error {
	err := s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		if err := s.transactionRepo.UpdateStatus(executor, transaction.ID, string(models.TransactionStatusCompleted)); err != nil {
			return err
		}
		return s.feeRepo.SetStatus(executor, feeID, string(models.MembershipFeeStatusPaid))
	})
	if err != nil {
		if errors.Is(err, repositories.ErrAlreadyFinalized) {
			return ErrTransactionFinalized
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: membership fee %d for transaction %d", ErrMembershipFeeNotFound, feeID, transaction.ID)
		}
		return fmt.Errorf("failed to complete fee payment: %w", err)
	}

	if pubErr := s.publisher.Publish(ctx, messaging.Event{
		Name:       "membership_fee.paid",
		OccurredAt: time.Now().UTC(),
		Payload: map[string]interface{}{
			"membership_fee_id": feeID,
			"user_id":           transaction.UserID,
			"transaction_id":    transaction.ID,
		},
	}); pubErr != nil {
		utils.LogError(pubErr, "UpdateStatus: failed to publish membership_fee.paid event")
	}
	return nil
}
