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
	ErrTrimesterNotFound     = errors.New("trimester not found")
	ErrTrimesterValidation   = errors.New("trimester data validation error")
	ErrMembershipFeeNotFound = errors.New("membership fee not found")
	ErrFeeNotPayable         = errors.New("membership fee is not pending payment")
	ErrFeeNotOwned           = errors.New("membership fee belongs to another user")
)

// DefaultTrimesterFee applies when an admin creates a trimester without
// specifying an amount.
const DefaultTrimesterFee = "45.00"

// --- Trimester DTOs ---

type CreateTrimesterRequest struct {
	Name          string  `json:"name" binding:"required,min=2"`
	MembershipFee *string `json:"membership_fee"`
}

type UpdateTrimesterRequest struct {
	Name          *string `json:"name" binding:"omitempty,min=2"`
	MembershipFee *string `json:"membership_fee"`
}

// --- MembershipService Interface ---
type MembershipService interface {
	CreateTrimester(req CreateTrimesterRequest) (*models.Trimester, error)
	GetTrimesterByID(id int64) (*models.Trimester, error)
	ListTrimesters() ([]models.Trimester, error)
	UpdateTrimester(id int64, req UpdateTrimesterRequest) (*models.Trimester, error)
	DeleteTrimester(id int64) error
	// ComputeDueFees bills every active member who has no fee row for the
	// trimester yet. Idempotent: a second call creates nothing.
	ComputeDueFees(ctx context.Context, trimesterID int64) ([]models.MembershipFee, error)
	GetPendingMembershipFees() ([]models.MembershipFee, error)
	ListUserFees(userID int64) ([]models.MembershipFee, error)
	// PayFee opens a pending payment transaction for the user's own fee.
	PayFee(feeID, userID int64) (*models.Transaction, error)
}

// --- membershipService Implementation ---
type membershipService struct {
	trimesterRepo   repositories.TrimesterRepository
	feeRepo         repositories.MembershipFeeRepository
	transactionRepo repositories.TransactionRepository
	txRunner        repositories.TxRunner
	publisher       messaging.Publisher
}

// NewMembershipService creates a new instance of MembershipService.
func NewMembershipService(
	trimesterRepo repositories.TrimesterRepository,
	feeRepo repositories.MembershipFeeRepository,
	transactionRepo repositories.TransactionRepository,
	txRunner repositories.TxRunner,
	publisher messaging.Publisher,
) MembershipService {
	return &membershipService{
		trimesterRepo:   trimesterRepo,
		feeRepo:         feeRepo,
		transactionRepo: transactionRepo,
		txRunner:        txRunner,
		publisher:       publisher,
	}
}

func (s *membershipService) CreateTrimester(req CreateTrimesterRequest) (*models.Trimester, error) {
	fee := DefaultTrimesterFee
	if req.MembershipFee != nil {
		normalized, err := utils.NormalizeMoney(*req.MembershipFee)
		if err != nil {
			return nil, fmt.Errorf("%w: membership_fee must be an amount like \"45.00\"", ErrTrimesterValidation)
		}
		fee = normalized
	}

	trimester := &models.Trimester{Name: req.Name, MembershipFee: fee}
	err := s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		_, err := s.trimesterRepo.CreateTrimester(executor, trimester)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create trimester: %w", err)
	}
	return trimester, nil
}

func (s *membershipService) GetTrimesterByID(id int64) (*models.Trimester, error) {
	trimester, err := s.trimesterRepo.GetTrimesterByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTrimesterNotFound
		}
		return nil, fmt.Errorf("failed to get trimester: %w", err)
	}
	return trimester, nil
}

func (s *membershipService) ListTrimesters() ([]models.Trimester, error) {
	trimesters, err := s.trimesterRepo.ListTrimesters()
	if err != nil {
		return nil, fmt.Errorf("failed to list trimesters: %w", err)
	}
	return trimesters, nil
}

func (s *membershipService) UpdateTrimester(id int64, req UpdateTrimesterRequest) (*models.Trimester, error) {
	trimester, err := s.trimesterRepo.GetTrimesterByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTrimesterNotFound
		}
		return nil, fmt.Errorf("failed to find trimester for update: %w", err)
	}

	if req.Name != nil {
		trimester.Name = *req.Name
	}
	if req.MembershipFee != nil {
		normalized, err := utils.NormalizeMoney(*req.MembershipFee)
		if err != nil {
			return nil, fmt.Errorf("%w: membership_fee must be an amount like \"45.00\"", ErrTrimesterValidation)
		}
		trimester.MembershipFee = normalized
	}

	err = s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		return s.trimesterRepo.UpdateTrimester(executor, trimester)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTrimesterNotFound
		}
		return nil, fmt.Errorf("failed to update trimester: %w", err)
	}
	return trimester, nil
}

func (s *membershipService) DeleteTrimester(id int64) error {
	err := s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		return s.trimesterRepo.DeleteTrimester(executor, id)
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrTrimesterNotFound
	}
	return err
}

func (s *membershipService) ComputeDueFees(ctx context.Context, trimesterID int64) ([]models.MembershipFee, error) {
	if _, err := s.trimesterRepo.GetTrimesterByID(trimesterID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTrimesterNotFound
		}
		return nil, fmt.Errorf("failed to load trimester for billing: %w", err)
	}

	var fees []models.MembershipFee
	err := s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		var err error
		fees, err = s.feeRepo.InsertDueFees(executor, trimesterID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute due fees: %w", err)
	}

	for _, fee := range fees {
		if pubErr := s.publisher.Publish(ctx, messaging.Event{
			Name:       "membership_fee.created",
			OccurredAt: time.Now().UTC(),
			Payload: map[string]interface{}{
				"membership_fee_id": fee.ID,
				"user_id":           fee.UserID,
				"trimester_id":      fee.TrimesterID,
				"fee":               fee.Fee,
			},
		}); pubErr != nil {
			utils.LogError(pubErr, "ComputeDueFees: failed to publish membership_fee.created event")
		}
	}
	return fees, nil
}

// GetPendingMembershipFees never errors on an empty result; a pending
// fee whose user or trimester row is gone surfaces as a database error
// because that is corruption, not a business condition.
func (s *membershipService) GetPendingMembershipFees() ([]models.MembershipFee, error) {
	fees, err := s.feeRepo.GetPendingWithDetails()
	if err != nil {
		return nil, fmt.Errorf("failed to get pending membership fees: %w", err)
	}
	return fees, nil
}

func (s *membershipService) ListUserFees(userID int64) ([]models.MembershipFee, error) {
	fees, err := s.feeRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fees for user: %w", err)
	}
	return fees, nil
}

func (s *membershipService) PayFee(feeID, userID int64) (*models.Transaction, error) {
	fee, err := s.feeRepo.GetFeeByID(feeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMembershipFeeNotFound
		}
		return nil, fmt.Errorf("failed to load fee for payment: %w", err)
	}

	if fee.UserID != userID {
		return nil, ErrFeeNotOwned
	}
	if fee.Status != string(models.MembershipFeeStatusPending) {
		return nil, ErrFeeNotPayable
	}

	transaction := &models.Transaction{
		UserID:          userID,
		MembershipFeeID: &fee.ID,
		Amount:          fee.Fee,
		Status:          string(models.TransactionStatusPending),
	}
	link := fmt.Sprintf("https://pay.acroyogavalencia.com/checkout/fee-%d", fee.ID)
	transaction.PaymentProviderLink = &link

	err = s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		_, err := s.transactionRepo.CreateTransaction(executor, transaction)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fee payment transaction: %w", err)
	}
	return transaction, nil
}
