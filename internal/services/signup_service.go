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
	ErrActivityFull    = errors.New("activity is full")
	ErrAlreadySignedUp = errors.New("user is already signed up for this activity")
	ErrSignUpNotFound  = errors.New("sign-up not found")
)

// Rejection reasons surfaced by CanJoin.
const (
	ReasonFull          = "full"
	ReasonAlreadyJoined = "already_joined"
)

// JoinDecision is the outcome of a booking rule check.
type JoinDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CanJoin decides whether a user may take a slot on the activity.
// existing is the user's sign-up for this activity, nil if none.
func CanJoin(activity *models.Activity, existing *models.SignUp) JoinDecision {
	if existing != nil {
		return JoinDecision{Allowed: false, Reason: ReasonAlreadyJoined}
	}
	if activity.ParticipantCount >= activity.Capacity {
		return JoinDecision{Allowed: false, Reason: ReasonFull}
	}
	return JoinDecision{Allowed: true}
}

// PaymentRequired reports whether the user must pay to attend: members
// attend for free, and so does anyone when the activity has no price.
func PaymentRequired(activity *models.Activity, user *models.User) bool {
	if user.IsMember {
		return false
	}
	if activity.PriceForNonMembers == nil || utils.MoneyIsZero(*activity.PriceForNonMembers) {
		return false
	}
	return true
}

// SignUpResult is what a sign-up attempt returns. For non-members the
// transaction is pending and the sign-up is unconfirmed until it
// completes.
type SignUpResult struct {
	SignUp      *models.SignUp      `json:"sign_up"`
	Confirmed   bool                `json:"confirmed"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
}

// --- SignUpService Interface ---
type SignUpService interface {
	CreateSignUp(ctx context.Context, userID, activityID int64) (*SignUpResult, error)
	ListUserSignUps(userID int64) ([]models.SignUp, error)
}

// --- signUpService Implementation ---
type signUpService struct {
	signUpRepo      repositories.SignUpRepository
	activityRepo    repositories.ActivityRepository
	userRepo        repositories.UserRepository
	transactionRepo repositories.TransactionRepository
	txRunner        repositories.TxRunner
	publisher       messaging.Publisher
}

// NewSignUpService creates a new instance of SignUpService.
func NewSignUpService(
	signUpRepo repositories.SignUpRepository,
	activityRepo repositories.ActivityRepository,
	userRepo repositories.UserRepository,
	transactionRepo repositories.TransactionRepository,
	txRunner repositories.TxRunner,
	publisher messaging.Publisher,
) SignUpService {
	return &signUpService{
		signUpRepo:      signUpRepo,
		activityRepo:    activityRepo,
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		txRunner:        txRunner,
		publisher:       publisher,
	}
}

// CreateSignUp registers a user for an activity.
//
// Members (and free activities) confirm immediately: the sign-up row and
// the participant increment commit together, and the conditional
// increment is what makes two concurrent last-slot attempts impossible
// to both succeed. The pre-check via CanJoin only produces a friendly
// error for the common case.
//
// Non-members get a pending transaction; their slot is taken when the
// transaction completes (see TransactionService.UpdateStatus).
func (s *signUpService) CreateSignUp(ctx context.Context, userID, activityID int64) (*SignUpResult, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user for sign-up: %w", err)
	}

	activity, err := s.activityRepo.GetActivityByID(activityID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("failed to load activity for sign-up: %w", err)
	}

	existing, err := s.signUpRepo.GetByUserAndActivity(userID, activityID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing sign-up: %w", err)
	}

	if decision := CanJoin(activity, existing); !decision.Allowed {
		switch decision.Reason {
		case ReasonAlreadyJoined:
			return nil, ErrAlreadySignedUp
		default:
			return nil, ErrActivityFull
		}
	}

	if !PaymentRequired(activity, user) {
		return s.createConfirmedSignUp(ctx, userID, activityID)
	}
	return s.createPaidSignUp(userID, activity)
}

func (s *signUpService) createConfirmedSignUp(ctx context.Context, userID, activityID int64) (*SignUpResult, error) {
	signUp := &models.SignUp{UserID: userID, ActivityID: activityID}

	err := s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		if _, err := s.signUpRepo.CreateSignUp(executor, signUp); err != nil {
			return err
		}
		return s.activityRepo.IncrementParticipantCount(executor, activityID)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrCapacityExceeded):
			return nil, ErrActivityFull
		case errors.Is(err, repositories.ErrDuplicateKey):
			return nil, ErrAlreadySignedUp
		default:
			return nil, fmt.Errorf("failed to create sign-up: %w", err)
		}
	}

	s.publishConfirmed(ctx, signUp)
	return &SignUpResult{SignUp: signUp, Confirmed: true}, nil
}

func (s *signUpService) createPaidSignUp(userID int64, activity *models.Activity) (*SignUpResult, error) {
	signUp := &models.SignUp{UserID: userID, ActivityID: activity.ID}
	transaction := &models.Transaction{
		UserID: userID,
		Amount: *activity.PriceForNonMembers,
		Status: string(models.TransactionStatusPending),
	}

	err := s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		// The sign-up and its transaction reference each other, so the
		// sign-up is inserted first and linked once the transaction id
		// exists.
		if _, err := s.signUpRepo.CreateSignUp(executor, signUp); err != nil {
			return err
		}
		transaction.SignUpID = &signUp.ID
		link := paymentProviderLink(signUp.ID)
		transaction.PaymentProviderLink = &link
		if _, err := s.transactionRepo.CreateTransaction(executor, transaction); err != nil {
			return err
		}
		if err := s.signUpRepo.SetTransactionID(executor, signUp.ID, transaction.ID); err != nil {
			return err
		}
		signUp.TransactionID = &transaction.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrAlreadySignedUp
		}
		return nil, fmt.Errorf("failed to create paid sign-up: %w", err)
	}

	return &SignUpResult{SignUp: signUp, Confirmed: false, Transaction: transaction}, nil
}

func (s *signUpService) ListUserSignUps(userID int64) ([]models.SignUp, error) {
	signUps, err := s.signUpRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sign-ups: %w", err)
	}
	return signUps, nil
}

func (s *signUpService) publishConfirmed(ctx context.Context, signUp *models.SignUp) {
	if err := s.publisher.Publish(ctx, messaging.Event{
		Name:       "signup.confirmed",
		OccurredAt: time.Now().UTC(),
		Payload: map[string]interface{}{
			"sign_up_id":  signUp.ID,
			"user_id":     signUp.UserID,
			"activity_id": signUp.ActivityID,
		},
	}); err != nil {
		utils.LogError(err, "CreateSignUp: failed to publish signup.confirmed event")
	}
}

// paymentProviderLink builds the checkout URL the client redirects to.
// A real gateway integration would create a checkout session here.
func paymentProviderLink(signUpID int64) string {
	return fmt.Sprintf("https://pay.acroyogavalencia.com/checkout/signup-%d", signUpID)
}
