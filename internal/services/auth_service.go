package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"acroyoga_club_backend/internal/messaging"
	"acroyoga_club_backend/internal/models"
	"acroyoga_club_backend/internal/repositories"
	"acroyoga_club_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrInvalidProfileData = errors.New("invalid profile data")
)

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// RegisterRequest DTO
type RegisterRequest struct {
	FullName        string   `json:"full_name" binding:"required,min=2"`
	Email           string   `json:"email" binding:"required,email"`
	Password        string   `json:"password" binding:"required,min=8"`
	ConfirmPassword string   `json:"confirm_password" binding:"required,eqfield=Password"`
	Experience      *string  `json:"experience"`
	Roles           []string `json:"roles"`
	MailingEnabled  *bool    `json:"mailing_enabled"`
}

// --- AuthService Interface ---
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req LoginRequest) (*models.User, error)
}

// --- authService Implementation ---
type authService struct {
	userRepo  repositories.UserRepository
	txRunner  repositories.TxRunner
	publisher messaging.Publisher
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(userRepo repositories.UserRepository, txRunner repositories.TxRunner, publisher messaging.Publisher) AuthService {
	return &authService{userRepo: userRepo, txRunner: txRunner, publisher: publisher}
}

// Register handles the business logic for user registration. New
// accounts start as active non-members; membership is granted by an
// administrator.
func (s *authService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if req.Experience != nil && !models.IsValidExperienceLevel(*req.Experience) {
		return nil, fmt.Errorf("%w: experience '%s'", ErrInvalidProfileData, *req.Experience)
	}
	for _, role := range req.Roles {
		if !models.IsValidAcroRole(role) {
			return nil, fmt.Errorf("%w: role '%s'", ErrInvalidProfileData, role)
		}
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	mailingEnabled := true
	if req.MailingEnabled != nil {
		mailingEnabled = *req.MailingEnabled
	}

	user := &models.User{
		FullName:       req.FullName,
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:   string(hashedPasswordBytes),
		IsMember:       false,
		IsAdmin:        false,
		Roles:          req.Roles,
		Status:         string(models.UserStatusActive),
		Experience:     req.Experience,
		MailingEnabled: mailingEnabled,
	}

	err = s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		_, err := s.userRepo.CreateUser(executor, user)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	if pubErr := s.publisher.Publish(ctx, messaging.Event{
		Name:       "user.registered",
		OccurredAt: time.Now().UTC(),
		Payload:    map[string]interface{}{"user_id": user.ID, "email": user.Email},
	}); pubErr != nil {
		utils.LogError(pubErr, "Register: failed to publish user.registered event")
	}

	user.PasswordHash = ""
	return user, nil
}

// Login verifies credentials and returns the account. Session handling
// is the caller's job; the service knows nothing about cookies.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*models.User, error) {
	user, err := s.userRepo.GetUserByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.Status != string(models.UserStatusActive) {
		return nil, ErrAccountInactive
	}

	user.PasswordHash = ""
	return user, nil
}
