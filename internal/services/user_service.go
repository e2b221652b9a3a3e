package services

import (
	"errors"
	"fmt"

	"acroyoga_club_backend/internal/models"
	"acroyoga_club_backend/internal/repositories"
	"acroyoga_club_backend/pkg/utils"
)

var (
	ErrInvalidUnsubscribeToken = errors.New("invalid or expired unsubscribe token")
	ErrInvalidUserStatus       = errors.New("invalid user status")
)

// UpdateProfileRequest DTO. All fields optional; absent fields keep
// their current values.
type UpdateProfileRequest struct {
	FullName       *string  `json:"full_name" binding:"omitempty,min=2"`
	Experience     *string  `json:"experience"`
	Roles          []string `json:"roles"`
	MailingEnabled *bool    `json:"mailing_enabled"`
}

// --- UserService Interface ---
type UserService interface {
	GetProfile(userID int64) (*models.User, error)
	UpdateProfile(userID int64, req UpdateProfileRequest) (*models.User, error)
	ListUsers(filters models.UserFilters) ([]models.User, int, error)
	SetUserStatus(userID int64, status string) error
	SetMembership(userID int64, isMember bool) error
	Unsubscribe(token string) error
}

// --- userService Implementation ---
type userService struct {
	userRepo    repositories.UserRepository
	txRunner    repositories.TxRunner
	tokenSecret []byte
}

// NewUserService creates a new instance of UserService.
func NewUserService(userRepo repositories.UserRepository, txRunner repositories.TxRunner, tokenSecret []byte) UserService {
	return &userService{userRepo: userRepo, txRunner: txRunner, tokenSecret: tokenSecret}
}

func (s *userService) GetProfile(userID int64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) UpdateProfile(userID int64, req UpdateProfileRequest) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user for update: %w", err)
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Experience != nil {
		if !models.IsValidExperienceLevel(*req.Experience) {
			return nil, fmt.Errorf("%w: experience '%s'", ErrInvalidProfileData, *req.Experience)
		}
		user.Experience = req.Experience
	}
	if req.Roles != nil {
		for _, role := range req.Roles {
			if !models.IsValidAcroRole(role) {
				return nil, fmt.Errorf("%w: role '%s'", ErrInvalidProfileData, role)
			}
		}
		user.Roles = req.Roles
	}
	if req.MailingEnabled != nil {
		user.MailingEnabled = *req.MailingEnabled
	}

	err = s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		return s.userRepo.UpdateProfile(executor, user)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *userService) ListUsers(filters models.UserFilters) ([]models.User, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}

	users, totalCount, err := s.userRepo.ListUsers(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, totalCount, nil
}

func (s *userService) SetUserStatus(userID int64, status string) error {
	if !models.IsValidUserStatus(status) {
		return fmt.Errorf("%w: '%s'", ErrInvalidUserStatus, status)
	}
	err := s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		return s.userRepo.SetStatus(executor, userID, status)
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (s *userService) SetMembership(userID int64, isMember bool) error {
	err := s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		return s.userRepo.SetMembership(executor, userID, isMember)
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// Unsubscribe flips mailingEnabled off for the user a signed opt-out
// token was issued to.
func (s *userService) Unsubscribe(token string) error {
	userID, err := utils.ValidateUnsubscribeToken(s.tokenSecret, token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUnsubscribeToken, err)
	}

	err = s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		return s.userRepo.SetMailingEnabled(executor, userID, false)
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
