package services

import (
	"errors"
	"fmt"
	"time"

	"acroyoga_club_backend/internal/models"
	"acroyoga_club_backend/internal/repositories"
	"acroyoga_club_backend/pkg/utils"
)

var (
	ErrActivityNotFound   = errors.New("activity not found")
	ErrActivityValidation = errors.New("activity data validation error")
	ErrInvalidDateFilter  = errors.New("invalid date filter, use YYYY-MM-DD")
)

// --- Activity DTOs ---

type CreateActivityRequest struct {
	Title              string  `json:"title" binding:"required,min=3"`
	LocationName       string  `json:"location_name" binding:"required,min=3"`
	LocationAddress    string  `json:"location_address" binding:"required,min=5"`
	Description        *string `json:"description"`
	Image              *string `json:"image" binding:"omitempty,url"`
	DateTime           string  `json:"date_time" binding:"required"` // RFC 3339
	Capacity           int     `json:"capacity" binding:"required,gte=1"`
	PriceForNonMembers *string `json:"price_for_non_members"`
}

type UpdateActivityRequest struct {
	Title              *string `json:"title" binding:"omitempty,min=3"`
	LocationName       *string `json:"location_name" binding:"omitempty,min=3"`
	LocationAddress    *string `json:"location_address" binding:"omitempty,min=5"`
	Description        *string `json:"description"`
	Image              *string `json:"image" binding:"omitempty,url"`
	DateTime           *string `json:"date_time"`
	Capacity           *int    `json:"capacity" binding:"omitempty,gte=1"`
	PriceForNonMembers *string `json:"price_for_non_members"`
}

// --- ActivityService Interface ---
type ActivityService interface {
	CreateActivity(req CreateActivityRequest) (*models.Activity, error)
	GetActivityByID(activityID int64, withParticipants bool) (*models.Activity, error)
	ListActivities(dateFilter string) ([]models.Activity, error)
	UpdateActivity(activityID int64, req UpdateActivityRequest) (*models.Activity, error)
	DeleteActivity(activityID int64) error
}

// --- activityService Implementation ---
type activityService struct {
	activityRepo repositories.ActivityRepository
	txRunner     repositories.TxRunner
}

// NewActivityService creates a new instance of ActivityService.
func NewActivityService(activityRepo repositories.ActivityRepository, txRunner repositories.TxRunner) ActivityService {
	return &activityService{activityRepo: activityRepo, txRunner: txRunner}
}

func normalizePrice(price *string) (*string, error) {
	if price == nil {
		return nil, nil
	}
	normalized, err := utils.NormalizeMoney(*price)
	if err != nil {
		return nil, fmt.Errorf("%w: price_for_non_members must be a non-negative amount like \"15.00\"", ErrActivityValidation)
	}
	return &normalized, nil
}

func (s *activityService) CreateActivity(req CreateActivityRequest) (*models.Activity, error) {
	dateTime, err := time.Parse(time.RFC3339, req.DateTime)
	if err != nil {
		return nil, fmt.Errorf("%w: date_time must be RFC 3339", ErrActivityValidation)
	}

	price, err := normalizePrice(req.PriceForNonMembers)
	if err != nil {
		return nil, err
	}

	activity := &models.Activity{
		Title:              req.Title,
		LocationName:       req.LocationName,
		LocationAddress:    req.LocationAddress,
		Description:        req.Description,
		Image:              req.Image,
		DateTime:           dateTime,
		Capacity:           req.Capacity,
		PriceForNonMembers: price,
	}

	err = s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		_, err := s.activityRepo.CreateActivity(executor, activity)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}
	return activity, nil
}

func (s *activityService) GetActivityByID(activityID int64, withParticipants bool) (*models.Activity, error) {
	activity, err := s.activityRepo.GetActivityByID(activityID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	if withParticipants {
		participants, err := s.activityRepo.GetParticipants(activityID)
		if err != nil {
			return nil, fmt.Errorf("failed to get participants: %w", err)
		}
		activity.Participants = participants
	}
	return activity, nil
}

func (s *activityService) ListActivities(dateFilter string) ([]models.Activity, error) {
	var date *time.Time
	if dateFilter != "" {
		parsed, err := time.Parse("2006-01-02", dateFilter)
		if err != nil {
			return nil, ErrInvalidDateFilter
		}
		date = &parsed
	}

	activities, err := s.activityRepo.ListActivities(date)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}

func (s *activityService) UpdateActivity(activityID int64, req UpdateActivityRequest) (*models.Activity, error) {
	activity, err := s.activityRepo.GetActivityByID(activityID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("failed to find activity for update: %w", err)
	}

	if req.Title != nil {
		activity.Title = *req.Title
	}
	if req.LocationName != nil {
		activity.LocationName = *req.LocationName
	}
	if req.LocationAddress != nil {
		activity.LocationAddress = *req.LocationAddress
	}
	if req.Description != nil {
		activity.Description = req.Description
	}
	if req.Image != nil {
		activity.Image = req.Image
	}
	if req.DateTime != nil {
		dateTime, err := time.Parse(time.RFC3339, *req.DateTime)
		if err != nil {
			return nil, fmt.Errorf("%w: date_time must be RFC 3339", ErrActivityValidation)
		}
		activity.DateTime = dateTime
	}
	if req.Capacity != nil {
		// Capacity can grow freely but cannot drop below the slots
		// already confirmed.
		if *req.Capacity < activity.ParticipantCount {
			return nil, fmt.Errorf("%w: capacity %d is below current participant count %d",
				ErrActivityValidation, *req.Capacity, activity.ParticipantCount)
		}
		activity.Capacity = *req.Capacity
	}
	if req.PriceForNonMembers != nil {
		price, err := normalizePrice(req.PriceForNonMembers)
		if err != nil {
			return nil, err
		}
		activity.PriceForNonMembers = price
	}

	err = s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		return s.activityRepo.UpdateActivity(executor, activity)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}
	return activity, nil
}

func (s *activityService) DeleteActivity(activityID int64) error {
	err := s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		return s.activityRepo.DeleteActivity(executor, activityID)
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrActivityNotFound
	}
	return err
}
