package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"acroyoga_club_backend/internal/mailer"
	"acroyoga_club_backend/internal/messaging"
	"acroyoga_club_backend/internal/models"
	"acroyoga_club_backend/internal/repositories"
	"acroyoga_club_backend/pkg/utils"
)

var (
	ErrEmailNotFound   = errors.New("email not found")
	ErrEmailNotDraft   = errors.New("email has already been sent")
	ErrEmailValidation = errors.New("email data validation error")
	ErrEmptyAudience   = errors.New("campaign resolves to no recipients")
)

// --- Email DTOs ---

type CreateEmailRequest struct {
	Title   string  `json:"title" binding:"required,min=3"`
	Body    string  `json:"body" binding:"required,min=1"`
	Filter  string  `json:"filter" binding:"required"`
	ToUsers []int64 `json:"to_users"`
}

type UpdateEmailRequest struct {
	Title   *string `json:"title" binding:"omitempty,min=3"`
	Body    *string `json:"body" binding:"omitempty,min=1"`
	Filter  *string `json:"filter"`
	ToUsers []int64 `json:"to_users"`
}

// --- EmailService Interface ---
type EmailService interface {
	CreateEmail(req CreateEmailRequest) (*models.Email, error)
	GetEmailByID(id int64) (*models.Email, error)
	ListEmails() ([]models.Email, error)
	UpdateEmail(id int64, req UpdateEmailRequest) (*models.Email, error)
	DeleteEmail(id int64) error
	// ResolveAudience returns the users a draft would be sent to right
	// now, so admins can preview the list before dispatching.
	ResolveAudience(email *models.Email) ([]models.User, error)
	// SendCampaign dispatches a draft to its resolved audience, one
	// message per recipient. Partial failure does not abort the batch;
	// the campaign is marked sent with per-recipient tallies.
	SendCampaign(ctx context.Context, id int64) (*models.Email, error)
}

// --- emailService Implementation ---
type emailService struct {
	emailRepo   repositories.EmailRepository
	userRepo    repositories.UserRepository
	feeRepo     repositories.MembershipFeeRepository
	txRunner    repositories.TxRunner
	mail        mailer.Mailer
	publisher   messaging.Publisher
	fromAddress string
	publicURL   string
	tokenSecret []byte
}

// NewEmailService creates a new instance of EmailService.
func NewEmailService(
	emailRepo repositories.EmailRepository,
	userRepo repositories.UserRepository,
	feeRepo repositories.MembershipFeeRepository,
	txRunner repositories.TxRunner,
	mail mailer.Mailer,
	publisher messaging.Publisher,
	fromAddress string,
	publicURL string,
	tokenSecret []byte,
) EmailService {
	return &emailService{
		emailRepo:   emailRepo,
		userRepo:    userRepo,
		feeRepo:     feeRepo,
		txRunner:    txRunner,
		mail:        mail,
		publisher:   publisher,
		fromAddress: fromAddress,
		publicURL:   publicURL,
		tokenSecret: tokenSecret,
	}
}

func (s *emailService) CreateEmail(req CreateEmailRequest) (*models.Email, error) {
	if !models.IsValidEmailFilter(req.Filter) {
		return nil, fmt.Errorf("%w: unknown filter %q", ErrEmailValidation, req.Filter)
	}

	email := &models.Email{
		Status:  string(models.EmailStatusDraft),
		Title:   req.Title,
		Body:    req.Body,
		Filter:  req.Filter,
		ToUsers: req.ToUsers,
	}
	err := s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		_, err := s.emailRepo.CreateEmail(executor, email)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create email: %w", err)
	}
	return email, nil
}

func (s *emailService) GetEmailByID(id int64) (*models.Email, error) {
	email, err := s.emailRepo.GetEmailByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEmailNotFound
		}
		return nil, fmt.Errorf("failed to get email: %w", err)
	}
	return email, nil
}

func (s *emailService) ListEmails() ([]models.Email, error) {
	emails, err := s.emailRepo.ListEmails()
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	return emails, nil
}

func (s *emailService) UpdateEmail(id int64, req UpdateEmailRequest) (*models.Email, error) {
	email, err := s.GetEmailByID(id)
	if err != nil {
		return nil, err
	}
	if email.Status != string(models.EmailStatusDraft) {
		return nil, ErrEmailNotDraft
	}

	if req.Title != nil {
		email.Title = *req.Title
	}
	if req.Body != nil {
		email.Body = *req.Body
	}
	if req.Filter != nil {
		if !models.IsValidEmailFilter(*req.Filter) {
			return nil, fmt.Errorf("%w: unknown filter %q", ErrEmailValidation, *req.Filter)
		}
		email.Filter = *req.Filter
	}
	if req.ToUsers != nil {
		email.ToUsers = req.ToUsers
	}

	err = s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		return s.emailRepo.UpdateDraft(executor, email)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// The row exists but is no longer a draft.
			return nil, ErrEmailNotDraft
		}
		return nil, fmt.Errorf("failed to update email: %w", err)
	}
	return email, nil
}

func (s *emailService) DeleteEmail(id int64) error {
	err := s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		return s.emailRepo.DeleteEmail(executor, id)
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrEmailNotFound
	}
	return err
}

// ResolveAudience honors an explicit ToUsers list over the filter, but
// users who opted out of mailing are excluded either way.
func (s *emailService) ResolveAudience(email *models.Email) ([]models.User, error) {
	if len(email.ToUsers) > 0 {
		users, err := s.userRepo.ListByIDs(email.ToUsers)
		if err != nil {
			return nil, fmt.Errorf("failed to load explicit recipients: %w", err)
		}
		return filterMailable(users), nil
	}

	switch models.EmailFilter(email.Filter) {
	case models.FilterMembers:
		users, err := s.userRepo.ListActiveByMembership(true, true)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve members audience: %w", err)
		}
		return users, nil
	case models.FilterNonMembers:
		users, err := s.userRepo.ListActiveByMembership(false, true)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve non-members audience: %w", err)
		}
		return users, nil
	case models.FilterPendingMembershipFees:
		fees, err := s.feeRepo.GetPendingWithDetails()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve pending-fees audience: %w", err)
		}
		seen := make(map[int64]bool)
		var users []models.User
		for _, fee := range fees {
			if fee.User == nil || seen[fee.User.ID] {
				continue
			}
			seen[fee.User.ID] = true
			users = append(users, *fee.User)
		}
		return filterMailable(users), nil
	default:
		return nil, fmt.Errorf("%w: unknown filter %q", ErrEmailValidation, email.Filter)
	}
}

func filterMailable(users []models.User) []models.User {
	mailable := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.MailingEnabled {
			mailable = append(mailable, u)
		}
	}
	return mailable
}

func (s *emailService) SendCampaign(ctx context.Context, id int64) (*models.Email, error) {
	email, err := s.GetEmailByID(id)
	if err != nil {
		return nil, err
	}
	if email.Status != string(models.EmailStatusDraft) {
		return nil, ErrEmailNotDraft
	}

	audience, err := s.ResolveAudience(email)
	if err != nil {
		return nil, err
	}
	if len(audience) == 0 {
		return nil, ErrEmptyAudience
	}

	results := models.SendingResults{}
	for _, user := range audience {
		msg := mailer.Message{
			From:    s.fromAddress,
			To:      user.Email,
			Subject: email.Title,
			HTML:    s.renderBody(email.Body, user.ID),
		}
		if err := s.mail.Send(ctx, msg); err != nil {
			utils.LogError(err, fmt.Sprintf("SendCampaign: delivery to user %d failed", user.ID))
			results.Failed++
			continue
		}
		results.Sent++
	}

	sentAt := time.Now().UTC()
	err = s.txRunner.RunInTx(func(executor repositories.SQLExecutor) error {
		return s.emailRepo.MarkSent(executor, email.ID, sentAt, results)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark campaign as sent: %w", err)
	}

	email.Status = string(models.EmailStatusSent)
	email.SentAt = &sentAt
	email.SendingResults = &results

	if pubErr := s.publisher.Publish(ctx, messaging.Event{
		Name:       "email.sent",
		OccurredAt: sentAt,
		Payload: map[string]interface{}{
			"email_id": email.ID,
			"sent":     results.Sent,
			"failed":   results.Failed,
		},
	}); pubErr != nil {
		utils.LogError(pubErr, "SendCampaign: failed to publish email.sent event")
	}
	return email, nil
}

// renderBody appends a per-recipient unsubscribe footer. Token signing
// failing for one user must not sink the campaign, so the footer is
// simply omitted in that case.
func (s *emailService) renderBody(body string, userID int64) string {
	token, err := utils.GenerateUnsubscribeToken(s.tokenSecret, userID)
	if err != nil {
		utils.LogError(err, fmt.Sprintf("renderBody: failed to sign unsubscribe token for user %d", userID))
		return body
	}
	return fmt.Sprintf(
		`%s<p style="font-size:12px;color:#888"><a href="%s/api/users/unsubscribe?token=%s">Unsubscribe</a></p>`,
		body, s.publicURL, token,
	)
}
