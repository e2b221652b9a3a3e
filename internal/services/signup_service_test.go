package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"acroyoga_club_backend/internal/models"
)

func testActivity(capacity int, price *string) models.Activity {
	return models.Activity{
		Title:              "Acroyoga jam",
		LocationName:       "Parque de Cabecera",
		LocationAddress:    "Av. Pío Baroja, Valencia",
		DateTime:           time.Now().Add(48 * time.Hour),
		Capacity:           capacity,
		PriceForNonMembers: price,
	}
}

func price(s string) *string { return &s }

func TestCanJoin(t *testing.T) {
	tests := []struct {
		name        string
		activity    models.Activity
		existing    *models.SignUp
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "free_slot",
			activity:    models.Activity{Capacity: 10, ParticipantCount: 4},
			wantAllowed: true,
		},
		{
			name:        "activity_full",
			activity:    models.Activity{Capacity: 10, ParticipantCount: 10},
			wantAllowed: false,
			wantReason:  ReasonFull,
		},
		{
			name:        "already_signed_up",
			activity:    models.Activity{Capacity: 10, ParticipantCount: 4},
			existing:    &models.SignUp{ID: 1},
			wantAllowed: false,
			wantReason:  ReasonAlreadyJoined,
		},
		{
			name:        "last_slot",
			activity:    models.Activity{Capacity: 10, ParticipantCount: 9},
			wantAllowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := CanJoin(&tt.activity, tt.existing)
			if decision.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", decision.Allowed, tt.wantAllowed)
			}
			if decision.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", decision.Reason, tt.wantReason)
			}
		})
	}
}

func TestPaymentRequired(t *testing.T) {
	member := &models.User{IsMember: true}
	nonMember := &models.User{IsMember: false}

	tests := []struct {
		name     string
		activity models.Activity
		user     *models.User
		want     bool
	}{
		{"member_priced_activity", testActivity(10, price("12.00")), member, false},
		{"non_member_priced_activity", testActivity(10, price("12.00")), nonMember, true},
		{"non_member_free_activity", testActivity(10, nil), nonMember, false},
		{"non_member_zero_price", testActivity(10, price("0.00")), nonMember, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PaymentRequired(&tt.activity, tt.user); got != tt.want {
				t.Errorf("PaymentRequired = %v, want %v", got, tt.want)
			}
		})
	}
}

func newSignUpFixture() (*mockUserRepo, *mockActivityRepo, *mockSignUpRepo, *mockTransactionRepo, *mockPublisher, SignUpService) {
	userRepo := newMockUserRepo()
	activityRepo := newMockActivityRepo()
	signUpRepo := newMockSignUpRepo()
	transactionRepo := newMockTransactionRepo()
	publisher := &mockPublisher{}
	service := NewSignUpService(signUpRepo, activityRepo, userRepo, transactionRepo, fakeTxRunner{}, publisher)
	return userRepo, activityRepo, signUpRepo, transactionRepo, publisher, service
}

func TestCreateSignUp_MemberConfirmedWithoutTransaction(t *testing.T) {
	userRepo, activityRepo, _, _, publisher, service := newSignUpFixture()

	member := userRepo.add(models.User{FullName: "Marta Soler", Email: "marta@example.com", IsMember: true, Status: string(models.UserStatusActive)})
	activity := activityRepo.add(testActivity(10, price("12.00")))

	result, err := service.CreateSignUp(context.Background(), member.ID, activity.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Confirmed {
		t.Error("member sign-up should be confirmed immediately")
	}
	if result.Transaction != nil {
		t.Error("member sign-up must not create a transaction")
	}
	if result.SignUp.TransactionID != nil {
		t.Error("member sign-up must not reference a transaction")
	}

	updated, _ := activityRepo.GetActivityByID(activity.ID)
	if updated.ParticipantCount != 1 {
		t.Errorf("ParticipantCount = %d, want 1", updated.ParticipantCount)
	}

	names := publisher.eventNames()
	if len(names) != 1 || names[0] != "signup.confirmed" {
		t.Errorf("published events = %v, want [signup.confirmed]", names)
	}
}

func TestCreateSignUp_NonMemberGetsPendingTransaction(t *testing.T) {
	userRepo, activityRepo, _, transactionRepo, publisher, service := newSignUpFixture()

	visitor := userRepo.add(models.User{FullName: "Jordi Ferrer", Email: "jordi@example.com", Status: string(models.UserStatusActive)})
	activity := activityRepo.add(testActivity(10, price("12.50")))

	result, err := service.CreateSignUp(context.Background(), visitor.ID, activity.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Confirmed {
		t.Error("non-member sign-up must not be confirmed before payment")
	}
	if result.Transaction == nil {
		t.Fatal("non-member sign-up must create a transaction")
	}
	if result.Transaction.Status != string(models.TransactionStatusPending) {
		t.Errorf("transaction status = %q, want pending", result.Transaction.Status)
	}
	if result.Transaction.Amount != "12.50" {
		t.Errorf("transaction amount = %q, want 12.50", result.Transaction.Amount)
	}
	if result.Transaction.PaymentProviderLink == nil || *result.Transaction.PaymentProviderLink == "" {
		t.Error("transaction must carry a payment provider link")
	}
	if result.SignUp.TransactionID == nil || *result.SignUp.TransactionID != result.Transaction.ID {
		t.Error("sign-up must be linked back to its transaction")
	}

	// The slot is only taken when the payment completes.
	updated, _ := activityRepo.GetActivityByID(activity.ID)
	if updated.ParticipantCount != 0 {
		t.Errorf("ParticipantCount = %d, want 0 before payment", updated.ParticipantCount)
	}
	if transactionRepo.status(result.Transaction.ID) != string(models.TransactionStatusPending) {
		t.Error("stored transaction should be pending")
	}
	if len(publisher.eventNames()) != 0 {
		t.Error("no confirmation event should be published before payment")
	}
}

func TestCreateSignUp_DuplicateRejected(t *testing.T) {
	userRepo, activityRepo, _, _, _, service := newSignUpFixture()

	member := userRepo.add(models.User{Email: "marta@example.com", IsMember: true, Status: string(models.UserStatusActive)})
	activity := activityRepo.add(testActivity(10, nil))

	if _, err := service.CreateSignUp(context.Background(), member.ID, activity.ID); err != nil {
		t.Fatalf("first sign-up failed: %v", err)
	}
	_, err := service.CreateSignUp(context.Background(), member.ID, activity.ID)
	if !errors.Is(err, ErrAlreadySignedUp) {
		t.Errorf("second sign-up error = %v, want ErrAlreadySignedUp", err)
	}

	updated, _ := activityRepo.GetActivityByID(activity.ID)
	if updated.ParticipantCount != 1 {
		t.Errorf("ParticipantCount = %d, want 1", updated.ParticipantCount)
	}
}

func TestCreateSignUp_FullActivityRejected(t *testing.T) {
	userRepo, activityRepo, _, _, _, service := newSignUpFixture()

	member := userRepo.add(models.User{Email: "marta@example.com", IsMember: true, Status: string(models.UserStatusActive)})
	full := testActivity(5, nil)
	full.ParticipantCount = 5
	activity := activityRepo.add(full)

	_, err := service.CreateSignUp(context.Background(), member.ID, activity.ID)
	if !errors.Is(err, ErrActivityFull) {
		t.Errorf("error = %v, want ErrActivityFull", err)
	}
}

func TestCreateSignUp_UnknownActivity(t *testing.T) {
	userRepo, _, _, _, _, service := newSignUpFixture()
	member := userRepo.add(models.User{Email: "marta@example.com", IsMember: true, Status: string(models.UserStatusActive)})

	_, err := service.CreateSignUp(context.Background(), member.ID, 999)
	if !errors.Is(err, ErrActivityNotFound) {
		t.Errorf("error = %v, want ErrActivityNotFound", err)
	}
}

// TestCreateSignUp_ConcurrentLastSlots hammers a small activity with
// concurrent members and checks that confirmations never exceed
// capacity, whatever the interleaving.
func TestCreateSignUp_ConcurrentLastSlots(t *testing.T) {
	const capacity = 3
	const contenders = 20

	userRepo, activityRepo, _, _, _, service := newSignUpFixture()
	activity := activityRepo.add(testActivity(capacity, nil))

	ids := make([]int64, contenders)
	for i := range ids {
		user := userRepo.add(models.User{
			Email:    fmt.Sprintf("member%d@example.com", i),
			IsMember: true,
			Status:   string(models.UserStatusActive),
		})
		ids[i] = user.ID
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	confirmed, full := 0, 0

	for _, userID := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := service.CreateSignUp(context.Background(), id, activity.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				confirmed++
			case errors.Is(err, ErrActivityFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(userID)
	}
	wg.Wait()

	if confirmed != capacity {
		t.Errorf("confirmed = %d, want %d", confirmed, capacity)
	}
	if confirmed+full != contenders {
		t.Errorf("confirmed+full = %d, want %d", confirmed+full, contenders)
	}

	updated, _ := activityRepo.GetActivityByID(activity.ID)
	if updated.ParticipantCount != capacity {
		t.Errorf("ParticipantCount = %d, want %d", updated.ParticipantCount, capacity)
	}
}
