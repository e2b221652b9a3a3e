package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"acroyoga_club_backend/internal/models"
	"acroyoga_club_backend/internal/repositories"
)

func newTransactionFixture() (*mockActivityRepo, *mockSignUpRepo, *mockTransactionRepo, *mockFeeRepo, *mockPublisher, TransactionService) {
	userRepo := newMockUserRepo()
	trimesterRepo := newMockTrimesterRepo()
	activityRepo := newMockActivityRepo()
	signUpRepo := newMockSignUpRepo()
	transactionRepo := newMockTransactionRepo()
	feeRepo := newMockFeeRepo(userRepo, trimesterRepo)
	publisher := &mockPublisher{}
	txRunner := newSnapshotTxRunner(transactionRepo, activityRepo, feeRepo)
	service := NewTransactionService(transactionRepo, signUpRepo, activityRepo, feeRepo, txRunner, publisher)
	return activityRepo, signUpRepo, transactionRepo, feeRepo, publisher, service
}

func TestUpdateStatus_CompletingSignUpPaymentTakesSlot(t *testing.T) {
	activityRepo, signUpRepo, transactionRepo, _, publisher, service := newTransactionFixture()

	activity := activityRepo.add(testActivity(10, price("12.00")))
	signUp := signUpRepo.add(models.SignUp{UserID: 7, ActivityID: activity.ID})
	transaction := transactionRepo.add(models.Transaction{
		UserID:   7,
		SignUpID: &signUp.ID,
		Amount:   "12.00",
		Status:   string(models.TransactionStatusPending),
	})

	updated, err := service.UpdateStatus(context.Background(), transaction.ID, string(models.TransactionStatusCompleted))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != string(models.TransactionStatusCompleted) {
		t.Errorf("status = %q, want completed", updated.Status)
	}

	refreshed, _ := activityRepo.GetActivityByID(activity.ID)
	if refreshed.ParticipantCount != 1 {
		t.Errorf("ParticipantCount = %d, want 1", refreshed.ParticipantCount)
	}

	names := publisher.eventNames()
	if len(names) != 1 || names[0] != "signup.confirmed" {
		t.Errorf("published events = %v, want [signup.confirmed]", names)
	}
}

// The activity can fill up while a payment is pending. Completing such
// a payment must not overbook: the transaction flips to failed and the
// caller gets a capacity conflict.
func TestUpdateStatus_OverbookedPaymentFails(t *testing.T) {
	activityRepo, signUpRepo, transactionRepo, _, publisher, service := newTransactionFixture()

	full := testActivity(1, price("12.00"))
	full.ParticipantCount = 1
	activity := activityRepo.add(full)
	signUp := signUpRepo.add(models.SignUp{UserID: 7, ActivityID: activity.ID})
	transaction := transactionRepo.add(models.Transaction{
		UserID:   7,
		SignUpID: &signUp.ID,
		Amount:   "12.00",
		Status:   string(models.TransactionStatusPending),
	})

	_, err := service.UpdateStatus(context.Background(), transaction.ID, string(models.TransactionStatusCompleted))
	if !errors.Is(err, ErrActivityFull) {
		t.Fatalf("error = %v, want ErrActivityFull", err)
	}

	if got := transactionRepo.status(transaction.ID); got != string(models.TransactionStatusFailed) {
		t.Errorf("transaction status = %q, want failed", got)
	}
	refreshed, _ := activityRepo.GetActivityByID(activity.ID)
	if refreshed.ParticipantCount != 1 {
		t.Errorf("ParticipantCount = %d, want unchanged 1", refreshed.ParticipantCount)
	}
	if len(publisher.eventNames()) != 0 {
		t.Error("no confirmation event should be published for a failed payment")
	}
}

func TestUpdateStatus_CompletingFeePaymentMarksFeePaid(t *testing.T) {
	_, _, transactionRepo, feeRepo, publisher, service := newTransactionFixture()

	fee := feeRepo.add(models.MembershipFee{UserID: 3, TrimesterID: 1, Fee: "45.00", Status: string(models.MembershipFeeStatusPending)})
	transaction := transactionRepo.add(models.Transaction{
		UserID:          3,
		MembershipFeeID: &fee.ID,
		Amount:          "45.00",
		Status:          string(models.TransactionStatusPending),
	})

	updated, err := service.UpdateStatus(context.Background(), transaction.ID, string(models.TransactionStatusCompleted))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != string(models.TransactionStatusCompleted) {
		t.Errorf("status = %q, want completed", updated.Status)
	}

	paidFee, _ := feeRepo.GetFeeByID(fee.ID)
	if paidFee.Status != string(models.MembershipFeeStatusPaid) {
		t.Errorf("fee status = %q, want paid", paidFee.Status)
	}

	names := publisher.eventNames()
	if len(names) != 1 || names[0] != "membership_fee.paid" {
		t.Errorf("published events = %v, want [membership_fee.paid]", names)
	}
}

func TestUpdateStatus_FailingTransactionLeavesFeePending(t *testing.T) {
	_, _, transactionRepo, feeRepo, _, service := newTransactionFixture()

	fee := feeRepo.add(models.MembershipFee{UserID: 3, TrimesterID: 1, Fee: "45.00", Status: string(models.MembershipFeeStatusPending)})
	transaction := transactionRepo.add(models.Transaction{
		UserID:          3,
		MembershipFeeID: &fee.ID,
		Amount:          "45.00",
		Status:          string(models.TransactionStatusPending),
	})

	updated, err := service.UpdateStatus(context.Background(), transaction.ID, string(models.TransactionStatusFailed))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != string(models.TransactionStatusFailed) {
		t.Errorf("status = %q, want failed", updated.Status)
	}

	stillPending, _ := feeRepo.GetFeeByID(fee.ID)
	if stillPending.Status != string(models.MembershipFeeStatusPending) {
		t.Errorf("fee status = %q, want pending", stillPending.Status)
	}
}

// Payment providers deliver webhooks at least once, so the same
// completion can land several times concurrently. Exactly one delivery
// may take the slot; the rest must see a finalized transaction.
func TestUpdateStatus_DuplicateDeliveriesTakeOneSlot(t *testing.T) {
	activityRepo, signUpRepo, transactionRepo, _, publisher, service := newTransactionFixture()

	activity := activityRepo.add(testActivity(5, price("12.00")))
	signUp := signUpRepo.add(models.SignUp{UserID: 7, ActivityID: activity.ID})
	transaction := transactionRepo.add(models.Transaction{
		UserID:   7,
		SignUpID: &signUp.ID,
		Amount:   "12.00",
		Status:   string(models.TransactionStatusPending),
	})

	const deliveries = 8
	start := make(chan struct{})
	results := make(chan error, deliveries)
	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := service.UpdateStatus(context.Background(), transaction.ID, string(models.TransactionStatusCompleted))
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var completed, finalized int
	for err := range results {
		switch {
		case err == nil:
			completed++
		case errors.Is(err, ErrTransactionFinalized):
			finalized++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if completed != 1 {
		t.Errorf("completed deliveries = %d, want exactly 1", completed)
	}
	if finalized != deliveries-1 {
		t.Errorf("rejected deliveries = %d, want %d", finalized, deliveries-1)
	}

	refreshed, _ := activityRepo.GetActivityByID(activity.ID)
	if refreshed.ParticipantCount != 1 {
		t.Errorf("ParticipantCount = %d, one payment must take one slot", refreshed.ParticipantCount)
	}
	if got := len(publisher.eventNames()); got != 1 {
		t.Errorf("published %d events, want 1", got)
	}
}

// Marking a transaction failed races its completion the same way; the
// conditional update lets only one transition win.
func TestUpdateStatus_FailedCannotOvertakeCompleted(t *testing.T) {
	activityRepo, signUpRepo, transactionRepo, _, _, service := newTransactionFixture()

	activity := activityRepo.add(testActivity(5, price("12.00")))
	signUp := signUpRepo.add(models.SignUp{UserID: 7, ActivityID: activity.ID})
	transaction := transactionRepo.add(models.Transaction{
		UserID:   7,
		SignUpID: &signUp.ID,
		Amount:   "12.00",
		Status:   string(models.TransactionStatusPending),
	})

	if _, err := service.UpdateStatus(context.Background(), transaction.ID, string(models.TransactionStatusCompleted)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The guard holds even when the stale pre-read is bypassed.
	err := transactionRepo.UpdateStatus(nil, transaction.ID, string(models.TransactionStatusFailed))
	if !errors.Is(err, repositories.ErrAlreadyFinalized) {
		t.Errorf("error = %v, want ErrAlreadyFinalized", err)
	}
	if got := transactionRepo.status(transaction.ID); got != string(models.TransactionStatusCompleted) {
		t.Errorf("transaction status = %q, want completed", got)
	}
}

// An admin can delete an activity while one of its payments is pending.
// Completing that payment must report the vanished activity, not a
// capacity conflict, and leave the transaction pending.
func TestUpdateStatus_DeletedActivityIsNotFound(t *testing.T) {
	activityRepo, signUpRepo, transactionRepo, _, _, service := newTransactionFixture()

	activity := activityRepo.add(testActivity(5, price("12.00")))
	signUp := signUpRepo.add(models.SignUp{UserID: 7, ActivityID: activity.ID})
	transaction := transactionRepo.add(models.Transaction{
		UserID:   7,
		SignUpID: &signUp.ID,
		Amount:   "12.00",
		Status:   string(models.TransactionStatusPending),
	})
	if err := activityRepo.DeleteActivity(nil, activity.ID); err != nil {
		t.Fatalf("failed to delete activity: %v", err)
	}

	_, err := service.UpdateStatus(context.Background(), transaction.ID, string(models.TransactionStatusCompleted))
	if !errors.Is(err, ErrActivityNotFound) {
		t.Fatalf("error = %v, want ErrActivityNotFound", err)
	}
	if errors.Is(err, ErrActivityFull) {
		t.Error("a vanished activity must not read as a full one")
	}
	if got := transactionRepo.status(transaction.ID); got != string(models.TransactionStatusPending) {
		t.Errorf("transaction status = %q, want still pending", got)
	}
}

func TestUpdateStatus_FinalizedTransactionRejected(t *testing.T) {
	_, _, transactionRepo, _, _, service := newTransactionFixture()

	signUpID := int64(1)
	transaction := transactionRepo.add(models.Transaction{
		UserID:   7,
		SignUpID: &signUpID,
		Amount:   "12.00",
		Status:   string(models.TransactionStatusCompleted),
	})

	_, err := service.UpdateStatus(context.Background(), transaction.ID, string(models.TransactionStatusFailed))
	if !errors.Is(err, ErrTransactionFinalized) {
		t.Errorf("error = %v, want ErrTransactionFinalized", err)
	}
}

func TestUpdateStatus_ValidatesInput(t *testing.T) {
	_, _, transactionRepo, _, _, service := newTransactionFixture()

	if _, err := service.UpdateStatus(context.Background(), 1, "refunded"); !errors.Is(err, ErrInvalidTransaction) {
		t.Errorf("unknown status error = %v, want ErrInvalidTransaction", err)
	}
	if _, err := service.UpdateStatus(context.Background(), 999, string(models.TransactionStatusFailed)); !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("missing transaction error = %v, want ErrTransactionNotFound", err)
	}

	signUpID := int64(1)
	pending := transactionRepo.add(models.Transaction{
		UserID:   7,
		SignUpID: &signUpID,
		Amount:   "12.00",
		Status:   string(models.TransactionStatusPending),
	})
	kept, err := service.UpdateStatus(context.Background(), pending.ID, string(models.TransactionStatusPending))
	if err != nil {
		t.Fatalf("pending to pending should be a no-op, got %v", err)
	}
	if kept.Status != string(models.TransactionStatusPending) {
		t.Errorf("status = %q, want pending", kept.Status)
	}
}
