package services

import (
	"context"
	"sync"
	"time"

	"acroyoga_club_backend/internal/mailer"
	"acroyoga_club_backend/internal/messaging"
	"acroyoga_club_backend/internal/models"
	"acroyoga_club_backend/internal/repositories"
)

// fakeTxRunner runs the transactional function directly. The mock
// repositories guard their own state, so no begin/commit is needed.
type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(fn func(executor repositories.SQLExecutor) error) error {
	return fn(nil)
}

// snapshotTxRunner serializes transactional functions and restores the
// registered mocks' state when one fails, so partial mutations do not
// outlive a failed transaction the way they never would past a database
// rollback.
type snapshotTxRunner struct {
	mu    sync.Mutex
	repos []interface{ snapshot() func() }
}

func newSnapshotTxRunner(repos ...interface{ snapshot() func() }) *snapshotTxRunner {
	return &snapshotTxRunner{repos: repos}
}

func (r *snapshotTxRunner) RunInTx(fn func(executor repositories.SQLExecutor) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	restores := make([]func(), 0, len(r.repos))
	for _, repo := range r.repos {
		restores = append(restores, repo.snapshot())
	}
	if err := fn(nil); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

// --- user repository mock ---

type mockUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User

	CreateUserErr error
	GetUserErr    error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{nextID: 1, users: make(map[int64]*models.User)}
}

func (m *mockUserRepo) add(user models.User) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == 0 {
		user.ID = m.nextID
	}
	if user.ID >= m.nextID {
		m.nextID = user.ID + 1
	}
	u := user
	m.users[u.ID] = &u
	return &u
}

func (m *mockUserRepo) CreateUser(_ repositories.SQLExecutor, user *models.User) (int64, error) {
	if m.CreateUserErr != nil {
		return 0, m.CreateUserErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return 0, repositories.ErrDuplicateKey
		}
	}
	user.ID = m.nextID
	m.nextID++
	stored := *user
	m.users[user.ID] = &stored
	return user.ID, nil
}

func (m *mockUserRepo) GetUserByID(id int64) (*models.User, error) {
	if m.GetUserErr != nil {
		return nil, m.GetUserErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	u := *user
	return &u, nil
}

func (m *mockUserRepo) GetUserByEmail(email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			u := *user
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockUserRepo) UpdateProfile(_ repositories.SQLExecutor, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) SetStatus(_ repositories.SQLExecutor, userID int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Status = status
	return nil
}

func (m *mockUserRepo) SetMembership(_ repositories.SQLExecutor, userID int64, isMember bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.IsMember = isMember
	return nil
}

func (m *mockUserRepo) SetMailingEnabled(_ repositories.SQLExecutor, userID int64, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.MailingEnabled = enabled
	return nil
}

func (m *mockUserRepo) ListUsers(filters models.UserFilters) ([]models.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, user := range m.users {
		if filters.IsMember != nil && user.IsMember != *filters.IsMember {
			continue
		}
		if filters.Status != nil && user.Status != *filters.Status {
			continue
		}
		out = append(out, *user)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) ListActiveByMembership(isMember bool, mailableOnly bool) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, user := range m.users {
		if user.IsMember != isMember || user.Status != string(models.UserStatusActive) {
			continue
		}
		if mailableOnly && !user.MailingEnabled {
			continue
		}
		out = append(out, *user)
	}
	return out, nil
}

func (m *mockUserRepo) ListByIDs(ids []int64) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if user, ok := m.users[id]; ok {
			out = append(out, *user)
		}
	}
	return out, nil
}

// --- activity repository mock ---

// mockActivityRepo mirrors the conditional UPDATE semantics of the real
// repository: IncrementParticipantCount only succeeds while a slot is
// free, atomically under its mutex.
type mockActivityRepo struct {
	mu         sync.Mutex
	nextID     int64
	activities map[int64]*models.Activity

	IncrementCalls int
}

func newMockActivityRepo() *mockActivityRepo {
	return &mockActivityRepo{nextID: 1, activities: make(map[int64]*models.Activity)}
}

func (m *mockActivityRepo) add(activity models.Activity) *models.Activity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if activity.ID == 0 {
		activity.ID = m.nextID
	}
	if activity.ID >= m.nextID {
		m.nextID = activity.ID + 1
	}
	a := activity
	m.activities[a.ID] = &a
	return &a
}

func (m *mockActivityRepo) CreateActivity(_ repositories.SQLExecutor, activity *models.Activity) (*models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	activity.ID = m.nextID
	m.nextID++
	stored := *activity
	m.activities[activity.ID] = &stored
	return activity, nil
}

func (m *mockActivityRepo) GetActivityByID(id int64) (*models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	activity, ok := m.activities[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	a := *activity
	return &a, nil
}

func (m *mockActivityRepo) ListActivities(date *time.Time) ([]models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Activity
	for _, activity := range m.activities {
		if date != nil {
			y, mo, d := date.Date()
			ay, amo, ad := activity.DateTime.Date()
			if y != ay || mo != amo || d != ad {
				continue
			}
		}
		out = append(out, *activity)
	}
	return out, nil
}

func (m *mockActivityRepo) UpdateActivity(_ repositories.SQLExecutor, activity *models.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.activities[activity.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *activity
	m.activities[activity.ID] = &stored
	return nil
}

func (m *mockActivityRepo) DeleteActivity(_ repositories.SQLExecutor, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.activities[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.activities, id)
	return nil
}

func (m *mockActivityRepo) IncrementParticipantCount(_ repositories.SQLExecutor, activityID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IncrementCalls++
	activity, ok := m.activities[activityID]
	if !ok {
		return repositories.ErrNotFound
	}
	if activity.ParticipantCount >= activity.Capacity {
		return repositories.ErrCapacityExceeded
	}
	activity.ParticipantCount++
	return nil
}

func (m *mockActivityRepo) GetParticipants(activityID int64) ([]models.ActivityParticipant, error) {
	return nil, nil
}

// snapshot preserves state, not the IncrementCalls counter: call counts
// are instrumentation and survive a rollback.
func (m *mockActivityRepo) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[int64]*models.Activity, len(m.activities))
	for id, activity := range m.activities {
		a := *activity
		saved[id] = &a
	}
	savedNext := m.nextID
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.activities = saved
		m.nextID = savedNext
	}
}

// --- sign-up repository mock ---

type mockSignUpRepo struct {
	mu      sync.Mutex
	nextID  int64
	signUps map[int64]*models.SignUp
}

func newMockSignUpRepo() *mockSignUpRepo {
	return &mockSignUpRepo{nextID: 1, signUps: make(map[int64]*models.SignUp)}
}

func (m *mockSignUpRepo) add(signUp models.SignUp) *models.SignUp {
	m.mu.Lock()
	defer m.mu.Unlock()
	if signUp.ID == 0 {
		signUp.ID = m.nextID
	}
	if signUp.ID >= m.nextID {
		m.nextID = signUp.ID + 1
	}
	s := signUp
	m.signUps[s.ID] = &s
	return &s
}

func (m *mockSignUpRepo) CreateSignUp(_ repositories.SQLExecutor, signUp *models.SignUp) (*models.SignUp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.signUps {
		if existing.UserID == signUp.UserID && existing.ActivityID == signUp.ActivityID {
			return nil, repositories.ErrDuplicateKey
		}
	}
	signUp.ID = m.nextID
	m.nextID++
	stored := *signUp
	m.signUps[signUp.ID] = &stored
	return signUp, nil
}

func (m *mockSignUpRepo) SetTransactionID(_ repositories.SQLExecutor, signUpID, transactionID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	signUp, ok := m.signUps[signUpID]
	if !ok {
		return repositories.ErrNotFound
	}
	signUp.TransactionID = &transactionID
	return nil
}

func (m *mockSignUpRepo) GetSignUpByID(id int64) (*models.SignUp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	signUp, ok := m.signUps[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	s := *signUp
	return &s, nil
}

func (m *mockSignUpRepo) GetByUserAndActivity(userID, activityID int64) (*models.SignUp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, signUp := range m.signUps {
		if signUp.UserID == userID && signUp.ActivityID == activityID {
			s := *signUp
			return &s, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockSignUpRepo) ListByUser(userID int64) ([]models.SignUp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SignUp
	for _, signUp := range m.signUps {
		if signUp.UserID == userID {
			out = append(out, *signUp)
		}
	}
	return out, nil
}

// --- transaction repository mock ---

type mockTransactionRepo struct {
	mu           sync.Mutex
	nextID       int64
	transactions map[int64]*models.Transaction
}

func newMockTransactionRepo() *mockTransactionRepo {
	return &mockTransactionRepo{nextID: 1, transactions: make(map[int64]*models.Transaction)}
}

func (m *mockTransactionRepo) add(transaction models.Transaction) *models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if transaction.ID == 0 {
		transaction.ID = m.nextID
	}
	if transaction.ID >= m.nextID {
		m.nextID = transaction.ID + 1
	}
	t := transaction
	m.transactions[t.ID] = &t
	return &t
}

func (m *mockTransactionRepo) CreateTransaction(_ repositories.SQLExecutor, transaction *models.Transaction) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	transaction.ID = m.nextID
	m.nextID++
	stored := *transaction
	m.transactions[transaction.ID] = &stored
	return transaction, nil
}

func (m *mockTransactionRepo) GetTransactionByID(id int64) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	transaction, ok := m.transactions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	t := *transaction
	return &t, nil
}

// UpdateStatus mirrors the real conditional update: only a pending
// transaction can leave pending.
func (m *mockTransactionRepo) UpdateStatus(_ repositories.SQLExecutor, id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	transaction, ok := m.transactions[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if transaction.Status != string(models.TransactionStatusPending) {
		return repositories.ErrAlreadyFinalized
	}
	transaction.Status = status
	return nil
}

func (m *mockTransactionRepo) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[int64]*models.Transaction, len(m.transactions))
	for id, tr := range m.transactions {
		t := *tr
		saved[id] = &t
	}
	savedNext := m.nextID
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.transactions = saved
		m.nextID = savedNext
	}
}

func (m *mockTransactionRepo) ListTransactions(page, pageSize int) ([]models.Transaction, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transaction
	for _, transaction := range m.transactions {
		out = append(out, *transaction)
	}
	return out, len(out), nil
}

// status reads a stored transaction's status directly.
func (m *mockTransactionRepo) status(id int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if transaction, ok := m.transactions[id]; ok {
		return transaction.Status
	}
	return ""
}

// --- trimester repository mock ---

type mockTrimesterRepo struct {
	mu         sync.Mutex
	nextID     int64
	trimesters map[int64]*models.Trimester
}

func newMockTrimesterRepo() *mockTrimesterRepo {
	return &mockTrimesterRepo{nextID: 1, trimesters: make(map[int64]*models.Trimester)}
}

func (m *mockTrimesterRepo) add(trimester models.Trimester) *models.Trimester {
	m.mu.Lock()
	defer m.mu.Unlock()
	if trimester.ID == 0 {
		trimester.ID = m.nextID
	}
	if trimester.ID >= m.nextID {
		m.nextID = trimester.ID + 1
	}
	t := trimester
	m.trimesters[t.ID] = &t
	return &t
}

func (m *mockTrimesterRepo) CreateTrimester(_ repositories.SQLExecutor, trimester *models.Trimester) (*models.Trimester, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trimester.ID = m.nextID
	m.nextID++
	stored := *trimester
	m.trimesters[trimester.ID] = &stored
	return trimester, nil
}

func (m *mockTrimesterRepo) GetTrimesterByID(id int64) (*models.Trimester, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trimester, ok := m.trimesters[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	t := *trimester
	return &t, nil
}

func (m *mockTrimesterRepo) ListTrimesters() ([]models.Trimester, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Trimester
	for _, trimester := range m.trimesters {
		out = append(out, *trimester)
	}
	return out, nil
}

func (m *mockTrimesterRepo) UpdateTrimester(_ repositories.SQLExecutor, trimester *models.Trimester) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trimesters[trimester.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *trimester
	m.trimesters[trimester.ID] = &stored
	return nil
}

func (m *mockTrimesterRepo) DeleteTrimester(_ repositories.SQLExecutor, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trimesters[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.trimesters, id)
	return nil
}

// --- membership fee repository mock ---

type mockFeeRepo struct {
	mu     sync.Mutex
	nextID int64
	fees   map[int64]*models.MembershipFee

	// members and trimester fee drive InsertDueFees.
	userRepo      *mockUserRepo
	trimesterRepo *mockTrimesterRepo

	PendingDetails []models.MembershipFee
}

func newMockFeeRepo(userRepo *mockUserRepo, trimesterRepo *mockTrimesterRepo) *mockFeeRepo {
	return &mockFeeRepo{
		nextID:        1,
		fees:          make(map[int64]*models.MembershipFee),
		userRepo:      userRepo,
		trimesterRepo: trimesterRepo,
	}
}

func (m *mockFeeRepo) add(fee models.MembershipFee) *models.MembershipFee {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fee.ID == 0 {
		fee.ID = m.nextID
	}
	if fee.ID >= m.nextID {
		m.nextID = fee.ID + 1
	}
	f := fee
	m.fees[f.ID] = &f
	return &f
}

// InsertDueFees mirrors the real anti-join: one pending fee per active
// member not yet billed for the trimester.
func (m *mockFeeRepo) InsertDueFees(_ repositories.SQLExecutor, trimesterID int64) ([]models.MembershipFee, error) {
	trimester, err := m.trimesterRepo.GetTrimesterByID(trimesterID)
	if err != nil {
		return nil, err
	}
	members, err := m.userRepo.ListActiveByMembership(true, false)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var created []models.MembershipFee
	for _, member := range members {
		billed := false
		for _, fee := range m.fees {
			if fee.UserID == member.ID && fee.TrimesterID == trimesterID {
				billed = true
				break
			}
		}
		if billed {
			continue
		}
		fee := &models.MembershipFee{
			ID:          m.nextID,
			UserID:      member.ID,
			TrimesterID: trimesterID,
			Fee:         trimester.MembershipFee,
			Status:      string(models.MembershipFeeStatusPending),
		}
		m.nextID++
		m.fees[fee.ID] = fee
		created = append(created, *fee)
	}
	return created, nil
}

func (m *mockFeeRepo) GetFeeByID(id int64) (*models.MembershipFee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fee, ok := m.fees[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	f := *fee
	return &f, nil
}

func (m *mockFeeRepo) SetStatus(_ repositories.SQLExecutor, id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fee, ok := m.fees[id]
	if !ok {
		return repositories.ErrNotFound
	}
	fee.Status = status
	return nil
}

func (m *mockFeeRepo) ListByUser(userID int64) ([]models.MembershipFee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.MembershipFee
	for _, fee := range m.fees {
		if fee.UserID == userID {
			out = append(out, *fee)
		}
	}
	return out, nil
}

func (m *mockFeeRepo) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[int64]*models.MembershipFee, len(m.fees))
	for id, fee := range m.fees {
		f := *fee
		saved[id] = &f
	}
	savedNext := m.nextID
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.fees = saved
		m.nextID = savedNext
	}
}

func (m *mockFeeRepo) GetPendingWithDetails() ([]models.MembershipFee, error) {
	if m.PendingDetails != nil {
		return m.PendingDetails, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.MembershipFee
	for _, fee := range m.fees {
		if fee.Status != string(models.MembershipFeeStatusPending) {
			continue
		}
		f := *fee
		if user, err := m.userRepo.GetUserByID(fee.UserID); err == nil {
			f.User = user
		}
		out = append(out, f)
	}
	return out, nil
}

// --- email repository mock ---

type mockEmailRepo struct {
	mu     sync.Mutex
	nextID int64
	emails map[int64]*models.Email
}

func newMockEmailRepo() *mockEmailRepo {
	return &mockEmailRepo{nextID: 1, emails: make(map[int64]*models.Email)}
}

func (m *mockEmailRepo) add(email models.Email) *models.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	if email.ID == 0 {
		email.ID = m.nextID
	}
	if email.ID >= m.nextID {
		m.nextID = email.ID + 1
	}
	e := email
	m.emails[e.ID] = &e
	return &e
}

func (m *mockEmailRepo) CreateEmail(_ repositories.SQLExecutor, email *models.Email) (*models.Email, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email.ID = m.nextID
	m.nextID++
	stored := *email
	m.emails[email.ID] = &stored
	return email, nil
}

func (m *mockEmailRepo) GetEmailByID(id int64) (*models.Email, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email, ok := m.emails[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	e := *email
	return &e, nil
}

func (m *mockEmailRepo) ListEmails() ([]models.Email, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Email
	for _, email := range m.emails {
		out = append(out, *email)
	}
	return out, nil
}

func (m *mockEmailRepo) UpdateDraft(_ repositories.SQLExecutor, email *models.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.emails[email.ID]
	if !ok || stored.Status != string(models.EmailStatusDraft) {
		return repositories.ErrNotFound
	}
	updated := *email
	m.emails[email.ID] = &updated
	return nil
}

func (m *mockEmailRepo) DeleteEmail(_ repositories.SQLExecutor, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.emails[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.emails, id)
	return nil
}

func (m *mockEmailRepo) MarkSent(_ repositories.SQLExecutor, id int64, sentAt time.Time, results models.SendingResults) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	email, ok := m.emails[id]
	if !ok {
		return repositories.ErrNotFound
	}
	email.Status = string(models.EmailStatusSent)
	email.SentAt = &sentAt
	r := results
	email.SendingResults = &r
	return nil
}

// --- publisher mock ---

type mockPublisher struct {
	mu     sync.Mutex
	Events []messaging.Event

	PublishErr error
}

func (m *mockPublisher) Publish(_ context.Context, event messaging.Event) error {
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) eventNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.Events))
	for i, event := range m.Events {
		names[i] = event.Name
	}
	return names
}

// --- mailer mock ---

type mockMailer struct {
	mu   sync.Mutex
	Sent []mailer.Message

	// FailFor lists recipient addresses whose delivery fails.
	FailFor map[string]error
	SendErr error
}

func newMockMailer() *mockMailer {
	return &mockMailer{FailFor: make(map[string]error)}
}

func (m *mockMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	if err, ok := m.FailFor[msg.To]; ok {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	return nil
}

// --- rate limiter mock ---

type mockLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	limit  int

	AllowErr error
}

func newMockLimiter(limit int) *mockLimiter {
	return &mockLimiter{counts: make(map[string]int), limit: limit}
}

func (m *mockLimiter) Allow(_ context.Context, key string) (bool, error) {
	if m.AllowErr != nil {
		return false, m.AllowErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key] <= m.limit, nil
}
