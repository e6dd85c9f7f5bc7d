package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coursehub/backend/internal/curriculum"
	"github.com/coursehub/backend/internal/models"
	"github.com/hibiken/asynq"
)

// mockCourseRepository is a mock implementation of the course repository interfaces
type mockCourseRepository struct {
	mu              sync.Mutex
	course          *models.Course
	courses         []models.CourseListItem
	existsBySlug    bool
	existsByTitle   bool
	err             error
	createErr       error
	updateErr       error
	deleteErr       error
	updateStatusErr error
	statusUpdates   []models.CourseStatus
	updated         *models.UpdateCourseRequest
	created         *models.Course
	deleted         bool
}

func (m *mockCourseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.course == nil {
		return nil, fmt.Errorf("course not found")
	}
	c := *m.course
	return &c, nil
}

func (m *mockCourseRepository) GetByAuthor(ctx context.Context, authorID *int, status models.CourseStatus, search string, page, count int) ([]models.CourseListItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.courses, nil
}

func (m *mockCourseRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.existsBySlug, nil
}

func (m *mockCourseRepository) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.existsByTitle, nil
}

func (m *mockCourseRepository) Create(ctx context.Context, course *models.Course) error {
	if m.createErr != nil {
		return m.createErr
	}
	course.ID = 1
	m.created = course
	return nil
}

func (m *mockCourseRepository) Update(ctx context.Context, id int, req *models.UpdateCourseRequest) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = req
	return nil
}

func (m *mockCourseRepository) UpdateStatus(ctx context.Context, id int, status models.CourseStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateStatusErr != nil {
		return m.updateStatusErr
	}
	m.statusUpdates = append(m.statusUpdates, status)
	return nil
}

func (m *mockCourseRepository) Delete(ctx context.Context, id int) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = true
	return nil
}

// mockTreeRepository is a mock implementation of the saved curriculum repository
type mockTreeRepository struct {
	tree    []models.Section
	getErr  error
	saveErr error
	saved   []models.Section
	nextID  int64
}

func (m *mockTreeRepository) GetTree(ctx context.Context, courseID int) ([]models.Section, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return curriculum.Clone(m.tree), nil
}

// SaveTree assigns IDs to new sections and lessons the way the database would
func (m *mockTreeRepository) SaveTree(ctx context.Context, courseID int, sections []models.Section) ([]models.Section, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.saved = curriculum.Clone(sections)
	out := curriculum.Clone(sections)
	for i := range out {
		if out[i].ID == nil {
			out[i].ID = m.newID()
		}
		for j := range out[i].Lessons {
			if out[i].Lessons[j].ID == nil {
				out[i].Lessons[j].ID = m.newID()
			}
		}
	}
	return out, nil
}

func (m *mockTreeRepository) newID() *int64 {
	m.nextID++
	id := 1000 + m.nextID
	return &id
}

// mockDraftStore is an in-memory implementation of DraftStore
type mockDraftStore struct {
	mu        sync.Mutex
	drafts    map[int]*models.CurriculumDraft
	getErr    error
	saveErr   error
	updateErr error
	saves     int
	// beforeUpdate runs inside Update before fn, simulating a concurrent writer
	beforeUpdate func(d *models.CurriculumDraft)
	// beforeSaveIfAbsent runs once at the start of the next SaveIfAbsent, simulating a concurrent request
	beforeSaveIfAbsent func()
}

func newMockDraftStore() *mockDraftStore {
	return &mockDraftStore{drafts: map[int]*models.CurriculumDraft{}}
}

func copyDraft(d *models.CurriculumDraft) *models.CurriculumDraft {
	c := *d
	c.Sections = curriculum.Clone(d.Sections)
	return &c
}

func (m *mockDraftStore) Get(ctx context.Context, courseID int) (*models.CurriculumDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	d, ok := m.drafts[courseID]
	if !ok {
		return nil, fmt.Errorf("draft not found")
	}
	return copyDraft(d), nil
}

func (m *mockDraftStore) Save(ctx context.Context, draft *models.CurriculumDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.drafts[draft.CourseID] = copyDraft(draft)
	return nil
}

func (m *mockDraftStore) SaveIfAbsent(ctx context.Context, draft *models.CurriculumDraft) (bool, error) {
	m.mu.Lock()
	hook := m.beforeSaveIfAbsent
	m.beforeSaveIfAbsent = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return false, m.saveErr
	}
	if _, ok := m.drafts[draft.CourseID]; ok {
		return false, nil
	}
	m.saves++
	m.drafts[draft.CourseID] = copyDraft(draft)
	return true, nil
}

func (m *mockDraftStore) Delete(ctx context.Context, courseID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, courseID)
	return nil
}

func (m *mockDraftStore) Update(ctx context.Context, courseID int, fn func(*models.CurriculumDraft) error) (*models.CurriculumDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	stored, ok := m.drafts[courseID]
	if !ok {
		return nil, fmt.Errorf("draft not found")
	}
	if m.beforeUpdate != nil {
		m.beforeUpdate(stored)
	}
	d := copyDraft(stored)
	if err := fn(d); err != nil {
		return nil, err
	}
	d.Version++
	d.UpdatedAt = time.Now().UTC()
	m.drafts[courseID] = copyDraft(d)
	return d, nil
}

// mockCurrencyRepository is a mock implementation of the currency repository interfaces
type mockCurrencyRepository struct {
	mu         sync.Mutex
	known      map[string]bool
	currencies []models.Currency
	rates      []models.ExchangeRate
	err        error
	createErr  error
	updateErr  error
	deleteErr  error
	created    *models.Currency
	upserted   *models.ExchangeRate
	ratesBase  string
}

func (m *mockCurrencyRepository) GetAll(ctx context.Context) ([]models.Currency, error) {
	return m.currencies, m.err
}

func (m *mockCurrencyRepository) GetByCode(ctx context.Context, code string) (*models.Currency, error) {
	if m.err != nil {
		return nil, m.err
	}
	if !m.known[code] {
		return nil, fmt.Errorf("currency not found")
	}
	return &models.Currency{Code: code}, nil
}

func (m *mockCurrencyRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	return m.known[code], nil
}

func (m *mockCurrencyRepository) Create(ctx context.Context, c *models.Currency) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = c
	return nil
}

func (m *mockCurrencyRepository) Update(ctx context.Context, code string, req *models.UpdateCurrencyRequest) error {
	return m.updateErr
}

func (m *mockCurrencyRepository) Delete(ctx context.Context, code string) error {
	return m.deleteErr
}

func (m *mockCurrencyRepository) GetRates(ctx context.Context, baseCode string) ([]models.ExchangeRate, error) {
	m.ratesBase = baseCode
	return m.rates, m.err
}

func (m *mockCurrencyRepository) UpsertRate(ctx context.Context, rate *models.ExchangeRate) error {
	if m.err != nil {
		return m.err
	}
	m.upserted = rate
	return nil
}

func (m *mockCurrencyRepository) DeleteRate(ctx context.Context, baseCode, quoteCode string) error {
	return m.deleteErr
}

// mockReviewSubmitter is a mock implementation of ReviewSubmitter
type mockReviewSubmitter struct {
	pending   bool
	err       error
	createErr error
	created   *models.ApprovalRequest
}

func (m *mockReviewSubmitter) ExistsPendingForCourse(ctx context.Context, courseID int) (bool, error) {
	return m.pending, m.err
}

func (m *mockReviewSubmitter) Create(ctx context.Context, req *models.ApprovalRequest) error {
	if m.createErr != nil {
		return m.createErr
	}
	req.ID = 1
	req.Status = models.ApprovalStatusPending
	m.created = req
	return nil
}

// mockApprovalRepository is a mock implementation of ApprovalRepository
type mockApprovalRepository struct {
	request   *models.ApprovalRequest
	items     []models.ApprovalListItem
	err       error
	decideErr error
	listed    models.ApprovalStatus
	decided   models.ApprovalStatus
	notes     string
	reviewer  int
}

func (m *mockApprovalRepository) GetByID(ctx context.Context, id int) (*models.ApprovalRequest, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.request == nil {
		return nil, fmt.Errorf("approval request not found")
	}
	return m.request, nil
}

func (m *mockApprovalRepository) List(ctx context.Context, status models.ApprovalStatus, page, count int) ([]models.ApprovalListItem, error) {
	m.listed = status
	return m.items, m.err
}

func (m *mockApprovalRepository) Decide(ctx context.Context, id int, decision models.ApprovalStatus, reviewerID int, notes string) error {
	if m.decideErr != nil {
		return m.decideErr
	}
	m.decided = decision
	m.reviewer = reviewerID
	m.notes = notes
	return nil
}

// mockTaskEnqueuer records enqueued tasks instead of sending them to Redis
type mockTaskEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error
	// failOn makes the enqueuer fail only for tasks of this type
	failOn string
}

func (m *mockTaskEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil && (m.failOn == "" || m.failOn == task.Type()) {
		return nil, m.err
	}
	m.tasks = append(m.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

// mockNotificationRepository is a mock implementation of NotificationRepository
type mockNotificationRepository struct {
	notifications []models.Notification
	err           error
	created       *models.Notification
	page, count   int
	unreadOnly    bool
	marked        int64
}

func (m *mockNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if m.err != nil {
		return m.err
	}
	n.ID = 1
	m.created = n
	return nil
}

func (m *mockNotificationRepository) GetByUser(ctx context.Context, userID int, unreadOnly bool, page, count int) ([]models.Notification, error) {
	m.unreadOnly, m.page, m.count = unreadOnly, page, count
	return m.notifications, m.err
}

func (m *mockNotificationRepository) MarkRead(ctx context.Context, id, userID int) error {
	return m.err
}

func (m *mockNotificationRepository) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	return m.marked, m.err
}

// mockPendingCounter is a mock implementation of PendingReviewCounter
type mockPendingCounter struct {
	count int
	err   error
	age   time.Duration
}

func (m *mockPendingCounter) CountPendingOlderThan(ctx context.Context, age time.Duration) (int, error) {
	m.age = age
	return m.count, m.err
}
