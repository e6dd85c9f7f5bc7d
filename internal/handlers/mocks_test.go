package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coursehub/backend/internal/curriculum"
	"github.com/coursehub/backend/internal/middleware"
	"github.com/coursehub/backend/internal/models"
	"github.com/go-chi/chi/v5"
)

type routeRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// serve routes a request through the handler's routes as the given user (userID 0 means anonymous)
func serve(t *testing.T, h routeRegistrar, method, target, body string, userID, role int) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req = req.WithContext(middleware.WithUser(req.Context(), userID, role))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// mockCurriculumService is a mock implementation of CurriculumService
type mockCurriculumService struct {
	draft    *models.CurriculumDraft
	resp     *models.DraftResponse
	sections []models.Section
	err      error

	courseID int
	tutorID  *int
	refs     []string
	order    []string
	action   curriculum.Action
	section  *models.SectionRequest
	lesson   models.Lesson
}

func (m *mockCurriculumService) record(courseID int, tutorID *int, refs ...string) {
	m.courseID = courseID
	m.tutorID = tutorID
	m.refs = refs
}

func (m *mockCurriculumService) OpenDraft(ctx context.Context, courseID int, tutorID *int) (*models.CurriculumDraft, error) {
	m.record(courseID, tutorID)
	return m.draft, m.err
}

func (m *mockCurriculumService) ApplyAction(ctx context.Context, courseID int, tutorID *int, action curriculum.Action) (*models.DraftResponse, error) {
	m.record(courseID, tutorID)
	m.action = action
	return m.resp, m.err
}

func (m *mockCurriculumService) AddSection(ctx context.Context, courseID int, tutorID *int, req *models.SectionRequest) (*models.DraftResponse, error) {
	m.record(courseID, tutorID)
	m.section = req
	return m.resp, m.err
}

func (m *mockCurriculumService) UpdateSection(ctx context.Context, courseID int, tutorID *int, sectionRef string, req *models.SectionRequest) (*models.DraftResponse, error) {
	m.record(courseID, tutorID, sectionRef)
	m.section = req
	return m.resp, m.err
}

func (m *mockCurriculumService) DeleteSection(ctx context.Context, courseID int, tutorID *int, sectionRef string) (*models.DraftResponse, error) {
	m.record(courseID, tutorID, sectionRef)
	return m.resp, m.err
}

func (m *mockCurriculumService) ReorderSections(ctx context.Context, courseID int, tutorID *int, order []string) (*models.DraftResponse, error) {
	m.record(courseID, tutorID)
	m.order = order
	return m.resp, m.err
}

func (m *mockCurriculumService) AddLesson(ctx context.Context, courseID int, tutorID *int, sectionRef string, lesson models.Lesson) (*models.DraftResponse, error) {
	m.record(courseID, tutorID, sectionRef)
	m.lesson = lesson
	return m.resp, m.err
}

func (m *mockCurriculumService) UpdateLesson(ctx context.Context, courseID int, tutorID *int, sectionRef, lessonRef string, lesson models.Lesson) (*models.DraftResponse, error) {
	m.record(courseID, tutorID, sectionRef, lessonRef)
	m.lesson = lesson
	return m.resp, m.err
}

func (m *mockCurriculumService) DeleteLesson(ctx context.Context, courseID int, tutorID *int, sectionRef, lessonRef string) (*models.DraftResponse, error) {
	m.record(courseID, tutorID, sectionRef, lessonRef)
	return m.resp, m.err
}

func (m *mockCurriculumService) ReorderLessons(ctx context.Context, courseID int, tutorID *int, sectionRef string, order []string) (*models.DraftResponse, error) {
	m.record(courseID, tutorID, sectionRef)
	m.order = order
	return m.resp, m.err
}

func (m *mockCurriculumService) SetCorrectOption(ctx context.Context, courseID int, tutorID *int, sectionRef, lessonRef, questionRef, optionRef string) (*models.DraftResponse, error) {
	m.record(courseID, tutorID, sectionRef, lessonRef, questionRef, optionRef)
	return m.resp, m.err
}

func (m *mockCurriculumService) SaveDraft(ctx context.Context, courseID int, tutorID *int) (*models.CurriculumDraft, error) {
	m.record(courseID, tutorID)
	return m.draft, m.err
}

func (m *mockCurriculumService) DiscardDraft(ctx context.Context, courseID int, tutorID *int) error {
	m.record(courseID, tutorID)
	return m.err
}

func (m *mockCurriculumService) GetPublishedCurriculum(ctx context.Context, courseID int) ([]models.Section, error) {
	m.record(courseID, nil)
	return m.sections, m.err
}

// mockCourseService is a mock implementation of CourseService
type mockCourseService struct {
	courses  []models.CourseListItem
	course   *models.Course
	request  *models.ApprovalRequest
	createID int
	err      error

	courseID  int
	tutorID   *int
	status    string
	search    string
	page      int
	count     int
	createReq *models.CreateCourseRequest
	updateReq *models.UpdateCourseRequest
}

func (m *mockCourseService) GetCourses(ctx context.Context, tutorID *int, status string, search string, page, count int) ([]models.CourseListItem, error) {
	m.tutorID, m.status, m.search, m.page, m.count = tutorID, status, search, page, count
	return m.courses, m.err
}

func (m *mockCourseService) GetCourse(ctx context.Context, courseID int, tutorID *int) (*models.Course, error) {
	m.courseID, m.tutorID = courseID, tutorID
	return m.course, m.err
}

func (m *mockCourseService) CreateCourse(ctx context.Context, req *models.CreateCourseRequest) (int, error) {
	m.createReq = req
	return m.createID, m.err
}

func (m *mockCourseService) UpdateCourse(ctx context.Context, courseID int, tutorID *int, req *models.UpdateCourseRequest) error {
	m.courseID, m.tutorID, m.updateReq = courseID, tutorID, req
	return m.err
}

func (m *mockCourseService) DeleteCourse(ctx context.Context, courseID int, tutorID *int) error {
	m.courseID, m.tutorID = courseID, tutorID
	return m.err
}

func (m *mockCourseService) SubmitForReview(ctx context.Context, courseID int, tutorID *int) (*models.ApprovalRequest, error) {
	m.courseID, m.tutorID = courseID, tutorID
	return m.request, m.err
}

// mockApprovalService is a mock implementation of ApprovalService
type mockApprovalService struct {
	items  []models.ApprovalListItem
	detail *models.ApprovalDetail
	err    error

	status     string
	id         int
	reviewerID int
	notes      string
	decision   string
}

func (m *mockApprovalService) ListRequests(ctx context.Context, status string, page, count int) ([]models.ApprovalListItem, error) {
	m.status = status
	return m.items, m.err
}

func (m *mockApprovalService) GetRequestDetail(ctx context.Context, id int) (*models.ApprovalDetail, error) {
	m.id = id
	return m.detail, m.err
}

func (m *mockApprovalService) Approve(ctx context.Context, id, reviewerID int, notes string) error {
	m.id, m.reviewerID, m.notes, m.decision = id, reviewerID, notes, "approve"
	return m.err
}

func (m *mockApprovalService) Reject(ctx context.Context, id, reviewerID int, notes string) error {
	m.id, m.reviewerID, m.notes, m.decision = id, reviewerID, notes, "reject"
	return m.err
}

// mockCurrencyService is a mock implementation of CurrencyService
type mockCurrencyService struct {
	currencies []models.Currency
	currency   *models.Currency
	rates      []models.ExchangeRate
	rate       *models.ExchangeRate
	err        error

	code      string
	base      string
	quote     string
	createReq *models.CreateCurrencyRequest
	updateReq *models.UpdateCurrencyRequest
	rateReq   *models.UpsertExchangeRateRequest
}

func (m *mockCurrencyService) GetCurrencies(ctx context.Context) ([]models.Currency, error) {
	return m.currencies, m.err
}

func (m *mockCurrencyService) CreateCurrency(ctx context.Context, req *models.CreateCurrencyRequest) (*models.Currency, error) {
	m.createReq = req
	return m.currency, m.err
}

func (m *mockCurrencyService) UpdateCurrency(ctx context.Context, code string, req *models.UpdateCurrencyRequest) error {
	m.code, m.updateReq = code, req
	return m.err
}

func (m *mockCurrencyService) DeleteCurrency(ctx context.Context, code string) error {
	m.code = code
	return m.err
}

func (m *mockCurrencyService) GetRates(ctx context.Context, baseCode string) ([]models.ExchangeRate, error) {
	m.base = baseCode
	return m.rates, m.err
}

func (m *mockCurrencyService) UpsertRate(ctx context.Context, req *models.UpsertExchangeRateRequest) (*models.ExchangeRate, error) {
	m.rateReq = req
	return m.rate, m.err
}

func (m *mockCurrencyService) DeleteRate(ctx context.Context, baseCode, quoteCode string) error {
	m.base, m.quote = baseCode, quoteCode
	return m.err
}

// mockNotificationService is a mock implementation of NotificationService
type mockNotificationService struct {
	notifications []models.Notification
	updated       int64
	err           error

	userID     int
	id         int
	unreadOnly bool
	page       int
	count      int
}

func (m *mockNotificationService) List(ctx context.Context, userID int, unreadOnly bool, page, count int) ([]models.Notification, error) {
	m.userID, m.unreadOnly, m.page, m.count = userID, unreadOnly, page, count
	return m.notifications, m.err
}

func (m *mockNotificationService) MarkRead(ctx context.Context, id, userID int) error {
	m.id, m.userID = id, userID
	return m.err
}

func (m *mockNotificationService) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	m.userID = userID
	return m.updated, m.err
}
