package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/pranshh/library-management-mad2/internal/apperror"
	"github.com/pranshh/library-management-mad2/internal/auth"
	dbaudit "github.com/pranshh/library-management-mad2/internal/database/audit"
	"github.com/pranshh/library-management-mad2/internal/database/catalog"
	"github.com/pranshh/library-management-mad2/internal/database/stats"
	"github.com/pranshh/library-management-mad2/internal/entities"
	"github.com/pranshh/library-management-mad2/internal/lending"
	"github.com/pranshh/library-management-mad2/internal/scheduler"
)

const (
	readerToken    = "reader-token"
	librarianToken = "librarian-token"
	readerID       = uint(2)
	librarianID    = uint(1)
)

// stubAuthenticator maps fixed tokens to users.
type stubAuthenticator struct{}

func (stubAuthenticator) Authenticate(_ context.Context, token string) (*entities.User, error) {
	switch token {
	case readerToken:
		return &entities.User{ID: readerID, Username: "reader", Active: true}, nil
	case librarianToken:
		return &entities.User{
			ID:       librarianID,
			Username: "librarian",
			Active:   true,
			Roles:    []entities.Role{{Name: entities.RoleLibrarian}},
		}, nil
	}
	return nil, apperror.Unauthenticated("Invalid or expired token")
}

// --- Catalog ---

type fakeCatalog struct {
	mu       sync.Mutex
	sections map[uint]*entities.Section
	ebooks   map[uint]*entities.Ebook
	nextID   uint
	err      error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		sections: map[uint]*entities.Section{},
		ebooks:   map[uint]*entities.Ebook{},
		nextID:   1,
	}
}

func (f *fakeCatalog) CreateSection(section *entities.Section) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	section.ID = f.nextID
	f.nextID++
	copied := *section
	f.sections[section.ID] = &copied
	return nil
}

func (f *fakeCatalog) GetSection(id uint) (*entities.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sections[id]
	if !ok {
		return nil, catalog.ErrSectionNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeCatalog) ListSections() ([]entities.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []entities.Section
	for id := uint(1); id < f.nextID; id++ {
		if s, ok := f.sections[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeCatalog) UpdateSection(id uint, name, description string) (*entities.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sections[id]
	if !ok {
		return nil, catalog.ErrSectionNotFound
	}
	s.Name, s.Description = name, description
	copied := *s
	return &copied, nil
}

func (f *fakeCatalog) DeleteSection(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sections[id]; !ok {
		return catalog.ErrSectionNotFound
	}
	delete(f.sections, id)
	for eid, e := range f.ebooks {
		if e.SectionID == id {
			delete(f.ebooks, eid)
		}
	}
	return nil
}

func (f *fakeCatalog) CreateEbook(ebook *entities.Ebook) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sections[ebook.SectionID]; !ok {
		return catalog.ErrSectionNotFound
	}
	ebook.ID = f.nextID
	f.nextID++
	copied := *ebook
	f.ebooks[ebook.ID] = &copied
	return nil
}

func (f *fakeCatalog) GetEbook(id uint) (*entities.Ebook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.ebooks[id]
	if !ok {
		return nil, catalog.ErrEbookNotFound
	}
	copied := *e
	return &copied, nil
}

func (f *fakeCatalog) ListEbooks(sectionID uint) ([]entities.Ebook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entities.Ebook
	for id := uint(1); id < f.nextID; id++ {
		if e, ok := f.ebooks[id]; ok && (sectionID == 0 || e.SectionID == sectionID) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeCatalog) UpdateEbook(id uint, changes entities.Ebook) (*entities.Ebook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.ebooks[id]
	if !ok {
		return nil, catalog.ErrEbookNotFound
	}
	if _, ok := f.sections[changes.SectionID]; !ok {
		return nil, catalog.ErrSectionNotFound
	}
	e.Name, e.Author, e.Content, e.SectionID = changes.Name, changes.Author, changes.Content, changes.SectionID
	copied := *e
	return &copied, nil
}

func (f *fakeCatalog) DeleteEbook(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ebooks[id]; !ok {
		return catalog.ErrEbookNotFound
	}
	delete(f.ebooks, id)
	return nil
}

// --- Lending ---

type fakeLoans struct {
	views      []lending.RequestView
	expired    []lending.ExpiredLoan
	err        error
	sweepErr   error
	gotUserID  uint
	gotLibr    bool
	gotStatus  entities.RequestStatus
	gotEbookID uint
}

func (f *fakeLoans) CreateRequest(_ context.Context, userID, ebookID uint) (*entities.Request, error) {
	f.gotUserID, f.gotEbookID = userID, ebookID
	if f.err != nil {
		return nil, f.err
	}
	return &entities.Request{ID: 42, UserID: userID, EbookID: ebookID, Status: entities.RequestStatusRequested}, nil
}

func (f *fakeLoans) UpdateRequestStatus(_ context.Context, librarianID, requestID uint, status entities.RequestStatus) (*entities.Request, error) {
	f.gotUserID, f.gotStatus = librarianID, status
	if f.err != nil {
		return nil, f.err
	}
	due := time.Date(2026, 10, 23, 0, 0, 0, 0, time.UTC)
	return &entities.Request{ID: requestID, Status: status, ReturnDate: &due}, nil
}

func (f *fakeLoans) ReturnRequest(_ context.Context, userID, requestID uint) (*entities.Request, error) {
	f.gotUserID = userID
	if f.err != nil {
		return nil, f.err
	}
	return &entities.Request{ID: requestID, UserID: userID, Status: entities.RequestStatusReturned}, nil
}

func (f *fakeLoans) AutoExpireSweep(_ context.Context, _ time.Time) ([]lending.ExpiredLoan, error) {
	return f.expired, f.sweepErr
}

func (f *fakeLoans) ListRequests(_ context.Context, userID uint, librarian bool) ([]lending.RequestView, error) {
	f.gotUserID, f.gotLibr = userID, librarian
	return f.views, f.err
}

type fakeFeedback struct {
	views     []lending.FeedbackView
	err       error
	gotUserID uint
	gotLibr   bool
	gotRating int
	deleted   uint
}

func (f *fakeFeedback) SubmitFeedback(_ context.Context, userID, ebookID uint, rating int, comment string) (*entities.Feedback, error) {
	f.gotUserID, f.gotRating = userID, rating
	if f.err != nil {
		return nil, f.err
	}
	return &entities.Feedback{ID: 9, UserID: userID, EbookID: ebookID, Rating: rating, Comment: comment}, nil
}

func (f *fakeFeedback) DeleteFeedback(_ context.Context, _, feedbackID uint) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = feedbackID
	return nil
}

func (f *fakeFeedback) ListFeedback(_ context.Context, userID uint, librarian bool) ([]lending.FeedbackView, error) {
	f.gotUserID, f.gotLibr = userID, librarian
	return f.views, f.err
}

// --- Profiles and stats ---

type fakeProfiles struct {
	update auth.ProfileUpdate
	err    error
}

func (f *fakeProfiles) GetUser(_ context.Context, id uint) (*entities.User, error) {
	return &entities.User{ID: id, Username: "reader", Email: "reader@example.com", NoOfBooks: 2}, nil
}

func (f *fakeProfiles) ListUsers(_ context.Context) ([]auth.UserSummary, error) {
	return []auth.UserSummary{
		{ID: 1, Email: "librarian@iitm.in", Username: "librarian", Role: "librarian"},
		{ID: 2, Email: "reader@example.com", Username: "reader", Role: "user"},
	}, nil
}

func (f *fakeProfiles) UpdateProfile(_ context.Context, _ uint, update auth.ProfileUpdate) (*entities.User, error) {
	f.update = update
	if f.err != nil {
		return nil, f.err
	}
	return &entities.User{}, nil
}

type fakeStats struct {
	gotUserID uint
}

func (f *fakeStats) UserStats(userID uint) (*stats.UserStats, error) {
	f.gotUserID = userID
	return &stats.UserStats{BooksRequested: 3, RequestsGranted: 1, BooksReturned: 1}, nil
}

func (f *fakeStats) Dashboard() (*stats.Dashboard, error) {
	return &stats.Dashboard{ActiveUsers: 1, PendingRequests: 2, TotalFeedbacks: 4}, nil
}

type fakeAudit struct {
	filter dbaudit.Filter
}

func (f *fakeAudit) ListEvents(filter dbaudit.Filter) ([]entities.AuditEvent, int64, error) {
	f.filter = filter
	return []entities.AuditEvent{{ID: 1, Action: "request_grant"}}, 51, nil
}

func (f *fakeAudit) History(requestID uint) ([]entities.AuditEvent, error) {
	return []entities.AuditEvent{{ID: 2, EntityID: &requestID, Action: "request_create"}}, nil
}

// --- Tasks ---

type fakeQueue struct {
	tasks  []backlite.Task
	err    error
	ids    []string
	status backlite.TaskStatus
}

func (q *fakeQueue) Enqueue(_ context.Context, tasks ...backlite.Task) ([]string, error) {
	q.tasks = append(q.tasks, tasks...)
	if q.ids != nil {
		return q.ids, q.err
	}
	if q.err != nil {
		return nil, q.err
	}
	return []string{"task-1"}, nil
}

func (q *fakeQueue) Status(_ context.Context, _ string) (backlite.TaskStatus, error) {
	return q.status, nil
}

type fakeScheduler struct {
	ran []string
}

func (s *fakeScheduler) Status() []scheduler.JobStatus {
	return []scheduler.JobStatus{{Name: "expire_loans", Schedule: "0 0 * * *", Description: "Daily at midnight"}}
}

func (s *fakeScheduler) RunNow(_ context.Context, name string) error {
	if name != "expire_loans" {
		return scheduler.ErrUnknownJob
	}
	s.ran = append(s.ran, name)
	return nil
}

// --- Router harness ---

type testDeps struct {
	catalog   *fakeCatalog
	loans     *fakeLoans
	feedback  *fakeFeedback
	profiles  *fakeProfiles
	stats     *fakeStats
	audit     *fakeAudit
	queue     *fakeQueue
	scheduler *fakeScheduler
}

func newTestRouter(t *testing.T) (*gin.Engine, *testDeps) {
	t.Helper()
	deps := &testDeps{
		catalog:   newFakeCatalog(),
		loans:     &fakeLoans{},
		feedback:  &fakeFeedback{},
		profiles:  &fakeProfiles{},
		stats:     &fakeStats{},
		audit:     &fakeAudit{},
		queue:     &fakeQueue{status: backlite.TaskStatusSuccess},
		scheduler: &fakeScheduler{},
	}
	router := NewRouter(RouterConfig{
		Catalog:        deps.catalog,
		Loans:          deps.loans,
		Feedback:       deps.feedback,
		Stats:          deps.stats,
		Profiles:       deps.profiles,
		AuthMiddleware: auth.NewMiddleware(stubAuthenticator{}),
		AuditLog:       deps.audit,
		TaskQueue:      deps.queue,
		Scheduler:      deps.scheduler,
		AllowedOrigins: []string{"http://localhost:8080"},
		Version:        "test",
	})
	return router, deps
}

func doRequest(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
