package request_test

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"go-timeoff/internal/approval"
	"go-timeoff/internal/domain"
	"go-timeoff/internal/employee"
	employeeerrors "go-timeoff/internal/employee/errors"
	"go-timeoff/internal/events"
	"go-timeoff/internal/messaging/kafka"
	"go-timeoff/internal/quota"
	"go-timeoff/internal/request"
	"go-timeoff/internal/shared/counter"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

// memRequestRepository keeps requests in memory. Gorm scopes cannot run here,
// so List and Count record them and defer to listFn/countFn when set.
type memRequestRepository struct {
	mu   sync.Mutex
	rows map[uuid.UUID]request.Request

	createErr   error
	listFn      func(filter request.Filter, scopes int) ([]request.Request, int64, error)
	countFn     func(scopes int) (int64, error)
	lastScopes  int
	lastFilter  request.Filter
	deleted     []uuid.UUID
	notifyRefs  map[uuid.UUID]datatypes.JSON
	statsRows   []request.StatRow
	updateCalls int
}

func newMemRequestRepository() *memRequestRepository {
	return &memRequestRepository{
		rows:       map[uuid.UUID]request.Request{},
		notifyRefs: map[uuid.UUID]datatypes.JSON{},
	}
}

func (m *memRequestRepository) seed(r request.Request) request.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	m.rows[r.ID] = r
	return r
}

func (m *memRequestRepository) get(id uuid.UUID) (request.Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	return r, ok
}

func (m *memRequestRepository) WithTx(tx *sql.Tx) request.Repository { return m }

func (m *memRequestRepository) Create(ctx context.Context, r *request.Request) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.seed(*r)
	return nil
}

func (m *memRequestRepository) FindByID(ctx context.Context, id string) (*request.Request, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	r, ok := m.get(uid)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &r, nil
}

func (m *memRequestRepository) FindByIDForUpdate(ctx context.Context, id string) (*request.Request, error) {
	return m.FindByID(ctx, id)
}

func (m *memRequestRepository) Update(ctx context.Context, r *request.Request) error {
	m.updateCalls++
	m.seed(*r)
	return nil
}

func (m *memRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.rows, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memRequestRepository) ActiveInRange(ctx context.Context, requesterID uuid.UUID, typ domain.RequestType, from, to time.Time, excludeID *uuid.UUID) ([]request.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []request.Request
	for _, r := range m.rows {
		if r.RequesterID != requesterID || r.Type != typ {
			continue
		}
		if r.Status != domain.StatusPending && r.Status != domain.StatusApproved {
			continue
		}
		if excludeID != nil && r.ID == *excludeID {
			continue
		}
		if domain.RangesIntersect(r.StartDate, r.EndDate, from, to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRequestRepository) List(ctx context.Context, filter request.Filter, scopes ...request.Scope) ([]request.Request, int64, error) {
	m.lastScopes = len(scopes)
	m.lastFilter = filter
	if m.listFn != nil {
		return m.listFn(filter, len(scopes))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []request.Request
	for _, r := range m.rows {
		if filter.RequesterID != nil && r.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.Type != nil && r.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (m *memRequestRepository) Count(ctx context.Context, scopes ...request.Scope) (int64, error) {
	m.lastScopes = len(scopes)
	if m.countFn != nil {
		return m.countFn(len(scopes))
	}
	return 0, nil
}

func (m *memRequestRepository) Stats(ctx context.Context, filter request.Filter, scopes ...request.Scope) ([]request.StatRow, error) {
	m.lastScopes = len(scopes)
	m.lastFilter = filter
	return m.statsRows, nil
}

func (m *memRequestRepository) SaveNotificationRef(ctx context.Context, id uuid.UUID, ref datatypes.JSON) error {
	m.notifyRefs[id] = ref
	return nil
}

type fakeCounter struct {
	values map[string]int64
	err    error
}

func newFakeCounter() *fakeCounter { return &fakeCounter{values: map[string]int64{}} }

func (f *fakeCounter) WithTx(tx *sql.Tx) counter.Repository { return f }

func (f *fakeCounter) GetNextValue(ctx context.Context, scope string, year int) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	k := fmt.Sprintf("%s-%d", scope, year)
	f.values[k]++
	return f.values[k], nil
}

type fakeOutbox struct {
	events []kafka.OutboxEvent
	err    error
}

func (f *fakeOutbox) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }
func (f *fakeOutbox) Create(ctx context.Context, e kafka.OutboxEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}
func (f *fakeOutbox) ListPending(context.Context, int, int) ([]kafka.OutboxEvent, error) { return nil, nil }
func (f *fakeOutbox) MarkSent(context.Context, string) error                          { return nil }
func (f *fakeOutbox) MarkFailed(context.Context, string, string) error                { return nil }

func (f *fakeOutbox) eventTypes() []string {
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.EventType
	}
	return out
}

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []events.NotificationJob
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, job events.NotificationJob) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
}

// fakeDirectory serves fixed profiles.
type fakeDirectory struct {
	profiles map[string]employee.Profile
}

func newFakeDirectory(profiles ...employee.Profile) *fakeDirectory {
	d := &fakeDirectory{profiles: map[string]employee.Profile{}}
	for _, p := range profiles {
		d.profiles[p.EmployeeID.String()] = p
	}
	return d
}

func (d *fakeDirectory) Get(ctx context.Context, id string) (employee.Profile, error) {
	p, ok := d.profiles[id]
	if !ok {
		return employee.Profile{}, employeeerrors.ErrEmployeeNotFound
	}
	return p, nil
}

func (d *fakeDirectory) DepartmentManagers(ctx context.Context, departmentID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, p := range d.profiles {
		if p.Role == domain.RoleManager && p.InDepartment(departmentID) {
			out = append(out, p.EmployeeID)
		}
	}
	return out, nil
}

func (d *fakeDirectory) Hierarchy(ctx context.Context) (*employee.Hierarchy, error) {
	return employee.NewHierarchy(nil), nil
}


// requestBackedQuotaRepository stores quota records in memory and reads
// approved history straight from the request store.
type requestBackedQuotaRepository struct {
	requests *memRequestRepository
	records  map[string]quota.Record
}

func newRequestBackedQuotaRepository(requests *memRequestRepository) *requestBackedQuotaRepository {
	return &requestBackedQuotaRepository{requests: requests, records: map[string]quota.Record{}}
}

func quotaKey(employeeID string, year, month int) string {
	return fmt.Sprintf("%s/%d/%d", employeeID, year, month)
}

func (q *requestBackedQuotaRepository) WithTx(tx *sql.Tx) quota.Repository { return q }

func (q *requestBackedQuotaRepository) FindByPeriod(ctx context.Context, employeeID string, year, month int) (*quota.Record, error) {
	rec, ok := q.records[quotaKey(employeeID, year, month)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &rec, nil
}

func (q *requestBackedQuotaRepository) CreateIfAbsent(ctx context.Context, rec *quota.Record) error {
	k := quotaKey(rec.EmployeeID.String(), rec.Year, rec.Month)
	if _, ok := q.records[k]; !ok {
		q.records[k] = *rec
	}
	return nil
}

func (q *requestBackedQuotaRepository) Save(ctx context.Context, rec *quota.Record) error {
	q.records[quotaKey(rec.EmployeeID.String(), rec.Year, rec.Month)] = *rec
	return nil
}

func (q *requestBackedQuotaRepository) ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]quota.Record, error) {
	return nil, nil
}

func (q *requestBackedQuotaRepository) approved(employeeID string, typ domain.RequestType, from, to time.Time) []request.Request {
	q.requests.mu.Lock()
	defer q.requests.mu.Unlock()
	var out []request.Request
	for _, r := range q.requests.rows {
		if r.RequesterID.String() != employeeID || r.Type != typ || r.Status != domain.StatusApproved {
			continue
		}
		if domain.RangesIntersect(r.StartDate, r.EndDate, from, to) {
			out = append(out, r)
		}
	}
	return out
}

func (q *requestBackedQuotaRepository) ApprovedLeaves(ctx context.Context, employeeID string, from, to time.Time) ([]quota.LeaveEntry, error) {
	var out []quota.LeaveEntry
	for _, r := range q.approved(employeeID, domain.TypeLeave, from, to) {
		out = append(out, quota.LeaveEntry{Granularity: *r.LeaveGranularity, StartDate: r.StartDate, EndDate: r.EndDate})
	}
	return out, nil
}

func (q *requestBackedQuotaRepository) ApprovedOvertime(ctx context.Context, employeeID string, from, to time.Time) ([]quota.OvertimeEntry, error) {
	var out []quota.OvertimeEntry
	for _, r := range q.approved(employeeID, domain.TypeOvertime, from, to) {
		out = append(out, quota.OvertimeEntry{Date: r.StartDate, Hours: *r.Hours})
	}
	return out, nil
}

func (q *requestBackedQuotaRepository) EmployeesWithActivity(ctx context.Context, year, month int) ([]uuid.UUID, error) {
	return nil, nil
}

// fixture wires the engine with in-memory collaborators, the real approval
// router and the real quota ledger.
type fixture struct {
	db         *sql.DB
	mock       sqlmock.Sqlmock
	repo       *memRequestRepository
	counter    *fakeCounter
	outbox     *fakeOutbox
	dispatcher *recordingDispatcher
	directory  *fakeDirectory
	quotaRepo  *requestBackedQuotaRepository
	ledger     quota.Ledger
	service    request.Service
	now        time.Time
}

func newFixture(t *testing.T, now time.Time, profiles ...employee.Profile) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:         db,
		mock:       mock,
		repo:       newMemRequestRepository(),
		counter:    newFakeCounter(),
		outbox:     &fakeOutbox{},
		dispatcher: &recordingDispatcher{},
		directory:  newFakeDirectory(profiles...),
		now:        now,
	}
	f.quotaRepo = newRequestBackedQuotaRepository(f.repo)
	f.ledger = quota.NewLedger(f.quotaRepo, decimal.NewFromInt(1))
	f.service = request.NewService(db, f.repo, request.Dependencies{
		Counter:    f.counter,
		Outbox:     f.outbox,
		Ledger:     f.ledger,
		Router:     approval.NewRouter(f.directory),
		Directory:  f.directory,
		Dispatcher: f.dispatcher,
		Clock:      func() time.Time { return f.now },
	})
	return f
}

func profile(role domain.Role, dept *uuid.UUID) employee.Profile {
	return employee.Profile{
		EmployeeID:   uuid.New(),
		FullName:     string(role) + " person",
		Email:        "someone@example.com",
		DepartmentID: dept,
		Role:         role,
	}
}

func ptr[T any](v T) *T { return &v }

func date(v string) time.Time {
	t, err := domain.ParseDate(v)
	if err != nil {
		panic(err)
	}
	return t
}

func leaveInput(g domain.LeaveGranularity, start, end string) request.CreateRequest {
	return request.CreateRequest{
		Type:   string(domain.TypeLeave),
		Reason: "personal",
		Leave:  &request.LeaveInput{Granularity: string(g), StartDate: start, EndDate: end},
	}
}

func seededLeave(requesterID uuid.UUID, status domain.RequestStatus, g domain.LeaveGranularity, start, end string) request.Request {
	r := request.Request{
		ID:          uuid.New(),
		Code:        "NP-2025-" + uuid.NewString()[:3],
		Type:        domain.TypeLeave,
		Status:      status,
		RequesterID: requesterID,
		Reason:      "seed",
		CreatedAt:   date(start),
	}
	r.SetDetails(request.LeaveDetails{Granularity: g, StartDate: date(start), EndDate: date(end)})
	return r
}
