package request

import (
	"context"
	"database/sql"
	"strings"
	"time"
	"unicode/utf8"

	"go-timeoff/internal/approval"
	"go-timeoff/internal/domain"
	"go-timeoff/internal/employee"
	"go-timeoff/internal/events"
	"go-timeoff/internal/messaging/kafka"
	"go-timeoff/internal/quota"
	requesterrors "go-timeoff/internal/request/errors"
	"go-timeoff/internal/shared/contextutil"
	"go-timeoff/internal/shared/counter"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	aggregateType   = "request"
)

// Dispatcher hands notification jobs to a background worker. Dispatch must not block.
type Dispatcher interface {
	Dispatch(ctx context.Context, job events.NotificationJob)
}

// Viewer identifies the caller of read operations. Admin sees every request.
type Viewer struct {
	EmployeeID string
	Admin      bool
}

type Dependencies struct {
	Counter    counter.Repository
	Outbox     kafka.OutboxRepository
	Ledger     quota.Ledger
	Router     approval.Router
	Directory  employee.Directory
	Dispatcher Dispatcher
	// Clock defaults to time.Now.
	Clock func() time.Time
}

//go:generate mockgen -source=request_service.go -destination=mock/request_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, requesterID string, req CreateRequest) (RequestResponse, error)
	Update(ctx context.Context, actorID, id string, req UpdateRequest) (RequestResponse, error)
	Cancel(ctx context.Context, actorID, id string) (bool, error)
	Approve(ctx context.Context, approverID, id string, note *string) (RequestResponse, error)
	Reject(ctx context.Context, approverID, id, note string) (RequestResponse, error)
	Delete(ctx context.Context, actorID, id string, isAdmin bool) (bool, error)
	GetByID(ctx context.Context, viewer Viewer, id string) (RequestResponse, error)
	List(ctx context.Context, viewer Viewer, q ListQuery) ([]RequestResponse, int64, error)
	Mine(ctx context.Context, employeeID string, q ListQuery) ([]RequestResponse, int64, error)
	PendingForApproval(ctx context.Context, approverID string, page, pageSize int) ([]RequestResponse, int64, error)
	CountPendingForApproval(ctx context.Context, approverID string) (int64, error)
	Stats(ctx context.Context, viewer Viewer, q StatsQuery) (StatsResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	deps   Dependencies
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, deps Dependencies, logger ...*zap.Logger) Service {
	l := zap.L().Named("request.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("request.service")
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &service{db: db, repo: repo, deps: deps, logger: l}
}

func (s *service) now() time.Time {
	return s.deps.Clock().UTC()
}

func (s *service) Create(ctx context.Context, requesterID string, req CreateRequest) (RequestResponse, error) {
	s.logger.Debug("create request requested",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("requester_id", requesterID),
		zap.String("type", req.Type),
	)

	requesterUUID, err := uuid.Parse(requesterID)
	if err != nil {
		return RequestResponse{}, requesterrors.ErrInvalidActorID
	}
	typ := domain.RequestType(strings.ToUpper(req.Type))
	if !typ.Valid() {
		return RequestResponse{}, requesterrors.ErrInvalidType
	}
	reason, err := validateReason(req.Reason)
	if err != nil {
		return RequestResponse{}, err
	}

	now := s.now()
	details, err := parseDetails(typ, detailsInput{req.Leave, req.Overtime, req.LateArrival, req.BusinessTrip})
	if err != nil {
		s.logger.Warn("create request validation failed", zap.Error(err))
		return RequestResponse{}, err
	}
	if err := validateDetails(details, now); err != nil {
		s.logger.Warn("create request validation failed", zap.Error(err))
		return RequestResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create request begin tx failed", zap.Error(err))
		return RequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := s.checkConflicts(ctx, qtx, requesterUUID, details, nil); err != nil {
		return RequestResponse{}, err
	}

	seq, err := s.deps.Counter.WithTx(tx).GetNextValue(ctx, typ.CodePrefix(), now.Year())
	if err != nil {
		s.logger.Error("create request code sequence failed", zap.Error(err))
		return RequestResponse{}, err
	}

	r := &Request{
		ID:          uuid.New(),
		Code:        FormatCode(typ, now.Year(), seq),
		Type:        typ,
		Status:      domain.StatusPending,
		RequesterID: requesterUUID,
		Reason:      reason,
		CreatedAt:   now,
	}
	r.SetDetails(details)

	if err := qtx.Create(ctx, r); err != nil {
		s.logger.Error("create request persist failed", zap.Error(err))
		return RequestResponse{}, mapRepositoryError(err)
	}
	if err := s.writeOutbox(ctx, tx, events.RequestCreated, r, requesterID); err != nil {
		return RequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create request commit failed", zap.Error(err))
		return RequestResponse{}, err
	}
	s.logger.Info("create request success",
		zap.String("id", r.ID.String()),
		zap.String("code", r.Code),
		zap.String("requester_id", requesterID),
	)

	s.dispatch(ctx, events.NotificationNew, r.ID, requesterID)
	return mapToResponse(*r), nil
}

func (s *service) Update(ctx context.Context, actorID, id string, req UpdateRequest) (RequestResponse, error) {
	s.logger.Debug("update request requested",
		zap.String("id", id),
		zap.String("actor_id", actorID),
	)

	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return RequestResponse{}, requesterrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return RequestResponse{}, requesterrors.ErrInvalidRequestID
	}
	reason, err := validateReason(req.Reason)
	if err != nil {
		return RequestResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update request begin tx failed", zap.Error(err))
		return RequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	r, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		return RequestResponse{}, mapRepositoryError(err)
	}
	if r.RequesterID != actorUUID {
		s.logger.Warn("update request by non-owner", zap.String("id", id), zap.String("actor_id", actorID))
		return RequestResponse{}, requesterrors.ErrNotOwner
	}
	if r.Status != domain.StatusPending {
		return RequestResponse{}, requesterrors.ErrNotPending
	}
	if req.Type != "" && domain.RequestType(strings.ToUpper(req.Type)) != r.Type {
		return RequestResponse{}, requesterrors.ErrTypeImmutable
	}

	now := s.now()
	details, err := parseDetails(r.Type, detailsInput{req.Leave, req.Overtime, req.LateArrival, req.BusinessTrip})
	if err != nil {
		s.logger.Warn("update request validation failed", zap.Error(err))
		return RequestResponse{}, err
	}
	if err := validateDetails(details, now); err != nil {
		s.logger.Warn("update request validation failed", zap.Error(err))
		return RequestResponse{}, err
	}
	if err := s.checkConflicts(ctx, qtx, r.RequesterID, details, &r.ID); err != nil {
		return RequestResponse{}, err
	}

	r.Reason = reason
	r.SetDetails(details)
	r.UpdatedAt = &now

	if err := qtx.Update(ctx, r); err != nil {
		s.logger.Error("update request persist failed", zap.String("id", id), zap.Error(err))
		return RequestResponse{}, mapRepositoryError(err)
	}
	if err := s.writeOutbox(ctx, tx, events.RequestUpdated, r, actorID); err != nil {
		return RequestResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("update request commit failed", zap.String("id", id), zap.Error(err))
		return RequestResponse{}, err
	}
	s.logger.Info("update request success", zap.String("id", id), zap.String("code", r.Code))

	return mapToResponse(*r), nil
}

// Cancel returns false together with the reason the request could not be cancelled.
func (s *service) Cancel(ctx context.Context, actorID, id string) (bool, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return false, requesterrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return false, requesterrors.ErrInvalidRequestID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel request begin tx failed", zap.Error(err))
		return false, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	r, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		return false, mapRepositoryError(err)
	}
	if r.RequesterID != actorUUID {
		s.logger.Warn("cancel request by non-owner", zap.String("id", id), zap.String("actor_id", actorID))
		return false, requesterrors.ErrNotOwner
	}
	next, ok := NextStatus(r.Status, TransitionCancel)
	if !ok {
		return false, requesterrors.ErrNotPending
	}

	now := s.now()
	r.Status = next
	r.UpdatedAt = &now
	if err := qtx.Update(ctx, r); err != nil {
		s.logger.Error("cancel request persist failed", zap.String("id", id), zap.Error(err))
		return false, mapRepositoryError(err)
	}
	if err := s.writeOutbox(ctx, tx, events.RequestCancelled, r, actorID); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel request commit failed", zap.String("id", id), zap.Error(err))
		return false, err
	}
	s.logger.Info("cancel request success", zap.String("id", id), zap.String("code", r.Code))
	return true, nil
}

func (s *service) Approve(ctx context.Context, approverID, id string, note *string) (RequestResponse, error) {
	if note != nil {
		trimmed := strings.TrimSpace(*note)
		if trimmed == "" {
			note = nil
		} else {
			note = &trimmed
		}
	}
	return s.decide(ctx, approverID, id, TransitionApprove, note)
}

func (s *service) Reject(ctx context.Context, approverID, id, note string) (RequestResponse, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return RequestResponse{}, requesterrors.ErrRejectNoteRequired
	}
	return s.decide(ctx, approverID, id, TransitionReject, &note)
}

func (s *service) decide(ctx context.Context, approverID, id string, t Transition, note *string) (RequestResponse, error) {
	s.logger.Debug("decide request requested",
		zap.String("id", id),
		zap.String("approver_id", approverID),
		zap.String("transition", string(t)),
	)

	approverUUID, err := uuid.Parse(approverID)
	if err != nil {
		return RequestResponse{}, requesterrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return RequestResponse{}, requesterrors.ErrInvalidRequestID
	}
	if note != nil && utf8.RuneCountInString(*note) > maxTextLength {
		return RequestResponse{}, requesterrors.ErrNoteTooLong
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("decide request begin tx failed", zap.Error(err))
		return RequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	r, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		return RequestResponse{}, mapRepositoryError(err)
	}
	next, ok := NextStatus(r.Status, t)
	if !ok {
		s.logger.Warn("decide request not pending",
			zap.String("id", id),
			zap.String("status", string(r.Status)),
		)
		return RequestResponse{}, requesterrors.ErrNotPending
	}
	if err := s.deps.Router.Authorize(ctx, approverID, r.RequesterID.String()); err != nil {
		return RequestResponse{}, err
	}

	now := s.now()
	r.Status = next
	r.ApproverID = &approverUUID
	r.ApproverNote = note
	r.DecidedAt = &now
	r.UpdatedAt = &now

	if err := qtx.Update(ctx, r); err != nil {
		s.logger.Error("decide request persist failed", zap.String("id", id), zap.Error(err))
		return RequestResponse{}, mapRepositoryError(err)
	}

	if r.Type.AffectsQuota() {
		if err := s.deps.Ledger.WithTx(tx).RecalculateSpan(ctx, r.RequesterID.String(), r.StartDate, r.EndDate); err != nil {
			s.logger.Error("decide request quota recalculation failed",
				zap.String("id", id),
				zap.String("requester_id", r.RequesterID.String()),
				zap.Error(err),
			)
			return RequestResponse{}, err
		}
	}

	eventType := events.RequestApproved
	if next == domain.StatusRejected {
		eventType = events.RequestRejected
	}
	if err := s.writeOutbox(ctx, tx, eventType, r, approverID); err != nil {
		return RequestResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("decide request commit failed", zap.String("id", id), zap.Error(err))
		return RequestResponse{}, err
	}
	s.logger.Info("decide request success",
		zap.String("id", id),
		zap.String("code", r.Code),
		zap.String("status", string(next)),
		zap.String("approver_id", approverID),
	)

	s.dispatch(ctx, events.NotificationUpdate, r.ID, approverID)
	return mapToResponse(*r), nil
}

// Delete refuses audit-retained requests for every caller, admins included.
func (s *service) Delete(ctx context.Context, actorID, id string, isAdmin bool) (bool, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return false, requesterrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return false, requesterrors.ErrInvalidRequestID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("delete request begin tx failed", zap.Error(err))
		return false, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	r, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		return false, mapRepositoryError(err)
	}
	if r.Status.AuditRetained() {
		s.logger.Warn("delete of audit-retained request refused",
			zap.String("id", id),
			zap.String("status", string(r.Status)),
			zap.Bool("is_admin", isAdmin),
		)
		return false, requesterrors.ErrAuditRetained
	}
	if !isAdmin && r.RequesterID != actorUUID {
		return false, requesterrors.ErrNotOwner
	}

	if err := qtx.Delete(ctx, r.ID); err != nil {
		s.logger.Error("delete request persist failed", zap.String("id", id), zap.Error(err))
		return false, mapRepositoryError(err)
	}
	if err := s.writeOutbox(ctx, tx, events.RequestDeleted, r, actorID); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("delete request commit failed", zap.String("id", id), zap.Error(err))
		return false, err
	}
	s.logger.Info("delete request success", zap.String("id", id), zap.String("code", r.Code))
	return true, nil
}

func (s *service) GetByID(ctx context.Context, viewer Viewer, id string) (RequestResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return RequestResponse{}, requesterrors.ErrInvalidRequestID
	}
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return RequestResponse{}, mapRepositoryError(err)
	}

	if viewer.Admin || r.RequesterID.String() == viewer.EmployeeID {
		return mapToResponse(*r), nil
	}

	visible, err := s.viewerScopes(ctx, viewer)
	if err != nil {
		return RequestResponse{}, err
	}
	n, err := s.repo.Count(ctx, append(visible, func(db *gorm.DB) *gorm.DB {
		return db.Where("requests.id = ?", r.ID)
	})...)
	if err != nil {
		return RequestResponse{}, err
	}
	if n == 0 {
		// Hidden requests look missing.
		return RequestResponse{}, requesterrors.ErrRequestNotFound
	}
	return mapToResponse(*r), nil
}

func (s *service) List(ctx context.Context, viewer Viewer, q ListQuery) ([]RequestResponse, int64, error) {
	filter, err := buildFilter(q)
	if err != nil {
		return nil, 0, err
	}
	scopes, err := s.viewerScopes(ctx, viewer)
	if err != nil {
		return nil, 0, err
	}

	rows, total, err := s.repo.List(ctx, filter, scopes...)
	if err != nil {
		s.logger.Error("list requests failed", zap.Error(err))
		return nil, 0, err
	}
	return mapToListResponse(rows), total, nil
}

func (s *service) Mine(ctx context.Context, employeeID string, q ListQuery) ([]RequestResponse, int64, error) {
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return nil, 0, requesterrors.ErrInvalidActorID
	}
	q.RequesterID = ""
	filter, err := buildFilter(q)
	if err != nil {
		return nil, 0, err
	}
	filter.RequesterID = &employeeUUID

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list own requests failed", zap.Error(err))
		return nil, 0, err
	}
	return mapToListResponse(rows), total, nil
}

func (s *service) PendingForApproval(ctx context.Context, approverID string, page, pageSize int) ([]RequestResponse, int64, error) {
	filter, err := buildFilter(ListQuery{Page: page, PageSize: pageSize})
	if err != nil {
		return nil, 0, err
	}
	scope, err := s.deps.Router.ScopeFor(ctx, approverID)
	if err != nil {
		return nil, 0, err
	}

	rows, total, err := s.repo.List(ctx, filter, approval.PendingFor(scope))
	if err != nil {
		s.logger.Error("list pending approvals failed", zap.String("approver_id", approverID), zap.Error(err))
		return nil, 0, err
	}
	return mapToListResponse(rows), total, nil
}

func (s *service) CountPendingForApproval(ctx context.Context, approverID string) (int64, error) {
	scope, err := s.deps.Router.ScopeFor(ctx, approverID)
	if err != nil {
		return 0, err
	}
	return s.repo.Count(ctx, approval.PendingFor(scope))
}

func (s *service) Stats(ctx context.Context, viewer Viewer, q StatsQuery) (StatsResponse, error) {
	filter, err := buildFilter(ListQuery{From: q.From, To: q.To})
	if err != nil {
		return StatsResponse{}, err
	}
	scopes, err := s.viewerScopes(ctx, viewer)
	if err != nil {
		return StatsResponse{}, err
	}

	rows, err := s.repo.Stats(ctx, filter, scopes...)
	if err != nil {
		s.logger.Error("request stats failed", zap.Error(err))
		return StatsResponse{}, err
	}
	return mapToStatsResponse(rows), nil
}

// viewerScopes limits reads: admins see everything, managers their department
// plus themselves, everyone else only their own requests.
func (s *service) viewerScopes(ctx context.Context, viewer Viewer) ([]Scope, error) {
	if viewer.Admin {
		return nil, nil
	}
	profile, err := s.deps.Directory.Get(ctx, viewer.EmployeeID)
	if err != nil {
		return nil, err
	}
	if profile.IsAdmin() {
		return nil, nil
	}
	if profile.Role == domain.RoleManager {
		scope, err := s.deps.Router.ScopeFor(ctx, viewer.EmployeeID)
		if err != nil {
			return nil, err
		}
		return []Scope{approval.VisibleTo(scope)}, nil
	}

	own := profile.EmployeeID
	return []Scope{func(db *gorm.DB) *gorm.DB {
		return db.Where("requests.requester_id = ?", own)
	}}, nil
}

func (s *service) checkConflicts(ctx context.Context, repo Repository, requesterID uuid.UUID, d Details, excludeID *uuid.UUID) error {
	v := NewConflictValidator(repo)
	switch details := d.(type) {
	case LeaveDetails:
		conflict, err := v.LeaveConflict(ctx, requesterID, details, excludeID)
		if err != nil {
			s.logger.Error("leave conflict check failed", zap.Error(err))
			return err
		}
		if conflict {
			s.logger.Warn("leave conflict detected",
				zap.String("requester_id", requesterID.String()),
				zap.Time("start_date", details.StartDate),
				zap.Time("end_date", details.EndDate),
				zap.String("granularity", string(details.Granularity)),
			)
			return requesterrors.ErrLeaveConflict
		}
	case LateArrivalDetails:
		conflict, err := v.LateArrivalConflict(ctx, requesterID, details.Date, excludeID)
		if err != nil {
			s.logger.Error("late arrival conflict check failed", zap.Error(err))
			return err
		}
		if conflict {
			s.logger.Warn("late arrival conflict detected",
				zap.String("requester_id", requesterID.String()),
				zap.Time("date", details.Date),
			)
			return requesterrors.ErrLateArrivalConflict
		}
	}
	return nil
}

func (s *service) writeOutbox(ctx context.Context, tx *sql.Tx, eventType string, r *Request, actorID string) error {
	payload := events.RequestLifecycleEvent{
		EventType:   eventType,
		TraceID:     contextutil.GetRequestID(ctx),
		RequestID:   r.ID.String(),
		Code:        r.Code,
		Type:        string(r.Type),
		Status:      string(r.Status),
		RequesterID: r.RequesterID.String(),
		ActorID:     actorID,
		OccurredAt:  s.now(),
	}
	ev, err := kafka.NewOutboxEvent(ctx, aggregateType, r.ID.String(), eventType, events.RequestLifecycleTopic, payload)
	if err != nil {
		return err
	}
	if err := s.deps.Outbox.WithTx(tx).Create(ctx, ev); err != nil {
		s.logger.Error("write request outbox failed",
			zap.String("id", r.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// dispatch runs after commit; the job gets a detached context so it outlives the caller.
func (s *service) dispatch(ctx context.Context, kind events.NotificationKind, requestID uuid.UUID, actorID string) {
	if s.deps.Dispatcher == nil {
		return
	}
	s.deps.Dispatcher.Dispatch(contextutil.Detach(ctx), events.NotificationJob{
		Kind:       kind,
		RequestID:  requestID.String(),
		ActorID:    actorID,
		TraceID:    contextutil.GetRequestID(ctx),
		EnqueuedAt: s.now(),
	})
}

func buildFilter(q ListQuery) (Filter, error) {
	if q.Page < 0 || q.PageSize < 0 {
		return Filter{}, requesterrors.ErrInvalidPage
	}
	f := Filter{Page: q.Page, PageSize: q.PageSize}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.PageSize == 0 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}

	if q.Type != "" {
		t := domain.RequestType(strings.ToUpper(q.Type))
		if !t.Valid() {
			return Filter{}, requesterrors.ErrInvalidType
		}
		f.Type = &t
	}
	if q.Status != "" {
		st := domain.RequestStatus(strings.ToUpper(q.Status))
		if !st.Valid() {
			return Filter{}, requesterrors.ErrInvalidDetails("status")
		}
		f.Status = &st
	}
	if q.RequesterID != "" {
		id, err := uuid.Parse(q.RequesterID)
		if err != nil {
			return Filter{}, requesterrors.ErrInvalidActorID
		}
		f.RequesterID = &id
	}
	if q.From != "" {
		from, err := domain.ParseDate(q.From)
		if err != nil {
			return Filter{}, requesterrors.ErrInvalidDate
		}
		f.From = &from
	}
	if q.To != "" {
		to, err := domain.ParseDate(q.To)
		if err != nil {
			return Filter{}, requesterrors.ErrInvalidDate
		}
		f.To = &to
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return Filter{}, requesterrors.ErrInvalidDateRange
	}
	return f, nil
}
