package request

import (
	"context"
	"database/sql"
	"time"

	"go-timeoff/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Filter narrows listings. From/To select requests whose span intersects the range.
type Filter struct {
	Type        *domain.RequestType
	Status      *domain.RequestStatus
	RequesterID *uuid.UUID
	From        *time.Time
	To          *time.Time
	Page        int
	PageSize    int
}

func (f Filter) apply(db *gorm.DB) *gorm.DB {
	if f.Type != nil {
		db = db.Where("requests.type = ?", *f.Type)
	}
	if f.Status != nil {
		db = db.Where("requests.status = ?", *f.Status)
	}
	if f.RequesterID != nil {
		db = db.Where("requests.requester_id = ?", *f.RequesterID)
	}
	if f.From != nil {
		db = db.Where("requests.end_date >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("requests.start_date <= ?", *f.To)
	}
	return db
}

type StatRow struct {
	Status domain.RequestStatus
	Type   domain.RequestType
	Count  int64
}

type Scope = func(*gorm.DB) *gorm.DB

//go:generate mockgen -source=request_repo.go -destination=mock/request_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, r *Request) error
	FindByID(ctx context.Context, id string) (*Request, error)
	// FindByIDForUpdate locks the row until the bound transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*Request, error)
	Update(ctx context.Context, r *Request) error
	Delete(ctx context.Context, id uuid.UUID) error
	ActiveInRange(ctx context.Context, requesterID uuid.UUID, typ domain.RequestType, from, to time.Time, excludeID *uuid.UUID) ([]Request, error)
	List(ctx context.Context, filter Filter, scopes ...Scope) ([]Request, int64, error)
	Count(ctx context.Context, scopes ...Scope) (int64, error)
	Stats(ctx context.Context, filter Filter, scopes ...Scope) ([]StatRow, error)
	SaveNotificationRef(ctx context.Context, id uuid.UUID, ref datatypes.JSON) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, req *Request) error {
	return r.conn(ctx).Create(req).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Request, error) {
	var req Request
	if err := r.conn(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*Request, error) {
	var req Request
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Update writes every mutable column. Code, Type, RequesterID and CreatedAt never change.
func (r *repository) Update(ctx context.Context, req *Request) error {
	return r.conn(ctx).
		Model(req).
		Select(
			"status", "reason", "start_date", "end_date", "leave_granularity", "hours",
			"expected_arrival", "location", "purpose", "approver_id", "approver_note",
			"decided_at", "updated_at",
		).
		Updates(req).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.conn(ctx).Where("id = ?", id).Delete(&Request{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ActiveInRange(
	ctx context.Context,
	requesterID uuid.UUID,
	typ domain.RequestType,
	from, to time.Time,
	excludeID *uuid.UUID,
) ([]Request, error) {
	q := r.conn(ctx).
		Where("requester_id = ? AND type = ?", requesterID, typ).
		Where("status IN ?", domain.ActiveStatuses).
		Where("start_date <= ? AND end_date >= ?", domain.DateOf(to), domain.DateOf(from))
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var out []Request
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) List(ctx context.Context, filter Filter, scopes ...Scope) ([]Request, int64, error) {
	base := r.conn(ctx).Model(&Request{}).Scopes(filter.apply).Scopes(scopes...)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []Request
	err := base.Session(&gorm.Session{}).
		Order("requests.created_at DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *repository) Count(ctx context.Context, scopes ...Scope) (int64, error) {
	var total int64
	err := r.conn(ctx).Model(&Request{}).Scopes(scopes...).Count(&total).Error
	return total, err
}

func (r *repository) Stats(ctx context.Context, filter Filter, scopes ...Scope) ([]StatRow, error) {
	var rows []StatRow
	err := r.conn(ctx).
		Model(&Request{}).
		Scopes(filter.apply).
		Scopes(scopes...).
		Select("requests.status AS status, requests.type AS type, COUNT(*) AS count").
		Group("requests.status, requests.type").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) SaveNotificationRef(ctx context.Context, id uuid.UUID, ref datatypes.JSON) error {
	return r.conn(ctx).
		Model(&Request{}).
		Where("id = ?", id).
		UpdateColumn("notification_ref", ref).Error
}
