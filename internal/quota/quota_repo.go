package quota

import (
	"context"
	"database/sql"
	"time"

	"go-timeoff/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=quota_repo.go -destination=mock/quota_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	FindByPeriod(ctx context.Context, employeeID string, year, month int) (*Record, error)
	// CreateIfAbsent inserts rec unless the (employee, year, month) row already exists.
	CreateIfAbsent(ctx context.Context, rec *Record) error
	Save(ctx context.Context, rec *Record) error
	ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]Record, error)
	ApprovedLeaves(ctx context.Context, employeeID string, from, to time.Time) ([]LeaveEntry, error)
	ApprovedOvertime(ctx context.Context, employeeID string, from, to time.Time) ([]OvertimeEntry, error)
	EmployeesWithActivity(ctx context.Context, year, month int) ([]uuid.UUID, error)
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

// conn runs statements on the bound transaction when there is one.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) FindByPeriod(ctx context.Context, employeeID string, year, month int) (*Record, error) {
	var rec Record
	err := r.conn(ctx).
		Where("employee_id = ? AND year = ? AND month = ?", employeeID, year, month).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) CreateIfAbsent(ctx context.Context, rec *Record) error {
	return r.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "employee_id"}, {Name: "year"}, {Name: "month"}},
			DoNothing: true,
		}).
		Create(rec).Error
}

func (r *repository) Save(ctx context.Context, rec *Record) error {
	return r.conn(ctx).Save(rec).Error
}

func (r *repository) ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]Record, error) {
	var recs []Record
	err := r.conn(ctx).
		Where("employee_id = ? AND year = ?", employeeID, year).
		Order("month ASC").
		Find(&recs).Error
	return recs, err
}

type leaveRow struct {
	LeaveGranularity string
	StartDate        time.Time
	EndDate          time.Time
}

func (r *repository) ApprovedLeaves(ctx context.Context, employeeID string, from, to time.Time) ([]LeaveEntry, error) {
	var rows []leaveRow
	err := r.conn(ctx).
		Table("requests").
		Select("leave_granularity, start_date, end_date").
		Where("requester_id = ?", employeeID).
		Where("type = ? AND status = ?", domain.TypeLeave, domain.StatusApproved).
		Where("start_date <= ? AND end_date >= ?", to, from).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]LeaveEntry, len(rows))
	for i, row := range rows {
		entries[i] = LeaveEntry{
			Granularity: domain.LeaveGranularity(row.LeaveGranularity),
			StartDate:   row.StartDate,
			EndDate:     row.EndDate,
		}
	}
	return entries, nil
}

type overtimeRow struct {
	StartDate time.Time
	Hours     decimal.Decimal
}

func (r *repository) ApprovedOvertime(ctx context.Context, employeeID string, from, to time.Time) ([]OvertimeEntry, error) {
	var rows []overtimeRow
	err := r.conn(ctx).
		Table("requests").
		Select("start_date, hours").
		Where("requester_id = ?", employeeID).
		Where("type = ? AND status = ?", domain.TypeOvertime, domain.StatusApproved).
		Where("start_date BETWEEN ? AND ?", from, to).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]OvertimeEntry, len(rows))
	for i, row := range rows {
		entries[i] = OvertimeEntry{Date: row.StartDate, Hours: row.Hours}
	}
	return entries, nil
}

// EmployeesWithActivity returns everyone with a leave or overtime request
// touching the month, plus everyone who already has a record for it.
func (r *repository) EmployeesWithActivity(ctx context.Context, year, month int) ([]uuid.UUID, error) {
	from, to := domain.MonthBounds(year, time.Month(month))

	var rows []struct {
		ID uuid.UUID
	}
	err := r.conn(ctx).Raw(`
		SELECT DISTINCT requester_id AS id FROM requests
		WHERE type IN (?, ?) AND start_date <= ? AND end_date >= ?
		UNION
		SELECT employee_id AS id FROM quota_records WHERE year = ? AND month = ?
	`, domain.TypeLeave, domain.TypeOvertime, to, from, year, month).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids, nil
}
