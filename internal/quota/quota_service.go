package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go-timeoff/internal/domain"
	quotaerrors "go-timeoff/internal/quota/errors"
	"go-timeoff/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=quota_service.go -destination=mock/quota_service_mock.go -package=mock
type Ledger interface {
	WithTx(tx *sql.Tx) Ledger
	GetOrCreate(ctx context.Context, employeeID string, year, month int) (Record, error)
	Recalculate(ctx context.Context, employeeID string, year, month int) (Record, error)
	// RecalculateSpan recalculates every month touched by [start, end].
	RecalculateSpan(ctx context.Context, employeeID string, start, end time.Time) error
	ReconcileMonth(ctx context.Context, year, month int) (int, error)
	SetAllowance(ctx context.Context, employeeID string, year, month int, req SetAllowanceRequest) (QuotaResponse, error)
	GetMonth(ctx context.Context, employeeID string, year, month int) (QuotaResponse, error)
	GetYear(ctx context.Context, employeeID string, year int) ([]QuotaResponse, error)
}

type ledger struct {
	repo             Repository
	defaultAllowance decimal.Decimal
	logger           *zap.Logger
}

func NewLedger(repo Repository, defaultAllowance decimal.Decimal, logger ...*zap.Logger) Ledger {
	l := zap.L().Named("quota.ledger")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("quota.ledger")
	}
	return &ledger{repo: repo, defaultAllowance: defaultAllowance, logger: l}
}

func (s *ledger) WithTx(tx *sql.Tx) Ledger {
	return &ledger{repo: s.repo.WithTx(tx), defaultAllowance: s.defaultAllowance, logger: s.logger}
}

func validatePeriod(employeeID string, year, month int) error {
	if _, err := uuid.Parse(employeeID); err != nil {
		return quotaerrors.ErrInvalidEmployeeID
	}
	if !domain.YearSupported(year) || month < 1 || month > 12 {
		return quotaerrors.ErrInvalidPeriod
	}
	return nil
}

func (s *ledger) GetOrCreate(ctx context.Context, employeeID string, year, month int) (Record, error) {
	if err := validatePeriod(employeeID, year, month); err != nil {
		return Record{}, err
	}

	rec, err := s.repo.FindByPeriod(ctx, employeeID, year, month)
	if err == nil {
		return *rec, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("find quota record failed",
			zap.String("employee_id", employeeID),
			zap.Int("year", year),
			zap.Int("month", month),
			zap.Error(err),
		)
		return Record{}, err
	}

	fresh := &Record{
		ID:                uuid.New(),
		EmployeeID:        uuid.MustParse(employeeID),
		Year:              year,
		Month:             month,
		Allowance:         s.defaultAllowance,
		DaysUsed:          decimal.Zero,
		OvertimeHoursUsed: decimal.Zero,
	}
	if err := s.repo.CreateIfAbsent(ctx, fresh); err != nil {
		s.logger.Error("create quota record failed", zap.String("employee_id", employeeID), zap.Error(err))
		return Record{}, mapRepositoryError(err)
	}

	// A concurrent creator may have won; read back whichever row exists.
	rec, err = s.repo.FindByPeriod(ctx, employeeID, year, month)
	if err != nil {
		return Record{}, mapRepositoryError(err)
	}

	s.logger.Debug("quota record created",
		zap.String("employee_id", employeeID),
		zap.Int("year", year),
		zap.Int("month", month),
	)
	return *rec, nil
}

func (s *ledger) Recalculate(ctx context.Context, employeeID string, year, month int) (Record, error) {
	rec, err := s.GetOrCreate(ctx, employeeID, year, month)
	if err != nil {
		return Record{}, err
	}

	from, to := domain.MonthBounds(year, time.Month(month))
	leaves, err := s.repo.ApprovedLeaves(ctx, employeeID, from, to)
	if err != nil {
		s.logger.Error("load approved leaves failed", zap.String("employee_id", employeeID), zap.Error(err))
		return Record{}, err
	}
	overtime, err := s.repo.ApprovedOvertime(ctx, employeeID, from, to)
	if err != nil {
		s.logger.Error("load approved overtime failed", zap.String("employee_id", employeeID), zap.Error(err))
		return Record{}, err
	}

	usage := ComputeUsage(year, time.Month(month), leaves, overtime)
	if rec.DaysUsed.Equal(usage.DaysUsed) && rec.OvertimeHoursUsed.Equal(usage.OvertimeHours) {
		return rec, nil
	}

	wasExceeded := rec.Exceeded()
	rec.DaysUsed = usage.DaysUsed
	rec.OvertimeHoursUsed = usage.OvertimeHours
	if rec.Exceeded() && !wasExceeded {
		rec.Note = appendNote(rec.Note, breachNote(rec))
	}
	if err := s.repo.Save(ctx, &rec); err != nil {
		s.logger.Error("save quota record failed", zap.String("employee_id", employeeID), zap.Error(err))
		return Record{}, mapRepositoryError(err)
	}

	if rec.Exceeded() {
		s.logger.Warn("quota allowance exceeded",
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.String("employee_id", employeeID),
			zap.Int("year", year),
			zap.Int("month", month),
			zap.String("days_used", rec.DaysUsed.String()),
			zap.String("allowance", rec.Allowance.String()),
		)
	}
	s.logger.Info("quota recalculated",
		zap.String("employee_id", employeeID),
		zap.Int("year", year),
		zap.Int("month", month),
		zap.String("days_used", rec.DaysUsed.String()),
		zap.String("overtime_hours_used", rec.OvertimeHoursUsed.String()),
	)
	return rec, nil
}

// breachNote is stored on the record when usage first goes over the allowance.
func breachNote(rec Record) string {
	return fmt.Sprintf("allowance exceeded: %s of %s days used", rec.DaysUsed.String(), rec.Allowance.String())
}

func appendNote(note *string, line string) *string {
	if note == nil || *note == "" {
		return &line
	}
	joined := *note + "\n" + line
	return &joined
}

func (s *ledger) RecalculateSpan(ctx context.Context, employeeID string, start, end time.Time) error {
	for _, m := range MonthsTouched(start, end) {
		if _, err := s.Recalculate(ctx, employeeID, m.Year(), int(m.Month())); err != nil {
			return err
		}
	}
	return nil
}

func (s *ledger) ReconcileMonth(ctx context.Context, year, month int) (int, error) {
	if !domain.YearSupported(year) || month < 1 || month > 12 {
		return 0, quotaerrors.ErrInvalidPeriod
	}

	ids, err := s.repo.EmployeesWithActivity(ctx, year, month)
	if err != nil {
		s.logger.Error("list employees for reconcile failed", zap.Error(err))
		return 0, err
	}

	var errs []error
	done := 0
	for _, id := range ids {
		if _, err := s.Recalculate(ctx, id.String(), year, month); err != nil {
			errs = append(errs, fmt.Errorf("employee %s: %w", id, err))
			continue
		}
		done++
	}

	s.logger.Info("quota reconcile finished",
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int("employees", done),
		zap.Int("failed", len(errs)),
	)
	return done, errors.Join(errs...)
}

func (s *ledger) SetAllowance(ctx context.Context, employeeID string, year, month int, req SetAllowanceRequest) (QuotaResponse, error) {
	allowance := decimal.NewFromFloat(req.Allowance)
	if allowance.IsNegative() || !allowance.Mod(halfDay).IsZero() {
		return QuotaResponse{}, quotaerrors.ErrInvalidAllowance
	}

	rec, err := s.GetOrCreate(ctx, employeeID, year, month)
	if err != nil {
		return QuotaResponse{}, err
	}

	rec.Allowance = allowance
	rec.Note = req.Note
	if err := s.repo.Save(ctx, &rec); err != nil {
		s.logger.Error("set allowance persist failed", zap.String("employee_id", employeeID), zap.Error(err))
		return QuotaResponse{}, mapRepositoryError(err)
	}

	s.logger.Info("quota allowance updated",
		zap.String("employee_id", employeeID),
		zap.Int("year", year),
		zap.Int("month", month),
		zap.String("allowance", allowance.String()),
	)
	return mapToResponse(rec), nil
}

func (s *ledger) GetMonth(ctx context.Context, employeeID string, year, month int) (QuotaResponse, error) {
	rec, err := s.GetOrCreate(ctx, employeeID, year, month)
	if err != nil {
		return QuotaResponse{}, err
	}
	return mapToResponse(rec), nil
}

func (s *ledger) GetYear(ctx context.Context, employeeID string, year int) ([]QuotaResponse, error) {
	if err := validatePeriod(employeeID, year, 1); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListByEmployeeYear(ctx, employeeID, year)
	if err != nil {
		return nil, err
	}
	byMonth := make(map[int]Record, len(existing))
	for _, rec := range existing {
		byMonth[rec.Month] = rec
	}

	resp := make([]QuotaResponse, 0, 12)
	for m := 1; m <= 12; m++ {
		rec, ok := byMonth[m]
		if !ok {
			rec, err = s.GetOrCreate(ctx, employeeID, year, m)
			if err != nil {
				return nil, err
			}
		}
		resp = append(resp, mapToResponse(rec))
	}
	return resp, nil
}

func mapToResponse(rec Record) QuotaResponse {
	remaining := rec.Allowance.Sub(rec.DaysUsed)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	resp := QuotaResponse{
		EmployeeID:        rec.EmployeeID.String(),
		Year:              rec.Year,
		Month:             rec.Month,
		Allowance:         rec.Allowance.InexactFloat64(),
		DaysUsed:          rec.DaysUsed.InexactFloat64(),
		OvertimeHoursUsed: rec.OvertimeHoursUsed.InexactFloat64(),
		Remaining:         remaining.InexactFloat64(),
		Exceeded:          rec.Exceeded(),
		Note:              rec.Note,
	}
	if resp.Exceeded {
		w := fmt.Sprintf("days used %s exceed the monthly allowance of %s", rec.DaysUsed.String(), rec.Allowance.String())
		resp.Warning = &w
	}
	return resp
}
