package request

import (
	"time"

	"go-timeoff/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Request is stored flat; Details gives the per-type view of the optional columns.
// Overtime and late arrival keep their single date in both StartDate and EndDate.
type Request struct {
	ID          uuid.UUID            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code        string               `gorm:"type:varchar(20);not null;uniqueIndex:uq_requests_code"`
	Type        domain.RequestType   `gorm:"type:varchar(20);not null;index:idx_requests_requester_type"`
	Status      domain.RequestStatus `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_requests_status"`
	RequesterID uuid.UUID            `gorm:"type:uuid;not null;index:idx_requests_requester_type"`
	Reason      string               `gorm:"type:varchar(500);not null"`

	StartDate        time.Time                `gorm:"type:date;not null"`
	EndDate          time.Time                `gorm:"type:date;not null"`
	LeaveGranularity *domain.LeaveGranularity `gorm:"type:varchar(20)"`
	Hours            *decimal.Decimal         `gorm:"type:numeric(4,1)"`
	ExpectedArrival  *time.Time               `gorm:"type:timestamptz"`
	Location         *string                  `gorm:"type:varchar(255)"`
	Purpose          *string                  `gorm:"type:varchar(500)"`

	ApproverID   *uuid.UUID `gorm:"type:uuid"`
	ApproverNote *string    `gorm:"type:varchar(500)"`
	DecidedAt    *time.Time

	NotificationRef datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false"`
}

func (Request) TableName() string {
	return "requests"
}

// Details is the tagged union over the type-specific fields of a request.
type Details interface {
	Kind() domain.RequestType
	// Span is the inclusive calendar range the request covers.
	Span() (time.Time, time.Time)
}

type LeaveDetails struct {
	Granularity domain.LeaveGranularity
	StartDate   time.Time
	EndDate     time.Time
}

func (LeaveDetails) Kind() domain.RequestType        { return domain.TypeLeave }
func (d LeaveDetails) Span() (time.Time, time.Time) { return d.StartDate, d.EndDate }

type OvertimeDetails struct {
	Date  time.Time
	Hours decimal.Decimal
}

func (OvertimeDetails) Kind() domain.RequestType        { return domain.TypeOvertime }
func (d OvertimeDetails) Span() (time.Time, time.Time) { return d.Date, d.Date }

type LateArrivalDetails struct {
	Date            time.Time
	ExpectedArrival time.Time
}

func (LateArrivalDetails) Kind() domain.RequestType        { return domain.TypeLateArrival }
func (d LateArrivalDetails) Span() (time.Time, time.Time) { return d.Date, d.Date }

type BusinessTripDetails struct {
	Location  string
	Purpose   string
	StartDate time.Time
	EndDate   time.Time
}

func (BusinessTripDetails) Kind() domain.RequestType        { return domain.TypeBusinessTrip }
func (d BusinessTripDetails) Span() (time.Time, time.Time) { return d.StartDate, d.EndDate }

// Details decodes the flat columns for r.Type. Missing columns decode as zero values.
func (r Request) Details() Details {
	switch r.Type {
	case domain.TypeLeave:
		d := LeaveDetails{StartDate: domain.DateOf(r.StartDate), EndDate: domain.DateOf(r.EndDate)}
		if r.LeaveGranularity != nil {
			d.Granularity = *r.LeaveGranularity
		}
		return d
	case domain.TypeOvertime:
		d := OvertimeDetails{Date: domain.DateOf(r.StartDate)}
		if r.Hours != nil {
			d.Hours = *r.Hours
		}
		return d
	case domain.TypeLateArrival:
		d := LateArrivalDetails{Date: domain.DateOf(r.StartDate)}
		if r.ExpectedArrival != nil {
			d.ExpectedArrival = r.ExpectedArrival.UTC()
		}
		return d
	case domain.TypeBusinessTrip:
		d := BusinessTripDetails{StartDate: domain.DateOf(r.StartDate), EndDate: domain.DateOf(r.EndDate)}
		if r.Location != nil {
			d.Location = *r.Location
		}
		if r.Purpose != nil {
			d.Purpose = *r.Purpose
		}
		return d
	}
	return nil
}

// SetDetails writes d into the flat columns and clears the ones d does not use.
func (r *Request) SetDetails(d Details) {
	r.LeaveGranularity = nil
	r.Hours = nil
	r.ExpectedArrival = nil
	r.Location = nil
	r.Purpose = nil

	start, end := d.Span()
	r.StartDate = domain.DateOf(start)
	r.EndDate = domain.DateOf(end)

	switch v := d.(type) {
	case LeaveDetails:
		g := v.Granularity
		r.LeaveGranularity = &g
	case OvertimeDetails:
		h := v.Hours
		r.Hours = &h
	case LateArrivalDetails:
		at := v.ExpectedArrival.UTC()
		r.ExpectedArrival = &at
	case BusinessTripDetails:
		loc, purpose := v.Location, v.Purpose
		r.Location = &loc
		r.Purpose = &purpose
	}
}
