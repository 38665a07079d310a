package requesterrors

import (
	"net/http"

	"go-timeoff/internal/shared/apperror"
)

var (
	ErrRequestNotFound = apperror.New(
		apperror.CodeNotFound,
		"request not found",
		http.StatusNotFound,
	)
	ErrInvalidRequestID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid request id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidType = apperror.New(
		apperror.CodeInvalidInput,
		"request type must be LEAVE, OVERTIME, LATE_ARRIVAL or BUSINESS_TRIP",
		http.StatusBadRequest,
	)
	ErrTypeImmutable = apperror.New(
		apperror.CodeInvalidInput,
		"request type cannot be changed",
		http.StatusBadRequest,
	)
	ErrReasonRequired  = apperror.RequiredField("reason")
	ErrReasonTooLong   = apperror.New(apperror.CodeInvalidInput, "reason must be at most 500 characters", http.StatusBadRequest)
	ErrDetailsRequired = apperror.New(apperror.CodeInvalidInput, "type-specific details are required", http.StatusBadRequest)

	ErrGranularityRequired = apperror.RequiredField("granularity")
	ErrInvalidGranularity  = apperror.InvalidField("granularity")
	ErrStartDateRequired   = apperror.RequiredField("start_date")
	ErrEndDateRequired     = apperror.RequiredField("end_date")
	ErrDateRequired        = apperror.RequiredField("date")
	ErrInvalidDate         = apperror.New(
		apperror.CodeInvalidInput,
		"date must use format YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must not be after end_date",
		http.StatusBadRequest,
	)
	ErrYearOutOfRange = apperror.New(
		apperror.CodeInvalidInput,
		"dates must fall between years 2000 and 2100",
		http.StatusBadRequest,
	)
	ErrStartInPast = apperror.New(
		apperror.CodeInvalidInput,
		"leave cannot start in the past",
		http.StatusBadRequest,
	)
	ErrSingleDaySpan = apperror.New(
		apperror.CodeInvalidInput,
		"half-day and full-day leave must start and end on the same date",
		http.StatusBadRequest,
	)
	ErrInvalidHours = apperror.New(
		apperror.CodeInvalidInput,
		"hours must be between 0.5 and 24 in steps of 0.5",
		http.StatusBadRequest,
	)
	ErrExpectedArrivalRequired = apperror.RequiredField("expected_arrival")
	ErrInvalidExpectedArrival  = apperror.New(
		apperror.CodeInvalidInput,
		"expected_arrival must be an RFC3339 timestamp on the requested date",
		http.StatusBadRequest,
	)
	ErrLocationRequired = apperror.RequiredField("location")
	ErrPurposeRequired  = apperror.RequiredField("purpose")

	ErrLeaveConflict = apperror.New(
		apperror.CodeConflict,
		"leave overlaps an existing pending or approved leave",
		http.StatusConflict,
	)
	ErrLateArrivalConflict = apperror.New(
		apperror.CodeConflict,
		"a late arrival request already exists for this date",
		http.StatusConflict,
	)
	ErrCodeAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"request code already exists",
		http.StatusConflict,
	)

	ErrNotOwner = apperror.New(
		apperror.CodeForbidden,
		"only the requester can modify this request",
		http.StatusForbidden,
	)
	ErrNotPending = apperror.New(
		apperror.CodeInvalidState,
		"request is no longer pending",
		http.StatusConflict,
	)
	ErrAuditRetained = apperror.New(
		apperror.CodeInvalidState,
		"approved or rejected requests cannot be deleted",
		http.StatusConflict,
	)
	ErrRejectNoteRequired = apperror.New(
		apperror.CodeInvalidInput,
		"a note is required to reject a request",
		http.StatusBadRequest,
	)
	ErrNoteTooLong = apperror.New(
		apperror.CodeInvalidInput,
		"note must be at most 500 characters",
		http.StatusBadRequest,
	)
	ErrInvalidPage = apperror.New(
		apperror.CodeInvalidInput,
		"page and page_size must be at least 1",
		http.StatusBadRequest,
	)
)

// ErrInvalidDetails reports an out-of-range type-specific field.
func ErrInvalidDetails(field string) error {
	return apperror.InvalidField(field)
}
