package quotaerrors

import (
	"net/http"

	"go-timeoff/internal/shared/apperror"
)

var (
	ErrInvalidPeriod = apperror.New(
		apperror.CodeInvalidInput,
		"year and month must describe a valid calendar month",
		http.StatusBadRequest,
	)
	ErrInvalidAllowance = apperror.New(
		apperror.CodeInvalidInput,
		"allowance must be zero or positive, in steps of 0.5",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrQuotaNotFound = apperror.New(
		apperror.CodeNotFound,
		"quota record not found",
		http.StatusNotFound,
	)
	ErrQuotaAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"quota record already exists for this period",
		http.StatusConflict,
	)
)
