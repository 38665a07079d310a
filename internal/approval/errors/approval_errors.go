package approvalerrors

import (
	"net/http"

	"go-timeoff/internal/shared/apperror"
)

var (
	ErrSelfApproval = apperror.New(
		apperror.CodeForbidden,
		"self-approval is forbidden",
		http.StatusForbidden,
	)
	ErrOutsideApproverScope = apperror.New(
		apperror.CodeForbidden,
		"request is outside your approval scope",
		http.StatusForbidden,
	)
)
