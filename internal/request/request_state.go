package request

import (
	"fmt"

	"go-timeoff/internal/domain"
)

type Transition string

const (
	TransitionApprove Transition = "approve"
	TransitionReject  Transition = "reject"
	TransitionCancel  Transition = "cancel"
)

// NextStatus is the whole state machine: only Pending has outgoing edges.
func NextStatus(from domain.RequestStatus, t Transition) (domain.RequestStatus, bool) {
	if !from.Valid() || from.IsTerminal() {
		return from, false
	}
	switch t {
	case TransitionApprove:
		return domain.StatusApproved, true
	case TransitionReject:
		return domain.StatusRejected, true
	case TransitionCancel:
		return domain.StatusCancelled, true
	}
	return from, false
}

// FormatCode renders e.g. NP-2025-001. Sequences past 999 keep all digits.
func FormatCode(t domain.RequestType, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%03d", t.CodePrefix(), year, seq)
}
