package approval

import (
	"context"

	approvalerrors "go-timeoff/internal/approval/errors"
	"go-timeoff/internal/employee"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ScopeDepartment  = "DEPARTMENT"
	ScopeCompanyWide = "COMPANY_WIDE"
)

// EligibleScope describes who may approve a requester's requests.
type EligibleScope struct {
	RequesterID  uuid.UUID   `json:"requester_id"`
	Kind         string      `json:"kind"`
	DepartmentID *uuid.UUID  `json:"department_id,omitempty"`
	ApproverIDs  []uuid.UUID `json:"approver_ids"`
	ManagerChain []uuid.UUID `json:"manager_chain"`
}

//go:generate mockgen -source=approval_router.go -destination=mock/approval_router_mock.go -package=mock
type Router interface {
	EligibleApprovers(ctx context.Context, requesterID string) (EligibleScope, error)
	ScopeFor(ctx context.Context, approverID string) (ApproverScope, error)
	// Authorize fails unless approverID may decide on requests made by requesterID.
	Authorize(ctx context.Context, approverID, requesterID string) error
}

type router struct {
	directory employee.Directory
	logger    *zap.Logger
}

func NewRouter(directory employee.Directory, logger ...*zap.Logger) Router {
	l := zap.L().Named("approval.router")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("approval.router")
	}
	return &router{directory: directory, logger: l}
}

func (r *router) EligibleApprovers(ctx context.Context, requesterID string) (EligibleScope, error) {
	requester, err := r.directory.Get(ctx, requesterID)
	if err != nil {
		return EligibleScope{}, err
	}

	scope := EligibleScope{
		RequesterID: requester.EmployeeID,
		Kind:        ScopeCompanyWide,
		ApproverIDs: []uuid.UUID{},
	}

	h, err := r.directory.Hierarchy(ctx)
	if err != nil {
		return EligibleScope{}, err
	}
	scope.ManagerChain = h.ManagerChain(requester.EmployeeID)
	if scope.ManagerChain == nil {
		scope.ManagerChain = []uuid.UUID{}
	}

	if requester.DepartmentID == nil {
		r.logger.Debug("requester has no department, company-wide approval",
			zap.String("requester_id", requesterID),
		)
		return scope, nil
	}

	managers, err := r.directory.DepartmentManagers(ctx, *requester.DepartmentID)
	if err != nil {
		return EligibleScope{}, err
	}

	scope.Kind = ScopeDepartment
	scope.DepartmentID = requester.DepartmentID
	for _, id := range managers {
		if id != requester.EmployeeID {
			scope.ApproverIDs = append(scope.ApproverIDs, id)
		}
	}

	return scope, nil
}

// ScopeFor resolves the approver's scope. Admins and approvers without a
// department approve company-wide.
func (r *router) ScopeFor(ctx context.Context, approverID string) (ApproverScope, error) {
	approver, err := r.directory.Get(ctx, approverID)
	if err != nil {
		return ApproverScope{}, err
	}

	scope := ApproverScope{ApproverID: approver.EmployeeID}
	if !approver.IsAdmin() && approver.DepartmentID != nil {
		scope.DepartmentID = approver.DepartmentID
	}
	return scope, nil
}

func (r *router) Authorize(ctx context.Context, approverID, requesterID string) error {
	if approverID == requesterID {
		r.logger.Warn("self-approval attempted", zap.String("approver_id", approverID))
		return approvalerrors.ErrSelfApproval
	}

	scope, err := r.ScopeFor(ctx, approverID)
	if err != nil {
		return err
	}
	requester, err := r.directory.Get(ctx, requesterID)
	if err != nil {
		return err
	}

	if requester.EmployeeID == scope.ApproverID {
		return approvalerrors.ErrSelfApproval
	}
	if !scope.InScope(requester.EmployeeID, requester.DepartmentID) {
		r.logger.Warn("approver outside requester department",
			zap.String("approver_id", approverID),
			zap.String("requester_id", requesterID),
		)
		return approvalerrors.ErrOutsideApproverScope
	}
	return nil
}
