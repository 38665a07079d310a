package domain

type EnforceRequest struct {
	EmployeeID string `json:"employee_id" binding:"required"`
	Resource   string `json:"resource" binding:"required"`
	Action     string `json:"action" binding:"required"`
}

type EnforceResponse struct {
	Allowed bool `json:"allowed"`
}

type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
	RoleAdmin    Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Permission resources and actions checked by the casbin enforcer.
const (
	ResourceRequest = "request"
	ResourceQuota   = "quota"

	ActionCreate  = "create"
	ActionRead    = "read"
	ActionApprove = "approve"
	ActionAdmin   = "admin"
	ActionManage  = "manage"
)
