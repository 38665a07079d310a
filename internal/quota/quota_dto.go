package quota

type SetAllowanceRequest struct {
	Allowance float64 `json:"allowance" binding:"gte=0,lte=31"`
	Note      *string `json:"note" binding:"omitempty,max=500"`
}

type QuotaResponse struct {
	EmployeeID        string  `json:"employee_id"`
	Year              int     `json:"year"`
	Month             int     `json:"month"`
	Allowance         float64 `json:"allowance"`
	DaysUsed          float64 `json:"days_used"`
	OvertimeHoursUsed float64 `json:"overtime_hours_used"`
	Remaining         float64 `json:"remaining"`
	Exceeded          bool    `json:"exceeded"`
	Warning           *string `json:"warning,omitempty"`
	Note              *string `json:"note,omitempty"`
}

type ReconcileResponse struct {
	Year      int `json:"year"`
	Month     int `json:"month"`
	Employees int `json:"employees"`
}
