package request

type LeaveInput struct {
	Granularity string `json:"granularity" binding:"omitempty,oneof=MORNING AFTERNOON FULL_DAY MULTI_DAY"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type OvertimeInput struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

type LateArrivalInput struct {
	Date            string `json:"date"`
	ExpectedArrival string `json:"expected_arrival"`
}

type BusinessTripInput struct {
	Location  string `json:"location"`
	Purpose   string `json:"purpose"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// CreateRequest carries exactly one details block matching Type.
type CreateRequest struct {
	Type         string             `json:"type" binding:"required,oneof=LEAVE OVERTIME LATE_ARRIVAL BUSINESS_TRIP"`
	Reason       string             `json:"reason" binding:"required,max=500"`
	Leave        *LeaveInput        `json:"leave"`
	Overtime     *OvertimeInput     `json:"overtime"`
	LateArrival  *LateArrivalInput  `json:"late_arrival"`
	BusinessTrip *BusinessTripInput `json:"business_trip"`
}

// UpdateRequest may repeat the type but never change it.
type UpdateRequest struct {
	Type         string             `json:"type"`
	Reason       string             `json:"reason" binding:"required,max=500"`
	Leave        *LeaveInput        `json:"leave"`
	Overtime     *OvertimeInput     `json:"overtime"`
	LateArrival  *LateArrivalInput  `json:"late_arrival"`
	BusinessTrip *BusinessTripInput `json:"business_trip"`
}

type DecisionRequest struct {
	Note *string `json:"note" binding:"omitempty,max=500"`
}

type ListQuery struct {
	Type        string `form:"type" binding:"omitempty,oneof=LEAVE OVERTIME LATE_ARRIVAL BUSINESS_TRIP"`
	Status      string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED CANCELLED"`
	RequesterID string `form:"requester_id" binding:"omitempty,uuid"`
	From        string `form:"from"`
	To          string `form:"to"`
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size"`
}

type StatsQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

type LeaveResponse struct {
	Granularity string  `json:"granularity"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Days        float64 `json:"days"`
}

type OvertimeResponse struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

type LateArrivalResponse struct {
	Date            string `json:"date"`
	ExpectedArrival string `json:"expected_arrival"`
}

type BusinessTripResponse struct {
	Location  string `json:"location"`
	Purpose   string `json:"purpose"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      int    `json:"days"`
}

type RequestResponse struct {
	ID           string                `json:"id"`
	Code         string                `json:"code"`
	Type         string                `json:"type"`
	Status       string                `json:"status"`
	RequesterID  string                `json:"requester_id"`
	Reason       string                `json:"reason"`
	Leave        *LeaveResponse        `json:"leave,omitempty"`
	Overtime     *OvertimeResponse     `json:"overtime,omitempty"`
	LateArrival  *LateArrivalResponse  `json:"late_arrival,omitempty"`
	BusinessTrip *BusinessTripResponse `json:"business_trip,omitempty"`
	ApproverID   *string               `json:"approver_id,omitempty"`
	ApproverNote *string               `json:"approver_note,omitempty"`
	DecidedAt    *string               `json:"decided_at,omitempty"`
	CreatedAt    string                `json:"created_at"`
	UpdatedAt    *string               `json:"updated_at,omitempty"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type StatsResponse struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
	ByType   map[string]int64 `json:"by_type"`
}
