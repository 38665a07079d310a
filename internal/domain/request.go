package domain

type RequestType string

const (
	TypeLeave        RequestType = "LEAVE"
	TypeOvertime     RequestType = "OVERTIME"
	TypeLateArrival  RequestType = "LATE_ARRIVAL"
	TypeBusinessTrip RequestType = "BUSINESS_TRIP"
)

func (t RequestType) Valid() bool {
	switch t {
	case TypeLeave, TypeOvertime, TypeLateArrival, TypeBusinessTrip:
		return true
	}
	return false
}

// CodePrefix is the first segment of a request code, e.g. NP in NP-2025-001.
func (t RequestType) CodePrefix() string {
	switch t {
	case TypeLeave:
		return "NP"
	case TypeOvertime:
		return "TC"
	case TypeLateArrival:
		return "DM"
	case TypeBusinessTrip:
		return "CT"
	}
	return ""
}

func (t RequestType) AffectsQuota() bool {
	return t == TypeLeave || t == TypeOvertime
}

type RequestStatus string

const (
	StatusPending   RequestStatus = "PENDING"
	StatusApproved  RequestStatus = "APPROVED"
	StatusRejected  RequestStatus = "REJECTED"
	StatusCancelled RequestStatus = "CANCELLED"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

func (s RequestStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// AuditRetained reports whether a request in this status must never be deleted.
func (s RequestStatus) AuditRetained() bool {
	return s == StatusApproved || s == StatusRejected
}

// ActiveStatuses take part in conflict detection.
var ActiveStatuses = []RequestStatus{StatusPending, StatusApproved}

type LeaveGranularity string

const (
	GranularityMorning   LeaveGranularity = "MORNING"
	GranularityAfternoon LeaveGranularity = "AFTERNOON"
	GranularityFullDay   LeaveGranularity = "FULL_DAY"
	GranularityMultiDay  LeaveGranularity = "MULTI_DAY"
)

func (g LeaveGranularity) Valid() bool {
	switch g {
	case GranularityMorning, GranularityAfternoon, GranularityFullDay, GranularityMultiDay:
		return true
	}
	return false
}

func (g LeaveGranularity) IsHalfDay() bool {
	return g == GranularityMorning || g == GranularityAfternoon
}

// SingleDay granularities cover exactly one calendar date.
func (g LeaveGranularity) SingleDay() bool {
	return g != GranularityMultiDay
}
