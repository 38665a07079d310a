package request

import (
	"time"

	"go-timeoff/internal/domain"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func mapToResponse(r Request) RequestResponse {
	resp := RequestResponse{
		ID:           r.ID.String(),
		Code:         r.Code,
		Type:         string(r.Type),
		Status:       string(r.Status),
		RequesterID:  r.RequesterID.String(),
		Reason:       r.Reason,
		ApproverNote: r.ApproverNote,
		CreatedAt:    formatTime(r.CreatedAt),
	}

	switch d := r.Details().(type) {
	case LeaveDetails:
		days, _ := LeaveDays(d).Float64()
		resp.Leave = &LeaveResponse{
			Granularity: string(d.Granularity),
			StartDate:   d.StartDate.Format(domain.DateLayout),
			EndDate:     d.EndDate.Format(domain.DateLayout),
			Days:        days,
		}
	case OvertimeDetails:
		hours, _ := d.Hours.Float64()
		resp.Overtime = &OvertimeResponse{
			Date:  d.Date.Format(domain.DateLayout),
			Hours: hours,
		}
	case LateArrivalDetails:
		resp.LateArrival = &LateArrivalResponse{
			Date:            d.Date.Format(domain.DateLayout),
			ExpectedArrival: formatTime(d.ExpectedArrival),
		}
	case BusinessTripDetails:
		resp.BusinessTrip = &BusinessTripResponse{
			Location:  d.Location,
			Purpose:   d.Purpose,
			StartDate: d.StartDate.Format(domain.DateLayout),
			EndDate:   d.EndDate.Format(domain.DateLayout),
			Days:      domain.InclusiveDays(d.StartDate, d.EndDate),
		}
	}

	if r.ApproverID != nil {
		v := r.ApproverID.String()
		resp.ApproverID = &v
	}
	if r.DecidedAt != nil {
		v := formatTime(*r.DecidedAt)
		resp.DecidedAt = &v
	}
	if r.UpdatedAt != nil {
		v := formatTime(*r.UpdatedAt)
		resp.UpdatedAt = &v
	}
	return resp
}

func mapToListResponse(rows []Request) []RequestResponse {
	out := make([]RequestResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, mapToResponse(r))
	}
	return out
}

func mapToStatsResponse(rows []StatRow) StatsResponse {
	resp := StatsResponse{
		ByStatus: map[string]int64{},
		ByType:   map[string]int64{},
	}
	for _, s := range []domain.RequestStatus{domain.StatusPending, domain.StatusApproved, domain.StatusRejected, domain.StatusCancelled} {
		resp.ByStatus[string(s)] = 0
	}
	for _, t := range []domain.RequestType{domain.TypeLeave, domain.TypeOvertime, domain.TypeLateArrival, domain.TypeBusinessTrip} {
		resp.ByType[string(t)] = 0
	}
	for _, row := range rows {
		resp.Total += row.Count
		resp.ByStatus[string(row.Status)] += row.Count
		resp.ByType[string(row.Type)] += row.Count
	}
	return resp
}
