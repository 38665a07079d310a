package events

import "time"

const RequestLifecycleTopic = "hr.request.lifecycle.v1"

const (
	RequestCreated   = "request_created"
	RequestUpdated   = "request_updated"
	RequestCancelled = "request_cancelled"
	RequestApproved  = "request_approved"
	RequestRejected  = "request_rejected"
	RequestDeleted   = "request_deleted"
)

type RequestLifecycleEvent struct {
	EventType   string    `json:"event_type"`
	TraceID     string    `json:"trace_id,omitempty"`
	RequestID   string    `json:"request_id"`
	Code        string    `json:"code"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	RequesterID string    `json:"requester_id"`
	ActorID     string    `json:"actor_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}
