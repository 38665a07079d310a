package events

import "time"

const NotificationTopic = "hr.request.notification.v1"

type NotificationKind string

const (
	// NotificationNew announces a freshly created request.
	NotificationNew NotificationKind = "new"
	// NotificationUpdate reports an approve/reject decision on a request.
	NotificationUpdate NotificationKind = "update"
)

type NotificationJob struct {
	Kind       NotificationKind `json:"kind"`
	RequestID  string           `json:"request_id"`
	ActorID    string           `json:"actor_id"`
	TraceID    string           `json:"trace_id,omitempty"`
	EnqueuedAt time.Time        `json:"enqueued_at"`
}
