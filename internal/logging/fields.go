package logging

import "log/slog"

// Field names shared across the relay so log lines aggregate cleanly.
const (
	FieldService   = "service"
	FieldEventID   = "event_id"
	FieldEventType = "event_type"
	FieldUserID    = "user_id"
	FieldEndpoint  = "endpoint"
	FieldStatus    = "status"
	FieldReason    = "reason"
	FieldError     = "error"
	FieldIP        = "ip"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// EventID returns a slog attribute for a provider event ID.
func EventID(id string) slog.Attr {
	return slog.String(FieldEventID, id)
}

// EventType returns a slog attribute for a webhook event type tag.
func EventType(tag string) slog.Attr {
	return slog.String(FieldEventType, tag)
}

// UserID returns a slog attribute for the relay user ID.
func UserID(id string) slog.Attr {
	return slog.String(FieldUserID, id)
}

// Endpoint returns a slog attribute for the relay endpoint path.
func Endpoint(path string) slog.Attr {
	return slog.String(FieldEndpoint, path)
}

// Status returns a slog attribute for an HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Reason returns a slog attribute for a rejection reason.
func Reason(reason string) slog.Attr {
	return slog.String(FieldReason, reason)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// IP returns a slog attribute for a client IP address.
func IP(ip string) slog.Attr {
	return slog.String(FieldIP, ip)
}
