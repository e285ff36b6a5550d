package authcore

import (
	"context"
	"io"
	"time"

	"github.com/shelfwise/authcore/internal/audit"
)

// AuditEvent is the structured record delivered to audit sinks. Events
// never carry plaintext passwords, password hashes, or reset secrets.
type AuditEvent = audit.Event

// AuditSink receives emitted audit events.
type AuditSink = audit.Sink

// NoOpSink drops audit events.
type NoOpSink = audit.NoOpSink

// ChannelSink writes audit events into a buffered channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = audit.JSONWriterSink

// NewChannelSink describes the newchannelsink operation and its observable behavior.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink describes the newjsonwritersink operation and its observable behavior.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

const (
	auditEventRegisterSuccess   = "register_success"
	auditEventRegisterDuplicate = "register_duplicate"
	auditEventRegisterInvalid   = "register_invalid"
	auditEventLoginSuccess      = "login_success"
	auditEventLoginFailure      = "login_failure"
	auditEventTokenRejected     = "token_rejected"
	auditEventSubjectVanished   = "subject_vanished"
	auditEventAccessDenied      = "access_denied"
	auditEventPasswordChanged   = "password_changed"
	auditEventPasswordRejected  = "password_change_rejected"
	auditEventResetRequested    = "reset_requested"
	auditEventResetConfirmed    = "reset_confirmed"
	auditEventResetRejected     = "reset_rejected"
)

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, subjectID string, opErr error, metadata func() map[string]string) {
	if e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		SubjectID: subjectID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}
