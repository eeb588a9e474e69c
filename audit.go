package goSessionSync

import (
	"context"
	"time"
)

// Audit event types emitted by the provider and notifier.
const (
	// AuditSessionEstablished records a successful Establish write.
	AuditSessionEstablished = "session_established"
	// AuditSessionTerminated records a successful Terminate write.
	AuditSessionTerminated = "session_terminated"
	// AuditReconcileApplied records a reconciliation that replaced the
	// cached record.
	AuditReconcileApplied = "reconcile_applied"
	// AuditReconcileFailed records a reconciliation aborted by a store
	// error; the cache is left untouched.
	AuditReconcileFailed = "reconcile_failed"
	// AuditCorruptRecordDiscarded records a corrupt entry read as absent.
	AuditCorruptRecordDiscarded = "corrupt_record_discarded"
	// AuditNoticeShown records a role-change notice becoming visible.
	AuditNoticeShown = "role_notice_shown"
	// AuditNoticeDismissed records an explicit notice dismissal.
	AuditNoticeDismissed = "role_notice_dismissed"
	// AuditSubscriberPanic records a recovered subscriber panic.
	AuditSubscriberPanic = "subscriber_panic"
)

func (p *Provider) emitAudit(event AuditEvent) {
	if p.audit == nil {
		return
	}
	event.Timestamp = time.Now()
	event.Origin = p.origin
	event.ContextID = p.contextID
	p.audit.Emit(context.Background(), event)
}

func (p *Provider) auditSession(eventType string, rec *SessionRecord, success bool, errStr string) {
	e := AuditEvent{
		EventType: eventType,
		Success:   success,
		Error:     errStr,
	}
	if rec != nil {
		e.UserID = rec.UserID
		e.ToRole = rec.Role
	}
	p.emitAudit(e)
}
