package goSessionSync

import (
	"sync"
	"time"

	internalmetrics "github.com/MrEthical07/goSessionSync/internal/metrics"
)

// NoticeState is the role-change notifier's lifecycle state.
type NoticeState uint8

const (
	// NoticeIdle means no authenticated session has been observed yet.
	NoticeIdle NoticeState = iota
	// NoticeArmed means a baseline role is recorded and the notifier is
	// watching for a transition.
	NoticeArmed
	// NoticeShowing means a role-change notice is visible.
	NoticeShowing
)

// FollowUpAction is a role-appropriate action offered on a notice.
type FollowUpAction uint8

const (
	// ActionOpenDashboard offers navigation to the management dashboard.
	ActionOpenDashboard FollowUpAction = iota + 1
	// ActionManageRoles offers navigation to role administration.
	ActionManageRoles
)

// Notice is one visible role-change notification.
type Notice struct {
	// Role is the new role after the transition.
	Role Role
	// RoleName is the canonical wire name of Role.
	RoleName string
	// Actions are computed from the new role only.
	Actions []FollowUpAction
	// ShownAt is when the notice became visible.
	ShownAt time.Time
}

// Notifier watches the provider's version stamp, detects a role transition
// distinct from initial load, and drives a transient-notice state machine
// with a cancelable auto-dismiss timer.
//
// It does not fire on the initial load (no previous role to compare
// against) and does not fire on logout (no new role to show). A
// bit-identical rewrite never shows a notice, and a superseding transition
// cancels the pending timer before starting a new one so two timers can
// never overlap.
type Notifier struct {
	provider    *Provider
	autoDismiss time.Duration
	onChange    func(NoticeState, Notice)

	mu       sync.Mutex
	state    NoticeState
	baseline Role
	armed    bool
	notice   Notice
	timer    *time.Timer
	timerGen uint64
	unsub    func()
	closed   bool
}

// NewNotifier creates a notifier over the provider, using the provider's
// configured auto-dismiss duration.
func NewNotifier(p *Provider) *Notifier {
	return &Notifier{
		provider:    p,
		autoDismiss: p.cfg.Notifier.AutoDismiss,
	}
}

// SetOnChange installs a callback invoked after every notice-state
// transition, for UI binding. Must be set before Start.
func (n *Notifier) SetOnChange(fn func(NoticeState, Notice)) {
	n.onChange = fn
}

// Start arms the notifier against the provider's current snapshot and
// subscribes to subsequent changes.
func (n *Notifier) Start() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ErrProviderClosed
	}
	if n.unsub != nil {
		n.mu.Unlock()
		return nil
	}
	n.mu.Unlock()

	unsub := n.provider.Subscribe(n.observe)

	n.mu.Lock()
	n.unsub = unsub
	n.mu.Unlock()

	// The subscription only reports future changes; seed the baseline
	// from the current snapshot so an already-authenticated session does
	// not fire a notice on its first reconciliation.
	n.observe(n.provider.Snapshot())
	return nil
}

// Close releases the subscription and cancels any pending timer.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.cancelTimerLocked()
	unsub := n.unsub
	n.unsub = nil
	n.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Current returns the visible notice, if any.
func (n *Notifier) Current() (Notice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != NoticeShowing {
		return Notice{}, false
	}
	return n.notice, true
}

// State returns the notifier state.
func (n *Notifier) State() NoticeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Dismiss hides the visible notice and cancels its auto-dismiss timer.
// Dismissing when nothing is showing is a no-op.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	if n.closed || n.state != NoticeShowing {
		n.mu.Unlock()
		return
	}
	n.cancelTimerLocked()
	n.state = NoticeArmed
	n.notice = Notice{}
	fn := n.onChange
	n.mu.Unlock()

	n.provider.metrics.Inc(internalmetrics.MetricNoticeDismissed)
	n.provider.emitAudit(AuditEvent{EventType: AuditNoticeDismissed, Success: true})
	if fn != nil {
		fn(NoticeArmed, Notice{})
	}
}

func (n *Notifier) observe(snap Snapshot) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}

	if snap.Record == nil {
		// Logout: reset entirely. No notice fires, and the baseline is
		// forgotten so the next login arms fresh instead of comparing
		// against a different user's role.
		n.cancelTimerLocked()
		wasShowing := n.state == NoticeShowing
		n.state = NoticeIdle
		n.armed = false
		n.notice = Notice{}
		fn := n.onChange
		n.mu.Unlock()
		if wasShowing && fn != nil {
			fn(NoticeIdle, Notice{})
		}
		return
	}

	role, ok := ParseRole(snap.Record.Role)
	if !ok {
		// Unrecognized role: nothing to show, baseline unchanged. The
		// guard already fails closed on it.
		n.mu.Unlock()
		return
	}

	if !n.armed {
		n.armed = true
		n.baseline = role
		n.state = NoticeArmed
		n.mu.Unlock()
		return
	}

	if role == n.baseline {
		n.mu.Unlock()
		return
	}

	superseded := n.state == NoticeShowing
	n.cancelTimerLocked()
	n.baseline = role
	n.notice = Notice{
		Role:     role,
		RoleName: role.String(),
		Actions:  followUpActions(role),
		ShownAt:  time.Now(),
	}
	n.state = NoticeShowing
	gen := n.timerGen
	n.timer = time.AfterFunc(n.autoDismiss, func() { n.expire(gen) })
	notice := n.notice
	fn := n.onChange
	n.mu.Unlock()

	if superseded {
		n.provider.metrics.Inc(internalmetrics.MetricNoticeSuperseded)
	}
	n.provider.metrics.Inc(internalmetrics.MetricNoticeShown)
	n.provider.emitAudit(AuditEvent{
		EventType: AuditNoticeShown,
		Success:   true,
		ToRole:    notice.RoleName,
	})
	if fn != nil {
		fn(NoticeShowing, notice)
	}
}

// expire closes the notice the timer of generation gen was armed for.
// Stop cannot cancel a callback that has already fired and is parked on the
// lock; the generation check turns such a callback into a no-op so it can
// never dismiss a notice it was not armed for.
func (n *Notifier) expire(gen uint64) {
	n.mu.Lock()
	if n.closed || n.state != NoticeShowing || gen != n.timerGen {
		n.mu.Unlock()
		return
	}
	n.timer = nil
	n.state = NoticeArmed
	n.notice = Notice{}
	fn := n.onChange
	n.mu.Unlock()

	n.provider.metrics.Inc(internalmetrics.MetricNoticeExpired)
	if fn != nil {
		fn(NoticeArmed, Notice{})
	}
}

// cancelTimerLocked invalidates the pending auto-dismiss timer. Bumping the
// generation is the actual cancellation: a callback that already fired and
// is waiting on the lock fails the generation check in expire. Stop merely
// reclaims the timer when it has not fired yet.
func (n *Notifier) cancelTimerLocked() {
	n.timerGen++
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

// followUpActions computes the notice's offered actions from the new role
// only.
func followUpActions(r Role) []FollowUpAction {
	switch r {
	case RoleManager:
		return []FollowUpAction{ActionOpenDashboard}
	case RoleSystemAdmin:
		return []FollowUpAction{ActionOpenDashboard, ActionManageRoles}
	default:
		return nil
	}
}
