package internaldefs

import goSessionSync "github.com/MrEthical07/goSessionSync"

// CounterDef describes one exported counter.
type CounterDef struct {
	ID   goSessionSync.MetricID
	Name string
	Help string
}

// CounterDefs enumerates every counter both exporters publish, in a fixed
// order so the text exposition is stable.
var CounterDefs = []CounterDef{
	{goSessionSync.MetricSignalLocal, "gosessionsync_signal_local_total", "Locally published session-changed signals."},
	{goSessionSync.MetricSignalRemote, "gosessionsync_signal_remote_total", "Session-changed signals delivered from other contexts."},
	{goSessionSync.MetricSignalFilteredSelf, "gosessionsync_signal_filtered_self_total", "Announces dropped for carrying the receiving context's own ID."},
	{goSessionSync.MetricSignalCoalesced, "gosessionsync_signal_coalesced_total", "Signals absorbed into a pending debounce window."},
	{goSessionSync.MetricReconcile, "gosessionsync_reconcile_total", "Reconciliation runs."},
	{goSessionSync.MetricReconcileChanged, "gosessionsync_reconcile_changed_total", "Reconciliations that observed an actual record difference."},
	{goSessionSync.MetricReconcileFailed, "gosessionsync_reconcile_failed_total", "Reconciliations aborted by a store error."},
	{goSessionSync.MetricCorruptRecordDiscarded, "gosessionsync_corrupt_record_discarded_total", "Corrupt stored records read as absent."},
	{goSessionSync.MetricSessionEstablished, "gosessionsync_session_established_total", "Sessions established through the provider."},
	{goSessionSync.MetricSessionTerminated, "gosessionsync_session_terminated_total", "Sessions terminated through the provider."},
	{goSessionSync.MetricNoticeShown, "gosessionsync_notice_shown_total", "Role-change notices shown."},
	{goSessionSync.MetricNoticeDismissed, "gosessionsync_notice_dismissed_total", "Role-change notices explicitly dismissed."},
	{goSessionSync.MetricNoticeSuperseded, "gosessionsync_notice_superseded_total", "Notices replaced by a newer role change before expiry."},
	{goSessionSync.MetricNoticeExpired, "gosessionsync_notice_expired_total", "Notices closed by the auto-dismiss timer."},
	{goSessionSync.MetricSubscriberPanic, "gosessionsync_subscriber_panic_total", "Recovered subscriber panics."},
}
