package prometheus

import (
	"net/http/httptest"
	"strings"
	"testing"

	goSessionSync "github.com/MrEthical07/goSessionSync"
)

type fakeSource struct {
	snap    goSessionSync.MetricsSnapshot
	dropped uint64
}

func (s *fakeSource) MetricsSnapshot() goSessionSync.MetricsSnapshot { return s.snap }
func (s *fakeSource) AuditDropped() uint64                           { return s.dropped }

func TestRenderExpositionFormat(t *testing.T) {
	src := &fakeSource{
		snap: goSessionSync.MetricsSnapshot{
			Counters: map[goSessionSync.MetricID]uint64{
				goSessionSync.MetricReconcile:   7,
				goSessionSync.MetricNoticeShown: 2,
			},
		},
		dropped: 3,
	}
	exporter := NewPrometheusExporterFromSource(src)

	out := exporter.Render()
	for _, want := range []string{
		"# HELP gosessionsync_reconcile_total",
		"# TYPE gosessionsync_reconcile_total counter",
		"gosessionsync_reconcile_total 7",
		"gosessionsync_notice_shown_total 2",
		"gosessionsync_audit_dropped_total 3",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderEmptySource(t *testing.T) {
	exporter := NewPrometheusExporterFromSource(&fakeSource{})
	if out := exporter.Render(); out != "" {
		t.Fatalf("empty source must render nothing, got:\n%s", out)
	}

	var nilExporter *PrometheusExporter
	if nilExporter.Render() != "" {
		t.Fatal("nil exporter must render nothing")
	}
}

func TestHandlerServesTextFormat(t *testing.T) {
	src := &fakeSource{
		snap: goSessionSync.MetricsSnapshot{
			Counters: map[goSessionSync.MetricID]uint64{
				goSessionSync.MetricSessionEstablished: 1,
			},
		},
	}
	exporter := NewPrometheusExporterFromSource(src)

	rec := httptest.NewRecorder()
	exporter.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "gosessionsync_session_established_total 1") {
		t.Fatalf("body missing counter:\n%s", rec.Body.String())
	}
}
