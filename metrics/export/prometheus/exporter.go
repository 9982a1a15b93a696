// Package prometheus renders the engine's counters in the Prometheus text
// exposition format. It deliberately avoids the client library: fifteen
// monotonic counters do not need a registry, and the text format is stable.
package prometheus

import (
	"fmt"
	"net/http"
	"strings"

	admission "github.com/automotiv/khetisahayak-sub000"
	"github.com/automotiv/khetisahayak-sub000/metrics/export/internaldefs"
)

// Source is the read side the exporter scrapes. *admission.Engine satisfies it.
type Source interface {
	MetricsSnapshot() admission.MetricsSnapshot
	AuditDropped() uint64
}

// Render produces one scrape of the source in text exposition format.
func Render(source Source) string {
	var b strings.Builder
	if source == nil {
		return ""
	}

	snap := source.MetricsSnapshot()
	for _, def := range internaldefs.Counters() {
		fmt.Fprintf(&b, "# HELP %s %s\n", def.Name, def.Description)
		fmt.Fprintf(&b, "# TYPE %s counter\n", def.Name)
		fmt.Fprintf(&b, "%s %d\n", def.Name, snap.Counters[def.ID])
	}

	fmt.Fprintf(&b, "# HELP %s Audit events dropped under backpressure.\n", internaldefs.AuditDroppedName)
	fmt.Fprintf(&b, "# TYPE %s counter\n", internaldefs.AuditDroppedName)
	fmt.Fprintf(&b, "%s %d\n", internaldefs.AuditDroppedName, source.AuditDropped())

	return b.String()
}

// Handler serves Render at scrape time.
func Handler(source Source) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(Render(source)))
	})
}
