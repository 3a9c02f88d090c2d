package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterLoaderMetrics_Idempotent(t *testing.T) {
	RegisterLoaderMetrics()
	RegisterLoaderMetrics() // must not panic on duplicate registration

	before := testutil.ToFloat64(ProbesTotal.WithLabelValues("present"))
	ProbesTotal.WithLabelValues("present").Inc()
	if got := testutil.ToFloat64(ProbesTotal.WithLabelValues("present")); got != before+1 {
		t.Errorf("probes_total{present} = %f, want %f", got, before+1)
	}
}
