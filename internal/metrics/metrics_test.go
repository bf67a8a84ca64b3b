package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveFrame(t *testing.T) {
	before := testutil.ToFloat64(FramesRendered)
	ObserveFrame(time.Now().Add(-20 * time.Millisecond))
	ObserveFrame(time.Now())
	if got := testutil.ToFloat64(FramesRendered) - before; got != 2 {
		t.Errorf("frames counted %f, want 2", got)
	}
}

func TestMapFetchOutcomes(t *testing.T) {
	MapFetches.WithLabelValues("ok").Inc()
	MapFetches.WithLabelValues("error").Add(2)
	if got := testutil.ToFloat64(MapFetches.WithLabelValues("error")); got < 2 {
		t.Errorf("error fetches %f", got)
	}
}
