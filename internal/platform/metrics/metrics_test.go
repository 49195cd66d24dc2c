package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRosterChange(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordRosterChange("signup", "ok")
	m.RecordRosterChange("signup", "ok")
	m.RecordRosterChange("signup", "ALREADY_SIGNED_UP")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RosterChanges.WithLabelValues("signup", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RosterChanges.WithLabelValues("signup", "ALREADY_SIGNED_UP")))
}

func TestRecordRosterChange_NilSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.RecordRosterChange("signup", "ok")
}

func TestNew_IsolatedRegistries(t *testing.T) {
	t.Parallel()

	a, b := New(), New()
	a.RecordRosterChange("unregister", "ok")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RosterChanges.WithLabelValues("unregister", "ok")))
}
