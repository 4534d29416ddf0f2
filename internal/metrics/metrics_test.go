package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDownload(t *testing.T) {
	m := New()

	m.RecordDownload("office_sensor", 960, 823, true)
	m.RecordDownload("office_sensor", 960, 137, true)
	m.RecordDownload("cellar", 0, 0, false)

	assert.Equal(t, 1920.0, testutil.ToFloat64(m.recordsFetched.WithLabelValues("office_sensor")))
	assert.Equal(t, 960.0, testutil.ToFloat64(m.recordsNew.WithLabelValues("office_sensor")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.downloads.WithLabelValues("office_sensor", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.downloads.WithLabelValues("cellar", StatusError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.downloads.WithLabelValues("cellar", StatusOK)))
}

func TestRecordCycle(t *testing.T) {
	m := New()
	at := time.Date(2024, 3, 18, 2, 0, 0, 0, time.UTC)

	m.RecordCycle(at)

	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.lastRun))
}

func TestNilMetricsIsNoOp(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordDownload("a", 1, 1, true)
		m.RecordCycle(time.Now())
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordDownload("office_sensor", 5, 3, true)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `sensorfor_records_new_total{alias="office_sensor"} 3`)
	assert.Contains(t, string(body), `sensorfor_downloads_total{alias="office_sensor",status="ok"} 1`)
}
