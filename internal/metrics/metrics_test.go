package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ganot/epistles/internal/clock"
	"github.com/ganot/epistles/internal/domain/journal"
	"github.com/ganot/epistles/internal/migration"
	"github.com/ganot/epistles/internal/persist"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordsServiceOperations(t *testing.T) {
	ctx := context.Background()
	m := New()
	clk := clock.NewManual(time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC))
	clk.Step = time.Millisecond
	svc := journal.NewService(persist.NewMemory(), migration.New(), clk, nil, journal.WithRecorder(m))
	svc.Load(ctx)

	for i := 0; i < journal.MaxActiveProjects; i++ {
		_, err := svc.AddProject(ctx)
		require.NoError(t, err)
	}
	_, err := svc.AddProject(ctx)
	require.ErrorIs(t, err, journal.ErrProjectLimit)

	require.Equal(t, 9.0, testutil.ToFloat64(m.operations.WithLabelValues("add_project", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("add_project", "rejected")))
	require.Equal(t, 9.0, testutil.ToFloat64(m.persists.WithLabelValues("ok")))
}

func TestPersistResult(t *testing.T) {
	m := New()
	m.PersistResult(nil)
	m.PersistResult(errors.New("disk full"))
	m.PersistResult(errors.New("disk full"))

	require.Equal(t, 1.0, testutil.ToFloat64(m.persists.WithLabelValues("ok")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.persists.WithLabelValues("error")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.Observe("select_month", nil, 2*time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `epistles_operations_total{op="select_month",result="ok"} 1`)
	require.Contains(t, string(body), "epistles_operation_duration_seconds_bucket")
}
