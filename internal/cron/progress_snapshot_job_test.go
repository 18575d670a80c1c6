package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/angelmondragon/tna-backend/internal/orders"
	"github.com/angelmondragon/tna-backend/internal/progress"
	"github.com/angelmondragon/tna-backend/pkg/enums"
	"github.com/angelmondragon/tna-backend/pkg/logger"
	"github.com/angelmondragon/tna-backend/pkg/metrics"
)

type stubDashboard struct {
	dash   *progress.Dashboard
	err    error
	filter orders.Filter
}

func (s *stubDashboard) Compute(_ context.Context, filter orders.Filter) (*progress.Dashboard, error) {
	s.filter = filter
	return s.dash, s.err
}

func gaugeValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if hasLabel(m.GetLabel(), label, value) {
				return m.GetGauge().GetValue()
			}
		}
	}
	t.Fatalf("gauge %s{%s=%q} not found", name, label, value)
	return 0
}

func hasLabel(pairs []*dto.LabelPair, name, value string) bool {
	for _, p := range pairs {
		if p.GetName() == name && p.GetValue() == value {
			return true
		}
	}
	return false
}

func TestProgressSnapshotJobPublishesGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	source := &stubDashboard{dash: &progress.Dashboard{
		Departments: []progress.DepartmentProgress{
			{Department: enums.DepartmentMerchandising, Completed: 1, Total: 4, Percentage: 25},
			{Department: enums.DepartmentCAD, Completed: 3, Total: 4, Percentage: 75},
			{Department: enums.DepartmentFabric, Completed: 0, Total: 4, Percentage: 0},
			{Department: enums.DepartmentSample, Completed: 2, Total: 4, Percentage: 50},
		},
		Summary: progress.OrderSummary{OnProcess: 2, Completed: 1, Overdue: 1, Total: 4},
	}}
	job, err := NewProgressSnapshotJob(ProgressSnapshotJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Progress: source,
		Metrics:  metrics.NewDashboardMetrics(reg),
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if job.Name() != ProgressSnapshotJobName {
		t.Fatalf("unexpected job name %q", job.Name())
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if source.filter.OwnerID != nil || source.filter.Query != "" {
		t.Fatalf("snapshot should cover every order, got %+v", source.filter)
	}
	if got := gaugeValue(t, reg, "tna_department_progress_percentage", "department", "cad"); got != 75 {
		t.Fatalf("cad gauge = %v", got)
	}
	if got := gaugeValue(t, reg, "tna_department_progress_percentage", "department", "fabric"); got != 0 {
		t.Fatalf("fabric gauge = %v", got)
	}
	if got := gaugeValue(t, reg, "tna_orders", "state", "overdue"); got != 1 {
		t.Fatalf("overdue gauge = %v", got)
	}
	if got := gaugeValue(t, reg, "tna_orders", "state", "total"); got != 4 {
		t.Fatalf("total gauge = %v", got)
	}
}

func TestProgressSnapshotJobPropagatesErrors(t *testing.T) {
	job, err := NewProgressSnapshotJob(ProgressSnapshotJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Progress: &stubDashboard{err: errors.New("db down")},
		Metrics:  metrics.NewDashboardMetrics(prometheus.NewRegistry()),
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewProgressSnapshotJobValidation(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	if _, err := NewProgressSnapshotJob(ProgressSnapshotJobParams{Logger: logg}); err == nil {
		t.Fatalf("expected progress validation error")
	}
	if _, err := NewProgressSnapshotJob(ProgressSnapshotJobParams{Logger: logg, Progress: &stubDashboard{}}); err == nil {
		t.Fatalf("expected metrics validation error")
	}
}
