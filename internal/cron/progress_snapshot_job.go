package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/tna-backend/internal/orders"
	"github.com/angelmondragon/tna-backend/internal/progress"
	"github.com/angelmondragon/tna-backend/pkg/logger"
	"github.com/angelmondragon/tna-backend/pkg/metrics"
)

// ProgressSnapshotJobName labels the job in logs and metrics.
const ProgressSnapshotJobName = "progress_snapshot"

type dashboardComputer interface {
	Compute(ctx context.Context, filter orders.Filter) (*progress.Dashboard, error)
}

// ProgressSnapshotJobParams configure the progress snapshot exporter.
type ProgressSnapshotJobParams struct {
	Logger   *logger.Logger
	Progress dashboardComputer
	Metrics  *metrics.DashboardMetrics
}

// NewProgressSnapshotJob builds the job that publishes global department
// progress and order counts as gauges.
func NewProgressSnapshotJob(params ProgressSnapshotJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Progress == nil {
		return nil, fmt.Errorf("progress service required")
	}
	if params.Metrics == nil {
		return nil, fmt.Errorf("dashboard metrics required")
	}
	return &progressSnapshotJob{
		logg:     params.Logger,
		progress: params.Progress,
		metrics:  params.Metrics,
	}, nil
}

type progressSnapshotJob struct {
	logg     *logger.Logger
	progress dashboardComputer
	metrics  *metrics.DashboardMetrics
}

func (j *progressSnapshotJob) Name() string { return ProgressSnapshotJobName }

func (j *progressSnapshotJob) Run(ctx context.Context) error {
	dash, err := j.progress.Compute(ctx, orders.Filter{})
	if err != nil {
		return fmt.Errorf("compute dashboard: %w", err)
	}

	for _, dept := range dash.Departments {
		j.metrics.SetDepartmentProgress(dept.Department.String(), float64(dept.Percentage))
	}
	j.metrics.SetOrders("on_process", dash.Summary.OnProcess)
	j.metrics.SetOrders("completed", dash.Summary.Completed)
	j.metrics.SetOrders("overdue", dash.Summary.Overdue)
	j.metrics.SetOrders("total", dash.Summary.Total)

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"orders_total":     dash.Summary.Total,
		"orders_overdue":   dash.Summary.Overdue,
		"orders_completed": dash.Summary.Completed,
	}), "progress snapshot published")
	return nil
}
