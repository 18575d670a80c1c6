package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DashboardMetrics publishes the latest progress snapshot as gauges.
type DashboardMetrics struct {
	departmentProgress *prometheus.GaugeVec
	orders             *prometheus.GaugeVec
}

// NewDashboardMetrics registers the snapshot gauges on reg.
func NewDashboardMetrics(reg prometheus.Registerer) *DashboardMetrics {
	if reg == nil {
		return &DashboardMetrics{}
	}
	departmentProgress := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tna_department_progress_percentage",
		Help: "Share of in-scope orders that completed each department's stage.",
	}, []string{"department"})
	orders := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tna_orders",
		Help: "Orders by summary state.",
	}, []string{"state"})
	reg.MustRegister(departmentProgress, orders)
	return &DashboardMetrics{
		departmentProgress: departmentProgress,
		orders:             orders,
	}
}

// SetDepartmentProgress stores the percentage for one department.
func (d *DashboardMetrics) SetDepartmentProgress(department string, percentage float64) {
	if d == nil || d.departmentProgress == nil {
		return
	}
	d.departmentProgress.WithLabelValues(normalizeLabel(department)).Set(percentage)
}

// SetOrders stores the order count for one summary state.
func (d *DashboardMetrics) SetOrders(state string, count int) {
	if d == nil || d.orders == nil {
		return
	}
	d.orders.WithLabelValues(normalizeLabel(state)).Set(float64(count))
}
