// Package metrics exposes Prometheus counters for generated returns and tax
// computations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/csg33k/statutory-payroll/internal/domain"
)

// Recorder counts generated ECR files and TDS computations.
type Recorder struct {
	ecrFiles        prometheus.Counter
	ecrRecords      prometheus.Counter
	tdsCalculations *prometheus.CounterVec
}

// New registers the payroll counters on reg. A nil reg means the default
// registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		ecrFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payroll_ecr_files_generated_total",
			Help: "ECR upload files generated.",
		}),
		ecrRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payroll_ecr_records_generated_total",
			Help: "Member lines written across all ECR files.",
		}),
		tdsCalculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payroll_tds_calculations_total",
			Help: "TDS computations by tax regime.",
		}, []string{"regime"}),
	}
	reg.MustRegister(r.ecrFiles, r.ecrRecords, r.tdsCalculations)
	return r
}

// ECRGenerated records one generated file of n member lines.
func (r *Recorder) ECRGenerated(n int) {
	if r == nil {
		return
	}
	r.ecrFiles.Inc()
	r.ecrRecords.Add(float64(n))
}

// TDSCalculated records one successful computation.
func (r *Recorder) TDSCalculated(regime domain.TaxRegime) {
	if r == nil {
		return
	}
	r.tdsCalculations.WithLabelValues(string(regime)).Inc()
}
