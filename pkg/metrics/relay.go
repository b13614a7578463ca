package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RelayMetrics records how many denormalized rows catalog mutations touch.
type RelayMetrics struct {
	rowsUpdated *prometheus.CounterVec
	rowsDeleted *prometheus.CounterVec
	mutations   *prometheus.CounterVec
}

// NewRelayMetrics registers the relay metrics on the provided registerer.
func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	if reg == nil {
		return &RelayMetrics{}
	}
	rowsUpdated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_rows_updated_total",
		Help: "Denormalized rows rewritten by catalog mutations.",
	}, []string{"table"})
	rowsDeleted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_rows_deleted_total",
		Help: "Denormalized rows removed by catalog deletions.",
	}, []string{"table"})
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_mutations_total",
		Help: "Catalog mutations processed by the relay.",
	}, []string{"kind"})
	reg.MustRegister(rowsUpdated, rowsDeleted, mutations)
	return &RelayMetrics{
		rowsUpdated: rowsUpdated,
		rowsDeleted: rowsDeleted,
		mutations:   mutations,
	}
}

// AddRowsUpdated adds the count of rewritten rows for the named table.
func (m *RelayMetrics) AddRowsUpdated(table string, count int64) {
	if m == nil || m.rowsUpdated == nil || count <= 0 {
		return
	}
	m.rowsUpdated.WithLabelValues(normalizeLabel(table)).Add(float64(count))
}

// AddRowsDeleted adds the count of removed rows for the named table.
func (m *RelayMetrics) AddRowsDeleted(table string, count int64) {
	if m == nil || m.rowsDeleted == nil || count <= 0 {
		return
	}
	m.rowsDeleted.WithLabelValues(normalizeLabel(table)).Add(float64(count))
}

// IncMutation increments the mutation counter for the named kind.
func (m *RelayMetrics) IncMutation(kind string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
