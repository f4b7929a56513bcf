// Package metrics instruments channel and cluster activity with
// Prometheus client_golang, the same GaugeVec/CounterVec style as the
// teacher's cluster/metrics.go.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ChannelOps counts completed channel operations by op and outcome,
	// e.g. {op="send",outcome="ok"}, {op="recv",outcome="timeout"}.
	ChannelOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_ops_total",
			Help: "completed channel send/recv/choose operations",
		},
		[]string{"op", "outcome"},
	)

	// ChannelParked gauges the number of goroutines currently blocked in
	// Send/Recv/Choose, labeled by the channel's registry id.
	ChannelParked = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "channel_parked_clauses",
			Help: "clauses currently parked waiting on a channel",
		},
		[]string{"channel_id"},
	)

	// ClusterStatus mirrors the teacher's cluster_status gauge: 1 for
	// leader, 0 for ready follower, -1 for not-ready.
	ClusterStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cluster_status",
			Help: "cluster master slave status",
		},
		[]string{"ip"},
	)
)

func init() {
	prometheus.MustRegister(ChannelOps, ChannelParked, ClusterStatus)
}

// RecordOp increments ChannelOps for a completed operation.
func RecordOp(op, outcome string) {
	ChannelOps.WithLabelValues(op, outcome).Inc()
}
