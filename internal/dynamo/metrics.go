package dynamo

import "github.com/prometheus/client_golang/prometheus"

var tableOpsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chat_table_operations_total",
		Help: "Total number of backing-table operations by kind and outcome.",
	},
	[]string{"op", "outcome"},
)

func init() {
	prometheus.MustRegister(tableOpsTotal)
}

func observeTableOp(op, outcome string) {
	tableOpsTotal.WithLabelValues(op, outcome).Inc()
}
