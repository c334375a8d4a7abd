package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teaboard_actions_total",
		Help: "Actions dispatched through the store, by action type.",
	}, []string{"action"})

	OpenTables = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "teaboard_open_tables",
		Help: "Tables currently in a non-EMPTY status.",
	})

	MirrorWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teaboard_mirror_writes_total",
		Help: "State snapshots written through to the local mirror.",
	})

	RemotePushes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teaboard_remote_pushes_total",
		Help: "Debounced snapshot upserts sent to the remote document store.",
	})

	EchoesSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teaboard_echoes_suppressed_total",
		Help: "Inbound change notifications discarded as echoes of this process's own writes.",
	}, []string{"channel"})

	SyncFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teaboard_sync_failures_total",
		Help: "Failed operations against a persistence channel, by channel.",
	}, []string{"channel"})
)
