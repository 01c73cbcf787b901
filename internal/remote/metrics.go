package remote

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finch_remote_commands_total",
		Help: "Remote commands received, by command",
	}, []string{"command"})

	connectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "finch_remote_connects_total",
		Help: "Successful remote channel connections",
	})

	disconnectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finch_remote_disconnects_total",
		Help: "Remote channel disconnections, by reason",
	}, []string{"reason"})

	connectedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "finch_remote_connected",
		Help: "1 while the remote channel is connected",
	})
)
