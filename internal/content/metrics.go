package content

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var contentReloads = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "content_reloads_total",
	Help: "Content reload attempts by status (ok, invalid).",
}, []string{"status"})
