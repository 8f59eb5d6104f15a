package route

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	routeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audioroute_requests_total",
			Help: "Route requests received, by requested route",
		},
		[]string{"route"},
	)

	routeAppliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audioroute_applies_total",
			Help: "Host session configurations applied, by active route and cause",
		},
		[]string{"route", "cause"},
	)

	routeFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audioroute_fallbacks_total",
			Help: "Applies where the active route differs from the requested one",
		},
	)

	routeApplyFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audioroute_apply_failures_total",
			Help: "Host session configuration failures, by cause",
		},
		[]string{"cause"},
	)

	inventoryUpdatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audioroute_inventory_updates_total",
			Help: "Device inventory notifications processed",
		},
	)

	bluetoothAvailable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audioroute_bluetooth_available",
			Help: "1 when a connected bluetooth audio device is present",
		},
	)

	activeRoute = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audioroute_active_route",
			Help: "Active route (0 uninitialized, 1 builtin, 2 speaker, 3 bluetooth)",
		},
	)
)
