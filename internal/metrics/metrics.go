package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	orderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Order status transitions by from/to state",
		},
		[]string{"from", "to"},
	)

	outOfStockRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hold_out_of_stock_total",
			Help: "Hold attempts rejected because remaining quantity was insufficient",
		},
		[]string{"ticket_type_id"},
	)

	activeHolds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_holds_total",
			Help: "Current number of held orders",
		},
	)

	sweepRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_runs_total",
			Help: "Total expiry sweep executions",
		},
	)

	sweptHolds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "swept_holds_total",
			Help: "Held orders reclaimed by the expiry sweeper",
		},
	)

	reviewDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concert_review_decisions_total",
			Help: "Concert review decisions by outcome",
		},
		[]string{"decision"},
	)
)

func OrderTransition(from, to string) {
	orderTransitions.WithLabelValues(from, to).Inc()
}

func OutOfStock(ticketTypeID string) {
	outOfStockRejections.WithLabelValues(ticketTypeID).Inc()
}

func HoldOpened() {
	activeHolds.Inc()
}

func HoldClosed() {
	activeHolds.Dec()
}

func SweepRun(reclaimed int) {
	sweepRuns.Inc()
	sweptHolds.Add(float64(reclaimed))
}

func ReviewDecision(decision string) {
	reviewDecisions.WithLabelValues(decision).Inc()
}
