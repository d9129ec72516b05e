package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Terminal sale metrics
	terminalSalesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terminal_sales_total",
		Help: "Total number of terminal sale attempts",
	}, []string{
		"winery_id",     // Which winery
		"channel",       // tasting_room, event, club_pickup
		"status",        // approved, declined, error, processing, timeout
		"response_code", // 00=approved, 51=insufficient funds, etc.
	})

	saleAmountCents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terminal_sale_amount_cents_total",
		Help: "Total sale amount in cents (for revenue tracking)",
	}, []string{
		"winery_id",
		"channel",
		"status",
	})

	// End-to-end time from submit to a terminal outcome. Buckets stretch to
	// the gateway timeout because the cardholder is part of the critical path.
	saleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "terminal_sale_duration_seconds",
		Help:    "Time from sale submission to a terminal outcome",
		Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120, 180},
	}, []string{
		"winery_id",
		"status",
	})

	// Deadline race outcomes
	saleDeadlineExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terminal_sale_deadline_exceeded_total",
		Help: "Sales that outlived the initiator deadline and went to background",
	}, []string{
		"winery_id",
	})

	// Gateway status polling metrics
	statusPollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_status_polls_total",
		Help: "Total gateway status query attempts",
	}, []string{
		"result", // resolved, still_processing, timeout, error
	})

	gatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "Duration of gateway HTTP requests",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{
		"operation", // sale, status
	})

	// Order linkage metrics
	orderLinksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_links_total",
		Help: "Order creation attempts for approved sales",
	}, []string{
		"status", // linked, failed
	})

	// Card vaulting metrics
	paymentMethodsVaulted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_methods_vaulted_total",
		Help: "Total payment methods vaulted from approved sales",
	}, []string{
		"winery_id",
		"brand",
	})
)

// RecordTerminalSale records a terminal sale outcome.
// This is the primary business metric for revenue and approval rate tracking.
// The approval rate is calculated in PromQL, not stored directly:
//
//	sum(rate(terminal_sales_total{status="approved"}[5m])) by (winery_id)
//	/
//	sum(rate(terminal_sales_total[5m])) by (winery_id)
func RecordTerminalSale(wineryID, channel, status, responseCode string, amountCents int64, durationSeconds float64) {
	terminalSalesTotal.WithLabelValues(wineryID, channel, status, responseCode).Inc()
	saleAmountCents.WithLabelValues(wineryID, channel, status).Add(float64(amountCents))
	saleDuration.WithLabelValues(wineryID, status).Observe(durationSeconds)
}

// RecordDeadlineExceeded records a sale that went to background continuation
func RecordDeadlineExceeded(wineryID string) {
	saleDeadlineExceeded.WithLabelValues(wineryID).Inc()
}

// RecordStatusPoll records a gateway status query result
func RecordStatusPoll(result string) {
	statusPollsTotal.WithLabelValues(result).Inc()
}

// RecordGatewayRequest records the duration of a gateway HTTP request
func RecordGatewayRequest(operation string, durationSeconds float64) {
	gatewayRequestDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordOrderLink records an order creation attempt for an approved sale
func RecordOrderLink(status string) {
	orderLinksTotal.WithLabelValues(status).Inc()
}

// RecordPaymentMethodVaulted records a card vaulted from an approved sale
func RecordPaymentMethodVaulted(wineryID, brand string) {
	paymentMethodsVaulted.WithLabelValues(wineryID, brand).Inc()
}
