package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lendit",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lendit",
			Name:      "booking_created_total",
			Help:      "Count of bookings created.",
		},
	)

	bookingDecision = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lendit",
			Name:      "booking_decision_total",
			Help:      "Count of owner decisions over bookings.",
		},
		[]string{"decision"},
	)

	remindersSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lendit",
			Name:      "reminders_sent_total",
			Help:      "Count of booking reminders sent.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingCreated, bookingDecision, remindersSent)
	})
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncBookingCreated() {
	bookingCreated.Inc()
}

func IncBookingDecision(decision string) {
	bookingDecision.WithLabelValues(decision).Inc()
}

func IncReminderSent() {
	remindersSent.Inc()
}
