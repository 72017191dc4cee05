package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lokalebooking",
			Name:      "booking_created_total",
			Help:      "Count of booking create confirmations by result.",
		},
		[]string{"result"},
	)

	bookingDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lokalebooking",
			Name:      "booking_deleted_total",
			Help:      "Count of booking delete confirmations by result.",
		},
		[]string{"result"},
	)

	roomRefetch = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lokalebooking",
			Name:      "room_refetch_total",
			Help:      "Count of room reconciliation fetches.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lokalebooking",
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingDeleted, roomRefetch, httpRequests)
	})
}

func IncBookingCreated(result string) {
	bookingCreated.WithLabelValues(result).Inc()
}

func IncBookingDeleted(result string) {
	bookingDeleted.WithLabelValues(result).Inc()
}

func IncRefetch() {
	roomRefetch.Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
