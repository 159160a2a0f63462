package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Booking lifecycle
	BookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindhaven_booking_transitions_total",
			Help: "Booking status transitions by prior and new status",
		},
		[]string{"from", "to"},
	)

	BookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindhaven_bookings_created_total",
			Help: "Booking creation attempts by outcome",
		},
		[]string{"status"},
	)

	// Scheduler sweeps
	SweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindhaven_sweep_runs_total",
			Help: "Lifecycle pass executions by pass and outcome",
		},
		[]string{"pass", "status"},
	)

	SweepBookings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindhaven_sweep_bookings_total",
			Help: "Bookings handled by lifecycle passes by outcome",
		},
		[]string{"pass", "status"},
	)

	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mindhaven_sweep_duration_seconds",
			Help:    "Lifecycle pass duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pass"},
	)

	// Collaborators
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindhaven_notifications_total",
			Help: "Notifications handed to a dispatcher by template and outcome",
		},
		[]string{"template", "status"},
	)

	MeetingProvisioning = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindhaven_meeting_provisioning_total",
			Help: "Meeting provisioning calls by provider and outcome",
		},
		[]string{"provider", "status"},
	)

	MeetingReleases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindhaven_meeting_releases_total",
			Help: "Provisioned meetings released because their booking never confirmed, by reason and outcome",
		},
		[]string{"reason", "status"},
	)

	MeetingProvisioningDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mindhaven_meeting_provisioning_duration_seconds",
			Help:    "Meeting provisioning latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordTransition counts a committed status change.
func RecordTransition(from, to string) {
	BookingTransitions.WithLabelValues(from, to).Inc()
}

// RecordBookingCreated counts a creation attempt.
func RecordBookingCreated(err error) {
	BookingsCreated.WithLabelValues(status(err)).Inc()
}

// RecordSweep records one pass execution.
func RecordSweep(pass string, duration time.Duration, err error) {
	SweepRuns.WithLabelValues(pass, status(err)).Inc()
	SweepDuration.WithLabelValues(pass).Observe(duration.Seconds())
}

// RecordSweepSkipped counts a pass that did not run because another instance held its lease.
func RecordSweepSkipped(pass string) {
	SweepRuns.WithLabelValues(pass, "skipped").Inc()
}

// RecordSweepBooking counts one booking handled inside a pass.
func RecordSweepBooking(pass, outcome string) {
	SweepBookings.WithLabelValues(pass, outcome).Inc()
}

// RecordNotification counts one dispatch attempt.
func RecordNotification(template string, err error) {
	NotificationsSent.WithLabelValues(template, status(err)).Inc()
}

// RecordProvisioning records one meeting provisioning call.
func RecordProvisioning(provider string, duration time.Duration, err error) {
	MeetingProvisioning.WithLabelValues(provider, status(err)).Inc()
	MeetingProvisioningDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordMeetingRelease counts one attempt to delete an unused meeting.
func RecordMeetingRelease(reason string, err error) {
	MeetingReleases.WithLabelValues(reason, status(err)).Inc()
}
