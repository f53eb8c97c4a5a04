package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels
const (
	OutcomeSuccess            = "success"
	OutcomeValidation         = "validation_error"
	OutcomeConflict           = "account_exists"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeError              = "error"
)

// AuthMetrics holds the auth subsystem's instruments
type AuthMetrics struct {
	RegisterTotal       *prometheus.CounterVec
	LoginTotal          *prometheus.CounterVec
	GateRejectionsTotal *prometheus.CounterVec
	PasswordHashSeconds prometheus.Histogram
}

// New creates the instruments and registers them with reg
func New(reg prometheus.Registerer) *AuthMetrics {
	f := promauto.With(reg)
	return &AuthMetrics{
		RegisterTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_register_total",
			Help: "Total number of register attempts by outcome",
		}, []string{"outcome"}),
		LoginTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_total",
			Help: "Total number of login attempts by outcome",
		}, []string{"outcome"}),
		GateRejectionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_gate_rejections_total",
			Help: "Requests rejected by the auth gate by reason",
		}, []string{"reason"}),
		PasswordHashSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "auth_password_hash_duration_seconds",
			Help:    "Time spent hashing passwords",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5},
		}),
	}
}

// NewNop returns instruments registered nowhere, for tests and tools
func NewNop() *AuthMetrics {
	return New(prometheus.NewRegistry())
}

// ObserveHash records a password hash duration measured from start
func (m *AuthMetrics) ObserveHash(start time.Time) {
	m.PasswordHashSeconds.Observe(time.Since(start).Seconds())
}
