// Package metrics exposes authentication outcomes as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess     = "success"
	OutcomeMFARequired = "mfa_required"
	OutcomeRejected    = "rejected"
	OutcomeReplayed    = "replayed"
	OutcomeError       = "error"
	OutcomeCreated     = "created"
	OutcomeMatched     = "matched"
)

// Token kinds.
const (
	TokenFull      = "full"
	TokenChallenge = "challenge"
)

// Recorder is what the service layer reports into.
type Recorder interface {
	RecordLogin(outcome string)
	RecordMFA(operation, outcome string)
	RecordEnrollment(outcome string)
	RecordSocial(provider, outcome string)
	RecordTokenIssued(kind string)
	RecordHousekeeping(table string, deleted int64, took time.Duration)
}

// Collector records into Prometheus.
type Collector struct {
	logins       *prometheus.CounterVec
	mfa          *prometheus.CounterVec
	enrollments  *prometheus.CounterVec
	social       *prometheus.CounterVec
	tokens       *prometheus.CounterVec
	purged       *prometheus.CounterVec
	purgeLatency prometheus.Histogram
}

// NewCollector creates the metrics and registers them on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_total",
			Help: "Password login attempts by outcome.",
		}, []string{"outcome"}),
		mfa: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_mfa_verifications_total",
			Help: "TOTP verifications by operation and outcome.",
		}, []string{"operation", "outcome"}),
		enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_mfa_enrollments_total",
			Help: "TOTP enrollments started, by outcome.",
		}, []string{"outcome"}),
		social: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_social_resolutions_total",
			Help: "Social identity resolutions by provider and outcome.",
		}, []string{"provider", "outcome"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Signed tokens by kind.",
		}, []string{"kind"}),
		purged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_housekeeping_deleted_total",
			Help: "Rows removed by housekeeping, by table.",
		}, []string{"table"}),
		purgeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "auth_housekeeping_duration_seconds",
			Help:    "Duration of a housekeeping purge.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.logins,
		c.mfa,
		c.enrollments,
		c.social,
		c.tokens,
		c.purged,
		c.purgeLatency,
	)
	return c
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordMFA(operation, outcome string) {
	c.mfa.WithLabelValues(operation, outcome).Inc()
}

func (c *Collector) RecordEnrollment(outcome string) {
	c.enrollments.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordSocial(provider, outcome string) {
	c.social.WithLabelValues(provider, outcome).Inc()
}

func (c *Collector) RecordTokenIssued(kind string) {
	c.tokens.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordHousekeeping(table string, deleted int64, took time.Duration) {
	c.purged.WithLabelValues(table).Add(float64(deleted))
	c.purgeLatency.Observe(took.Seconds())
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordLogin(string)                              {}
func (Nop) RecordMFA(string, string)                        {}
func (Nop) RecordEnrollment(string)                         {}
func (Nop) RecordSocial(string, string)                     {}
func (Nop) RecordTokenIssued(string)                        {}
func (Nop) RecordHousekeeping(string, int64, time.Duration) {}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}

// Handler serves the registry for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
