package metrics

import "github.com/prometheus/client_golang/prometheus"

// ClaimMetrics tracks entitlement grants by source plus the interesting
// non-grant outcomes.
type ClaimMetrics struct {
	granted     *prometheus.CounterVec
	duplicate   prometheus.Counter
	notEligible prometheus.Counter
}

// NewClaimMetrics registers the claim metrics on the provided registerer.
func NewClaimMetrics(reg prometheus.Registerer) *ClaimMetrics {
	if reg == nil {
		return &ClaimMetrics{}
	}
	granted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "entitlements_granted",
		Help: "Entitlements granted, labelled by source.",
	}, []string{"source"})
	duplicate := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "entitlement_claims_duplicate",
		Help: "Claims resolved by returning an already-existing entitlement.",
	})
	notEligible := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "entitlement_claims_not_eligible",
		Help: "Free claims rejected because the item was not free and approved.",
	})
	reg.MustRegister(granted, duplicate, notEligible)
	return &ClaimMetrics{
		granted:     granted,
		duplicate:   duplicate,
		notEligible: notEligible,
	}
}

// IncGranted increments the grant counter for the given source.
func (c *ClaimMetrics) IncGranted(source string) {
	if c == nil || c.granted == nil {
		return
	}
	c.granted.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncDuplicate increments the idempotent-repeat counter.
func (c *ClaimMetrics) IncDuplicate() {
	if c == nil || c.duplicate == nil {
		return
	}
	c.duplicate.Inc()
}

// IncNotEligible increments the rejected-claim counter.
func (c *ClaimMetrics) IncNotEligible() {
	if c == nil || c.notEligible == nil {
		return
	}
	c.notEligible.Inc()
}
