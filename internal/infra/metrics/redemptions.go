package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		redemptionsTotal,
		codesProvisionedTotal,
		entitlementChecksTotal,
	)
}

var (
	redemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemptions_total",
			Help: "Redemption attempts by outcome.",
		},
		[]string{"outcome"}, // 'ok', 'code_not_found', 'already_redeemed', 'identity_already_bound', 'error'
	)

	codesProvisionedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codes_provisioned_total",
			Help: "Invite codes processed by the sync adapter, by result.",
		},
		[]string{"result"}, // 'created', 'updated', 'skipped', 'failed'
	)

	entitlementChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_checks_total",
			Help: "Entitlement reads by answer.",
		},
		[]string{"entitled"}, // 'true', 'false'
	)
)

func IncRedemption(outcome string) {
	redemptionsTotal.WithLabelValues(outcome).Inc()
}

func AddProvisioned(result string, n int) {
	if n > 0 {
		codesProvisionedTotal.WithLabelValues(result).Add(float64(n))
	}
}

func IncEntitlementCheck(entitled bool) {
	if entitled {
		entitlementChecksTotal.WithLabelValues("true").Inc()
	} else {
		entitlementChecksTotal.WithLabelValues("false").Inc()
	}
}
