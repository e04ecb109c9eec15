// Package metrics holds Prometheus instruments that are used across the
// backend.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveTenants = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_tenants",
			Help: "Number of tenant connections currently cached in memory.",
		})

	TenantLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_load_total",
			Help: "Cumulative number of tenant connections successfully opened.",
		})

	TenantLoadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_load_errors_total",
			Help: "Cumulative number of tenant connection-open errors.",
		})

	TenantEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_evict_total",
			Help: "Cumulative number of tenant connections evicted from the cache.",
		})

	TenantProvisionTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_provision_total",
			Help: "Cumulative number of tenants provisioned end to end.",
		})

	TenantProvisionErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_provision_errors_total",
			Help: "Cumulative number of provisioning attempts that failed and were rolled back.",
		})
)

func init() {
	prometheus.MustRegister(
		ActiveTenants,
		TenantLoadTotal,
		TenantLoadErrorsTotal,
		TenantEvictTotal,
		TenantProvisionTotal,
		TenantProvisionErrorsTotal,
	)
}
