// Package metrics registers the process's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Mutations counts registry mutations by action tag.
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "synchron_registry_mutations_total",
		Help: "Registry mutations applied, labelled by action.",
	}, []string{"action"})

	// RegisteredUsers tracks the current size of the in-memory registry.
	RegisteredUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "synchron_registry_users",
		Help: "Number of user records currently held in memory.",
	})

	// SnapshotSaves counts durable snapshot writes by outcome.
	SnapshotSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "synchron_snapshot_saves_total",
		Help: "Durable snapshot writes, labelled by outcome.",
	}, []string{"outcome"})

	// AuthFailures counts rejected admin requests.
	AuthFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "synchron_auth_failures_total",
		Help: "Admin requests rejected by the auth middleware.",
	})
)
