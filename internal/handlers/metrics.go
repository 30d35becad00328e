package handlers

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the API-level counters: registered alongside the shared
// HTTP metrics in main.
type Metrics struct {
	LoginAttempts     *prometheus.CounterVec
	Registrations     prometheus.Counter
	TransactionWrites *prometheus.CounterVec
}

func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Login attempts by outcome.",
		}, []string{"status"}),
		Registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "Successfully registered accounts.",
		}),
		TransactionWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transaction_writes_total",
			Help: "Transaction mutations by operation.",
		}, []string{"op"}),
	}
	registry.MustRegister(m.LoginAttempts, m.Registrations, m.TransactionWrites)
	return m
}
