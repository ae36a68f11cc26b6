package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "souq"

// LedgerMetrics counts money-moving events across wallets, orders and payouts.
type LedgerMetrics struct {
	walletTransactions *prometheus.CounterVec
	ordersCreated      prometheus.Counter
	orderTransitions   *prometheus.CounterVec
	earningsCreated    prometheus.Counter
	payoutRequests     *prometheus.CounterVec
	sideEffectFailures *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger counters. A nil registerer yields a no-op recorder.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	m := &LedgerMetrics{
		walletTransactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wallet_transactions_total",
			Help:      "Wallet journal entries posted, by type.",
		}, []string{"type"}),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders persisted at checkout.",
		}),
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_transitions_total",
			Help:      "Order status changes, by target status.",
		}, []string{"status"}),
		earningsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vendor_earnings_created_total",
			Help:      "Vendor earning records created.",
		}),
		payoutRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payout_requests_total",
			Help:      "Payout request state changes, by resulting status.",
		}, []string{"status"}),
		sideEffectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_failures_total",
			Help:      "Best-effort side effects that failed and were only logged.",
		}, []string{"operation"}),
	}
	reg.MustRegister(
		m.walletTransactions,
		m.ordersCreated,
		m.orderTransitions,
		m.earningsCreated,
		m.payoutRequests,
		m.sideEffectFailures,
	)
	return m
}

func (m *LedgerMetrics) IncWalletTransaction(txType string) {
	if m == nil || m.walletTransactions == nil {
		return
	}
	m.walletTransactions.WithLabelValues(normalizeLabel(txType)).Inc()
}

func (m *LedgerMetrics) IncOrderCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

func (m *LedgerMetrics) IncOrderTransition(status string) {
	if m == nil || m.orderTransitions == nil {
		return
	}
	m.orderTransitions.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *LedgerMetrics) IncEarningCreated() {
	if m == nil || m.earningsCreated == nil {
		return
	}
	m.earningsCreated.Inc()
}

func (m *LedgerMetrics) IncPayoutRequest(status string) {
	if m == nil || m.payoutRequests == nil {
		return
	}
	m.payoutRequests.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *LedgerMetrics) IncSideEffectFailure(operation string) {
	if m == nil || m.sideEffectFailures == nil {
		return
	}
	m.sideEffectFailures.WithLabelValues(normalizeLabel(operation)).Inc()
}
