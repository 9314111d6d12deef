// Package metrics expõe os contadores Prometheus do ledger e o servidor de /metrics
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/radieske/sports-wager-ledger/internal/ledger"
	"github.com/radieske/sports-wager-ledger/internal/notify"
)

// Metrics agrupa os coletores do serviço; cada campo vira callback de um componente
type Metrics struct {
	wagersPlaced  prometheus.Counter
	stakeTotal    prometheus.Counter
	settlements   *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	persistErrors *prometheus.CounterVec
	eventsLocked  prometheus.Counter
	eventsCreated prometheus.Counter
	slotSpins     *prometheus.CounterVec
	notifications *prometheus.CounterVec
	fixtures      *prometheus.CounterVec
	oddsConsumed  prometheus.Counter
	oddsErrors    *prometheus.CounterVec
}

// New registra os coletores em reg (use prometheus.DefaultRegisterer em produção)
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		wagersPlaced:  prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_wagers_placed_total", Help: "apostas aceitas"}),
		stakeTotal:    prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_wagers_stake_total", Help: "soma dos valores apostados"}),
		settlements:   prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_settlements_total", Help: "apostas liquidadas por resultado"}, []string{"outcome"}),
		rejections:    prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_rejections_total", Help: "operações rejeitadas por código"}, []string{"op", "code"}),
		persistErrors: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_persist_errors_total", Help: "falhas ao gravar o snapshot"}, []string{"op"}),
		eventsLocked:  prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_events_locked_total", Help: "jogos travados"}),
		eventsCreated: prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_events_created_total", Help: "jogos abertos"}),
		slotSpins:     prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_slot_spins_total", Help: "giros do caça-níquel"}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_notifications_total", Help: "notificações por sink"}, []string{"sink", "status"}),
		fixtures:      prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_fixtures_total", Help: "fixtures processadas por resultado"}, []string{"result"}),
		oddsConsumed:  prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_odds_messages_consumed_total", Help: "mensagens de odds consumidas"}),
		oddsErrors:    prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_odds_errors_total", Help: "erros no stream de odds por estágio"}, []string{"stage"}),
	}
	reg.MustRegister(
		m.wagersPlaced, m.stakeTotal, m.settlements, m.rejections, m.persistErrors,
		m.eventsLocked, m.eventsCreated, m.slotSpins, m.notifications, m.fixtures,
		m.oddsConsumed, m.oddsErrors,
	)
	return m
}

// LedgerHooks liga os contadores às transições do ledger
func (m *Metrics) LedgerHooks() ledger.Hooks {
	return ledger.Hooks{
		OnWagerPlaced: func(stake int64) {
			m.wagersPlaced.Inc()
			m.stakeTotal.Add(float64(stake))
		},
		OnSettled:      func(o ledger.OutcomeKind) { m.settlements.WithLabelValues(string(o)).Inc() },
		OnRejected:     func(op, code string) { m.rejections.WithLabelValues(op, code).Inc() },
		OnPersistError: func(op string) { m.persistErrors.WithLabelValues(op).Inc() },
		OnEventLocked:  func() { m.eventsLocked.Inc() },
		OnEventCreated: func() { m.eventsCreated.Inc() },
		OnSlotSpin: func(won bool) {
			if won {
				m.slotSpins.WithLabelValues("win").Inc()
				return
			}
			m.slotSpins.WithLabelValues("loss").Inc()
		},
	}
}

// NotifyHook conta entregas e falhas por sink
func (m *Metrics) NotifyHook() notify.Hook {
	return func(sink string, err error) {
		status := "ok"
		if err != nil {
			status = "error"
		}
		m.notifications.WithLabelValues(sink, status).Inc()
	}
}

// FixtureHook conta o resultado de cada fixture ingerida
func (m *Metrics) FixtureHook() func(result string) {
	return func(result string) { m.fixtures.WithLabelValues(result).Inc() }
}

// OddsConsumed e OddsError alimentam o consumidor do stream de odds
func (m *Metrics) OddsConsumed() { m.oddsConsumed.Inc() }

func (m *Metrics) OddsError(stage string) { m.oddsErrors.WithLabelValues(stage).Inc() }
