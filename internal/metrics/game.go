// Package metrics содержит Prometheus-метрики симуляции и HTTP-экспортер.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Исходы вызова способности
const (
	OutcomeFired   = "fired"
	OutcomeFizzled = "fizzled"
	OutcomeFailed  = "failed"
)

// Game агрегирует метрики ядра симуляции.
// Все методы безопасны для nil-получателя: тесты и утилиты могут работать без метрик.
type Game struct {
	ticks        prometheus.Counter
	tickDuration prometheus.Histogram
	brainFaults  *prometheus.CounterVec
	abilities    *prometheus.CounterVec
	effects      *prometheus.CounterVec
	effectFaults prometheus.Counter
	entities     *prometheus.GaugeVec
}

// NewGame создаёт метрики и регистрирует их в reg.
// reg == nil - используется prometheus.DefaultRegisterer.
func NewGame(reg prometheus.Registerer) *Game {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	g := &Game{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skirmish",
			Subsystem: "sim",
			Name:      "ticks_total",
			Help:      "Количество выполненных тиков симуляции.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "skirmish",
			Subsystem: "sim",
			Name:      "tick_duration_seconds",
			Help:      "Длительность одного тика поведения.",
			Buckets:   []float64{.0001, .0005, .001, .0025, .005, .01, .025},
		}),
		brainFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skirmish",
			Subsystem: "sim",
			Name:      "brain_faults_total",
			Help:      "Ошибки и паники обработчиков поведения, изолированные драйвером.",
		}, []string{"ref"}),
		abilities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skirmish",
			Subsystem: "ability",
			Name:      "invocations_total",
			Help:      "Вызовы способностей по навыку и исходу.",
		}, []string{"skill", "outcome"}),
		effects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skirmish",
			Subsystem: "effects",
			Name:      "dispatched_total",
			Help:      "Отправленные визуальные эффекты по ref.",
		}, []string{"ref"}),
		effectFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skirmish",
			Subsystem: "effects",
			Name:      "faults_total",
			Help:      "Подавленные ошибки обработчиков эффектов.",
		}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "skirmish",
			Subsystem: "world",
			Name:      "entities",
			Help:      "Активные сущности по типу.",
		}, []string{"type"}),
	}

	reg.MustRegister(g.ticks, g.tickDuration, g.brainFaults, g.abilities, g.effects, g.effectFaults, g.entities)
	return g
}

// ObserveTick учитывает выполненный тик
func (g *Game) ObserveTick(d time.Duration) {
	if g == nil {
		return
	}
	g.ticks.Inc()
	g.tickDuration.Observe(d.Seconds())
}

// BrainFault учитывает изолированную ошибку поведения
func (g *Game) BrainFault(ref string) {
	if g == nil {
		return
	}
	g.brainFaults.WithLabelValues(ref).Inc()
}

// Ability учитывает вызов способности
func (g *Game) Ability(skill, outcome string) {
	if g == nil {
		return
	}
	g.abilities.WithLabelValues(skill, outcome).Inc()
}

// Effect учитывает отправленный эффект
func (g *Game) Effect(ref string) {
	if g == nil {
		return
	}
	g.effects.WithLabelValues(ref).Inc()
}

// EffectFault учитывает подавленную ошибку эффекта
func (g *Game) EffectFault() {
	if g == nil {
		return
	}
	g.effectFaults.Inc()
}

// SetEntities обновляет gauge количества сущностей
func (g *Game) SetEntities(kind string, n int) {
	if g == nil {
		return
	}
	g.entities.WithLabelValues(kind).Set(float64(n))
}
