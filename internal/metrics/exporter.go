package metrics

import (
	"net/http"
	"time"

	"github.com/annel0/skirmish/internal/eventbus"
	"github.com/annel0/skirmish/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsProvider - источник статистики шины событий
type StatsProvider interface {
	Metrics() eventbus.Stats
}

// Exporter управляет HTTP-эндпоинтом Prometheus и периодически переносит
// статистику шины событий в Counter/Gauge.
type Exporter struct {
	bus      StatsProvider
	gatherer prometheus.Gatherer
	interval time.Duration
	quit     chan struct{}
	done     chan struct{}
	server   *http.Server

	published prometheus.Counter
	consumed  prometheus.Counter
	dropped   prometheus.Counter
	inflight  prometheus.Gauge

	prev eventbus.Stats
}

// NewExporter создаёт экспортер, но не запускает HTTP-сервер.
// reg должен одновременно быть Gatherer'ом (например, *prometheus.Registry);
// nil - используются глобальные регистры Prometheus.
func NewExporter(bus StatsProvider, reg *prometheus.Registry) *Exporter {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}

	e := &Exporter{
		bus:      bus,
		gatherer: gatherer,
		interval: time.Second,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_published_total",
			Help:      "Общее число опубликованных сообщений.",
		}),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_consumed_total",
			Help:      "Общее число доставленных сообщений подписчикам.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_dropped_total",
			Help:      "Сообщений, отброшенных из-за ошибок или ограничения back-pressure.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventbus",
			Name:      "messages_inflight",
			Help:      "Количество сообщений, находящихся в очереди (не доставленных).",
		}),
	}

	registerer.MustRegister(e.published, e.consumed, e.dropped, e.inflight)
	return e
}

// StartHTTP запускает HTTP-эндпоинт Prometheus на указанном адресе (например, ":2112").
// Метод неблокирующий: HTTP-сервер стартует в отдельной горутине.
func (e *Exporter) StartHTTP(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.gatherer, promhttp.HandlerOpts{}))
	e.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	go e.loop()
}

// Stop останавливает обновление метрик и HTTP-сервер.
// Без предшествующего StartHTTP ничего не делает.
func (e *Exporter) Stop() {
	if e.server == nil {
		return
	}
	close(e.quit)
	<-e.done
	_ = e.server.Close()
}

func (e *Exporter) loop() {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	defer close(e.done)

	for {
		select {
		case <-ticker.C:
			e.Refresh()
		case <-e.quit:
			return
		}
	}
}

// Refresh переносит приращения статистики шины в метрики.
// Counter нельзя уменьшать, поэтому храним прошлое значение и прибавляем дельту.
func (e *Exporter) Refresh() {
	if e.bus == nil {
		return
	}
	stats := e.bus.Metrics()

	if d := stats.Published - e.prev.Published; stats.Published > e.prev.Published {
		e.published.Add(float64(d))
	}
	if d := stats.Consumed - e.prev.Consumed; stats.Consumed > e.prev.Consumed {
		e.consumed.Add(float64(d))
	}
	if d := stats.Dropped - e.prev.Dropped; stats.Dropped > e.prev.Dropped {
		e.dropped.Add(float64(d))
	}
	e.inflight.Set(float64(stats.InFlight))

	e.prev = stats
}
