package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/skirmish/internal/app"
	"github.com/annel0/skirmish/internal/config"
	"github.com/annel0/skirmish/internal/eventbus"
	"github.com/annel0/skirmish/internal/logging"
	"github.com/annel0/skirmish/internal/metrics"
	"github.com/annel0/skirmish/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $SKIRMISH_CONFIG)")
	flag.Parse()

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logging.SetLogDir(cfg.Log.Dir)
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()
	logging.GetLoggerManager().SetConsoleLevel(logging.ParseLevel(cfg.Log.Level))

	logging.Info("🎮 Запуск сервера симуляции skirmish...")
	logging.Info("📡 Конфигурация: tick=%d/s, frame=%dms, content=%s, metrics=%s",
		cfg.Simulation.Clock.TickRate, cfg.Simulation.Clock.FrameStepMs, cfg.Content.Dir, cfg.Metrics.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === ТЕЛЕМЕТРИЯ ===
	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled)
	if err != nil {
		logging.Warn("⚠️ OpenTelemetry недоступен: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	// === ШИНА СОБЫТИЙ ===
	bus := newEventBus(cfg.EventBus)
	if _, err := eventbus.StartLoggingListener(bus, logging.GetComponentLogger("eventbus")); err != nil {
		logging.Warn("⚠️ LoggingListener: %v", err)
	}

	// === МЕТРИКИ ===
	registry := prometheus.NewRegistry()
	exporter := metrics.NewExporter(bus, registry)
	exporter.StartHTTP(cfg.Metrics.Addr)

	// === ЯДРО СИМУЛЯЦИИ ===
	game, err := app.New(cfg, app.Options{Bus: bus, Registry: registry})
	if err != nil {
		logging.Error("❌ Ошибка сборки симуляции: %v", err)
		logging.CloseDefaultLogger()
		log.Fatalf("❌ Ошибка сборки симуляции: %v", err)
	}

	logging.Info("✅ Симуляция готова, ожидание сигналов завершения...")
	if err := game.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error("❌ Игровой цикл завершился с ошибкой: %v", err)
	}

	// === GRACEFUL SHUTDOWN ===
	logging.Info("📡 Получен сигнал, завершение работы...")
	exporter.Stop()
	if err := bus.Close(); err != nil {
		logging.Error("❌ Ошибка закрытия шины событий: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки OpenTelemetry: %v", err)
	}

	logging.Info("👋 Сервер успешно остановлен")
}

// newEventBus подключается к JetStream, а при недоступности NATS
// переходит на in-memory шину.
func newEventBus(cfg config.EventBusConfig) eventbus.EventBus {
	if cfg.URL != "" {
		retention := time.Duration(cfg.Retention) * time.Hour
		js, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, retention)
		if err == nil {
			logging.Info("🚌 EventBus: JetStream %s (stream=%s)", cfg.URL, cfg.Stream)
			return js
		}
		logging.Warn("⚠️ JetStream недоступен (%v), используется in-memory шина", err)
	}
	logging.Info("🚌 EventBus: in-memory (buffer=%d)", cfg.Buffer)
	return eventbus.NewMemoryBus(cfg.Buffer)
}
