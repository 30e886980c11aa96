package sim

import (
	"context"
	"sync"
	"time"

	"github.com/annel0/skirmish/internal/logging"
	"github.com/annel0/skirmish/internal/metrics"
	"github.com/annel0/skirmish/internal/world/entity"
)

// Clock - монотонный источник времени симуляции в миллисекундах
type Clock interface {
	NowMs() int64
}

type wallClock struct {
	start time.Time
}

// NewWallClock возвращает часы, отсчитывающие время от момента создания.
// time.Since использует монотонные часы процесса.
func NewWallClock() Clock {
	return wallClock{start: time.Now()}
}

func (c wallClock) NowMs() int64 {
	return time.Since(c.start).Milliseconds()
}

// ManualClock - часы, которые двигает вызывающий (тесты, воспроизведение)
type ManualClock struct {
	mu  sync.Mutex
	now int64
}

// NowMs возвращает текущее время
func (c *ManualClock) NowMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance сдвигает часы вперёд на ms
func (c *ManualClock) Advance(ms int64) {
	if ms <= 0 {
		return
	}
	c.mu.Lock()
	c.now += ms
	c.mu.Unlock()
}

// LoopConfig - параметры игрового цикла
type LoopConfig struct {
	Step     time.Duration // период кадра
	MaxFrame time.Duration // максимальный шаг интегрирования за кадр
}

// Loop - покадровый цикл: интегрирует скорости и вызывает Driver
type Loop struct {
	driver  *Driver
	world   *entity.EntityManager
	clock   Clock
	cfg     LoopConfig
	logger  *logging.Logger
	metrics *metrics.Game

	lastNow int64
	frames  uint64
}

// NewLoop создаёт цикл. Нулевые значения cfg заменяются на 16ms и 250ms.
func NewLoop(driver *Driver, world *entity.EntityManager, clock Clock, cfg LoopConfig, logger *logging.Logger, m *metrics.Game) *Loop {
	if cfg.Step <= 0 {
		cfg.Step = 16 * time.Millisecond
	}
	if cfg.MaxFrame <= 0 {
		cfg.MaxFrame = 250 * time.Millisecond
	}
	if clock == nil {
		clock = NewWallClock()
	}
	return &Loop{
		driver:  driver,
		world:   world,
		clock:   clock,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		lastNow: clock.NowMs(),
	}
}

// Run выполняет кадры до отмены ctx
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.Step)
	defer ticker.Stop()

	l.logger.Info("🎮 Игровой цикл запущен (шаг %v)", l.cfg.Step)
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("🛑 Игровой цикл остановлен после %d кадров", l.frames)
			return ctx.Err()
		case <-ticker.C:
			l.Frame(ctx)
		}
	}
}

// Frame выполняет один кадр: шаг интегрирования, затем тик поведения.
// Шаг ограничен MaxFrame, чтобы долгая пауза не телепортировала сущности.
func (l *Loop) Frame(ctx context.Context) Report {
	now := l.clock.NowMs()
	dtMs := now - l.lastNow
	if dtMs < 0 {
		dtMs = 0
	}
	if maxMs := l.cfg.MaxFrame.Milliseconds(); dtMs > maxMs {
		dtMs = maxMs
	}
	l.lastNow = now

	l.world.Step(float64(dtMs) / 1000)
	report := l.driver.Tick(ctx, now)
	l.frames++

	l.metrics.SetEntities(entity.EntityTypeMonster.String(), len(l.world.ActiveOfType(entity.EntityTypeMonster)))
	l.metrics.SetEntities(entity.EntityTypeProjectile.String(), len(l.world.ActiveOfType(entity.EntityTypeProjectile)))

	if len(report.Faults) > 0 {
		l.logger.Debug("Кадр %d: %d ошибок поведения", l.frames, len(report.Faults))
	}
	return report
}

// Frames возвращает число выполненных кадров
func (l *Loop) Frames() uint64 {
	return l.frames
}
