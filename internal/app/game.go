// Package app собирает ядро симуляции из конфигурации: контент, реестры,
// исполнитель способностей, драйвер поведения и игровой цикл.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/skirmish/internal/ability"
	"github.com/annel0/skirmish/internal/ability/powers"
	"github.com/annel0/skirmish/internal/brain"
	"github.com/annel0/skirmish/internal/config"
	"github.com/annel0/skirmish/internal/content"
	"github.com/annel0/skirmish/internal/effects"
	"github.com/annel0/skirmish/internal/eventbus"
	"github.com/annel0/skirmish/internal/journal"
	"github.com/annel0/skirmish/internal/logging"
	"github.com/annel0/skirmish/internal/metrics"
	"github.com/annel0/skirmish/internal/sim"
	"github.com/annel0/skirmish/internal/vec"
	"github.com/annel0/skirmish/internal/world/entity"
	"github.com/prometheus/client_golang/prometheus"
)

// Options - внешние зависимости Game. Нулевые значения допустимы.
type Options struct {
	Bus      eventbus.EventBus    // nil - эффекты никуда не публикуются
	Registry *prometheus.Registry // nil - глобальный регистр Prometheus
	Clock    sim.Clock            // nil - монотонные часы процесса
	Content  *content.Store       // nil - загрузить из cfg.Content.Dir
	Logger   *logging.Logger      // nil - логгеры компонентов sim и effects
}

// Game - собранное ядро симуляции одной сессии
type Game struct {
	Content  *content.Store
	World    *entity.EntityManager
	Effects  *effects.Dispatcher
	Executor *ability.Executor
	Driver   *sim.Driver
	Spawner  *sim.Spawner
	Journal  *journal.Recorder
	Metrics  *metrics.Game
	Player   *entity.Entity

	loop   *sim.Loop
	logger *logging.Logger
}

// New собирает Game. Ошибка загрузки контента или неизвестный монстр в
// списке спавна фатальны: это ошибка сборки контента, а не состояние игры.
func New(cfg *config.Config, opts Options) (*Game, error) {
	logger, fxLogger := opts.Logger, opts.Logger
	if logger == nil {
		logger, fxLogger = logging.GetSimLogger(), logging.GetEffectsLogger()
	}

	store := opts.Content
	if store == nil {
		var err error
		if store, err = content.LoadDir(cfg.Content.Dir); err != nil {
			return nil, fmt.Errorf("загрузка контента %s: %w", cfg.Content.Dir, err)
		}
	}
	logger.Info("📦 Контент: %d навыков, %d монстров, %d аффиксов",
		len(store.SkillIDs()), len(store.MonsterIDs()), len(store.AffixIDs()))

	var registerer prometheus.Registerer
	if opts.Registry != nil {
		registerer = opts.Registry
	}
	m := metrics.NewGame(registerer)
	rec := journal.NewRecorder(0)
	world := entity.NewEntityManager()

	fx := effects.NewDispatcher(fxLogger, m)
	if opts.Bus != nil {
		effects.RegisterDefaults(fx, opts.Bus)
	}

	powerReg := ability.NewRegistry()
	powers.Register(powerReg)
	exec := ability.NewExecutor(ability.Config{
		Skills:  store,
		Powers:  powerReg,
		World:   world,
		Effects: fx,
		Metrics: m,
		Journal: rec,
		Logger:  logger,
	})

	brains := brain.NewRegistry()
	brain.Register(brains)

	clock := cfg.Simulation.Clock
	driver := sim.NewDriver(sim.Config{
		World:       world,
		Monsters:    store,
		Brains:      brains,
		Abilities:   exec,
		Effects:     fx,
		FrameStepMs: clock.FrameStepMs,
		Metrics:     m,
		Journal:     rec,
		Logger:      logger,
	})

	g := &Game{
		Content:  store,
		World:    world,
		Effects:  fx,
		Executor: exec,
		Driver:   driver,
		Spawner:  sim.NewSpawner(world, store, fx, rec),
		Journal:  rec,
		Metrics:  m,
		logger:   logger,
	}

	logger.Debug("Реестры: brain=%v power=%v effect=%v", brains.Refs(), powerReg.Refs(), fx.Registry().Refs())

	if err := g.populate(cfg.Simulation); err != nil {
		return nil, err
	}

	step := time.Second / time.Duration(max(clock.TickRate, 1))
	g.loop = sim.NewLoop(driver, world, opts.Clock, sim.LoopConfig{
		Step:     step,
		MaxFrame: time.Duration(clock.MaxFrameMs) * time.Millisecond,
	}, logger, m)

	return g, nil
}

func (g *Game) populate(cfg config.SimulationConfig) error {
	g.Player = g.Spawner.SpawnPlayer(vec.Vec2{X: cfg.Player.X, Y: cfg.Player.Y}, 0)
	g.Driver.SetPlayer(g.Player)

	for _, sp := range cfg.Spawns {
		e, err := g.Spawner.SpawnMonster(sp.Monster, vec.Vec2{X: sp.X, Y: sp.Y}, 0)
		if err != nil {
			return fmt.Errorf("спавн: %w", err)
		}
		g.logger.Debug("👾 %s #%d (%s) в (%.0f, %.0f)", e.MonsterID, e.ID, e.BrainRef, sp.X, sp.Y)
	}
	return nil
}

// Loop возвращает игровой цикл
func (g *Game) Loop() *sim.Loop {
	return g.loop
}

// Run запускает игровой цикл до отмены ctx
func (g *Game) Run(ctx context.Context) error {
	g.logger.Info("🧭 Сессия %s", g.Journal.Session())
	err := g.loop.Run(ctx)
	g.logger.Info("%s", g.journalSummary())
	return err
}

// journalSummary - итог сессии по хранимым записям журнала
func (g *Game) journalSummary() string {
	return fmt.Sprintf("📜 Журнал: %d записей (выстрелов %d, осечек %d, сбоев %d), digest=%016x",
		g.Journal.Len(),
		len(g.Journal.Filter(journal.KindFire)),
		len(g.Journal.Filter(journal.KindFizzle)),
		len(g.Journal.Filter(journal.KindFault)),
		g.Journal.Digest())
}
