// Package sim - покадровый драйвер поведения и вспомогательные системы мира.
package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/skirmish/internal/ability"
	"github.com/annel0/skirmish/internal/brain"
	"github.com/annel0/skirmish/internal/content"
	"github.com/annel0/skirmish/internal/journal"
	"github.com/annel0/skirmish/internal/logging"
	"github.com/annel0/skirmish/internal/metrics"
	"github.com/annel0/skirmish/internal/observability"
	"github.com/annel0/skirmish/internal/registry"
	"github.com/annel0/skirmish/internal/world/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrBrainPanic оборачивает панику, перехваченную в обработчике поведения
var ErrBrainPanic = errors.New("brain panic")

// MonsterSource - справочник монстров
type MonsterSource interface {
	Monster(id string) (content.Monster, bool)
}

// Fault - изолированная ошибка поведения одной сущности
type Fault struct {
	EntityID uint64
	Ref      string
	Err      error
}

func (f Fault) Error() string {
	return fmt.Sprintf("entity %d (%s): %v", f.EntityID, f.Ref, f.Err)
}

func (f Fault) Unwrap() error { return f.Err }

// Report - итог одного тика
type Report struct {
	Now     int64
	Ticked  int
	Expired int
	Faults  []Fault
}

// Config - зависимости Driver. Всё, кроме World и Brains, может быть nil.
type Config struct {
	World       *entity.EntityManager
	Monsters    MonsterSource
	Brains      *registry.Registry[*brain.Context]
	Abilities   brain.Invoker
	Effects     ability.Effects
	FrameStepMs int64
	Metrics     *metrics.Game
	Journal     *journal.Recorder
	Logger      *logging.Logger
	Tracer      trace.Tracer
}

// Driver раз в кадр вызывает поведение каждой активной сущности
type Driver struct {
	world       *entity.EntityManager
	monsters    MonsterSource
	brains      *registry.Registry[*brain.Context]
	abilities   brain.Invoker
	effects     ability.Effects
	frameStepMs int64
	metrics     *metrics.Game
	journal     *journal.Recorder
	logger      *logging.Logger
	tracer      trace.Tracer
	projectiles *ProjectileSystem

	player  *entity.Entity
	lastNow int64
}

// NewDriver создаёт драйвер
func NewDriver(cfg Config) *Driver {
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = observability.Tracer()
	}
	brains := cfg.Brains
	if brains == nil {
		brains = brain.NewRegistry()
	}
	return &Driver{
		world:       cfg.World,
		monsters:    cfg.Monsters,
		brains:      brains,
		abilities:   cfg.Abilities,
		effects:     cfg.Effects,
		frameStepMs: cfg.FrameStepMs,
		metrics:     cfg.Metrics,
		journal:     cfg.Journal,
		logger:      cfg.Logger,
		tracer:      tracer,
		projectiles: NewProjectileSystem(cfg.World, cfg.Effects, cfg.Journal),
	}
}

// SetPlayer задаёт игрока, за которым следят поведения
func (d *Driver) SetPlayer(player *entity.Entity) {
	d.player = player
}

// Player возвращает текущего игрока или первого активного игрока мира
func (d *Driver) Player() *entity.Entity {
	if d.player != nil && !d.player.Destroyed() {
		return d.player
	}
	d.player = nil
	if players := d.world.ActiveOfType(entity.EntityTypePlayer); len(players) > 0 {
		d.player = players[0]
	}
	return d.player
}

// Tick выполняет один кадр поведения.
//
// now не может уменьшаться: меньшее значение заменяется последним
// наблюдённым. Сущности обходятся в порядке регистрации. Ошибка или паника
// поведения одной сущности записывается в отчёт, остальные сущности
// продолжают работу.
func (d *Driver) Tick(ctx context.Context, now int64) Report {
	started := time.Now()
	if now < d.lastNow {
		now = d.lastNow
	}
	d.lastNow = now

	_, span := d.tracer.Start(ctx, "sim.Tick", trace.WithAttributes(attribute.Int64("sim.now_ms", now)))
	defer span.End()

	report := Report{Now: now}
	player := d.Player()

	for _, e := range d.world.ActiveOfType(entity.EntityTypeMonster) {
		if e.BrainRef == "" || e.Destroyed() || !d.brains.Has(e.BrainRef) {
			continue
		}
		report.Ticked++

		if err := d.tickEntity(e, player, now); err != nil {
			fault := Fault{EntityID: e.ID, Ref: e.BrainRef, Err: err}
			report.Faults = append(report.Faults, fault)
			d.reportFault(span, now, fault)
		}
	}

	expired, err := d.projectiles.Update(now)
	report.Expired = expired
	if err != nil {
		d.logger.Warn("Снаряды: %v", err)
	}

	span.SetAttributes(attribute.Int("sim.ticked", report.Ticked), attribute.Int("sim.faults", len(report.Faults)))
	d.metrics.ObserveTick(time.Since(started))
	return report
}

func (d *Driver) tickEntity(e, player *entity.Entity, now int64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrBrainPanic, r)
		}
	}()

	var monster content.Monster
	if d.monsters != nil {
		monster, _ = d.monsters.Monster(e.MonsterID)
	}

	bctx := &brain.Context{
		Entity:      e,
		Player:      player,
		Now:         now,
		FrameStepMs: d.frameStepMs,
		Monster:     monster,
		World:       d.world,
		Abilities:   d.abilities,
		Effects:     d.effects,
	}
	return d.brains.Dispatch(e.BrainRef, bctx, nil)
}

func (d *Driver) reportFault(span trace.Span, now int64, f Fault) {
	d.logger.Error("❌ Поведение %s сущности %d: %v", f.Ref, f.EntityID, f.Err)
	d.metrics.BrainFault(f.Ref)
	d.journal.Record(now, journal.KindFault, f.EntityID, f.Ref, f.Err.Error())
	span.AddEvent("brain.fault", trace.WithAttributes(
		attribute.Int64("entity.id", int64(f.EntityID)),
		attribute.String("brain.ref", f.Ref),
		attribute.String("error", f.Err.Error()),
	))
}
