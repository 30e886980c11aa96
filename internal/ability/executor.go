// Package ability исполняет навыки: разрешает параметры вызова и
// передаёт управление обработчику из реестра powers.
package ability

import (
	"fmt"

	"github.com/annel0/skirmish/internal/content"
	"github.com/annel0/skirmish/internal/effects"
	"github.com/annel0/skirmish/internal/journal"
	"github.com/annel0/skirmish/internal/logging"
	"github.com/annel0/skirmish/internal/metrics"
	"github.com/annel0/skirmish/internal/params"
	"github.com/annel0/skirmish/internal/registry"
	"github.com/annel0/skirmish/internal/vec"
	"github.com/annel0/skirmish/internal/world/entity"
)

// Ключи хранилища сущности, которые пишут обработчики способностей
const (
	// KeyDashUntil - до какого момента скорость сущности задаёт рывок
	KeyDashUntil = "dashUntil"
	// KeyExpiresAt - момент распада снаряда
	KeyExpiresAt = "expiresAt"
)

// World - общий мир, доступный обработчикам. Новые сущности попадают
// в мир только через Add.
type World interface {
	Add(e *entity.Entity) *entity.Entity
	GetEntitiesInRange(center vec.Vec2, radius float64) []*entity.Entity
}

// Effects - получатель визуальных эффектов
type Effects interface {
	Dispatch(ref string, ctx effects.Context, args params.Args)
}

// SkillSource - справочник навыков
type SkillSource interface {
	Skill(id string) (content.Skill, bool)
}

// Invocation - нормализованный контекст вызова обработчика способности
type Invocation struct {
	Caster  *entity.Entity
	Target  *entity.Entity // может быть nil
	Now     int64
	Skill   content.Skill
	Params  params.Resolver // вызов → хранилище заклинателя → запись навыка
	World   World
	Effects Effects
}

// Effect проигрывает эффект от имени заклинателя
func (inv *Invocation) Effect(ref string, at vec.Vec2, args params.Args) {
	if inv.Effects == nil {
		return
	}
	inv.Effects.Dispatch(ref, effects.Context{Now: inv.Now, EntityID: inv.Caster.ID, Position: at}, args)
}

// Aim возвращает единичное направление от заклинателя к цели.
// Без цели используется направление движения, а при нулевой скорости - ось X.
func (inv *Invocation) Aim() vec.Vec2 {
	if inv.Target != nil && !inv.Target.Destroyed() {
		if dir, dist := inv.Caster.Position.DirectionTo(inv.Target.Position); dist > 0 {
			return dir
		}
	}
	if !inv.Caster.Velocity.IsZero() {
		return inv.Caster.Velocity.Normalized()
	}
	return vec.Vec2{X: 1}
}

// Power - обработчик способности
type Power = registry.Handler[*Invocation]

// NewRegistry создаёт пустой реестр способностей
func NewRegistry() *registry.Registry[*Invocation] {
	return registry.New[*Invocation]("power")
}

// Outcome - результат вызова способности
type Outcome int

const (
	// OutcomeFizzled - навык или обработчик не найден, ничего не произошло
	OutcomeFizzled Outcome = iota
	// OutcomeFired - обработчик выполнен
	OutcomeFired
	// OutcomeFailed - обработчик вернул ошибку
	OutcomeFailed
)

// String возвращает имя исхода
func (o Outcome) String() string {
	switch o {
	case OutcomeFired:
		return metrics.OutcomeFired
	case OutcomeFailed:
		return metrics.OutcomeFailed
	default:
		return metrics.OutcomeFizzled
	}
}

// Request - запрос на вызов навыка
type Request struct {
	Caster    *entity.Entity
	Target    *entity.Entity
	SkillID   string
	Overrides params.Args // явные переопределения в месте вызова
	Now       int64
}

// Config - зависимости Executor. Metrics, Journal и Logger могут быть nil.
type Config struct {
	Skills  SkillSource
	Powers  *registry.Registry[*Invocation]
	World   World
	Effects Effects
	Metrics *metrics.Game
	Journal *journal.Recorder
	Logger  *logging.Logger
}

// Executor вызывает навыки по id
type Executor struct {
	skills  SkillSource
	powers  *registry.Registry[*Invocation]
	world   World
	effects Effects
	metrics *metrics.Game
	journal *journal.Recorder
	logger  *logging.Logger
}

// NewExecutor создаёт исполнитель способностей
func NewExecutor(cfg Config) *Executor {
	powers := cfg.Powers
	if powers == nil {
		powers = NewRegistry()
	}
	return &Executor{
		skills:  cfg.Skills,
		powers:  powers,
		world:   cfg.World,
		effects: cfg.Effects,
		metrics: cfg.Metrics,
		journal: cfg.Journal,
		logger:  cfg.Logger,
	}
}

// Powers возвращает реестр способностей
func (e *Executor) Powers() *registry.Registry[*Invocation] {
	return e.powers
}

// Invoke разрешает навык и вызывает его обработчик.
//
// Неизвестный навык или незарегистрированный ref не являются ошибкой:
// способность «гаснет» (OutcomeFizzled). Ошибка обработчика возвращается
// вызывающему без подавления.
func (e *Executor) Invoke(req Request) (Outcome, error) {
	if req.Caster == nil || e.skills == nil {
		return e.fizzle(req, ""), nil
	}

	skill, ok := e.skills.Skill(req.SkillID)
	if !ok {
		return e.fizzle(req, ""), nil
	}
	power, ok := e.powers.Lookup(skill.Ref)
	if !ok {
		return e.fizzle(req, skill.Ref), nil
	}

	inv := &Invocation{
		Caster:  req.Caster,
		Target:  req.Target,
		Now:     req.Now,
		Skill:   skill,
		Params:  params.NewResolver(req.Overrides, req.Caster.Store, skill.Params),
		World:   e.world,
		Effects: e.effects,
	}

	if err := power(inv, req.Overrides); err != nil {
		e.metrics.Ability(skill.ID, metrics.OutcomeFailed)
		return OutcomeFailed, fmt.Errorf("skill %q (%s): %w", skill.ID, skill.Ref, err)
	}

	e.metrics.Ability(skill.ID, metrics.OutcomeFired)
	e.journal.Record(req.Now, journal.KindFire, req.Caster.ID, skill.ID, skill.Ref)
	return OutcomeFired, nil
}

func (e *Executor) fizzle(req Request, ref string) Outcome {
	var casterID uint64
	if req.Caster != nil {
		casterID = req.Caster.ID
	}
	e.metrics.Ability(req.SkillID, metrics.OutcomeFizzled)
	e.journal.Record(req.Now, journal.KindFizzle, casterID, req.SkillID, ref)
	e.logger.Trace("Навык %q (ref=%q) не найден, вызов сущности %d пропущен", req.SkillID, ref, casterID)
	return OutcomeFizzled
}
