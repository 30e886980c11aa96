// Package brain содержит обработчики поведения монстров.
//
// Состояние каждого поведения хранится только во временных метках
// хранилища сущности; явного перечисления состояний нет. Обработчик
// изменяет хранилище только своей сущности.
package brain

import (
	"github.com/annel0/skirmish/internal/ability"
	"github.com/annel0/skirmish/internal/content"
	"github.com/annel0/skirmish/internal/effects"
	"github.com/annel0/skirmish/internal/params"
	"github.com/annel0/skirmish/internal/registry"
	"github.com/annel0/skirmish/internal/world/entity"
)

// Ключи хранилища сущности
const (
	KeyPendingFireAt = "pendingFireAt"
	KeyCooldownUntil = "cooldownUntil"
	KeyNextFireAt    = "nextFireAt"
	KeyLastDashAt    = "lastDashAt"
	KeyCueShown      = "cueShown"
)

// DefaultFrameStepMs - шаг кадра, если хост его не передал
const DefaultFrameStepMs = 16

// Invoker вызывает навыки
type Invoker interface {
	Invoke(req ability.Request) (ability.Outcome, error)
}

// Context собирается заново на каждый тик и не сохраняется
type Context struct {
	Entity      *entity.Entity
	Player      *entity.Entity // может быть nil
	Now         int64
	FrameStepMs int64
	Monster     content.Monster
	World       ability.World
	Abilities   Invoker
	Effects     ability.Effects
}

// Brain - обработчик поведения
type Brain = registry.Handler[*Context]

// NewRegistry создаёт пустой реестр поведений
func NewRegistry() *registry.Registry[*Context] {
	return registry.New[*Context]("brain")
}

// Params возвращает Resolver параметров поведения:
// аргументы вызова → хранилище сущности → запись монстра.
func (c *Context) Params(args params.Args) params.Resolver {
	return params.NewResolver(args, c.Entity.Store, c.Monster.Params)
}

func (c *Context) frameStep() int64 {
	if c.FrameStepMs > 0 {
		return c.FrameStepMs
	}
	return DefaultFrameStepMs
}

func (c *Context) invoke(skill string) error {
	if c.Abilities == nil {
		return nil
	}
	_, err := c.Abilities.Invoke(ability.Request{
		Caster:  c.Entity,
		Target:  c.Player,
		SkillID: skill,
		Now:     c.Now,
	})
	return err
}

func (c *Context) effect(ref string, args params.Args) {
	if c.Effects == nil {
		return
	}
	c.Effects.Dispatch(ref, effects.Context{Now: c.Now, EntityID: c.Entity.ID, Position: c.Entity.Position}, args)
}

// Register добавляет встроенные поведения в реестр
func Register(reg *registry.Registry[*Context]) {
	reg.Register(RefChaser, Chaser)
	reg.Register(RefRanged, Ranged)
	reg.Register(RefRing, Ring)
}

// scheduleAfter ставит метку now+delay. Момент 0 означает «не задано»,
// поэтому метка всегда строго положительна.
func scheduleAfter(store *entity.Store, key string, now, delay int64) error {
	at := now + delay
	if at <= 0 {
		at = 1
	}
	return store.Schedule(key, at)
}
