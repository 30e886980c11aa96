// Package effects - диспетчер визуальных и звуковых эффектов.
//
// Эффекты работают по принципу fire-and-forget: Dispatch ничего не возвращает,
// ошибки и паники обработчиков подавляются внутри диспетчера. Ядро симуляции
// никогда не ждёт завершения эффекта и не ветвится по его результату.
package effects

import (
	"github.com/annel0/skirmish/internal/logging"
	"github.com/annel0/skirmish/internal/metrics"
	"github.com/annel0/skirmish/internal/params"
	"github.com/annel0/skirmish/internal/registry"
	"github.com/annel0/skirmish/internal/vec"
)

// Context - данные, доступные обработчику эффекта
type Context struct {
	Now      int64    // время симуляции, мс
	EntityID uint64   // сущность-источник (0 - нет)
	Position vec.Vec2 // точка проигрывания
}

// Handler - обработчик эффекта
type Handler = registry.Handler[Context]

// Dispatcher вызывает обработчики эффектов по ref
type Dispatcher struct {
	reg     *registry.Registry[Context]
	logger  *logging.Logger
	metrics *metrics.Game
}

// NewDispatcher создаёт диспетчер с пустым реестром эффектов.
// logger и m могут быть nil.
func NewDispatcher(logger *logging.Logger, m *metrics.Game) *Dispatcher {
	return &Dispatcher{
		reg:     registry.New[Context]("effect"),
		logger:  logger,
		metrics: m,
	}
}

// Registry возвращает реестр эффектов для регистрации обработчиков
func (d *Dispatcher) Registry() *registry.Registry[Context] {
	return d.reg
}

// Register регистрирует обработчик эффекта
func (d *Dispatcher) Register(ref string, h Handler) {
	d.reg.Register(ref, h)
}

// Dispatch проигрывает эффект. Неизвестный ref игнорируется.
// Безопасен для nil-получателя.
func (d *Dispatcher) Dispatch(ref string, ctx Context, args params.Args) {
	if d == nil || ref == "" || !d.reg.Has(ref) {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			d.metrics.EffectFault()
			d.logger.Debug("Паника эффекта %s (entity=%d): %v", ref, ctx.EntityID, r)
		}
	}()

	d.metrics.Effect(ref)
	if err := d.reg.Dispatch(ref, ctx, args); err != nil {
		d.metrics.EffectFault()
		d.logger.Debug("Ошибка эффекта %s (entity=%d): %v", ref, ctx.EntityID, err)
	}
}
