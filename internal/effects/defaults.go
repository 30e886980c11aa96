package effects

import (
	"context"
	"encoding/json"

	"github.com/annel0/skirmish/internal/eventbus"
	"github.com/annel0/skirmish/internal/params"
)

// Ref встроенных эффектов. Строки являются частью формата контента.
const (
	RefTelegraph         = "fx.telegraph"
	RefTelegraphClear    = "fx.telegraphClear"
	RefPreFire           = "fx.preFire"
	RefDashTrail         = "fx.dashTrail"
	RefDamageNumber      = "fx.damageNumber"
	RefSpawn             = "fx.spawn"
	RefProjectileExpired = "fx.projectileExpired"
)

// DefaultRefs - встроенные эффекты в порядке регистрации
var DefaultRefs = []string{
	RefTelegraph,
	RefTelegraphClear,
	RefPreFire,
	RefDashTrail,
	RefDamageNumber,
	RefSpawn,
	RefProjectileExpired,
}

// EventSource - значение поля Source публикуемых событий
const EventSource = "skirmish.effects"

// Payload - JSON-представление эффекта для клиентов рендеринга
type Payload struct {
	Ref      string                 `json:"ref"`
	EntityID uint64                 `json:"entityId"`
	X        float64                `json:"x"`
	Y        float64                `json:"y"`
	Params   map[string]interface{} `json:"params,omitempty"`
}

// Publisher возвращает обработчик, публикующий эффект ref в шину событий.
// Событие имеет низкий приоритет: при переполненной шине оно отбрасывается.
func Publisher(ref string, bus eventbus.EventBus) Handler {
	return func(ctx Context, args params.Args) error {
		payload := Payload{
			Ref:      ref,
			EntityID: ctx.EntityID,
			X:        ctx.Position.X,
			Y:        ctx.Position.Y,
		}
		if len(args) > 0 {
			payload.Params = make(map[string]interface{}, len(args))
			for _, key := range args.Keys() {
				payload.Params[key] = args[key].Any()
			}
		}

		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		ev := eventbus.NewEnvelope(EventSource, ref, ctx.Now, data)
		return bus.Publish(context.Background(), ev)
	}
}

// RegisterDefaults регистрирует встроенные эффекты, публикующие события в bus.
// Явная таблица регистрации: новый эффект добавляется в DefaultRefs.
func RegisterDefaults(d *Dispatcher, bus eventbus.EventBus) {
	for _, ref := range DefaultRefs {
		d.Register(ref, Publisher(ref, bus))
	}
}
