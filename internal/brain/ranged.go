package brain

import (
	"github.com/annel0/skirmish/internal/effects"
	"github.com/annel0/skirmish/internal/params"
)

// RefRanged - стрелок с предупреждением перед выстрелом
const RefRanged = "brain_ranged"

// RangedOptions - параметры brain_ranged
type RangedOptions struct {
	Speed         float64
	ApproachSpeed float64
	Range         float64
	CooldownMs    int64
	TelegraphMs   int64
	Skill         string
}

// ResolveRanged разрешает параметры brain_ranged
func ResolveRanged(r params.Resolver) RangedOptions {
	return RangedOptions{
		Speed:         r.Float("speed", 80),
		ApproachSpeed: r.Float("approachSpeed", 0),
		Range:         r.Float("range", 320),
		CooldownMs:    r.Millis("cooldownMs", 900),
		TelegraphMs:   r.Millis("telegraphMs", 300),
		Skill:         r.String("skill", "bolt"),
	}
}

// Ranged преследует игрока и в пределах дальности проходит цикл
// предупреждение → выстрел → перезарядка.
func Ranged(c *Context, args params.Args) error {
	opts := ResolveRanged(c.Params(args))

	dist, err := Chase(c, opts.Speed, opts.ApproachSpeed)
	if err != nil || c.Player == nil || dist > opts.Range {
		return err
	}
	return rangedCycle(c, opts)
}

// rangedCycle проверяет правила по порядку. Выстрел происходит только по
// правилу 1, поэтому во время предупреждения способность не вызывается.
func rangedCycle(c *Context, opts RangedOptions) error {
	store := c.Entity.Store

	pending, err := store.Timestamp(KeyPendingFireAt)
	if err != nil {
		return err
	}
	cooldown, err := store.Timestamp(KeyCooldownUntil)
	if err != nil {
		return err
	}

	// 1. выстрел
	if pending > 0 && c.Now >= pending {
		store.Clear(KeyPendingFireAt)
		if err := store.Schedule(KeyCooldownUntil, c.Now+opts.CooldownMs); err != nil {
			return err
		}
		c.effect(effects.RefTelegraphClear, nil)
		return c.invoke(opts.Skill)
	}

	// 2. первая активация: готов сразу
	if cooldown == 0 {
		if err := store.Schedule(KeyCooldownUntil, c.Now); err != nil {
			return err
		}
		cooldown = c.Now
	}

	// 3. начало предупреждения
	if c.Now >= cooldown && pending == 0 {
		if err := scheduleAfter(store, KeyPendingFireAt, c.Now, opts.TelegraphMs); err != nil {
			return err
		}
		c.effect(effects.RefTelegraph, params.Args{"durationMs": params.Millis(opts.TelegraphMs)})
	}
	return nil
}
