package brain

import (
	"github.com/annel0/skirmish/internal/effects"
	"github.com/annel0/skirmish/internal/params"
)

// RefRing - периодическая атака кольцом
const RefRing = "brain_ring"

// RingOptions - параметры brain_ring
type RingOptions struct {
	Speed          float64
	ApproachSpeed  float64
	SightRange     float64
	IntervalMs     int64
	InitialDelayMs int64
	WarnMs         int64 // окно визуальной подсказки перед выстрелом
	Skill          string
}

// ResolveRing разрешает параметры brain_ring. WarnMs по умолчанию равен шагу кадра.
func ResolveRing(r params.Resolver, frameStepMs int64) RingOptions {
	return RingOptions{
		Speed:          r.Float("speed", 60),
		ApproachSpeed:  r.Float("approachSpeed", 0),
		SightRange:     r.Float("sightRange", 600),
		IntervalMs:     r.Millis("intervalMs", 1600),
		InitialDelayMs: r.Millis("initialDelayMs", 1000),
		WarnMs:         r.Millis("warnMs", frameStepMs),
		Skill:          r.String("skill", "ring"),
	}
}

// Ring стреляет с фиксированным интервалом по метке nextFireAt
func Ring(c *Context, args params.Args) error {
	opts := ResolveRing(c.Params(args), c.frameStep())

	dist, err := Chase(c, opts.Speed, opts.ApproachSpeed)
	if err != nil || c.Player == nil {
		return err
	}

	store := c.Entity.Store
	next, err := store.Timestamp(KeyNextFireAt)
	if err != nil {
		return err
	}
	if next == 0 {
		return scheduleAfter(store, KeyNextFireAt, c.Now, opts.InitialDelayMs)
	}
	if dist > opts.SightRange {
		return nil
	}

	if c.Now >= next {
		if err := scheduleAfter(store, KeyNextFireAt, c.Now, opts.IntervalMs); err != nil {
			return err
		}
		store.Delete(KeyCueShown)
		return c.invoke(opts.Skill)
	}

	if c.Now+opts.WarnMs >= next && !store.Flag(KeyCueShown) {
		store.SetFlag(KeyCueShown, true)
		c.effect(effects.RefPreFire, params.Args{"fireAt": params.Millis(next)})
	}
	return nil
}
