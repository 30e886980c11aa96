// Package powers содержит встроенные обработчики способностей.
package powers

import (
	"math"

	"github.com/annel0/skirmish/internal/ability"
	"github.com/annel0/skirmish/internal/effects"
	"github.com/annel0/skirmish/internal/params"
	"github.com/annel0/skirmish/internal/registry"
	"github.com/annel0/skirmish/internal/vec"
	"github.com/annel0/skirmish/internal/world/entity"
)

// Ref встроенных способностей
const (
	RefBolt = "projectile.bolt"
	RefRing = "projectile.ring"
	RefDash = "movement.dash"
	RefSlam = "area.slam"
)

// Register добавляет встроенные способности в реестр.
// Таблица регистрации явная: новый обработчик добавляется сюда.
func Register(reg *registry.Registry[*ability.Invocation]) {
	reg.Register(RefBolt, Bolt)
	reg.Register(RefRing, Ring)
	reg.Register(RefDash, Dash)
	reg.Register(RefSlam, Slam)
}

// ProjectileOptions - параметры снаряда. Имена параметров не пересекаются
// со скоростью и радиусом самой сущности, которые лежат в её хранилище.
type ProjectileOptions struct {
	Speed      float64 // единиц в секунду
	Damage     float64
	Radius     float64
	LifetimeMs int64
}

// BoltOptions разрешает параметры projectile.bolt
func BoltOptions(r params.Resolver) ProjectileOptions {
	return ProjectileOptions{
		Speed:      r.Float("projectileSpeed", 260),
		Damage:     r.Float("damage", 8),
		Radius:     r.Float("projectileRadius", 6),
		LifetimeMs: r.Millis("lifetimeMs", 1500),
	}
}

// MaxRingCount - верхняя граница числа снарядов в одном кольце.
// Большие значения из контента или хранилища сущности обрезаются.
const MaxRingCount = 64

// RingOptions - параметры projectile.ring
type RingOptions struct {
	ProjectileOptions
	Count       int
	AngleOffset float64 // радианы
}

// ResolveRing разрешает параметры projectile.ring
func ResolveRing(r params.Resolver) RingOptions {
	opts := RingOptions{
		ProjectileOptions: ProjectileOptions{
			Speed:      r.Float("projectileSpeed", 180),
			Damage:     r.Float("damage", 5),
			Radius:     r.Float("projectileRadius", 6),
			LifetimeMs: r.Millis("lifetimeMs", 2000),
		},
		Count:       r.Int("count", 12),
		AngleOffset: r.Float("angleOffset", 0),
	}
	if opts.Count < 1 {
		opts.Count = 1
	}
	if opts.Count > MaxRingCount {
		opts.Count = MaxRingCount
	}
	return opts
}

// DashOptions - параметры movement.dash
type DashOptions struct {
	Speed      float64
	DurationMs int64
}

// ResolveDash разрешает параметры movement.dash
func ResolveDash(r params.Resolver) DashOptions {
	return DashOptions{
		Speed:      r.Float("dashSpeed", 420),
		DurationMs: r.Millis("durationMs", 180),
	}
}

// SlamOptions - параметры area.slam
type SlamOptions struct {
	Radius float64
	Damage float64
}

// ResolveSlam разрешает параметры area.slam
func ResolveSlam(r params.Resolver) SlamOptions {
	return SlamOptions{
		Radius: r.Float("slamRadius", 48),
		Damage: r.Float("damage", 15),
	}
}

// Bolt выпускает один снаряд в сторону цели
func Bolt(inv *ability.Invocation, _ params.Args) error {
	opts := BoltOptions(inv.Params)
	spawnProjectile(inv, inv.Aim(), opts)
	return nil
}

// Ring выпускает Count снарядов, равномерно распределённых по окружности
func Ring(inv *ability.Invocation, _ params.Args) error {
	opts := ResolveRing(inv.Params)
	step := 2 * math.Pi / float64(opts.Count)
	for i := 0; i < opts.Count; i++ {
		spawnProjectile(inv, vec.FromAngle(opts.AngleOffset+step*float64(i)), opts.ProjectileOptions)
	}
	return nil
}

// Dash задаёт скорость рывка и продлевает dashUntil. Пока рывок активен,
// преследование не перезаписывает скорость.
func Dash(inv *ability.Invocation, _ params.Args) error {
	opts := ResolveDash(inv.Params)
	caster := inv.Caster

	caster.SetVelocity(inv.Aim().Mul(opts.Speed))

	until := inv.Now + opts.DurationMs
	current, err := caster.Store.Timestamp(ability.KeyDashUntil)
	if err != nil {
		return err
	}
	if until > current {
		if err := caster.Store.Schedule(ability.KeyDashUntil, until); err != nil {
			return err
		}
	}

	inv.Effect(effects.RefDashTrail, caster.Position, params.Args{
		"durationMs": params.Millis(opts.DurationMs),
	})
	return nil
}

// Slam наносит урон всем сущностям другого типа в радиусе
func Slam(inv *ability.Invocation, _ params.Args) error {
	opts := ResolveSlam(inv.Params)
	if inv.World == nil || opts.Radius <= 0 {
		return nil
	}

	caster := inv.Caster
	for _, target := range inv.World.GetEntitiesInRange(caster.Position, opts.Radius) {
		if target.ID == caster.ID || target.Type == caster.Type || target.Type == entity.EntityTypeProjectile {
			continue
		}
		target.ApplyDamage(opts.Damage)
		inv.Effect(effects.RefDamageNumber, target.Position, params.Args{
			"amount": params.Number(opts.Damage),
			"target": params.Number(float64(target.ID)),
		})
	}
	return nil
}

func spawnProjectile(inv *ability.Invocation, dir vec.Vec2, opts ProjectileOptions) {
	if inv.World == nil {
		return
	}
	caster := inv.Caster

	p := entity.NewEntity(0, entity.EntityTypeProjectile, caster.Position)
	p.OwnerID = caster.ID
	p.Damage = opts.Damage
	p.Radius = opts.Radius
	p.Velocity = dir.Mul(opts.Speed)
	// 0 в хранилище означает «не задано», такой снаряд не распался бы никогда
	expiresAt := inv.Now + opts.LifetimeMs
	if expiresAt <= 0 {
		expiresAt = 1
	}
	p.Store.SetNumber(ability.KeyExpiresAt, float64(expiresAt))

	inv.World.Add(p)
}
