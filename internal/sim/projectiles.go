package sim

import (
	"errors"
	"fmt"

	"github.com/annel0/skirmish/internal/ability"
	"github.com/annel0/skirmish/internal/effects"
	"github.com/annel0/skirmish/internal/journal"
	"github.com/annel0/skirmish/internal/params"
	"github.com/annel0/skirmish/internal/world/entity"
)

// Причины распада снаряда
const (
	ReasonExpired      = "expired"
	ReasonOwnerGone    = "ownerDestroyed"
	ReasonCorruptTimer = "corruptTimer"
)

// ProjectileSystem удаляет снаряды, срок жизни которых истёк или
// владелец которых уничтожен.
type ProjectileSystem struct {
	world   *entity.EntityManager
	effects ability.Effects
	journal *journal.Recorder
}

// NewProjectileSystem создаёт систему распада снарядов
func NewProjectileSystem(world *entity.EntityManager, fx ability.Effects, rec *journal.Recorder) *ProjectileSystem {
	return &ProjectileSystem{world: world, effects: fx, journal: rec}
}

// Update удаляет снаряды, время которых пришло. Возвращает число удалённых.
// Испорченная метка expiresAt не останавливает обход: снаряд удаляется,
// а ошибка возвращается вместе с остальными.
func (ps *ProjectileSystem) Update(now int64) (int, error) {
	var (
		removed int
		errs    []error
	)
	for _, p := range ps.world.ActiveOfType(entity.EntityTypeProjectile) {
		reason := ""
		if ps.ownerDestroyed(p) {
			reason = ReasonOwnerGone
		} else if expiresAt, err := p.Store.Timestamp(ability.KeyExpiresAt); err != nil {
			reason = ReasonCorruptTimer
			errs = append(errs, fmt.Errorf("projectile %d: %w", p.ID, err))
		} else if expiresAt > 0 && now >= expiresAt {
			reason = ReasonExpired
		}
		if reason == "" {
			continue
		}

		ps.world.Despawn(p.ID)
		removed++
		ps.journal.Record(now, journal.KindDespawn, p.ID, reason, "")
		if ps.effects != nil {
			ps.effects.Dispatch(effects.RefProjectileExpired,
				effects.Context{Now: now, EntityID: p.ID, Position: p.Position},
				params.Args{"reason": params.String(reason)})
		}
	}
	return removed, errors.Join(errs...)
}

func (ps *ProjectileSystem) ownerDestroyed(p *entity.Entity) bool {
	if p.OwnerID == 0 {
		return false
	}
	owner, ok := ps.world.Get(p.OwnerID)
	return !ok || owner.Destroyed()
}
