package entity

import (
	"testing"

	"github.com/annel0/skirmish/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(entities []*Entity) []uint64 {
	out := make([]uint64, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.ID)
	}
	return out
}

func TestEntityManager_StableOrder(t *testing.T) {
	em := NewEntityManager()
	a := em.Spawn(EntityTypeMonster, vec.Vec2{})
	b := em.Spawn(EntityTypeMonster, vec.Vec2{})
	c := em.Spawn(EntityTypeMonster, vec.Vec2{})

	for i := 0; i < 5; i++ {
		assert.Equal(t, []uint64{a.ID, b.ID, c.ID}, ids(em.Active()))
	}

	require.True(t, em.Despawn(b.ID))
	d := em.Spawn(EntityTypeMonster, vec.Vec2{})
	assert.Equal(t, []uint64{a.ID, c.ID, d.ID}, ids(em.Active()))
}

func TestEntityManager_DespawnMarksDestroyed(t *testing.T) {
	em := NewEntityManager()
	e := em.Spawn(EntityTypeMonster, vec.Vec2{})

	assert.False(t, e.Destroyed())
	assert.True(t, em.Despawn(e.ID))
	assert.True(t, e.Destroyed())
	assert.False(t, em.Despawn(e.ID))

	_, ok := em.Get(e.ID)
	assert.False(t, ok)
}

func TestEntityManager_AddAssignsID(t *testing.T) {
	em := NewEntityManager()
	first := em.Spawn(EntityTypePlayer, vec.Vec2{})

	projectile := &Entity{Type: EntityTypeProjectile, Active: true}
	em.Add(projectile)

	assert.NotZero(t, projectile.ID)
	assert.NotEqual(t, first.ID, projectile.ID)
	assert.NotNil(t, projectile.Store)
	assert.Equal(t, 2, em.Len())
}

func TestEntityManager_SnapshotExcludesLateAdds(t *testing.T) {
	em := NewEntityManager()
	em.Spawn(EntityTypeMonster, vec.Vec2{})

	snapshot := em.Active()
	em.Add(&Entity{Type: EntityTypeProjectile, Active: true})

	assert.Len(t, snapshot, 1)
	assert.Len(t, em.Active(), 2)
}

func TestEntityManager_RangeAndType(t *testing.T) {
	em := NewEntityManager()
	em.Spawn(EntityTypePlayer, vec.Vec2{X: 0, Y: 0})
	near := em.Spawn(EntityTypeMonster, vec.Vec2{X: 10, Y: 0})
	em.Spawn(EntityTypeMonster, vec.Vec2{X: 100, Y: 0})

	inRange := em.GetEntitiesInRange(vec.Vec2{}, 20)
	assert.Len(t, inRange, 2)
	assert.Contains(t, ids(inRange), near.ID)

	assert.Len(t, em.ActiveOfType(EntityTypeMonster), 2)
	assert.Len(t, em.ActiveOfType(EntityTypeProjectile), 0)
}

func TestEntityManager_Step(t *testing.T) {
	em := NewEntityManager()
	e := em.Spawn(EntityTypeMonster, vec.Vec2{X: 1, Y: 1})
	e.SetVelocity(vec.Vec2{X: 100, Y: -50})

	em.Step(0.5)

	assert.InDelta(t, 51.0, e.Position.X, 1e-9)
	assert.InDelta(t, -24.0, e.Position.Y, 1e-9)
}

func TestEntity_ApplyDamage(t *testing.T) {
	e := NewEntity(1, EntityTypePlayer, vec.Vec2{})

	assert.False(t, e.ApplyDamage(30))
	assert.Equal(t, 70.0, e.Health)
	assert.False(t, e.ApplyDamage(-5))
	assert.True(t, e.ApplyDamage(500))
	assert.Zero(t, e.Health)
}

func TestEntityManager_Stats(t *testing.T) {
	em := NewEntityManager()
	em.Spawn(EntityTypePlayer, vec.Vec2{})
	em.Spawn(EntityTypeMonster, vec.Vec2{})

	stats := em.GetStats()
	assert.Equal(t, 2, stats["total_entities"])
	assert.Equal(t, 2, stats["active_entities"])
	assert.Equal(t, map[string]int{"player": 1, "monster": 1}, stats["entity_types"])
}
