package powers

import (
	"math"
	"testing"

	"github.com/annel0/skirmish/internal/ability"
	"github.com/annel0/skirmish/internal/content"
	"github.com/annel0/skirmish/internal/effects"
	"github.com/annel0/skirmish/internal/params"
	"github.com/annel0/skirmish/internal/vec"
	"github.com/annel0/skirmish/internal/world/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fxRecorder struct {
	refs []string
	args []params.Args
}

func (r *fxRecorder) Dispatch(ref string, _ effects.Context, args params.Args) {
	r.refs = append(r.refs, ref)
	r.args = append(r.args, args)
}

type fixture struct {
	world  *entity.EntityManager
	fx     *fxRecorder
	exec   *ability.Executor
	caster *entity.Entity
	target *entity.Entity
}

func newFixture(t *testing.T, skills ...content.Skill) *fixture {
	t.Helper()
	store, err := content.NewStore(skills, nil, nil)
	require.NoError(t, err)

	world := entity.NewEntityManager()
	fx := &fxRecorder{}
	reg := ability.NewRegistry()
	Register(reg)

	return &fixture{
		world:  world,
		fx:     fx,
		exec:   ability.NewExecutor(ability.Config{Skills: store, Powers: reg, World: world, Effects: fx}),
		caster: world.Spawn(entity.EntityTypeMonster, vec.Vec2{}),
		target: world.Spawn(entity.EntityTypePlayer, vec.Vec2{X: 100}),
	}
}

func (f *fixture) invoke(t *testing.T, skill string, now int64) {
	t.Helper()
	outcome, err := f.exec.Invoke(ability.Request{Caster: f.caster, Target: f.target, SkillID: skill, Now: now})
	require.NoError(t, err)
	require.Equal(t, ability.OutcomeFired, outcome)
}

func TestRegister_AllRefs(t *testing.T) {
	reg := ability.NewRegistry()
	Register(reg)
	assert.Equal(t, []string{RefSlam, RefDash, RefBolt, RefRing}, reg.Refs())
}

func TestBolt_SpawnsAimedProjectile(t *testing.T) {
	f := newFixture(t, content.Skill{ID: "bolt", Ref: RefBolt, Params: params.Args{"damage": params.Number(11)}})
	f.invoke(t, "bolt", 1000)

	projectiles := f.world.ActiveOfType(entity.EntityTypeProjectile)
	require.Len(t, projectiles, 1)
	p := projectiles[0]
	assert.Equal(t, f.caster.ID, p.OwnerID)
	assert.Equal(t, 11.0, p.Damage)
	assert.Equal(t, vec.Vec2{X: 260}, p.Velocity)

	expires, err := p.Store.Timestamp(ability.KeyExpiresAt)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), expires)
}

func TestRing_SpawnsEvenlySpacedProjectiles(t *testing.T) {
	f := newFixture(t, content.Skill{ID: "ring", Ref: RefRing, Params: params.Args{"count": params.Number(4)}})
	f.invoke(t, "ring", 0)

	projectiles := f.world.ActiveOfType(entity.EntityTypeProjectile)
	require.Len(t, projectiles, 4)
	for i, p := range projectiles {
		angle := math.Atan2(p.Velocity.Y, p.Velocity.X)
		want := math.Pi / 2 * float64(i)
		if want > math.Pi {
			want -= 2 * math.Pi
		}
		assert.InDelta(t, want, angle, 1e-9)
		assert.InDelta(t, 180.0, p.Velocity.Length(), 1e-9)
	}
}

func TestRing_CountIsAtLeastOne(t *testing.T) {
	f := newFixture(t, content.Skill{ID: "ring", Ref: RefRing, Params: params.Args{"count": params.Number(0)}})
	f.invoke(t, "ring", 0)
	assert.Len(t, f.world.ActiveOfType(entity.EntityTypeProjectile), 1)
}

func TestRing_CountIsCapped(t *testing.T) {
	f := newFixture(t, content.Skill{ID: "ring", Ref: RefRing})
	f.caster.Store.Set("count", params.Number(3e6))

	f.invoke(t, "ring", 0)
	assert.Len(t, f.world.ActiveOfType(entity.EntityTypeProjectile), MaxRingCount)
}

func TestBolt_ZeroLifetimeStillExpires(t *testing.T) {
	f := newFixture(t, content.Skill{ID: "bolt", Ref: RefBolt, Params: params.Args{"lifetimeMs": params.Number(0)}})
	f.invoke(t, "bolt", 0)

	projectiles := f.world.ActiveOfType(entity.EntityTypeProjectile)
	require.Len(t, projectiles, 1)
	expires, err := projectiles[0].Store.Timestamp(ability.KeyExpiresAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expires)
}

func TestDash_SetsVelocityAndExtendsWindow(t *testing.T) {
	f := newFixture(t, content.Skill{ID: "dash", Ref: RefDash})
	f.invoke(t, "dash", 100)

	assert.Equal(t, vec.Vec2{X: 420}, f.caster.Velocity)
	until, err := f.caster.Store.Timestamp(ability.KeyDashUntil)
	require.NoError(t, err)
	assert.Equal(t, int64(280), until)
	assert.Equal(t, []string{effects.RefDashTrail}, f.fx.refs)

	// более ранний конец рывка не сокращает окно
	require.NoError(t, f.caster.Store.Schedule(ability.KeyDashUntil, 1000))
	f.invoke(t, "dash", 200)
	until, err = f.caster.Store.Timestamp(ability.KeyDashUntil)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), until)
}

func TestDash_CorruptedStoreIsAnError(t *testing.T) {
	f := newFixture(t, content.Skill{ID: "dash", Ref: RefDash})
	f.caster.Store.SetText(ability.KeyDashUntil, "soon")

	_, err := f.exec.Invoke(ability.Request{Caster: f.caster, Target: f.target, SkillID: "dash"})
	assert.ErrorIs(t, err, entity.ErrNotTimestamp)
}

func TestSlam_DamagesOtherTypesInRadius(t *testing.T) {
	f := newFixture(t, content.Skill{ID: "slam", Ref: RefSlam, Params: params.Args{"slamRadius": params.Number(150)}})
	ally := f.world.Spawn(entity.EntityTypeMonster, vec.Vec2{X: 10})
	far := f.world.Spawn(entity.EntityTypePlayer, vec.Vec2{X: 500})

	f.invoke(t, "slam", 0)

	assert.Equal(t, entity.DefaultHealth-15, f.target.Health)
	assert.Equal(t, entity.DefaultHealth, ally.Health)
	assert.Equal(t, entity.DefaultHealth, far.Health)
	assert.Equal(t, entity.DefaultHealth, f.caster.Health)
	require.Equal(t, []string{effects.RefDamageNumber}, f.fx.refs)
	assert.Equal(t, params.Number(15), f.fx.args[0]["amount"])
}

func TestAffixSpeedDoesNotLeakIntoProjectiles(t *testing.T) {
	f := newFixture(t, content.Skill{ID: "bolt", Ref: RefBolt})
	f.caster.Store.SetNumber("speed", 140)
	f.invoke(t, "bolt", 0)

	p := f.world.ActiveOfType(entity.EntityTypeProjectile)[0]
	assert.Equal(t, 260.0, p.Velocity.Length())
}
