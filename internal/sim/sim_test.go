package sim

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/annel0/skirmish/internal/ability"
	"github.com/annel0/skirmish/internal/ability/powers"
	"github.com/annel0/skirmish/internal/brain"
	"github.com/annel0/skirmish/internal/content"
	"github.com/annel0/skirmish/internal/effects"
	"github.com/annel0/skirmish/internal/journal"
	"github.com/annel0/skirmish/internal/metrics"
	"github.com/annel0/skirmish/internal/params"
	"github.com/annel0/skirmish/internal/registry"
	"github.com/annel0/skirmish/internal/vec"
	"github.com/annel0/skirmish/internal/world/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contentYAML = `
skills:
  - id: bolt
    ref: projectile.bolt
    params:
      lifetimeMs: 1000
  - id: dash
    ref: movement.dash
  - id: ring
    ref: projectile.ring
    params:
      count: 8
  - id: disabled
    ref: projectile.notImplemented
affixes:
  - id: hasty
    ref: fx.haste
    params:
      cooldownMs: 400
monsters:
  - id: archer
    brain: brain_ranged
    params:
      range: 320
      cooldownMs: 900
      telegraphMs: 300
      skill: bolt
      speed: 0
  - id: hasty_archer
    brain: brain_ranged
    affixes: [hasty]
    params:
      cooldownMs: 900
      telegraphMs: 300
      speed: 0
  - id: brute
    brain: brain_chaser
  - id: totem
    brain: brain_ring
    params:
      speed: 0
  - id: dud
    brain: brain_ranged
    params:
      skill: disabled
      speed: 0
  - id: statue
    brain: brain_unknown
`

type fxRecorder struct {
	refs []string
	args []params.Args
}

func (r *fxRecorder) Dispatch(ref string, _ effects.Context, args params.Args) {
	r.refs = append(r.refs, ref)
	r.args = append(r.args, args)
}

func (r *fxRecorder) count(ref string) int {
	n := 0
	for _, got := range r.refs {
		if got == ref {
			n++
		}
	}
	return n
}

type world struct {
	entities *entity.EntityManager
	content  *content.Store
	brains   *registry.Registry[*brain.Context]
	fx       *fxRecorder
	journal  *journal.Recorder
	metrics  *metrics.Game
	driver   *Driver
	spawner  *Spawner
	player   *entity.Entity
}

func newWorld(t *testing.T) *world {
	t.Helper()
	store, err := content.Load(fstest.MapFS{"content.yaml": {Data: []byte(contentYAML)}})
	require.NoError(t, err)

	w := &world{
		entities: entity.NewEntityManager(),
		content:  store,
		fx:       &fxRecorder{},
		journal:  journal.NewRecorder(0),
		metrics:  metrics.NewGame(prometheus.NewRegistry()),
	}

	powerReg := ability.NewRegistry()
	powers.Register(powerReg)
	exec := ability.NewExecutor(ability.Config{
		Skills:  store,
		Powers:  powerReg,
		World:   w.entities,
		Effects: w.fx,
		Metrics: w.metrics,
		Journal: w.journal,
	})

	brains := brain.NewRegistry()
	brain.Register(brains)
	w.brains = brains

	w.driver = NewDriver(Config{
		World:       w.entities,
		Monsters:    store,
		Brains:      brains,
		Abilities:   exec,
		Effects:     w.fx,
		FrameStepMs: 16,
		Metrics:     w.metrics,
		Journal:     w.journal,
	})
	w.spawner = NewSpawner(w.entities, store, w.fx, w.journal)
	w.player = w.spawner.SpawnPlayer(vec.Vec2{X: 300}, 0)
	return w
}

func (w *world) spawn(t *testing.T, id string, pos vec.Vec2) *entity.Entity {
	t.Helper()
	e, err := w.spawner.SpawnMonster(id, pos, 0)
	require.NoError(t, err)
	return e
}

func TestDriver_RangedScenarioEndToEnd(t *testing.T) {
	w := newWorld(t)
	archer := w.spawn(t, "archer", vec.Vec2{})

	w.driver.Tick(context.Background(), 0)
	assert.Equal(t, 1, w.fx.count(effects.RefTelegraph))

	w.driver.Tick(context.Background(), 299)
	assert.Empty(t, w.entities.ActiveOfType(entity.EntityTypeProjectile))

	report := w.driver.Tick(context.Background(), 300)
	assert.Empty(t, report.Faults)
	projectiles := w.entities.ActiveOfType(entity.EntityTypeProjectile)
	require.Len(t, projectiles, 1)
	assert.Equal(t, archer.ID, projectiles[0].OwnerID)

	cooldown, err := archer.Store.Timestamp(brain.KeyCooldownUntil)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), cooldown)
	assert.Len(t, w.journal.Filter(journal.KindFire), 1)
}

func TestDriver_IsolatesFaults(t *testing.T) {
	w := newWorld(t)
	w.brains.Register("brain_panics", func(*brain.Context, params.Args) error { panic("corrupted state") })
	w.brains.Register("brain_fails", func(*brain.Context, params.Args) error { return errors.New("bad transition") })

	panicky := w.spawn(t, "archer", vec.Vec2{})
	panicky.BrainRef = "brain_panics"
	failing := w.spawn(t, "archer", vec.Vec2{})
	failing.BrainRef = "brain_fails"
	healthy := w.spawn(t, "archer", vec.Vec2{})

	report := w.driver.Tick(context.Background(), 0)

	require.Len(t, report.Faults, 2)
	assert.Equal(t, panicky.ID, report.Faults[0].EntityID)
	assert.ErrorIs(t, report.Faults[0], ErrBrainPanic)
	assert.Equal(t, failing.ID, report.Faults[1].EntityID)
	assert.Equal(t, 3, report.Ticked)

	pending, err := healthy.Store.Timestamp(brain.KeyPendingFireAt)
	require.NoError(t, err)
	assert.Equal(t, int64(300), pending, "здоровая сущность продолжила цикл")
	assert.Len(t, w.journal.Filter(journal.KindFault), 2)

	// сбой не «залипает»: на следующем тике сущность снова вызывается
	w.brains.Register("brain_fails", func(*brain.Context, params.Args) error { return nil })
	report = w.driver.Tick(context.Background(), 16)
	assert.Len(t, report.Faults, 1)
}

func TestDriver_CorruptedStoreIsIsolated(t *testing.T) {
	w := newWorld(t)
	broken := w.spawn(t, "archer", vec.Vec2{})
	broken.Store.SetText(brain.KeyCooldownUntil, "soon")
	healthy := w.spawn(t, "archer", vec.Vec2{})

	report := w.driver.Tick(context.Background(), 0)
	require.Len(t, report.Faults, 1)
	assert.ErrorIs(t, report.Faults[0], entity.ErrNotTimestamp)

	pending, err := healthy.Store.Timestamp(brain.KeyPendingFireAt)
	require.NoError(t, err)
	assert.Equal(t, int64(300), pending)
}

func TestDriver_TicksInRegistrationOrder(t *testing.T) {
	w := newWorld(t)
	var order []uint64
	w.brains.Register("brain_trace", func(c *brain.Context, _ params.Args) error {
		order = append(order, c.Entity.ID)
		return nil
	})

	var want []uint64
	for i := 0; i < 5; i++ {
		e := w.spawn(t, "archer", vec.Vec2{X: float64(i)})
		e.BrainRef = "brain_trace"
		want = append(want, e.ID)
	}

	for tick := int64(0); tick < 3; tick++ {
		order = order[:0]
		w.driver.Tick(context.Background(), tick*16)
		assert.Equal(t, want, order)
	}
}

func TestDriver_NowNeverDecreases(t *testing.T) {
	w := newWorld(t)
	var seen []int64
	w.brains.Register("brain_clock", func(c *brain.Context, _ params.Args) error {
		seen = append(seen, c.Now)
		return nil
	})
	e := w.spawn(t, "archer", vec.Vec2{})
	e.BrainRef = "brain_clock"

	assert.Equal(t, int64(100), w.driver.Tick(context.Background(), 100).Now)
	assert.Equal(t, int64(100), w.driver.Tick(context.Background(), 50).Now)
	assert.Equal(t, []int64{100, 100}, seen)
}

func TestDriver_UnknownBrainRefIsSkipped(t *testing.T) {
	w := newWorld(t)
	statue := w.spawn(t, "statue", vec.Vec2{})
	before := statue.Store.Snapshot()

	for i := int64(0); i < 2; i++ {
		report := w.driver.Tick(context.Background(), i)
		assert.Empty(t, report.Faults)
		assert.Zero(t, report.Ticked)
	}
	assert.Equal(t, before, statue.Store.Snapshot())
}

func TestDriver_DisabledSkillFizzles(t *testing.T) {
	w := newWorld(t)
	w.spawn(t, "dud", vec.Vec2{})

	for now := int64(0); now <= 400; now += 100 {
		report := w.driver.Tick(context.Background(), now)
		assert.Empty(t, report.Faults)
	}
	assert.Empty(t, w.entities.ActiveOfType(entity.EntityTypeProjectile))
	assert.Len(t, w.journal.Filter(journal.KindFizzle), 1)
}

func TestDriver_RingMonster(t *testing.T) {
	w := newWorld(t)
	w.spawn(t, "totem", vec.Vec2{})

	for now := int64(0); now <= 1000; now += 8 {
		w.driver.Tick(context.Background(), now)
	}
	assert.Equal(t, 1, w.fx.count(effects.RefPreFire))
	assert.Len(t, w.entities.ActiveOfType(entity.EntityTypeProjectile), 8)
}

func TestProjectiles_ExpireAndOwnerDestroyed(t *testing.T) {
	w := newWorld(t)
	archer := w.spawn(t, "archer", vec.Vec2{})

	w.driver.Tick(context.Background(), 0)
	w.driver.Tick(context.Background(), 300)
	require.Len(t, w.entities.ActiveOfType(entity.EntityTypeProjectile), 1)

	// срок жизни 1000ms
	report := w.driver.Tick(context.Background(), 1299)
	assert.Zero(t, report.Expired)
	report = w.driver.Tick(context.Background(), 1300)
	assert.Equal(t, 1, report.Expired)
	assert.Empty(t, w.entities.ActiveOfType(entity.EntityTypeProjectile))

	// следующий выстрел, затем владелец уничтожен посреди полёта
	w.driver.Tick(context.Background(), 1500)
	w.driver.Tick(context.Background(), 1800)
	require.Len(t, w.entities.ActiveOfType(entity.EntityTypeProjectile), 1)

	w.entities.Despawn(archer.ID)
	report = w.driver.Tick(context.Background(), 1816)
	assert.Equal(t, 1, report.Expired)
	assert.Empty(t, w.entities.ActiveOfType(entity.EntityTypeProjectile))

	last := w.fx.args[len(w.fx.args)-1]
	assert.Equal(t, params.String(ReasonOwnerGone), last["reason"])
}

func TestProjectiles_CorruptTimer(t *testing.T) {
	w := newWorld(t)
	p := entity.NewEntity(0, entity.EntityTypeProjectile, vec.Vec2{})
	p.Store.SetFlag(ability.KeyExpiresAt, true)
	w.entities.Add(p)

	removed, err := NewProjectileSystem(w.entities, nil, nil).Update(0)
	assert.Equal(t, 1, removed)
	assert.ErrorIs(t, err, entity.ErrNotTimestamp)
}

func TestSpawner_AffixParamsBecomeStoredOverrides(t *testing.T) {
	w := newWorld(t)
	hasty := w.spawn(t, "hasty_archer", vec.Vec2{})

	assert.Equal(t, "brain_ranged", hasty.BrainRef)
	assert.Equal(t, params.Number(400), hasty.Store.Get("cooldownMs"))
	assert.Equal(t, 1, w.fx.count("fx.haste"))
	assert.Equal(t, 1, w.fx.count(effects.RefSpawn))

	w.driver.Tick(context.Background(), 0)
	w.driver.Tick(context.Background(), 300)
	cooldown, err := hasty.Store.Timestamp(brain.KeyCooldownUntil)
	require.NoError(t, err)
	assert.Equal(t, int64(700), cooldown, "cooldownMs из аффикса важнее записи монстра")
}

func TestSpawner_UnknownMonster(t *testing.T) {
	w := newWorld(t)
	_, err := w.spawner.SpawnMonster("dragon", vec.Vec2{}, 0)
	assert.ErrorIs(t, err, ErrUnknownMonster)
}

func TestChaser_DashesThroughExecutor(t *testing.T) {
	w := newWorld(t)
	brute := w.spawn(t, "brute", vec.Vec2{X: 200})

	w.driver.Tick(context.Background(), 2001)
	assert.InDelta(t, 420.0, brute.Velocity.Length(), 1e-9)
	assert.Equal(t, 1, w.fx.count(effects.RefDashTrail))

	w.driver.Tick(context.Background(), 2100)
	assert.InDelta(t, 420.0, brute.Velocity.Length(), 1e-9, "рывок ещё идёт")

	w.driver.Tick(context.Background(), 2181)
	assert.InDelta(t, 80.0, brute.Velocity.Length(), 1e-9)
}

func runSession(t *testing.T) uint64 {
	w := newWorld(t)
	w.spawn(t, "archer", vec.Vec2{})
	w.spawn(t, "totem", vec.Vec2{Y: 50})
	w.spawn(t, "brute", vec.Vec2{X: 150})
	w.spawn(t, "dud", vec.Vec2{Y: -10})

	for now := int64(0); now < 6000; now += 16 {
		w.entities.Step(0.016)
		w.driver.Tick(context.Background(), now)
	}
	require.NotZero(t, w.journal.Len())
	return w.journal.Digest()
}

func TestDeterministicReplay(t *testing.T) {
	assert.Equal(t, runSession(t), runSession(t))
}

func TestLoop_FrameClampsDelta(t *testing.T) {
	w := newWorld(t)
	clock := &ManualClock{}
	loop := NewLoop(w.driver, w.entities, clock, LoopConfig{Step: time.Millisecond, MaxFrame: 250 * time.Millisecond}, nil, w.metrics)

	e := w.entities.Spawn(entity.EntityTypeProjectile, vec.Vec2{})
	e.Velocity = vec.Vec2{X: 100}

	clock.Advance(1000)
	report := loop.Frame(context.Background())
	assert.Equal(t, int64(1000), report.Now)
	assert.InDelta(t, 25.0, e.Position.X, 1e-9)
	assert.Equal(t, uint64(1), loop.Frames())
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	w := newWorld(t)
	loop := NewLoop(w.driver, w.entities, nil, LoopConfig{Step: time.Millisecond}, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := loop.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Positive(t, loop.Frames())
}
