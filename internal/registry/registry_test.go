package registry

import (
	"errors"
	"testing"

	"github.com/annel0/skirmish/internal/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	calls int
	last  params.Args
}

func TestRegistry_DispatchRegistered(t *testing.T) {
	reg := New[*counter]("brain")
	reg.Register("brain_chaser", func(c *counter, args params.Args) error {
		c.calls++
		c.last = args
		return nil
	})

	c := &counter{}
	args := params.Args{"speed": params.Number(120)}
	require.NoError(t, reg.Dispatch("brain_chaser", c, args))

	assert.Equal(t, 1, c.calls)
	assert.Equal(t, args, c.last)
	assert.True(t, reg.Has("brain_chaser"))
	assert.Equal(t, "brain", reg.Kind())
}

func TestRegistry_UnknownRefIsNoop(t *testing.T) {
	reg := New[*counter]("power")
	c := &counter{}

	for i := 0; i < 2; i++ {
		err := reg.Dispatch("movement.missing", c, nil)
		assert.NoError(t, err)
	}

	assert.Equal(t, 0, c.calls)
	assert.False(t, reg.Has("movement.missing"))
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_PropagatesHandlerError(t *testing.T) {
	boom := errors.New("boom")
	reg := New[*counter]("power")
	reg.Register("area.slam", func(*counter, params.Args) error { return boom })

	err := reg.Dispatch("area.slam", &counter{}, nil)
	assert.ErrorIs(t, err, boom)
}

func TestRegistry_ReRegisterOverwrites(t *testing.T) {
	reg := New[*counter]("effect")
	reg.Register("fx.spawn", func(c *counter, _ params.Args) error { c.calls += 1; return nil })
	reg.Register("fx.spawn", func(c *counter, _ params.Args) error { c.calls += 10; return nil })

	c := &counter{}
	require.NoError(t, reg.Dispatch("fx.spawn", c, nil))

	assert.Equal(t, 10, c.calls)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_NilHandlerIgnored(t *testing.T) {
	reg := New[*counter]("effect")
	reg.Register("fx.none", nil)
	assert.False(t, reg.Has("fx.none"))
}

func TestRegistry_SeparateNamespaces(t *testing.T) {
	brains := New[*counter]("brain")
	powers := New[*counter]("power")
	brains.Register("shared", func(c *counter, _ params.Args) error { c.calls++; return nil })

	c := &counter{}
	require.NoError(t, powers.Dispatch("shared", c, nil))
	assert.Equal(t, 0, c.calls)
}

func TestRegistry_RefsSorted(t *testing.T) {
	reg := New[*counter]("power")
	noop := func(*counter, params.Args) error { return nil }
	reg.Register("projectile.ring", noop)
	reg.Register("area.slam", noop)
	reg.Register("movement.dash", noop)

	assert.Equal(t, []string{"area.slam", "movement.dash", "projectile.ring"}, reg.Refs())
}
