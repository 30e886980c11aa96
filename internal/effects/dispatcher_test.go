package effects

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/annel0/skirmish/internal/eventbus"
	"github.com/annel0/skirmish/internal/metrics"
	"github.com/annel0/skirmish/internal/params"
	"github.com/annel0/skirmish/internal/vec"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_UnknownRefIsNoop(t *testing.T) {
	d := NewDispatcher(nil, nil)
	assert.NotPanics(t, func() {
		d.Dispatch("fx.nothing", Context{}, nil)
		d.Dispatch("fx.nothing", Context{}, nil)
		d.Dispatch("", Context{}, nil)
	})

	var nilDispatcher *Dispatcher
	assert.NotPanics(t, func() { nilDispatcher.Dispatch(RefSpawn, Context{}, nil) })
}

func TestDispatch_SwallowsErrorsAndPanics(t *testing.T) {
	d := NewDispatcher(nil, metrics.NewGame(prometheus.NewRegistry()))
	d.Register("fx.fail", func(Context, params.Args) error { return errors.New("boom") })
	d.Register("fx.panic", func(Context, params.Args) error { panic("boom") })

	assert.NotPanics(t, func() {
		d.Dispatch("fx.fail", Context{}, nil)
		d.Dispatch("fx.panic", Context{}, nil)
	})
}

func TestDispatch_PassesContextAndArgs(t *testing.T) {
	d := NewDispatcher(nil, nil)
	var got Context
	var gotArgs params.Args
	d.Register(RefDamageNumber, func(ctx Context, args params.Args) error {
		got, gotArgs = ctx, args
		return nil
	})

	ctx := Context{Now: 120, EntityID: 7, Position: vec.Vec2{X: 1, Y: 2}}
	d.Dispatch(RefDamageNumber, ctx, params.Args{"amount": params.Number(8)})

	assert.Equal(t, ctx, got)
	assert.Equal(t, params.Number(8), gotArgs["amount"])
}

func TestRegisterDefaults_PublishesToBus(t *testing.T) {
	bus := eventbus.NewMemoryBus(16)
	var (
		mu     sync.Mutex
		events []*eventbus.Envelope
	)
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{}, func(_ context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	require.NoError(t, err)

	d := NewDispatcher(nil, nil)
	RegisterDefaults(d, bus)
	assert.Equal(t, len(DefaultRefs), d.Registry().Len())

	d.Dispatch(RefTelegraph, Context{Now: 300, EntityID: 3, Position: vec.Vec2{X: 10, Y: 20}},
		params.Args{"durationMs": params.Millis(300)})
	require.NoError(t, bus.Close())

	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, RefTelegraph, ev.EventType)
	assert.Equal(t, EventSource, ev.Source)
	assert.Equal(t, int64(300), ev.SimTimeMs)

	var payload Payload
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, uint64(3), payload.EntityID)
	assert.Equal(t, 10.0, payload.X)
	assert.Equal(t, 300.0, payload.Params["durationMs"])
}
