package brain

import "github.com/annel0/skirmish/internal/params"

// RefChaser - ближний бой с рывком
const RefChaser = "brain_chaser"

// ChaserOptions - параметры brain_chaser
type ChaserOptions struct {
	Speed          float64
	ApproachSpeed  float64
	SightRange     float64
	DashRange      float64 // доля SightRange, ближе которой начинается рывок
	DashCooldownMs int64
	DashSkill      string
}

// ResolveChaser разрешает параметры brain_chaser
func ResolveChaser(r params.Resolver) ChaserOptions {
	return ChaserOptions{
		Speed:          r.Float("speed", 80),
		ApproachSpeed:  r.Float("approachSpeed", 0),
		SightRange:     r.Float("sightRange", 300),
		DashRange:      r.Float("dashRange", 0.5),
		DashCooldownMs: r.Millis("dashCooldownMs", 2000),
		DashSkill:      r.String("dashSkill", "dash"),
	}
}

// Chaser преследует игрока и делает рывок, когда тот достаточно близко
func Chaser(c *Context, args params.Args) error {
	opts := ResolveChaser(c.Params(args))

	dist, err := Chase(c, opts.Speed, opts.ApproachSpeed)
	if err != nil || c.Player == nil || dist > opts.SightRange {
		return err
	}

	store := c.Entity.Store
	last, err := store.Timestamp(KeyLastDashAt)
	if err != nil {
		return err
	}
	if dist >= opts.DashRange*opts.SightRange || c.Now-last <= opts.DashCooldownMs {
		return nil
	}

	if err := store.Schedule(KeyLastDashAt, c.Now); err != nil {
		return err
	}
	return c.invoke(opts.DashSkill)
}
