package brain

import (
	"math"

	"github.com/annel0/skirmish/internal/ability"
	"github.com/annel0/skirmish/internal/vec"
)

// ChaseEpsilon - на таком расстоянии до цели движение подавляется
const ChaseEpsilon = 2.0

// Chase направляет сущность к игроку со скоростью speed, ограниченной
// approachSpeed (если он > 0). Пока активен рывок, скорость не меняется.
// Возвращает расстояние до игрока; без игрока сущность останавливается.
func Chase(c *Context, speed, approachSpeed float64) (float64, error) {
	e := c.Entity
	if c.Player == nil || c.Player.Destroyed() {
		e.SetVelocity(vec.Vec2{})
		return math.Inf(1), nil
	}

	delta := c.Player.Position.Sub(e.Position)
	dist := delta.Length()

	dashUntil, err := e.Store.Timestamp(ability.KeyDashUntil)
	if err != nil {
		return dist, err
	}
	if dashUntil > c.Now {
		return dist, nil
	}

	if dist <= ChaseEpsilon {
		e.SetVelocity(vec.Vec2{})
		return dist, nil
	}

	if approachSpeed > 0 && approachSpeed < speed {
		speed = approachSpeed
	}
	if speed < 0 {
		speed = 0
	}
	e.SetVelocity(delta.Normalized().Mul(speed))
	return dist, nil
}
