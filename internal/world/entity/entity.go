package entity

import (
	"github.com/annel0/skirmish/internal/vec"
)

// EntityType представляет тип сущности
type EntityType uint16

const (
	EntityTypePlayer EntityType = iota
	EntityTypeMonster
	EntityTypeProjectile
)

// String возвращает имя типа сущности
func (t EntityType) String() string {
	switch t {
	case EntityTypePlayer:
		return "player"
	case EntityTypeMonster:
		return "monster"
	case EntityTypeProjectile:
		return "projectile"
	default:
		return "unknown"
	}
}

// Стандартные размеры и здоровье
const (
	DefaultRadius = 12.0
	DefaultHealth = 100.0
)

// Entity представляет базовую сущность в мире
type Entity struct {
	ID        uint64     // Уникальный идентификатор сущности
	Type      EntityType // Тип сущности
	MonsterID string     // ID записи монстра в контенте (только для монстров)
	BrainRef  string     // ref поведения; пустой - сущность не управляется ИИ
	Position  vec.Vec2   // Текущая позиция в мире
	Velocity  vec.Vec2   // Текущая скорость (единиц в секунду)
	Radius    float64    // Радиус хитбокса
	Health    float64    // Текущее здоровье
	Damage    float64    // Урон снаряда
	OwnerID   uint64     // Владелец снаряда (0 - нет владельца)
	Store     *Store     // Таймеры и переопределения, принадлежащие сущности
	Active    bool       // Активна ли сущность

	destroyed bool
}

// NewEntity создаёт новую сущность
func NewEntity(id uint64, entityType EntityType, position vec.Vec2) *Entity {
	return &Entity{
		ID:       id,
		Type:     entityType,
		Position: position,
		Radius:   DefaultRadius,
		Health:   DefaultHealth,
		Store:    NewStore(),
		Active:   true,
	}
}

// Destroyed сообщает, была ли сущность удалена из мира.
// Отложенные действия (таймеры снарядов) проверяют владельца через этот метод.
func (e *Entity) Destroyed() bool {
	return e == nil || e.destroyed
}

// SetVelocity устанавливает скорость сущности
func (e *Entity) SetVelocity(v vec.Vec2) {
	e.Velocity = v
}

// ApplyDamage уменьшает здоровье. Возвращает true, если сущность погибла.
func (e *Entity) ApplyDamage(amount float64) bool {
	if amount <= 0 || e.Health <= 0 {
		return e.Health <= 0
	}
	e.Health -= amount
	if e.Health < 0 {
		e.Health = 0
	}
	return e.Health == 0
}

// DistanceTo возвращает расстояние до другой сущности
func (e *Entity) DistanceTo(other *Entity) float64 {
	return e.Position.DistanceTo(other.Position)
}
