package entity

import (
	"fmt"
	"sync"

	"github.com/annel0/skirmish/internal/vec"
)

// EntityManager управляет всеми сущностями в мире.
//
// Порядок обхода стабилен: сущности возвращаются в том порядке, в котором
// они были добавлены. Одинаковая последовательность входных данных даёт
// одинаковый результат симуляции.
type EntityManager struct {
	entities     map[uint64]*Entity // Хранилище всех сущностей
	order        []uint64           // Порядок регистрации
	nextEntityID uint64             // Счетчик для генерации ID
	mu           sync.RWMutex       // Защищает чтение статистики из других горутин
}

// NewEntityManager создаёт новый менеджер сущностей
func NewEntityManager() *EntityManager {
	return &EntityManager{
		entities:     make(map[uint64]*Entity),
		nextEntityID: 1,
	}
}

// Spawn создаёт новую сущность и добавляет её в мир
func (em *EntityManager) Spawn(entityType EntityType, position vec.Vec2) *Entity {
	em.mu.Lock()
	defer em.mu.Unlock()

	entity := NewEntity(em.nextEntityID, entityType, position)
	em.nextEntityID++
	em.insertLocked(entity)
	return entity
}

// Add добавляет уже созданную сущность (например, снаряд способности).
// Нулевой ID заменяется новым. Если сущность с таким ID уже существует,
// она будет перезаписана без изменения порядка.
func (em *EntityManager) Add(entity *Entity) *Entity {
	if entity == nil {
		return nil
	}

	em.mu.Lock()
	defer em.mu.Unlock()

	if entity.ID == 0 {
		entity.ID = em.nextEntityID
	}
	if entity.ID >= em.nextEntityID {
		em.nextEntityID = entity.ID + 1
	}
	if entity.Store == nil {
		entity.Store = NewStore()
	}
	entity.destroyed = false
	em.insertLocked(entity)
	return entity
}

func (em *EntityManager) insertLocked(entity *Entity) {
	if _, exists := em.entities[entity.ID]; !exists {
		em.order = append(em.order, entity.ID)
	}
	em.entities[entity.ID] = entity
}

// Despawn удаляет сущность из мира и помечает её уничтоженной
func (em *EntityManager) Despawn(entityID uint64) bool {
	em.mu.Lock()
	defer em.mu.Unlock()

	entity, exists := em.entities[entityID]
	if !exists {
		return false
	}

	entity.destroyed = true
	entity.Active = false
	delete(em.entities, entityID)

	for i, id := range em.order {
		if id == entityID {
			em.order = append(em.order[:i], em.order[i+1:]...)
			break
		}
	}
	return true
}

// Get возвращает сущность по ID
func (em *EntityManager) Get(entityID uint64) (*Entity, bool) {
	em.mu.RLock()
	defer em.mu.RUnlock()

	entity, exists := em.entities[entityID]
	return entity, exists
}

// Active возвращает снимок активных сущностей в порядке регистрации.
// Сущности, добавленные во время обхода снимка, в него не попадают.
func (em *EntityManager) Active() []*Entity {
	em.mu.RLock()
	defer em.mu.RUnlock()

	result := make([]*Entity, 0, len(em.order))
	for _, id := range em.order {
		if entity := em.entities[id]; entity != nil && entity.Active {
			result = append(result, entity)
		}
	}
	return result
}

// ActiveOfType возвращает активные сущности указанного типа
func (em *EntityManager) ActiveOfType(entityType EntityType) []*Entity {
	all := em.Active()
	result := all[:0]
	for _, entity := range all {
		if entity.Type == entityType {
			result = append(result, entity)
		}
	}
	return result
}

// GetEntitiesInRange возвращает активные сущности в указанном радиусе
func (em *EntityManager) GetEntitiesInRange(center vec.Vec2, radius float64) []*Entity {
	all := em.Active()
	result := all[:0]
	for _, entity := range all {
		if center.DistanceTo(entity.Position) <= radius {
			result = append(result, entity)
		}
	}
	return result
}

// Step переносит активные сущности на velocity*dt.
// Коллизии не рассчитываются: это задача физики хоста.
func (em *EntityManager) Step(dt float64) {
	if dt <= 0 {
		return
	}
	for _, entity := range em.Active() {
		if entity.Velocity.IsZero() {
			continue
		}
		entity.Position = entity.Position.Add(entity.Velocity.Mul(dt))
	}
}

// Len возвращает общее количество сущностей
func (em *EntityManager) Len() int {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return len(em.entities)
}

// GetStats возвращает статистику по сущностям
func (em *EntityManager) GetStats() map[string]interface{} {
	em.mu.RLock()
	defer em.mu.RUnlock()

	stats := make(map[string]interface{})

	// Общее количество сущностей
	stats["total_entities"] = len(em.entities)

	// Активные сущности и статистика по типам
	activeCount := 0
	typeStats := make(map[string]int)
	for _, entity := range em.entities {
		if entity.Active {
			activeCount++
			typeStats[entity.Type.String()]++
		}
	}
	stats["active_entities"] = activeCount
	stats["entity_types"] = typeStats
	stats["next_id"] = fmt.Sprintf("%d", em.nextEntityID)

	return stats
}
