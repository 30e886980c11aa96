package sim

import (
	"errors"
	"fmt"

	"github.com/annel0/skirmish/internal/ability"
	"github.com/annel0/skirmish/internal/content"
	"github.com/annel0/skirmish/internal/effects"
	"github.com/annel0/skirmish/internal/journal"
	"github.com/annel0/skirmish/internal/params"
	"github.com/annel0/skirmish/internal/vec"
	"github.com/annel0/skirmish/internal/world/entity"
)

// ErrUnknownMonster - в контенте нет монстра с таким id
var ErrUnknownMonster = errors.New("unknown monster")

// Spawner создаёт сущности из записей контента
type Spawner struct {
	world   *entity.EntityManager
	content *content.Store
	effects ability.Effects
	journal *journal.Recorder
}

// NewSpawner создаёт Spawner. fx и rec могут быть nil.
func NewSpawner(world *entity.EntityManager, store *content.Store, fx ability.Effects, rec *journal.Recorder) *Spawner {
	return &Spawner{world: world, content: store, effects: fx, journal: rec}
}

// SpawnMonster создаёт монстра по id записи.
//
// Параметры аффиксов записываются в хранилище сущности и становятся
// переопределениями уровня «сущность»: они важнее параметров записи
// монстра и навыков, но уступают аргументам вызова. Аффиксы применяются
// в порядке записи, более поздний перезаписывает более ранний.
func (s *Spawner) SpawnMonster(monsterID string, pos vec.Vec2, now int64) (*entity.Entity, error) {
	rec, ok := s.content.Monster(monsterID)
	if !ok {
		return nil, fmt.Errorf("%q: %w", monsterID, ErrUnknownMonster)
	}

	e := entity.NewEntity(0, entity.EntityTypeMonster, pos)
	e.MonsterID = rec.ID
	e.BrainRef = rec.Brain

	var affixRefs []string
	for _, affixID := range rec.Affixes {
		affix, ok := s.content.Affix(affixID)
		if !ok {
			continue
		}
		for _, key := range affix.Params.Keys() {
			e.Store.Set(key, affix.Params[key])
		}
		if affix.Ref != "" {
			affixRefs = append(affixRefs, affix.Ref)
		}
	}

	s.world.Add(e)
	s.journal.Record(now, journal.KindSpawn, e.ID, rec.ID, rec.Brain)

	s.effect(effects.RefSpawn, e, now, params.Args{"monster": params.String(rec.ID)})
	for _, ref := range affixRefs {
		s.effect(ref, e, now, nil)
	}
	return e, nil
}

// SpawnPlayer создаёт игрока
func (s *Spawner) SpawnPlayer(pos vec.Vec2, now int64) *entity.Entity {
	e := s.world.Spawn(entity.EntityTypePlayer, pos)
	s.journal.Record(now, journal.KindSpawn, e.ID, "player", "")
	return e
}

func (s *Spawner) effect(ref string, e *entity.Entity, now int64, args params.Args) {
	if s.effects == nil {
		return
	}
	s.effects.Dispatch(ref, effects.Context{Now: now, EntityID: e.ID, Position: e.Position}, args)
}
