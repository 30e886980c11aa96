package content

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrMissingID - запись без id
	ErrMissingID = errors.New("record has no id")
	// ErrDuplicateID - повторяющийся id внутри одного вида записей
	ErrDuplicateID = errors.New("duplicate record id")
	// ErrUnknownAffix - монстр ссылается на несуществующий аффикс
	ErrUnknownAffix = errors.New("unknown affix")
)

// Store - неизменяемый справочник записей контента по id.
// Возвращаемые записи нельзя изменять: они разделяются между всеми вызовами.
type Store struct {
	skills   map[string]Skill
	monsters map[string]Monster
	affixes  map[string]Affix
}

// NewStore собирает Store из готовых записей и проверяет их
func NewStore(skills []Skill, monsters []Monster, affixes []Affix) (*Store, error) {
	s := &Store{
		skills:   make(map[string]Skill, len(skills)),
		monsters: make(map[string]Monster, len(monsters)),
		affixes:  make(map[string]Affix, len(affixes)),
	}

	for _, sk := range skills {
		if err := checkID("skill", sk.ID, s.hasSkill); err != nil {
			return nil, err
		}
		s.skills[sk.ID] = sk
	}
	for _, af := range affixes {
		if err := checkID("affix", af.ID, s.hasAffix); err != nil {
			return nil, err
		}
		s.affixes[af.ID] = af
	}
	for _, m := range monsters {
		if err := checkID("monster", m.ID, s.hasMonster); err != nil {
			return nil, err
		}
		for _, affixID := range m.Affixes {
			if !s.hasAffix(affixID) {
				return nil, fmt.Errorf("monster %q: %q: %w", m.ID, affixID, ErrUnknownAffix)
			}
		}
		s.monsters[m.ID] = m
	}

	return s, nil
}

func checkID(kind, id string, exists func(string) bool) error {
	if id == "" {
		return fmt.Errorf("%s: %w", kind, ErrMissingID)
	}
	if exists(id) {
		return fmt.Errorf("%s %q: %w", kind, id, ErrDuplicateID)
	}
	return nil
}

func (s *Store) hasSkill(id string) bool   { _, ok := s.skills[id]; return ok }
func (s *Store) hasMonster(id string) bool { _, ok := s.monsters[id]; return ok }
func (s *Store) hasAffix(id string) bool   { _, ok := s.affixes[id]; return ok }

// Skill возвращает запись навыка
func (s *Store) Skill(id string) (Skill, bool) {
	sk, ok := s.skills[id]
	return sk, ok
}

// Monster возвращает запись монстра
func (s *Store) Monster(id string) (Monster, bool) {
	m, ok := s.monsters[id]
	return m, ok
}

// Affix возвращает запись аффикса
func (s *Store) Affix(id string) (Affix, bool) {
	af, ok := s.affixes[id]
	return af, ok
}

// SkillIDs возвращает отсортированный список id навыков
func (s *Store) SkillIDs() []string { return sortedKeys(s.skills) }

// MonsterIDs возвращает отсортированный список id монстров
func (s *Store) MonsterIDs() []string { return sortedKeys(s.monsters) }

// AffixIDs возвращает отсортированный список id аффиксов
func (s *Store) AffixIDs() []string { return sortedKeys(s.affixes) }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
