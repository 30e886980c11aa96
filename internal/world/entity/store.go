package entity

import (
	"errors"
	"fmt"
	"sort"

	"github.com/annel0/skirmish/internal/params"
)

var (
	// ErrTimestampRegress - попытка перенести запланированный момент в прошлое
	ErrTimestampRegress = errors.New("timestamp regress")
	// ErrNotTimestamp - ключ таймера содержит не число или отрицательное значение
	ErrNotTimestamp = errors.New("value is not a timestamp")
)

// Store - хранилище сущности: ключ -> значение (число, строка, флаг).
// Каждое поведение само определяет свои ключи. Хранилище принадлежит одной
// сущности и изменяется только её поведением и её способностями.
//
// Временные метки хранятся в миллисекундах; 0 означает «не задано».
type Store struct {
	values map[string]params.Value
}

// NewStore создаёт пустое хранилище
func NewStore() *Store {
	return &Store{values: make(map[string]params.Value)}
}

// Lookup реализует params.Source. Безопасен для nil.
func (s *Store) Lookup(key string) (params.Value, bool) {
	if s == nil {
		return params.Value{}, false
	}
	v, ok := s.values[key]
	if !ok || !v.IsSet() {
		return params.Value{}, false
	}
	return v, true
}

// Get возвращает значение ключа (нулевое Value, если ключа нет)
func (s *Store) Get(key string) params.Value {
	v, _ := s.Lookup(key)
	return v
}

// Set записывает значение
func (s *Store) Set(key string, v params.Value) {
	s.values[key] = v
}

// SetNumber записывает число
func (s *Store) SetNumber(key string, v float64) {
	s.values[key] = params.Number(v)
}

// SetFlag записывает флаг
func (s *Store) SetFlag(key string, v bool) {
	s.values[key] = params.Bool(v)
}

// SetText записывает строку
func (s *Store) SetText(key string, v string) {
	s.values[key] = params.String(v)
}

// Number возвращает число или 0
func (s *Store) Number(key string) float64 {
	n, _ := s.Get(key).Number()
	return n
}

// Flag возвращает флаг или false
func (s *Store) Flag(key string) bool {
	b, _ := s.Get(key).Flag()
	return b
}

// Text возвращает строку или ""
func (s *Store) Text(key string) string {
	str, _ := s.Get(key).Text()
	return str
}

// Timestamp читает временную метку. Отсутствующий ключ - 0.
// Нечисловое, отрицательное или не помещающееся в int64 значение
// означает повреждённые данные.
func (s *Store) Timestamp(key string) (int64, error) {
	v, ok := s.Lookup(key)
	if !ok {
		return 0, nil
	}
	n, ok := v.Number()
	if !ok || n < 0 || !params.FitsInt64(n) {
		return 0, fmt.Errorf("%s=%#v: %w", key, v, ErrNotTimestamp)
	}
	return int64(n), nil
}

// Schedule устанавливает временную метку at. Уже заданная метка может только
// сдвигаться вперёд; для сброса используется Clear.
func (s *Store) Schedule(key string, at int64) error {
	current, err := s.Timestamp(key)
	if err != nil {
		return err
	}
	if at < 0 || (current > 0 && at < current) {
		return fmt.Errorf("%s: %d -> %d: %w", key, current, at, ErrTimestampRegress)
	}
	s.values[key] = params.Millis(at)
	return nil
}

// Clear сбрасывает временную метку в 0
func (s *Store) Clear(key string) {
	s.values[key] = params.Millis(0)
}

// Delete удаляет ключ
func (s *Store) Delete(key string) {
	delete(s.values, key)
}

// Keys возвращает отсортированный список ключей
func (s *Store) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len возвращает количество ключей
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Snapshot возвращает копию содержимого для логов и отладки
func (s *Store) Snapshot() map[string]interface{} {
	out := make(map[string]interface{}, s.Len())
	for _, k := range s.Keys() {
		out[k] = s.values[k].Any()
	}
	return out
}
