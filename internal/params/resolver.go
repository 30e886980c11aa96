package params

import (
	"math"
	"sort"
)

// Source - источник значений параметров (аргументы вызова, хранилище сущности,
// запись конфигурации).
type Source interface {
	Lookup(key string) (Value, bool)
}

// Args - набор параметров вызова с явными переопределениями.
type Args map[string]Value

// Lookup реализует Source. Безопасен для nil.
func (a Args) Lookup(key string) (Value, bool) {
	v, ok := a[key]
	if !ok || !v.IsSet() {
		return Value{}, false
	}
	return v, true
}

// Keys возвращает отсортированный список ключей
func (a Args) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With возвращает копию набора с добавленным значением
func (a Args) With(key string, v Value) Args {
	out := make(Args, len(a)+1)
	for k, val := range a {
		out[k] = val
	}
	out[key] = v
	return out
}

// Resolver разрешает значение параметра по уровням приоритета:
//
//  1. явное переопределение в месте вызова;
//  2. переопределение, сохранённое в хранилище сущности;
//  3. значение по умолчанию из конфигурации навыка/монстра;
//  4. жёстко заданное значение fallback, которое передаёт вызывающий.
//
// Приоритет применяется к каждому имени параметра независимо.
// Значение неподходящего типа пропускается, и поиск продолжается на
// следующем уровне - некорректный параметр никогда не приводит к ошибке.
type Resolver struct {
	tiers []Source
}

// NewResolver создаёт Resolver. Любой из источников может быть nil.
func NewResolver(call, stored, config Source) Resolver {
	tiers := make([]Source, 0, 3)
	for _, s := range []Source{call, stored, config} {
		if s != nil {
			tiers = append(tiers, s)
		}
	}
	return Resolver{tiers: tiers}
}

// Lookup возвращает первое заданное значение по уровням приоритета
func (r Resolver) Lookup(name string) (Value, bool) {
	for _, tier := range r.tiers {
		if v, ok := tier.Lookup(name); ok {
			return v, true
		}
	}
	return Value{}, false
}

// Float возвращает числовой параметр
func (r Resolver) Float(name string, fallback float64) float64 {
	for _, tier := range r.tiers {
		if v, ok := tier.Lookup(name); ok {
			if n, ok := v.Number(); ok {
				return n
			}
		}
	}
	return fallback
}

// Millis возвращает длительность в миллисекундах. Отрицательные значения
// считаются некорректными и пропускаются.
func (r Resolver) Millis(name string, fallback int64) int64 {
	for _, tier := range r.tiers {
		if v, ok := tier.Lookup(name); ok {
			if n, ok := v.Number(); ok && n >= 0 && FitsInt64(n) {
				return int64(n)
			}
		}
	}
	return fallback
}

// Int возвращает целочисленный параметр
func (r Resolver) Int(name string, fallback int) int {
	for _, tier := range r.tiers {
		if v, ok := tier.Lookup(name); ok {
			if n, ok := v.Number(); ok && n >= math.MinInt && n < math.MaxInt {
				return int(n)
			}
		}
	}
	return fallback
}

// String возвращает строковый параметр
func (r Resolver) String(name string, fallback string) string {
	for _, tier := range r.tiers {
		if v, ok := tier.Lookup(name); ok {
			if s, ok := v.Text(); ok {
				return s
			}
		}
	}
	return fallback
}

// Bool возвращает логический параметр
func (r Resolver) Bool(name string, fallback bool) bool {
	for _, tier := range r.tiers {
		if v, ok := tier.Lookup(name); ok {
			if b, ok := v.Flag(); ok {
				return b
			}
		}
	}
	return fallback
}

// FitsInt64 сообщает, представимо ли n как int64 без переполнения.
func FitsInt64(n float64) bool {
	return n >= math.MinInt64 && n < math.MaxInt64
}
