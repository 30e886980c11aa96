// Package registry связывает строковые ref с обработчиками.
//
// Для каждого вида поведения (brain, power, effect) создаётся отдельный
// экземпляр Registry, поэтому одинаковые ref разных видов не конфликтуют.
package registry

import (
	"sort"
	"sync"

	"github.com/annel0/skirmish/internal/params"
)

// Handler - исполняемое поведение, зарегистрированное под ref
type Handler[C any] func(ctx C, args params.Args) error

// Registry хранит обработчики одного вида
type Registry[C any] struct {
	kind     string
	mu       sync.RWMutex
	handlers map[string]Handler[C]
}

// New создаёт пустой реестр для указанного вида поведения
func New[C any](kind string) *Registry[C] {
	return &Registry[C]{
		kind:     kind,
		handlers: make(map[string]Handler[C]),
	}
}

// Kind возвращает вид поведения реестра
func (r *Registry[C]) Kind() string {
	return r.kind
}

// Register добавляет обработчик. Повторная регистрация ref перезаписывает
// предыдущий обработчик. nil-обработчик игнорируется.
func (r *Registry[C]) Register(ref string, handler Handler[C]) {
	if handler == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[ref] = handler
}

// Has проверяет, зарегистрирован ли ref
func (r *Registry[C]) Has(ref string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[ref]
	return ok
}

// Lookup возвращает обработчик по ref
func (r *Registry[C]) Lookup(ref string) (Handler[C], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[ref]
	return h, ok
}

// Dispatch вызывает обработчик ref и возвращает его ошибку без изменений.
// Незарегистрированный ref - не ошибка: ничего не происходит, возвращается nil.
func (r *Registry[C]) Dispatch(ref string, ctx C, args params.Args) error {
	handler, ok := r.Lookup(ref)
	if !ok {
		return nil
	}
	return handler(ctx, args)
}

// Refs возвращает отсортированный список зарегистрированных ref
func (r *Registry[C]) Refs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	refs := make([]string, 0, len(r.handlers))
	for ref := range r.handlers {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// Len возвращает количество зарегистрированных обработчиков
func (r *Registry[C]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
